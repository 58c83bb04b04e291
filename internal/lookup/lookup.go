// Package lookup provides the read-only authority/agency reference table
// consulted by the lookup rule. Tables are materialized from their source
// before a run so evaluation itself does no I/O.
package lookup

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ppiankov/crosscheck/internal/model"
	"github.com/ppiankov/crosscheck/internal/normalize"
)

// ErrUnknownSource is returned for a lookup source with an unsupported scheme
var ErrUnknownSource = errors.New("unknown lookup source")

// Service answers membership questions against the reference table
type Service interface {
	Exists(authority, agency, category string) bool
	List(category string) []model.AuthorityAgency
}

// Loader materializes the entries of one source
type Loader interface {
	Load(ctx context.Context) ([]model.AuthorityAgency, error)
}

type entryKey struct {
	authority string
	category  string
	agency    string
}

// Table is an immutable in-memory snapshot. Keys are compared with all
// whitespace removed.
type Table struct {
	index   map[entryKey]struct{}
	entries []model.AuthorityAgency
}

// NewTable builds a table, dropping incomplete and duplicate entries
func NewTable(entries []model.AuthorityAgency) *Table {
	t := &Table{index: make(map[entryKey]struct{}, len(entries))}

	for _, e := range entries {
		e = clean(e)
		if e.Authority == "" || e.Agency == "" {
			continue
		}
		k := entryKey{e.Authority, e.Category, e.Agency}
		if _, dup := t.index[k]; dup {
			continue
		}
		t.index[k] = struct{}{}
		t.entries = append(t.entries, e)
	}

	sort.Slice(t.entries, func(i, j int) bool {
		a, b := t.entries[i], t.entries[j]
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		if a.Authority != b.Authority {
			return a.Authority < b.Authority
		}
		return a.Agency < b.Agency
	})
	return t
}

func clean(e model.AuthorityAgency) model.AuthorityAgency {
	return model.AuthorityAgency{
		Authority: normalize.StripSpace(normalize.Value(e.Authority)),
		Category:  normalize.StripSpace(normalize.Value(e.Category)),
		Agency:    normalize.StripSpace(normalize.Value(e.Agency)),
	}
}

// Exists reports whether the pair is listed under category. An empty
// category matches any category.
func (t *Table) Exists(authority, agency, category string) bool {
	q := clean(model.AuthorityAgency{Authority: authority, Category: category, Agency: agency})
	if q.Category != "" {
		_, ok := t.index[entryKey{q.Authority, q.Category, q.Agency}]
		return ok
	}
	for _, e := range t.entries {
		if e.Authority == q.Authority && e.Agency == q.Agency {
			return true
		}
	}
	return false
}

// List returns the entries of a category, or all entries for ""
func (t *Table) List(category string) []model.AuthorityAgency {
	category = normalize.StripSpace(category)
	out := make([]model.AuthorityAgency, 0, len(t.entries))
	for _, e := range t.entries {
		if category == "" || e.Category == category {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of entries
func (t *Table) Len() int {
	return len(t.entries)
}

// Categories returns the distinct categories, sorted
func (t *Table) Categories() []string {
	var out []string
	for _, e := range t.entries {
		if len(out) == 0 || out[len(out)-1] != e.Category {
			out = append(out, e.Category)
		}
	}
	return out
}

// ParseSource splits a source string into scheme and target. A bare
// postgres:// or postgresql:// URL is accepted as a postgres source.
func ParseSource(source string) (scheme, target string, err error) {
	source = strings.TrimSpace(source)
	if strings.HasPrefix(source, "postgres://") || strings.HasPrefix(source, "postgresql://") {
		return "postgres", source, nil
	}

	scheme, target, ok := strings.Cut(source, ":")
	if !ok || target == "" {
		return "", "", fmt.Errorf("%w: %q", ErrUnknownSource, source)
	}
	switch scheme {
	case "csv", "yaml", "sqlite", "postgres":
		return scheme, target, nil
	}
	return "", "", fmt.Errorf("%w: %q", ErrUnknownSource, source)
}

// NewLoader returns the loader for a source string
func NewLoader(ctx context.Context, source string) (Loader, error) {
	scheme, target, err := ParseSource(source)
	if err != nil {
		return nil, err
	}

	switch scheme {
	case "csv":
		return CSVFile(target), nil
	case "yaml":
		return YAMLFile(target), nil
	case "sqlite":
		return OpenSQLite(target)
	default:
		return OpenPostgres(ctx, target)
	}
}

// Open loads a source into a table
func Open(ctx context.Context, source string) (*Table, error) {
	loader, err := NewLoader(ctx, source)
	if err != nil {
		return nil, err
	}
	if c, ok := loader.(interface{ Close() error }); ok {
		defer func() { _ = c.Close() }()
	}

	entries, err := loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load lookup table: %w", err)
	}
	return NewTable(entries), nil
}
