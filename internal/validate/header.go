package validate

import (
	"fmt"
	"strings"

	"github.com/ppiankov/crosscheck/internal/model"
	"github.com/ppiankov/crosscheck/internal/normalize"
)

// MissingColumnError reports required identity columns absent from the
// batch header. No row is evaluated when it is returned.
type MissingColumnError struct {
	Kind    model.RecordKind
	Fields  []model.Field
	Columns []string // Header texts, in Fields order
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("missing required columns for %s registry: %s", e.Kind, strings.Join(e.Columns, ", "))
}

// HeaderIndex maps logical fields to column positions
type HeaderIndex struct {
	cols map[model.Field]int
}

// NewHeaderIndex classifies header texts against the configured column
// names. Headers are compared after cell cleaning and whitespace removal;
// the first matching column wins.
func NewHeaderIndex(headers []string, columns map[model.Field]string) *HeaderIndex {
	byText := make(map[string]int, len(headers))
	for i, h := range headers {
		key := normalize.Header(h)
		if _, dup := byText[key]; !dup {
			byText[key] = i
		}
	}

	idx := &HeaderIndex{cols: make(map[model.Field]int)}
	for field, text := range columns {
		if i, ok := byText[normalize.Header(text)]; ok {
			idx.cols[field] = i
		}
	}
	return idx
}

// Index returns the column position of a field
func (h *HeaderIndex) Index(f model.Field) (int, bool) {
	i, ok := h.cols[f]
	return i, ok
}

// Cell returns the raw cell of a field in row ("" when the column or cell
// is missing)
func (h *HeaderIndex) Cell(row []string, f model.Field) string {
	i, ok := h.cols[f]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

// Missing returns the required fields of kind without a column
func (h *HeaderIndex) Missing(kind model.RecordKind) []model.Field {
	var missing []model.Field
	for _, f := range model.RequiredFields(kind) {
		if _, ok := h.cols[f]; !ok {
			missing = append(missing, f)
		}
	}
	return missing
}

// CheckHeaders returns a *MissingColumnError when required columns of kind
// are absent
func CheckHeaders(headers []string, kind model.RecordKind, cfg model.EngineConfig) error {
	missing := NewHeaderIndex(headers, cfg.Columns).Missing(kind)
	if len(missing) == 0 {
		return nil
	}
	return missingColumns(kind, missing, cfg)
}

func missingColumns(kind model.RecordKind, missing []model.Field, cfg model.EngineConfig) *MissingColumnError {
	err := &MissingColumnError{Kind: kind, Fields: missing}
	for _, f := range missing {
		err.Columns = append(err.Columns, cfg.Column(f))
	}
	return err
}

// DetectKind infers the registry kind from the header. A header carrying
// every required case column is a case registry, one carrying every clue
// column a clue registry. Otherwise the kind with more required columns
// present is reported as missing the rest.
func DetectKind(headers []string, cfg model.EngineConfig) (model.RecordKind, error) {
	idx := NewHeaderIndex(headers, cfg.Columns)

	caseMissing := idx.Missing(model.KindCase)
	if len(caseMissing) == 0 {
		return model.KindCase, nil
	}
	clueMissing := idx.Missing(model.KindClue)
	if len(clueMissing) == 0 {
		return model.KindClue, nil
	}

	casePresent := len(model.RequiredFields(model.KindCase)) - len(caseMissing)
	cluePresent := len(model.RequiredFields(model.KindClue)) - len(clueMissing)
	if cluePresent > casePresent {
		return "", missingColumns(model.KindClue, clueMissing, cfg)
	}
	return "", missingColumns(model.KindCase, caseMissing, cfg)
}
