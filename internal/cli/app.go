package cli

import (
	"context"
	"fmt"

	"github.com/ppiankov/crosscheck/internal/cache"
	"github.com/ppiankov/crosscheck/internal/lookup"
	"github.com/ppiankov/crosscheck/internal/model"
	"github.com/ppiankov/crosscheck/internal/rules"
	"go.uber.org/zap"
)

// openLookup loads the configured reference table. It returns nil when no
// source is configured. Snapshots go through the layered cache when it is
// enabled.
func openLookup(ctx context.Context, cfg *model.Config) (*lookup.Table, error) {
	source := cfg.Lookup.Source
	if source == "" {
		return nil, nil
	}

	var snapshots cache.Cache = cache.Nop{}
	if cfg.Cache.Enabled {
		snapshots = cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
	}

	table, err := lookup.OpenCached(ctx, source, snapshots, cfg.Cache.DiskTTL)
	if err != nil {
		return nil, err
	}

	logger.Debug("lookup table loaded",
		zap.String("source", source),
		zap.Int("entries", table.Len()),
		zap.Strings("categories", table.Categories()),
	)
	return table, nil
}

// lookupService converts a possibly nil table to a service without leaving
// a typed nil in the interface
func lookupService(t *lookup.Table) lookup.Service {
	if t == nil {
		return nil
	}
	return t
}

// loadCatalog returns the default catalog with the rules file applied
func loadCatalog(path string) (*rules.Catalog, error) {
	catalog := rules.DefaultCatalog()
	if path == "" {
		return catalog, nil
	}

	overrides, err := rules.LoadOverrides(path)
	if err != nil {
		return nil, err
	}
	catalog, err = catalog.Apply(overrides)
	if err != nil {
		return nil, fmt.Errorf("apply %s: %w", path, err)
	}
	return catalog, nil
}

// parseKindFlag maps --kind to a record kind; auto leaves it to detection
func parseKindFlag(v string) (model.RecordKind, error) {
	switch v {
	case "", "auto":
		return "", nil
	case string(model.KindCase), string(model.KindClue):
		return model.RecordKind(v), nil
	default:
		return "", fmt.Errorf("invalid --kind %q (expected auto, case or clue)", v)
	}
}
