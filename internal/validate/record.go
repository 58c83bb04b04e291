package validate

import (
	"github.com/ppiankov/crosscheck/internal/model"
	"github.com/ppiankov/crosscheck/internal/normalize"
)

// BuildRecord normalizes one raw row. Every configured field gets an entry
// in Present; narrative cells are reduced to plain text.
func BuildRecord(index int, row []string, kind model.RecordKind, idx *HeaderIndex, cfg model.EngineConfig) *model.Record {
	rec := &model.Record{
		Index:   index,
		Kind:    kind,
		Values:  make(map[model.Field]string),
		Docs:    make(map[model.DocType]string),
		Present: make(map[model.Field]bool),
	}

	docs := make(map[model.Field]model.DocType)
	for _, d := range model.DocTypesFor(kind) {
		docs[d.Field()] = d
	}

	for field := range cfg.Columns {
		if _, ok := idx.Index(field); !ok {
			continue
		}
		rec.Present[field] = true

		raw := idx.Cell(row, field)
		if doc, ok := docs[field]; ok {
			rec.Docs[doc] = normalize.DocumentText(raw)
			continue
		}
		rec.Values[field] = normalize.Value(raw)
	}
	return rec
}
