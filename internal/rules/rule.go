// Package rules holds the declarative rule catalog and the comparators that
// interpret it. A rule names one subject spreadsheet field and one
// comparison source; the evaluator runs rules in declared order.
package rules

import (
	"github.com/ppiankov/crosscheck/internal/model"
)

// Comparator selects how a rule decides whether a row is consistent
type Comparator string

const (
	CompareExact         Comparator = "exact"          // Equality after normalization and aliases
	CompareDate          Comparator = "date"           // Canonical date equality
	CompareAge           Comparator = "age"            // age == current year - extracted birth year
	CompareKeywordSet    Comparator = "keyword_set"    // Spreadsheet keyword must appear in the document
	CompareBannedPhrase  Comparator = "banned_phrase"  // Document must contain none of the phrases
	ComparePartySanction Comparator = "party_sanction" // Party sanctions require party membership
	CompareDateOrder     Comparator = "date_order"     // Other field date <= subject field date
	CompareLookup        Comparator = "lookup"         // (authority, agency) must exist in the table
	CompareAdvisory      Comparator = "advisory"       // Trigger keyword asks for manual confirmation
	CompareDateFormat    Comparator = "date_format"    // Spreadsheet date must parse
	CompareNumberFormat  Comparator = "number_format"  // Spreadsheet number must parse
	CompareParagraph     Comparator = "paragraph"      // Whitespace-free text equality
)

// SourceType names what a rule compares its subject field against
type SourceType string

const (
	SourceDocument SourceType = "document"
	SourceField    SourceType = "field"
	SourceKeywords SourceType = "keywords"
	SourceLookup   SourceType = "lookup"
	SourceNone     SourceType = "none"
)

// KeywordSet names one of the keyword lists of the engine configuration
type KeywordSet string

const (
	KeywordsNone                    KeywordSet = ""
	KeywordsPartySanctions          KeywordSet = "party_sanctions"
	KeywordsDisciplinarySanctions   KeywordSet = "disciplinary_sanctions"
	KeywordsAdministrativeSanctions KeywordSet = "administrative_sanctions"
	KeywordsOrganizationMeasures    KeywordSet = "organization_measures"
	KeywordsBannedDecisionPhrases   KeywordSet = "banned_decision_phrases"
	KeywordsConfiscationTriggers    KeywordSet = "confiscation_triggers"
	KeywordsDisposalMethods         KeywordSet = "disposal_methods"
)

// Resolve returns the configured keywords of a set
func (k KeywordSet) Resolve(cfg model.KeywordConfig) []string {
	switch k {
	case KeywordsPartySanctions:
		return cfg.PartySanctions
	case KeywordsDisciplinarySanctions:
		return cfg.DisciplinarySanctions
	case KeywordsAdministrativeSanctions:
		return cfg.AdministrativeSanctions
	case KeywordsOrganizationMeasures:
		return cfg.OrganizationMeasures
	case KeywordsBannedDecisionPhrases:
		return cfg.BannedDecisionPhrases
	case KeywordsConfiscationTriggers:
		return cfg.ConfiscationTriggers
	case KeywordsDisposalMethods:
		return cfg.DisposalMethods
	default:
		return nil
	}
}

// Source is the comparison source of a rule
type Source struct {
	Type     SourceType    `json:"type" yaml:"type"`
	Doc      model.DocType `json:"doc,omitempty" yaml:"doc,omitempty"`
	Other    model.Field   `json:"other,omitempty" yaml:"other,omitempty"`
	Keywords KeywordSet    `json:"keywords,omitempty" yaml:"keywords,omitempty"`
}

// Policy refines the empty-value handling of a rule
type Policy string

const (
	// PolicyDefault: empty spreadsheet value is satisfied
	PolicyDefault Policy = ""

	// PolicyRestate: every document is expected to restate the value, so
	// an empty spreadsheet value next to an extracted value is an issue
	PolicyRestate Policy = "restate"
)

// Rule is one declarative consistency check
type Rule struct {
	ID         string           `json:"id" yaml:"id"`
	Kind       model.RecordKind `json:"kind" yaml:"kind"`
	Field      model.Field      `json:"field" yaml:"field"`
	Source     Source           `json:"source" yaml:"source"`
	Comparator Comparator       `json:"comparator" yaml:"comparator"`
	Severity   model.Severity   `json:"severity" yaml:"severity"`
	Message    string           `json:"message" yaml:"message"`
	Policy     Policy           `json:"policy,omitempty" yaml:"policy,omitempty"`
	Enabled    bool             `json:"enabled" yaml:"enabled"`

	// Seq is the declared position within the kind's catalog
	Seq int `json:"seq" yaml:"seq"`
}

// Columns lists every field whose column must exist for the rule to apply
func (r Rule) Columns() []model.Field {
	cols := []model.Field{r.Field}
	switch r.Source.Type {
	case SourceDocument:
		if r.Source.Doc.Field() != r.Field {
			cols = append(cols, r.Source.Doc.Field())
		}
	case SourceField, SourceLookup:
		if r.Source.Other != "" {
			cols = append(cols, r.Source.Other)
		}
	}
	return cols
}

// Applicable reports whether the rule can run on a row: its columns are
// present in the header and its source document is attached
func (r Rule) Applicable(rec *model.Record) bool {
	if !r.Enabled {
		return false
	}
	for _, f := range r.Columns() {
		if !rec.Has(f) {
			return false
		}
	}
	if r.Source.Type == SourceDocument {
		if _, ok := rec.Doc(r.Source.Doc); !ok {
			return false
		}
	}
	return true
}
