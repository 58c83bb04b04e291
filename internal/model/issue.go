package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Severity classifies how urgently an issue needs human review
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Rank orders severities; unknown values rank below low
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	default:
		return 0
	}
}

// ParseSeverity parses a severity name (case-insensitive)
func ParseSeverity(s string) (Severity, error) {
	switch Severity(strings.ToLower(strings.TrimSpace(s))) {
	case SeverityLow:
		return SeverityLow, nil
	case SeverityMedium:
		return SeverityMedium, nil
	case SeverityHigh:
		return SeverityHigh, nil
	default:
		return "", fmt.Errorf("unknown severity %q (expected low, medium or high)", s)
	}
}

// Identity is the tagged identity of the row an issue belongs to.
// Kind selects which codes are meaningful.
type Identity struct {
	Kind       RecordKind `json:"kind"`
	CaseCode   string     `json:"case_code,omitempty"`
	PersonCode string     `json:"person_code,omitempty"`
	ClueCode   string     `json:"clue_code,omitempty"`
}

// String renders the identity the way reviewers refer to rows
func (id Identity) String() string {
	if id.Kind == KindClue {
		return id.ClueCode
	}
	if id.PersonCode == "" {
		return id.CaseCode
	}
	return id.CaseCode + "/" + id.PersonCode
}

// Issue is one inconsistency found in a row
type Issue struct {
	Row int `json:"row"`
	Identity
	Fields      []Field  `json:"fields"`           // Subject field first, then comparison column(s)
	Source      DocType  `json:"source,omitempty"` // Narrative document the value was read from
	RuleID      string   `json:"rule"`
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`

	Seq int `json:"-"` // Declared position of the rule, used for ordering
}

// Field returns the subject field of the issue
func (i Issue) Field() Field {
	if len(i.Fields) == 0 {
		return ""
	}
	return i.Fields[0]
}

// MarshalJSON flattens the identity codes and adds the subject field
func (i Issue) MarshalJSON() ([]byte, error) {
	type plain Issue
	return json.Marshal(struct {
		plain
		Field Field `json:"field"`
	}{plain(i), i.Field()})
}

// Key identifies an issue for deduplication: row, identity codes, fields,
// description and severity
func (i Issue) Key() string {
	fields := make([]string, len(i.Fields))
	for n, f := range i.Fields {
		fields[n] = string(f)
	}
	return fmt.Sprintf("%d\x1f%s\x1f%s\x1f%s\x1f%s\x1f%s\x1f%s\x1f%s",
		i.Row,
		i.Identity.Kind,
		i.Identity.CaseCode,
		i.Identity.PersonCode,
		i.Identity.ClueCode,
		strings.Join(fields, ","),
		i.Description,
		i.Severity,
	)
}
