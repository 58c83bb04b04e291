// Package extract implements the strategies that read structured values out
// of narrative documents: marker + positional decomposition, title
// templates, anchored dates, keyword containment and bounded paragraphs.
//
// Every strategy is deterministic and reports failure as ("", false). None
// of them guess.
package extract

import "strings"

// NamePlaceholder is substituted with the subject's name in anchor templates
const NamePlaceholder = "{name}"

// Context carries row data some extractors need
type Context struct {
	// SubjectName is the investigated/reflected person of the row
	SubjectName string
}

// Fill substitutes the subject name into a template. Templates that need a
// name fail when none is known.
func (c Context) Fill(template string) (string, bool) {
	if !strings.Contains(template, NamePlaceholder) {
		return template, true
	}
	if c.SubjectName == "" {
		return "", false
	}
	return strings.ReplaceAll(template, NamePlaceholder, c.SubjectName), true
}
