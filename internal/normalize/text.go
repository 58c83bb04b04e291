// Package normalize cleans raw spreadsheet cells and narrative text into
// comparable values. Every function here is side-effect free.
package normalize

import (
	"strings"
	"unicode"
)

// absentTokens are cell values exported by spreadsheet tools for "no value"
var absentTokens = map[string]bool{
	"nan":  true,
	"NaN":  true,
	"NAN":  true,
	"None": true,
	"none": true,
	"null": true,
	"NULL": true,
	"Null": true,
	"N/A":  true,
	"n/a":  true,
	"#N/A": true,
	"-":    true,
	"—":    true,
	"--":   true,
}

// CleanCell removes common spreadsheet artifacts from a cell value:
// - Trims whitespace, BOM and non-breaking spaces
// - Removes Excel formula wrapper (="...")
// - Removes surrounding quotes
func CleanCell(s string) string {
	s = strings.ReplaceAll(s, "\ufeff", "")
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = strings.ReplaceAll(s, "\u3000", " ")
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") && len(s) >= 3 {
		s = s[2 : len(s)-1]
	}

	s = strings.Trim(s, `"'`)
	return strings.TrimSpace(s)
}

// IsAbsent reports whether a raw cell carries no value: blank,
// whitespace-only or a nan-like token
func IsAbsent(s string) bool {
	c := CleanCell(s)
	return c == "" || absentTokens[c]
}

// Value returns the cleaned cell value, or "" when the cell is absent
func Value(s string) string {
	if IsAbsent(s) {
		return ""
	}
	return CleanCell(s)
}

// StripSpace removes every Unicode whitespace rune
func StripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '\u3000' || r == '\ufeff' {
			return -1
		}
		return r
	}, s)
}

// Header normalizes a header cell for lookup: cleaned and whitespace-free
func Header(s string) string {
	return StripSpace(CleanCell(s))
}

// Text normalizes a narrative document: line endings unified, trailing
// whitespace per line removed. Absent documents become "".
func Text(s string) string {
	if IsAbsent(s) {
		return ""
	}

	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.ReplaceAll(s, "\ufeff", "")
	s = strings.ReplaceAll(s, "\u00a0", " ")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRightFunc(line, unicode.IsSpace)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// Integer parses a whole number cell such as "52" or "52岁"
func Integer(s string) (int, bool) {
	s = Value(s)
	s = strings.TrimSuffix(s, "岁")
	s = strings.TrimSuffix(s, ".0")
	s = FoldWidth(s)
	if s == "" {
		return 0, false
	}

	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
		if n > 1_000_000 {
			return 0, false
		}
	}
	return n, true
}
