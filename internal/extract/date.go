package extract

import (
	"strings"

	"github.com/ppiankov/crosscheck/internal/normalize"
)

// DateAfter finds the first date within limit runes after a phrase anchor
func DateAfter(text, anchor string, limit int) (string, bool) {
	if text == "" || anchor == "" {
		return "", false
	}

	idx := strings.Index(text, anchor)
	if idx < 0 {
		return "", false
	}

	rest := []rune(text[idx+len(anchor):])
	if len(rest) > limit {
		rest = rest[:limit]
	}

	d, ok := normalize.FindDate(string(rest))
	if !ok {
		return "", false
	}
	return d.String(), true
}

// SignatureDate reads the date on the last non-empty line of a document
func SignatureDate(text string) (string, bool) {
	line, ok := LastLine(text)
	if !ok {
		return "", false
	}

	d, ok := normalize.FindDate(line)
	if !ok {
		return "", false
	}
	return d.String(), true
}

// LastLine returns the last non-empty line of text
func LastLine(text string) (string, bool) {
	lines := strings.Split(text, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line, true
		}
	}
	return "", false
}
