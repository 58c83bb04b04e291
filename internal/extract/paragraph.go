package extract

import (
	"regexp"
	"strings"

	"github.com/ppiankov/crosscheck/internal/normalize"
)

// Paragraph extracts the free text between a start heading and an end
// heading (or the end of the document), with all whitespace removed.
//
// The subject name is substituted into the start template unescaped and
// the result is compiled as a regular expression. A name that collides
// with pattern syntax therefore fails to compile or to match; both are
// reported as a failure with no fallback.
func Paragraph(text, startTemplate, endAnchor string, ctx Context) (string, bool) {
	if text == "" || startTemplate == "" {
		return "", false
	}

	pattern, ok := ctx.Fill(startTemplate)
	if !ok {
		return "", false
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return "", false
	}

	loc := re.FindStringIndex(text)
	if loc == nil {
		return "", false
	}

	body := text[loc[1]:]
	if endAnchor != "" {
		if end := strings.Index(body, endAnchor); end >= 0 {
			body = body[:end]
		}
	}

	body = strings.TrimLeft(normalize.StripSpace(body), "：:")
	return body, body != ""
}
