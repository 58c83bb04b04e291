package extract

import "strings"

// Contains reports exact, case-sensitive substring presence. A keyword
// embedded in a longer token counts as present.
func Contains(text, keyword string) bool {
	if keyword == "" {
		return false
	}
	return strings.Contains(text, keyword)
}

// ContainsAny reports whether any keyword is present
func ContainsAny(text string, keywords []string) bool {
	_, ok := FirstKeyword(text, keywords)
	return ok
}

// FirstKeyword returns the first keyword, in list order, present in text
func FirstKeyword(text string, keywords []string) (string, bool) {
	for _, kw := range keywords {
		if Contains(text, kw) {
			return kw, true
		}
	}
	return "", false
}

// Keywords returns every keyword present in text, in list order, once each
func Keywords(text string, keywords []string) []string {
	seen := make(map[string]bool)
	var found []string

	for _, kw := range keywords {
		if !seen[kw] && Contains(text, kw) {
			seen[kw] = true
			found = append(found, kw)
		}
	}
	return found
}
