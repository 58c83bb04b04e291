package extract

import (
	"regexp"
	"strings"
)

// TitleName captures the subject name from a document title template. The
// template must contain exactly one capturing group.
func TitleName(text string, template *regexp.Regexp) (string, bool) {
	if text == "" || template == nil {
		return "", false
	}

	m := template.FindStringSubmatch(text)
	if len(m) < 2 {
		return "", false
	}

	name := strings.TrimSpace(m[1])
	return name, name != ""
}
