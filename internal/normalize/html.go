package normalize

import (
	"strings"

	"golang.org/x/net/html"
)

var blockElements = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"table": true, "section": true, "article": true,
}

// DocumentText returns the visible text of a narrative cell. Cells exported
// as HTML are reduced to text with block elements on their own lines;
// anything else passes through Text unchanged.
func DocumentText(raw string) string {
	if !looksLikeHTML(raw) {
		return Text(raw)
	}

	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return Text(raw)
	}
	return Text(visibleText(doc))
}

func looksLikeHTML(s string) bool {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "<") {
		return false
	}
	lower := strings.ToLower(t)
	return strings.Contains(lower, "</p>") ||
		strings.Contains(lower, "</div>") ||
		strings.Contains(lower, "<br") ||
		strings.Contains(lower, "<html") ||
		strings.Contains(lower, "<body")
}

// visibleText extracts text nodes, skipping scripts/styles
func visibleText(n *html.Node) string {
	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "head":
				return
			}
		}

		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}

		if n.Type == html.ElementNode && blockElements[n.Data] {
			buf.WriteString("\n")
		}
	}

	walk(n)
	return buf.String()
}
