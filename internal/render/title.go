package render

import (
	"bytes"
	"path"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// firstHeading returns the text of the first <h1> in an HTML fragment.
func firstHeading(fragment []byte) string {
	doc, err := html.Parse(bytes.NewReader(fragment))
	if err != nil {
		return ""
	}
	var found string
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "h1" {
			found = strings.Join(strings.Fields(textContent(n)), " ")
			return true
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}
	walk(doc)
	return found
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(textContent(c))
	}
	return b.String()
}

// titleFromPath turns "events/color-formats.hbs" into "Color Formats".
func titleFromPath(rel string) string {
	base := strings.TrimSuffix(path.Base(rel), path.Ext(rel))
	base = strings.NewReplacer("-", " ", "_", " ").Replace(base)
	// Casers keep state, so one is created per call.
	return cases.Title(language.English).String(strings.TrimSpace(base))
}

func resolveTitle(front string, body []byte, rel string) string {
	if front != "" {
		return front
	}
	if h := firstHeading(body); h != "" {
		return h
	}
	return titleFromPath(rel)
}
