package render

import (
	"bytes"
	"html/template"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
)

var codeEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
	"/", "&#x2F;",
)

var leadingIndent = regexp.MustCompile(`(?m)^ {2,8}`)

// Code escapes a snippet for display inside <pre> and removes the source indentation.
func Code(s string) template.HTML {
	escaped := codeEscaper.Replace(strings.TrimSpace(s))
	// #nosec G203 -- content is fully escaped above
	return template.HTML(leadingIndent.ReplaceAllString(escaped, ""))
}

func markdownToHTML(md goldmark.Markdown, src []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := md.Convert(src, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r *Renderer) funcs() template.FuncMap {
	return template.FuncMap{
		"code": Code,
		"markdown": func(s string) (template.HTML, error) {
			out, err := markdownToHTML(r.md, []byte(s))
			// #nosec G203 -- markdown output from trusted project sources
			return template.HTML(out), err
		},
	}
}
