// Package frontmatter splits YAML frontmatter from tutorial page sources and
// fingerprints page content.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/inful/mdfp"
	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter indicates the document started with a YAML
// frontmatter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("yaml frontmatter start delimiter found but closing delimiter is missing")

// Document is a page source split into its parts.
type Document struct {
	Raw    []byte         // frontmatter without delimiters
	Fields map[string]any // decoded frontmatter, never nil
	Body   []byte
	Had    bool // whether the source carried a frontmatter block
}

// Split separates `---` delimited YAML frontmatter from the body. Both LF and CRLF are accepted.
// A document without an opening delimiter is all body.
func Split(content []byte) (frontmatter, body []byte, had bool, err error) {
	nl := "\n"
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		nl = "\r\n"
	}
	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, nil
	}

	rest := content[len(open):]
	if bytes.HasPrefix(rest, open) {
		return []byte{}, rest[len(open):], true, nil
	}
	closing := []byte(nl + "---")
	idx := bytes.Index(rest, closing)
	if idx < 0 {
		return nil, nil, false, ErrMissingClosingDelimiter
	}
	after := rest[idx+len(closing):]
	switch {
	case bytes.HasPrefix(after, []byte(nl)):
		after = after[len(nl):]
	case len(after) != 0:
		// "---" followed by other text is not a delimiter line.
		return nil, nil, false, ErrMissingClosingDelimiter
	}
	return rest[:idx+len(nl)], after, true, nil
}

// Parse splits content and decodes its frontmatter.
func Parse(content []byte) (*Document, error) {
	raw, body, had, err := Split(content)
	if err != nil {
		return nil, err
	}
	fields := map[string]any{}
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := yaml.Unmarshal(raw, &fields); err != nil {
			return nil, fmt.Errorf("parse frontmatter: %w", err)
		}
		if fields == nil {
			fields = map[string]any{}
		}
	}
	return &Document{Raw: raw, Fields: fields, Body: body, Had: had}, nil
}

// String returns a string field, or "" when missing or not a string.
func (d *Document) String(key string) string {
	s, _ := d.Fields[key].(string)
	return strings.TrimSpace(s)
}

func (d *Document) Title() string  { return d.String("title") }
func (d *Document) Layout() string { return d.String("layout") }

// Fingerprint hashes the frontmatter and body so unchanged pages keep a stable identity.
func (d *Document) Fingerprint() string {
	fm := strings.TrimRight(strings.ReplaceAll(string(d.Raw), "\r\n", "\n"), "\n")
	return mdfp.CalculateFingerprintFromParts(fm, string(d.Body))
}
