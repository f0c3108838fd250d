package frontmatter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		fm      string
		body    string
		had     bool
		wantErr error
	}{
		{"no frontmatter", "# Hello\n", "", "# Hello\n", false, nil},
		{"lf", "---\ntitle: Basics\n---\nbody\n", "title: Basics\n", "body\n", true, nil},
		{"crlf", "---\r\ntitle: Basics\r\n---\r\nbody", "title: Basics\r\n", "body", true, nil},
		{"empty block", "---\n---\nbody", "", "body", true, nil},
		{"closing at eof", "---\ntitle: x\n---", "title: x\n", "", true, nil},
		{"missing close", "---\ntitle: x\nbody", "", "", false, ErrMissingClosingDelimiter},
		{"dashes inside text", "---\ntitle: x\n----\nbody", "", "", false, ErrMissingClosingDelimiter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fm, body, had, err := Split([]byte(tt.in))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.fm, string(fm))
			assert.Equal(t, tt.body, string(body))
			assert.Equal(t, tt.had, had)
		})
	}
}

func TestParse(t *testing.T) {
	doc, err := Parse([]byte("---\ntitle: \" Events \"\nlayout: layouts/tutorial\norder: 3\n---\n<p>x</p>\n"))
	require.NoError(t, err)
	assert.Equal(t, "Events", doc.Title())
	assert.Equal(t, "layouts/tutorial", doc.Layout())
	assert.Equal(t, 3, doc.Fields["order"])
	assert.Equal(t, "", doc.String("order"), "non-string fields read as empty")
	assert.Equal(t, "<p>x</p>\n", string(doc.Body))

	_, err = Parse([]byte("---\ntitle: [\n---\n"))
	assert.Error(t, err)

	plain, err := Parse([]byte("just body"))
	require.NoError(t, err)
	assert.False(t, plain.Had)
	assert.NotNil(t, plain.Fields)
}

func TestFingerprint(t *testing.T) {
	a, err := Parse([]byte("---\ntitle: A\n---\nbody"))
	require.NoError(t, err)
	b, err := Parse([]byte("---\r\ntitle: A\r\n---\r\nbody"))
	require.NoError(t, err)
	c, err := Parse([]byte("---\ntitle: A\n---\nother"))
	require.NoError(t, err)

	assert.NotEmpty(t, a.Fingerprint())
	assert.Equal(t, a.Fingerprint(), b.Fingerprint(), "newline style does not change identity")
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}
