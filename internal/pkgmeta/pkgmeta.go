// Package pkgmeta reads the project's package.json and renders the license banner
// prepended to built assets.
package pkgmeta

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/template"
)

// Package is the subset of package.json used by the build.
type Package struct {
	Name        string     `json:"name"`
	Version     string     `json:"version"`
	Description string     `json:"description"`
	License     string     `json:"license"`
	Homepage    string     `json:"homepage"`
	Repository  Repository `json:"repository"`
}

// Repository accepts both the "repository": "url" and "repository": {"url": ...} forms.
type Repository struct {
	Type string `json:"type,omitempty"`
	URL  string `json:"url"`
}

func (r *Repository) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		r.URL = s
		return nil
	}
	type plain Repository
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("repository: %w", err)
	}
	*r = Repository(p)
	return nil
}

// CloneURL returns the repository URL without the "git+" prefix npm adds.
func (r Repository) CloneURL() string {
	return strings.TrimPrefix(r.URL, "git+")
}

// Load parses the package.json at path.
func Load(path string) (*Package, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read package metadata: %w", err)
	}
	var pkg Package
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &pkg, nil
}

var bannerTemplate = template.Must(template.New("banner").Parse(`/*!
 * {{.Title}} - {{.Pkg.Description}}
 * @package {{.Pkg.Name}}
 * @version v{{.Pkg.Version}}
 * @license {{.Pkg.License}}
 * @link {{.Pkg.Homepage}}
 * @link {{.Pkg.Repository.URL}}
 */
`))

// Banner renders the header comment for pkg. An empty title falls back to the package name.
func Banner(pkg *Package, title string) (string, error) {
	if title == "" {
		title = pkg.Name
	}
	var buf bytes.Buffer
	if err := bannerTemplate.Execute(&buf, struct {
		Title string
		Pkg   *Package
	}{title, pkg}); err != nil {
		return "", fmt.Errorf("render banner: %w", err)
	}
	return buf.String(), nil
}
