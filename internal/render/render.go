package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"git.home.luguber.info/inful/buildseq/internal/fsops"
	"git.home.luguber.info/inful/buildseq/internal/frontmatter"
	"git.home.luguber.info/inful/buildseq/internal/logfields"
	"git.home.luguber.info/inful/buildseq/internal/pkgmeta"
)

// ManifestFile is written next to the rendered pages.
const ManifestFile = "manifest.json"

var (
	layoutExts = []string{".hbs", ".tmpl"}
	pageExts   = []string{".hbs", ".tmpl", ".md"}
)

// Options locates sources and the output directory.
type Options struct {
	PartialsDir string
	PagesDir    string
	IndexFile   string // copied verbatim when present
	OutDir      string
}

// Data is passed to every page and layout.
type Data struct {
	Banner  string
	Package *pkgmeta.Package
	Page    PageData
	Content template.HTML // set for layouts only
}

// PageData describes the page being rendered.
type PageData struct {
	Path   string
	Title  string
	Fields map[string]any
}

// ManifestEntry is one row of manifest.json.
type ManifestEntry struct {
	Path        string `json:"path"`
	Title       string `json:"title"`
	Fingerprint string `json:"fingerprint"`
}

// Renderer compiles a tutorial tree.
type Renderer struct {
	opts   Options
	banner string
	pkg    *pkgmeta.Package
	md     goldmark.Markdown
	logger *slog.Logger
}

// New creates a renderer. banner and pkg are exposed to templates as .Banner and .Package.
func New(opts Options, banner string, pkg *pkgmeta.Package) *Renderer {
	return &Renderer{opts: opts, banner: banner, pkg: pkg, md: goldmark.New(goldmark.WithRendererOptions(gmhtml.WithUnsafe())), logger: slog.Default()}
}

// Render compiles every page and writes manifest.json. It returns the manifest entries.
func (r *Renderer) Render() ([]ManifestEntry, error) {
	layouts, err := r.loadLayouts()
	if err != nil {
		return nil, err
	}
	pages, err := r.findPages()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(r.opts.OutDir, 0o755); err != nil {
		return nil, err
	}
	if r.opts.IndexFile != "" && fsops.Exists(r.opts.IndexFile) {
		if err := fsops.CopyFile(r.opts.IndexFile, filepath.Join(r.opts.OutDir, filepath.Base(r.opts.IndexFile))); err != nil {
			return nil, fmt.Errorf("copy tutorial index: %w", err)
		}
	}

	manifest := make([]ManifestEntry, 0, len(pages))
	for _, rel := range pages {
		entry, err := r.renderPage(layouts, rel)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", rel, err)
		}
		manifest = append(manifest, entry)
	}
	sort.Slice(manifest, func(i, j int) bool { return manifest[i].Path < manifest[j].Path })

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(r.opts.OutDir, ManifestFile), append(data, '\n'), 0o644); err != nil {
		return nil, err
	}
	r.logger.Info("Rendered tutorials", logfields.Path(r.opts.OutDir), slog.Int("pages", len(manifest)))
	return manifest, nil
}

// loadLayouts parses every layout and partial into one template set.
func (r *Renderer) loadLayouts() (*template.Template, error) {
	set := template.New("").Funcs(r.funcs())
	if r.opts.PartialsDir == "" || !fsops.Exists(r.opts.PartialsDir) {
		return set, nil
	}
	pagesAbs, _ := filepath.Abs(r.opts.PagesDir)

	err := filepath.WalkDir(r.opts.PartialsDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if abs, _ := filepath.Abs(p); r.opts.PagesDir != "" && abs == pagesAbs {
				return filepath.SkipDir
			}
			return nil
		}
		if !hasExt(p, layoutExts) {
			return nil
		}
		rel, err := filepath.Rel(r.opts.PartialsDir, p)
		if err != nil {
			return err
		}
		src, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(strings.TrimSuffix(rel, filepath.Ext(rel)))
		if _, err := set.New(name).Parse(string(src)); err != nil {
			return fmt.Errorf("parse layout %s: %w", rel, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return set, nil
}

func (r *Renderer) findPages() ([]string, error) {
	var pages []string
	err := filepath.WalkDir(r.opts.PagesDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !hasExt(p, pageExts) {
			return nil
		}
		rel, err := filepath.Rel(r.opts.PagesDir, p)
		if err != nil {
			return err
		}
		pages = append(pages, filepath.ToSlash(rel))
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		r.logger.Warn("Tutorial directory missing", logfields.Path(r.opts.PagesDir))
		return nil, nil
	}
	sort.Strings(pages)
	return pages, err
}

func (r *Renderer) renderPage(layouts *template.Template, rel string) (ManifestEntry, error) {
	src, err := os.ReadFile(filepath.Join(r.opts.PagesDir, filepath.FromSlash(rel)))
	if err != nil {
		return ManifestEntry{}, err
	}
	doc, err := frontmatter.Parse(src)
	if err != nil {
		return ManifestEntry{}, err
	}

	set, err := layouts.Clone()
	if err != nil {
		return ManifestEntry{}, err
	}
	page, err := set.New("page:" + rel).Parse(string(doc.Body))
	if err != nil {
		return ManifestEntry{}, err
	}

	outRel := strings.TrimSuffix(rel, filepath.Ext(rel)) + ".html"
	data := Data{
		Banner:  r.banner,
		Package: r.pkg,
		Page:    PageData{Path: outRel, Title: doc.Title(), Fields: doc.Fields},
	}

	var body bytes.Buffer
	if err := page.Execute(&body, data); err != nil {
		return ManifestEntry{}, err
	}
	content := body.Bytes()
	if strings.EqualFold(filepath.Ext(rel), ".md") {
		if content, err = markdownToHTML(r.md, content); err != nil {
			return ManifestEntry{}, err
		}
	}
	data.Page.Title = resolveTitle(doc.Title(), content, rel)

	out := content
	if layout := doc.Layout(); layout != "" {
		tmpl := set.Lookup(layout)
		if tmpl == nil {
			return ManifestEntry{}, fmt.Errorf("layout %q not found", layout)
		}
		// #nosec G203 -- rendered from project templates
		data.Content = template.HTML(content)
		var wrapped bytes.Buffer
		if err := tmpl.Execute(&wrapped, data); err != nil {
			return ManifestEntry{}, err
		}
		out = wrapped.Bytes()
	}

	dst := filepath.Join(r.opts.OutDir, filepath.FromSlash(outRel))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return ManifestEntry{}, err
	}
	if err := os.WriteFile(dst, out, 0o644); err != nil {
		return ManifestEntry{}, err
	}
	r.logger.Debug("Rendered page", logfields.Path(outRel))
	return ManifestEntry{Path: outRel, Title: data.Page.Title, Fingerprint: doc.Fingerprint()}, nil
}

func hasExt(p string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(p))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}
