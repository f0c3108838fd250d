package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/buildseq/internal/fsops"
	"git.home.luguber.info/inful/buildseq/internal/git"
	"git.home.luguber.info/inful/buildseq/internal/logfields"
	"git.home.luguber.info/inful/buildseq/internal/process"
	"git.home.luguber.info/inful/buildseq/internal/render"
	"git.home.luguber.info/inful/buildseq/internal/sequencer"
	"git.home.luguber.info/inful/buildseq/internal/watch"
	"git.home.luguber.info/inful/buildseq/internal/workspace"
)

func (p *Pipeline) clean(context.Context) error {
	return fsops.CleanDirs(p.path(p.cfg.Paths.Dist), p.path(p.cfg.Paths.Build))
}

func (p *Pipeline) cleanDir(dir string) sequencer.Action {
	return func(context.Context) error {
		return fsops.CleanDir(dir)
	}
}

func (p *Pipeline) compileJS(ctx context.Context) error {
	banner, _, err := p.banner()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(p.jsDir(), 0o755); err != nil {
		return err
	}
	if _, err := p.runner.Run(ctx, p.command(p.cfg.JS.Bundler, nil, nil)); err != nil {
		return err
	}
	bundles, err := fsops.Glob(p.jsDir(), "*.js")
	if err != nil {
		return err
	}
	if len(bundles) == 0 {
		return fmt.Errorf("bundler produced no .js files in %s", p.jsDir())
	}
	return prependAll(bundles, banner)
}

func (p *Pipeline) cssOutput() string {
	return filepath.Join(p.cssDir(), p.cfg.CSS.Output)
}

func (p *Pipeline) compileCSS(ctx context.Context) error {
	banner, _, err := p.banner()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(p.cssDir(), 0o755); err != nil {
		return err
	}
	in, out := p.path(p.cfg.CSS.Entry), p.cssOutput()
	vars := map[string]string{"input": in, "output": out}

	steps := []process.Command{p.command(p.cfg.CSS.Sass, vars, []string{"--style=expanded", "--source-map", in, out})}
	if !p.cfg.CSS.Autoprefixer.IsZero() {
		steps = append(steps, p.command(p.cfg.CSS.Autoprefixer, map[string]string{"input": out, "output": out}, []string{out}))
	}
	if err := process.Script(ctx, p.runner, steps...); err != nil {
		return err
	}
	return fsops.Prepend(out, banner)
}

func (p *Pipeline) minifyCSS(ctx context.Context) error {
	if p.cfg.CSS.Minifier.IsZero() {
		p.logger.Info("No minifier configured; skipping", logfields.Task(TaskCSSMinify))
		return nil
	}
	in := p.cssOutput()
	out := strings.TrimSuffix(in, filepath.Ext(in)) + ".min.css"
	cmd := p.command(p.cfg.CSS.Minifier, map[string]string{"input": in, "output": out}, []string{"-o", out, in})
	_, err := p.runner.Run(ctx, cmd)
	return err
}

func (p *Pipeline) compileTutorials(context.Context) error {
	banner, pkg, err := p.banner()
	if err != nil {
		return err
	}
	r := render.New(render.Options{
		PartialsDir: p.path(p.cfg.Tutorials.Partials),
		PagesDir:    p.path(p.cfg.Tutorials.Pages),
		IndexFile:   p.path(p.cfg.Tutorials.Index),
		OutDir:      p.tutorialsDir(),
	}, banner, pkg)
	_, err = r.Render()
	return err
}

func (p *Pipeline) compileDocs(ctx context.Context) error {
	p.logger.Info("Compiling docs...", logfields.Path(p.docsDir()))
	_, err := p.runner.Run(ctx, p.command(p.cfg.Docs.Generator, nil, nil))
	return err
}

func (p *Pipeline) addDistToDocs(context.Context) error {
	dist := p.path(p.cfg.Paths.Dist)
	if err := os.MkdirAll(dist, 0o755); err != nil {
		return err
	}
	p.logger.Info("Adding dist files to docs...", logfields.Path(dist))
	return fsops.CopyDir(dist, filepath.Join(p.docsDir(), "dist"))
}

// v2Items are copied from the v2 branch checkout into docs/v2, keeping their relative paths.
var v2Items = []string{"index.html", "dist", filepath.Join("docs", "assets")}

func (p *Pipeline) addV2Docs(ctx context.Context) error {
	if err := p.requireGit(); err != nil {
		return err
	}
	url, err := p.repositoryURL()
	if err != nil {
		return err
	}

	ws := workspace.NewManager("", "v2")
	if err := ws.Create(); err != nil {
		return err
	}
	defer func() {
		if cerr := ws.Cleanup(); cerr != nil {
			p.logger.Warn("Failed to clean v2 workspace", logfields.Error(cerr))
		}
	}()
	checkout := filepath.Join(ws.GetPath(), "v2")

	p.logger.Info("Adding v2 docs...", logfields.URL(url), logfields.Branch(p.cfg.Docs.V2Branch))
	if err := p.git.CloneBranch(ctx, url, p.cfg.Docs.V2Branch, checkout); err != nil {
		return err
	}

	dest := p.v2Dir()
	if err := os.RemoveAll(dest); err != nil {
		return err
	}
	for _, item := range v2Items {
		src := filepath.Join(checkout, item)
		if !fsops.Exists(src) {
			return fmt.Errorf("v2 branch is missing %s", filepath.ToSlash(item))
		}
		if err := fsops.CopyPath(src, filepath.Join(dest, item)); err != nil {
			return fmt.Errorf("copy v2 %s: %w", filepath.ToSlash(item), err)
		}
	}
	return nil
}

func (p *Pipeline) publishDocs(ctx context.Context) error {
	if err := p.requireGit(); err != nil {
		return err
	}
	url, err := p.repositoryURL()
	if err != nil {
		return err
	}
	res, err := p.git.PublishDir(ctx, git.PublishOptions{
		RepoURL:     url,
		Branch:      p.cfg.Publish.Branch,
		Dir:         p.docsDir(),
		Message:     p.cfg.Publish.Message,
		AuthorName:  p.cfg.Publish.AuthorName,
		AuthorEmail: p.cfg.Publish.AuthorEmail,
	})
	if err != nil {
		return err
	}
	if res.Pushed {
		p.logger.Info("The hosting branch is updated and pushed",
			logfields.Branch(p.cfg.Publish.Branch), logfields.Name(res.Commit))
	}
	return nil
}

func (p *Pipeline) publishNPM(ctx context.Context) error {
	dist := p.path(p.cfg.Paths.Dist)
	for _, f := range p.cfg.Publish.Files {
		if err := fsops.CopyFile(p.path(f), filepath.Join(dist, filepath.Base(f))); err != nil {
			return fmt.Errorf("copy %s into %s: %w", f, p.cfg.Paths.Dist, err)
		}
	}
	_, err := p.runner.Run(ctx, p.command(p.cfg.Publish.NPM, nil, nil))
	return err
}

// watch blocks until ctx is cancelled. Changes start new invocations one at a time; tasks
// queued together share one invocation so their outputs are checked against each other.
func (p *Pipeline) watch(ctx context.Context) error {
	rules := make([]watch.Rule, 0, len(p.cfg.Watch.Rules))
	for _, r := range p.cfg.Watch.Rules {
		if _, ok := p.registry.Lookup(r.Task); !ok {
			return &sequencer.UnknownTaskError{Name: r.Task}
		}
		rules = append(rules, watch.Rule{Pattern: r.Pattern, Task: r.Task})
	}
	w, err := watch.New(p.root, rules, func(ctx context.Context, tasks ...string) error {
		_, err := p.seq.Run(ctx, tasks...)
		return err
	}, watch.WithDebounce(p.cfg.Watch.Debounce), watch.WithLogger(p.logger))
	if err != nil {
		return err
	}
	p.logger.Info("Watching sources", slog.Int("rules", len(rules)))
	return w.Run(ctx)
}

func prependAll(files []string, header string) error {
	for _, f := range files {
		if err := fsops.Prepend(f, header); err != nil {
			return fmt.Errorf("add banner to %s: %w", f, err)
		}
	}
	return nil
}
