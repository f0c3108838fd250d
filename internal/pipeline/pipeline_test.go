package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/buildseq/internal/config"
	"git.home.luguber.info/inful/buildseq/internal/git"
	"git.home.luguber.info/inful/buildseq/internal/process"
	"git.home.luguber.info/inful/buildseq/internal/sequencer"
)

const packageJSON = `{
  "name": "bootstrap-colorpicker",
  "version": "3.0.0",
  "description": "Bootstrap Colorpicker is a modular color picker plugin for Bootstrap.",
  "license": "MIT",
  "homepage": "https://itsjavi.com/bootstrap-colorpicker/",
  "repository": {"type": "git", "url": "git+https://example.com/colorpicker.git"}
}`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

// project lays out a minimal source tree and returns its root.
func project(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "package.json"), packageJSON)
	writeFile(t, filepath.Join(root, "LICENSE"), "MIT License")
	writeFile(t, filepath.Join(root, "README.md"), "# colorpicker")
	writeFile(t, filepath.Join(root, "src", "sass", "colorpicker.scss"), ".colorpicker { color: red; }")
	writeFile(t, filepath.Join(root, "src", "js", "colorpicker.js"), "export default {}")
	writeFile(t, filepath.Join(root, "src", "hbs", "tutorials", "tutorials.json"), `{}`)
	writeFile(t, filepath.Join(root, "src", "hbs", "tutorials", "basics.hbs"), "---\ntitle: Basics\n---\n<p>{{.Package.Version}}</p>\n")
	return root
}

// fakeTools simulates the external tools by writing the files they would produce.
func fakeTools(root string) *process.FakeRunner {
	return &process.FakeRunner{Handler: func(_ context.Context, cmd process.Command) (process.Result, error) {
		switch {
		case len(cmd.Args) > 0 && cmd.Args[0] == "webpack":
			return process.Result{}, os.WriteFile(filepath.Join(root, "dist", "js", "bootstrap-colorpicker.js"), []byte("(function(){})();\n"), 0o644)
		case len(cmd.Args) > 0 && cmd.Args[0] == "sass":
			out := cmd.Args[len(cmd.Args)-1]
			return process.Result{}, os.WriteFile(out, []byte(".colorpicker{color:red}\n"), 0o644)
		case len(cmd.Args) > 0 && cmd.Args[0] == "cleancss":
			return process.Result{}, os.WriteFile(cmd.Args[2], []byte(".colorpicker{color:red}"), 0o644)
		case filepath.Base(cmd.Name) == "jsdoc":
			docs := filepath.Join(root, "build", "docs")
			if err := os.MkdirAll(docs, 0o755); err != nil {
				return process.Result{}, err
			}
			return process.Result{}, os.WriteFile(filepath.Join(docs, "index.html"), []byte("<h1>API</h1>"), 0o644)
		}
		return process.Result{}, nil
	}}
}

type fakeGit struct {
	mu        sync.Mutex
	clones    []string
	published []git.PublishOptions
	v2Files   map[string]string
	cloneErr  error
}

func (f *fakeGit) CloneBranch(_ context.Context, url, branch, dir string) error {
	f.mu.Lock()
	f.clones = append(f.clones, url+"@"+branch)
	f.mu.Unlock()
	if f.cloneErr != nil {
		return f.cloneErr
	}
	for name, content := range f.v2Files {
		full := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeGit) PublishDir(_ context.Context, opts git.PublishOptions) (git.PublishResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := os.Stat(filepath.Join(opts.Dir, "index.html")); err != nil {
		return git.PublishResult{}, fmt.Errorf("docs not built: %w", err)
	}
	f.published = append(f.published, opts)
	return git.PublishResult{Pushed: true, Commit: "abc123"}, nil
}

func newPipeline(t *testing.T, root string, runner process.Runner, g GitClient, mutate ...func(*config.Config)) *Pipeline {
	t.Helper()
	cfg := config.Default()
	cfg.CSS.Minifier = config.Command{Name: "npx", Args: []string{"cleancss"}}
	for _, m := range mutate {
		m(cfg)
	}
	p, err := New(cfg, Deps{Runner: runner, Git: g, Root: root})
	require.NoError(t, err)
	return p
}

func TestNew_RegistersTaskGraph(t *testing.T) {
	p := newPipeline(t, t.TempDir(), &process.FakeRunner{}, nil)
	reg := p.Registry()

	for _, name := range TopLevel {
		_, ok := reg.Lookup(name)
		assert.True(t, ok, "missing top-level task %s", name)
	}

	edges := map[string][]string{
		TaskJSCompile:   {TaskJSClean},
		TaskJS:          {TaskJSCompile},
		TaskCSSCompile:  {TaskCSSClean},
		TaskCSSMinify:   {TaskCSSCompile},
		TaskCSS:         {TaskCSSMinify},
		TaskDocsCompile: {TaskDocsClean, TaskTutorials},
		TaskDocsAddDist: {TaskJS, TaskCSS, TaskDocsCompile},
		TaskDocsAddV2:   {TaskDocsCompile},
		TaskDocs:        {TaskDocsAddDist},
		TaskDefault:     {TaskJS, TaskCSS, TaskDocsAddDist},
		TaskWatch:       {TaskDefault},
		TaskPublishDocs: {TaskDefault, TaskDocsAddV2},
		TaskPublishNPM:  {TaskDefault},
	}
	for name, deps := range edges {
		task, ok := reg.Lookup(name)
		require.True(t, ok, name)
		assert.ElementsMatch(t, deps, task.Deps, name)
		assert.NotEmpty(t, task.Description, name)
	}

	for _, name := range TopLevel {
		_, err := p.Sequencer().Plan(name)
		require.NoError(t, err, "plan %s", name)
	}
}

func TestRun_Default(t *testing.T) {
	root := project(t)
	runner := fakeTools(root)
	p := newPipeline(t, root, runner, nil)

	report, err := p.Run(context.Background(), TaskDefault)
	require.NoError(t, err)

	pos := map[string]int{}
	for i, name := range report.Order {
		pos[name] = i
	}
	assert.Less(t, pos[TaskJSClean], pos[TaskJSCompile])
	assert.Less(t, pos[TaskJSCompile], pos[TaskDocsAddDist])
	assert.Less(t, pos[TaskCSSMinify], pos[TaskDocsAddDist])
	assert.Less(t, pos[TaskTutorials], pos[TaskDocsCompile])
	assert.Less(t, pos[TaskDocsCompile], pos[TaskDocsAddDist])
	assert.Equal(t, TaskDefault, report.Order[len(report.Order)-1])

	js := readFile(t, filepath.Join(root, "dist", "js", "bootstrap-colorpicker.js"))
	assert.True(t, strings.HasPrefix(js, "/*!\n * Bootstrap Colorpicker - Bootstrap Colorpicker is a modular"), js)
	assert.Contains(t, js, " * @version v3.0.0\n")
	assert.Contains(t, js, " * @link git+https://example.com/colorpicker.git\n")

	css := readFile(t, filepath.Join(root, "dist", "css", "bootstrap-colorpicker.css"))
	assert.True(t, strings.HasPrefix(css, "/*!"))
	assert.FileExists(t, filepath.Join(root, "dist", "css", "bootstrap-colorpicker.min.css"))

	assert.FileExists(t, filepath.Join(root, "build", "tutorials", "basics.html"))
	assert.FileExists(t, filepath.Join(root, "build", "tutorials", "tutorials.json"))
	assert.FileExists(t, filepath.Join(root, "build", "tutorials", "manifest.json"))
	assert.FileExists(t, filepath.Join(root, "build", "docs", "index.html"))
	assert.FileExists(t, filepath.Join(root, "build", "docs", "dist", "js", "bootstrap-colorpicker.js"))
	assert.FileExists(t, filepath.Join(root, "build", "docs", "dist", "css", "bootstrap-colorpicker.min.css"))

	var sass process.Command
	for _, c := range runner.Commands() {
		if len(c.Args) > 0 && c.Args[0] == "sass" {
			sass = c
		}
	}
	assert.Equal(t, []string{
		"sass", "--style=expanded", "--source-map",
		filepath.Join(root, "src", "sass", "colorpicker.scss"),
		filepath.Join(root, "dist", "css", "bootstrap-colorpicker.css"),
	}, sass.Args)
	assert.Equal(t, root, sass.Dir)
}

func TestRun_BundlerFailureStopsDependents(t *testing.T) {
	root := project(t)
	tools := fakeTools(root)
	runner := &process.FakeRunner{Handler: func(ctx context.Context, cmd process.Command) (process.Result, error) {
		if len(cmd.Args) > 0 && cmd.Args[0] == "webpack" {
			return process.Result{}, &process.ExitError{Command: cmd.String(), Code: 2, Output: "Module not found"}
		}
		return tools.Handler(ctx, cmd)
	}}
	p := newPipeline(t, root, runner, nil)

	report, err := p.Run(context.Background(), TaskDefault)
	require.ErrorIs(t, err, sequencer.ErrTaskExecution)
	task, ok := sequencer.FailedTask(err)
	require.True(t, ok)
	assert.Equal(t, TaskJSCompile, task)

	var exitErr *process.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)

	for _, name := range []string{TaskJS, TaskDocsAddDist, TaskDefault} {
		res, ok := report.Result(name)
		require.True(t, ok, name)
		assert.Equal(t, sequencer.StateSkipped, res.State, name)
	}
	assert.NoDirExists(t, filepath.Join(root, "build", "docs", "dist"))
}

func TestRun_MissingTool(t *testing.T) {
	root := project(t)
	runner := &process.FakeRunner{Handler: func(_ context.Context, cmd process.Command) (process.Result, error) {
		return process.Result{}, fmt.Errorf("%s: %w", cmd.Name, process.ErrCommandNotFound)
	}}
	p := newPipeline(t, root, runner, nil)

	_, err := p.Run(context.Background(), TaskJS)
	require.ErrorIs(t, err, process.ErrCommandNotFound)
	require.ErrorIs(t, err, sequencer.ErrTaskExecution)
}

func TestRun_CSSWithoutOptionalSteps(t *testing.T) {
	root := project(t)
	runner := fakeTools(root)
	p := newPipeline(t, root, runner, nil, func(c *config.Config) {
		c.CSS.Minifier = config.Command{}
		c.CSS.Autoprefixer = config.Command{Name: "npx", Args: []string{"postcss", "--use", "autoprefixer", "--replace", "{input}"}}
	})

	_, err := p.Run(context.Background(), TaskCSS)
	require.NoError(t, err)

	cmds := runner.Commands()
	require.Len(t, cmds, 2)
	out := filepath.Join(root, "dist", "css", "bootstrap-colorpicker.css")
	assert.Equal(t, []string{"postcss", "--use", "autoprefixer", "--replace", out}, cmds[1].Args)
	assert.NoFileExists(t, filepath.Join(root, "dist", "css", "bootstrap-colorpicker.min.css"))
}

func TestRun_SassFailureSkipsAutoprefixer(t *testing.T) {
	root := project(t)
	runner := fakeTools(root)
	tools := runner.Handler
	runner.Handler = func(ctx context.Context, cmd process.Command) (process.Result, error) {
		if len(cmd.Args) > 0 && cmd.Args[0] == "sass" {
			return process.Result{}, &process.ExitError{Command: "npx sass", Code: 65}
		}
		return tools(ctx, cmd)
	}
	p := newPipeline(t, root, runner, nil, func(c *config.Config) {
		c.CSS.Autoprefixer = config.Command{Name: "npx", Args: []string{"postcss", "--replace", "{input}"}}
	})

	_, err := p.Run(context.Background(), TaskCSSCompile)
	var exitErr *process.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 65, exitErr.Code)
	for _, c := range runner.Commands() {
		assert.NotEqual(t, "postcss", c.Args[0])
	}
}

func TestRun_PublishNPM(t *testing.T) {
	root := project(t)
	runner := fakeTools(root)
	p := newPipeline(t, root, runner, nil)

	_, err := p.Run(context.Background(), TaskPublishNPM)
	require.NoError(t, err)

	assert.Equal(t, "MIT License", readFile(t, filepath.Join(root, "dist", "LICENSE")))
	assert.Equal(t, "# colorpicker", readFile(t, filepath.Join(root, "dist", "README.md")))
	names := runner.Names()
	assert.Equal(t, "npm publish", names[len(names)-1])
}

func TestRun_PublishDocs(t *testing.T) {
	root := project(t)
	g := &fakeGit{v2Files: map[string]string{
		"index.html":             "<h1>v2</h1>",
		"dist/js/colorpicker.js": "v2",
		"docs/assets/logo.png":   "png",
		"unrelated.txt":          "not copied",
	}}
	p := newPipeline(t, root, fakeTools(root), g)

	_, err := p.Run(context.Background(), TaskPublishDocs)
	require.NoError(t, err)

	assert.Equal(t, []string{"https://example.com/colorpicker.git@v2"}, g.clones)
	v2 := filepath.Join(root, "build", "docs", "v2")
	assert.FileExists(t, filepath.Join(v2, "index.html"))
	assert.FileExists(t, filepath.Join(v2, "dist", "js", "colorpicker.js"))
	assert.FileExists(t, filepath.Join(v2, "docs", "assets", "logo.png"))
	assert.NoFileExists(t, filepath.Join(v2, "unrelated.txt"))

	require.Len(t, g.published, 1)
	pub := g.published[0]
	assert.Equal(t, "gh-pages", pub.Branch)
	assert.Equal(t, "Update build with latest master changes", pub.Message)
	assert.Equal(t, filepath.Join(root, "build", "docs"), pub.Dir)
	assert.Equal(t, "https://example.com/colorpicker.git", pub.RepoURL)
}

func TestRun_PublishDocsCloneFailure(t *testing.T) {
	root := project(t)
	g := &fakeGit{cloneErr: &git.NotFoundError{Op: "clone", URL: "x", Err: errors.New("reference not found")}}
	p := newPipeline(t, root, fakeTools(root), g, func(c *config.Config) {
		c.Publish.Repository = "https://example.com/override.git"
	})

	_, err := p.Run(context.Background(), TaskPublishDocs)
	task, ok := sequencer.FailedTask(err)
	require.True(t, ok)
	assert.Equal(t, TaskDocsAddV2, task)
	assert.Empty(t, g.published)
	assert.Equal(t, []string{"https://example.com/override.git@v2"}, g.clones)
}

func TestRun_PublishDocsWithoutGit(t *testing.T) {
	root := project(t)
	p := newPipeline(t, root, fakeTools(root), nil)

	_, err := p.Run(context.Background(), TaskDocsAddV2)
	require.ErrorIs(t, err, sequencer.ErrTaskExecution)
}

func TestRun_CleanWithBuildIsRejected(t *testing.T) {
	p := newPipeline(t, project(t), &process.FakeRunner{}, nil)

	_, err := p.Run(context.Background(), TaskClean, TaskJS)
	require.ErrorIs(t, err, sequencer.ErrOutputConflict)
}

func TestRun_WatchStopsOnCancel(t *testing.T) {
	root := project(t)
	runner := fakeTools(root)
	p := newPipeline(t, root, runner, nil, func(c *config.Config) {
		c.Watch.Debounce = 10 * time.Millisecond
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	report, err := p.Run(ctx, TaskWatch)
	require.NoError(t, err)

	res, ok := report.Result(TaskWatch)
	require.True(t, ok)
	assert.Equal(t, sequencer.StateDone, res.State)
	res, ok = report.Result(TaskDefault)
	require.True(t, ok)
	assert.Equal(t, sequencer.StateDone, res.State)
}

func TestRun_WatchRejectsUnknownRuleTask(t *testing.T) {
	root := project(t)
	p := newPipeline(t, root, fakeTools(root), nil, func(c *config.Config) {
		c.Watch.Rules = []config.WatchRule{{Pattern: "src/**/*.ts", Task: "typescript"}}
	})

	_, err := p.Run(context.Background(), TaskWatch)
	require.ErrorIs(t, err, sequencer.ErrUnknownTask)
	task, _ := sequencer.FailedTask(err)
	assert.Equal(t, TaskWatch, task)
}

func TestCommand_Placeholders(t *testing.T) {
	p := newPipeline(t, "/project", &process.FakeRunner{}, nil)

	c := p.command(config.Command{Name: "npx", Args: []string{"cleancss", "-o", "{output}", "{input}"}},
		map[string]string{"input": "a.css", "output": "a.min.css"}, []string{"ignored"})
	assert.Equal(t, []string{"cleancss", "-o", "a.min.css", "a.css"}, c.Args)

	c = p.command(config.Command{Name: "npx", Args: []string{"cleancss"}}, nil, []string{"-o", "b.min.css", "b.css"})
	assert.Equal(t, []string{"cleancss", "-o", "b.min.css", "b.css"}, c.Args)

	c = p.command(config.Command{Name: "node_modules/.bin/jsdoc"}, nil, nil)
	assert.Equal(t, filepath.Join("/project", "node_modules", ".bin", "jsdoc"), c.Name)
	assert.Equal(t, "/project", c.Dir)
}
