// Package pipeline declares the project's build tasks on a sequencer registry.
//
// Every action is a thin adapter over a collaborator: an external command run through
// process.Runner, the tutorial renderer, the git client, or a filesystem copy.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"git.home.luguber.info/inful/buildseq/internal/config"
	"git.home.luguber.info/inful/buildseq/internal/git"
	"git.home.luguber.info/inful/buildseq/internal/pkgmeta"
	"git.home.luguber.info/inful/buildseq/internal/process"
	"git.home.luguber.info/inful/buildseq/internal/sequencer"
)

// GitClient is the part of git.Client the publish and v2 docs tasks need.
type GitClient interface {
	CloneBranch(ctx context.Context, url, branch, dir string) error
	PublishDir(ctx context.Context, opts git.PublishOptions) (git.PublishResult, error)
}

// Deps are the collaborators of the pipeline. Zero values get working defaults except Git,
// which is required only by the tasks that touch a remote repository.
type Deps struct {
	Runner  process.Runner
	Git     GitClient
	Logger  *slog.Logger
	Root    string // project directory; relative config paths resolve against it
	Options []sequencer.Option
}

// Pipeline owns the task registry and the sequencer that runs it.
type Pipeline struct {
	cfg    *config.Config
	runner process.Runner
	git    GitClient
	logger *slog.Logger
	root   string

	registry *sequencer.Registry
	seq      *sequencer.Sequencer
}

// New builds the registry for cfg.
func New(cfg *config.Config, deps Deps) (*Pipeline, error) {
	if cfg == nil {
		return nil, errors.New("pipeline: configuration is required")
	}
	p := &Pipeline{
		cfg:      cfg,
		runner:   deps.Runner,
		git:      deps.Git,
		logger:   deps.Logger,
		root:     deps.Root,
		registry: sequencer.NewRegistry(),
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.runner == nil {
		p.runner = &process.ExecRunner{Logger: p.logger}
	}
	if p.root == "" {
		p.root = "."
	}
	p.register()

	opts := append([]sequencer.Option{sequencer.WithConcurrency(cfg.Run.Concurrency)}, deps.Options...)
	p.seq = sequencer.New(p.registry, opts...)
	return p, nil
}

// Registry returns the task registry.
func (p *Pipeline) Registry() *sequencer.Registry { return p.registry }

// Sequencer returns the sequencer bound to the registry.
func (p *Pipeline) Sequencer() *sequencer.Sequencer { return p.seq }

// Run starts one invocation of tasks.
func (p *Pipeline) Run(ctx context.Context, tasks ...string) (*sequencer.Report, error) {
	return p.seq.Run(ctx, tasks...)
}

// path resolves a configured path against the project root.
func (p *Pipeline) path(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(p.root, rel)
}

func (p *Pipeline) loadPackage() (*pkgmeta.Package, error) {
	pkg, err := pkgmeta.Load(p.path(p.cfg.Package))
	if err != nil {
		return nil, err
	}
	return pkg, nil
}

func (p *Pipeline) banner() (string, *pkgmeta.Package, error) {
	pkg, err := p.loadPackage()
	if err != nil {
		return "", nil, err
	}
	b, err := pkgmeta.Banner(pkg, p.cfg.Banner.Title)
	if err != nil {
		return "", nil, err
	}
	return b, pkg, nil
}

// repositoryURL prefers the configured publish repository over package.json.
func (p *Pipeline) repositoryURL() (string, error) {
	if p.cfg.Publish.Repository != "" {
		return p.cfg.Publish.Repository, nil
	}
	pkg, err := p.loadPackage()
	if err != nil {
		return "", err
	}
	if url := pkg.Repository.CloneURL(); url != "" {
		return url, nil
	}
	return "", errors.New("no repository configured: set publish.repository or package.json repository")
}

func (p *Pipeline) requireGit() error {
	if p.git == nil {
		return fmt.Errorf("git client not configured")
	}
	return nil
}
