package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/buildseq/internal/config"
	"git.home.luguber.info/inful/buildseq/internal/events"
	ferrors "git.home.luguber.info/inful/buildseq/internal/foundation/errors"
	"git.home.luguber.info/inful/buildseq/internal/git"
	"git.home.luguber.info/inful/buildseq/internal/history"
	"git.home.luguber.info/inful/buildseq/internal/logfields"
	"git.home.luguber.info/inful/buildseq/internal/metrics"
	"git.home.luguber.info/inful/buildseq/internal/pipeline"
	"git.home.luguber.info/inful/buildseq/internal/process"
	"git.home.luguber.info/inful/buildseq/internal/retry"
	"git.home.luguber.info/inful/buildseq/internal/sequencer"
)

// Global is shared by every subcommand.
type Global struct {
	Context context.Context
	Out     io.Writer
	Logger  *slog.Logger
}

func (g *Global) ctx() context.Context {
	if g.Context == nil {
		return context.Background()
	}
	return g.Context
}

func (g *Global) out() io.Writer {
	if g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

func (g *Global) logger() *slog.Logger {
	if g.Logger == nil {
		return slog.Default()
	}
	return g.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"buildseq.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Run     RunCmd     `cmd:"" default:"withargs" help:"Run tasks and their dependencies (default task: default)"`
	List    ListCmd    `cmd:"" help:"List the registered tasks"`
	Graph   GraphCmd   `cmd:"" help:"Print the task dependency graph (text, mermaid, dot)"`
	Watch   WatchCmd   `cmd:"" help:"Build, then rebuild on source changes until interrupted"`
	Every   EveryCmd   `cmd:"" help:"Run tasks periodically"`
	History HistoryCmd `cmd:"" help:"Show recorded runs"`
	Init    InitCmd    `cmd:"" help:"Write an example configuration file"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply(g *Global) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLogLevel(c.Verbose)}))
	slog.SetDefault(logger)
	g.Logger = logger
	return nil
}

// parseLogLevel honours BUILDSEQ_LOG_LEVEL over the verbose flag.
func parseLogLevel(verbose bool) slog.Level {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("BUILDSEQ_LOG_LEVEL"))) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "load config").
			WithContext("path", path).Fatal().Build()
	}
	return cfg, nil
}

type sessionOptions struct {
	concurrency int // negative keeps the configured value
	noHistory   bool
}

// session is one configured pipeline together with the observers attached to it.
type session struct {
	cfg      *config.Config
	pipeline *pipeline.Pipeline
	metrics  *metrics.PrometheusRecorder
	logger   *slog.Logger
	closers  []func() error
}

func openSession(g *Global, root *CLI, opts sessionOptions) (*session, error) {
	cfg, err := loadConfig(root.Config)
	if err != nil {
		return nil, err
	}
	if opts.concurrency >= 0 {
		cfg.Run.Concurrency = opts.concurrency
	}
	logger := g.logger()
	s := &session{cfg: cfg, metrics: metrics.NewPrometheusRecorder(nil), logger: logger}

	observers := sequencer.MultiObserver{
		sequencer.LogObserver{Logger: logger},
		metrics.NewObserver(s.metrics),
	}
	if cfg.History.IsEnabled() && !opts.noHistory {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			logger.Warn("Run history disabled", logfields.Path(cfg.History.Path), logfields.Error(err))
		} else {
			observers = append(observers, history.NewObserver(store, logger))
			s.closers = append(s.closers, store.Close)
		}
	}
	if cfg.Events.NATSURL != "" {
		nc, err := events.Connect(cfg.Events.NATSURL)
		if err != nil {
			logger.Warn("Event publishing disabled", logfields.URL(cfg.Events.NATSURL), logfields.Error(err))
		} else {
			observers = append(observers, events.NewObserver(nc, cfg.Events.Subject, logger))
			s.closers = append(s.closers, nc.Drain)
		}
	}

	gitClient := git.NewClient(
		git.WithAuth(cfg.Publish.Auth),
		git.WithRetryPolicy(retry.FromConfig(cfg.Retry)),
		git.WithLogger(logger),
	)
	p, err := pipeline.New(cfg, pipeline.Deps{
		Runner:  &process.ExecRunner{Logger: logger},
		Git:     gitClient,
		Logger:  logger,
		Options: []sequencer.Option{sequencer.WithObserver(observers)},
	})
	if err != nil {
		s.close()
		return nil, err
	}
	s.pipeline = p
	return s, nil
}

// writeMetrics exports the recorder when a textfile path is given by flag or config.
func (s *session) writeMetrics(path string) {
	if path == "" {
		path = s.cfg.Metrics.Textfile
	}
	if path == "" {
		return
	}
	if err := s.metrics.WriteTextfile(path); err != nil {
		s.logger.Warn("Failed to write metrics", logfields.Path(path), logfields.Error(err))
		return
	}
	s.logger.Debug("Metrics written", logfields.Path(path))
}

func (s *session) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			s.logger.Warn("Failed to close session resource", logfields.Error(err))
		}
	}
}

// Classify maps errors returned by commands onto the categories used for exit codes.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := ferrors.AsClassified(err); ok {
		return err
	}
	task, hasTask := sequencer.FailedTask(err)
	cause := err
	var te *sequencer.TaskExecutionError
	if errors.As(err, &te) {
		cause = te.Err
	}

	var b *ferrors.ErrorBuilder
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		b = ferrors.CanceledError("run interrupted")
	case errors.Is(err, sequencer.ErrCyclicDependency):
		b = ferrors.DependencyError("task dependencies form a cycle")
	case errors.Is(err, sequencer.ErrUnknownTask),
		errors.Is(err, sequencer.ErrConfiguration),
		errors.Is(err, sequencer.ErrOutputConflict):
		b = ferrors.NewError(ferrors.CategoryConfig, "invalid task graph").Fatal()
	case hasTask:
		b = classifyTaskFailure(cause)
	default:
		return err
	}
	b = b.WithCause(cause)
	if hasTask {
		b = b.WithContext("task", task)
	}
	return b.Build()
}

// classifyTaskFailure picks a category from the error an action returned.
func classifyTaskFailure(cause error) *ferrors.ErrorBuilder {
	var (
		authErr     *git.AuthError
		timeoutErr  *git.NetworkTimeoutError
		rateErr     *git.RateLimitError
		notFoundErr *git.NotFoundError
		protoErr    *git.UnsupportedProtocolError
		exitErr     *process.ExitError
		panicErr    *sequencer.PanicError
		pathErr     *fs.PathError
	)
	switch {
	case errors.As(cause, &authErr):
		return ferrors.AuthError("git authentication failed")
	case errors.As(cause, &timeoutErr), errors.As(cause, &rateErr):
		return ferrors.NetworkError("git remote unavailable")
	case errors.As(cause, &notFoundErr), errors.As(cause, &protoErr):
		return ferrors.GitError("git operation failed")
	case errors.As(cause, &exitErr), errors.Is(cause, process.ErrCommandNotFound):
		return ferrors.ProcessError("command failed")
	case errors.As(cause, &panicErr):
		return ferrors.InternalError("task panicked")
	case errors.As(cause, &pathErr):
		return ferrors.FileSystemError("file operation failed")
	default:
		return ferrors.BuildError("task failed")
	}
}

func commandError(format string, args ...any) error {
	return ferrors.ValidationError(fmt.Sprintf(format, args...)).Build()
}
