// Package watch re-runs tasks when source files matching configured globs change.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/buildseq/internal/logfields"
)

// DefaultDebounce is used when no debounce interval is configured.
const DefaultDebounce = 300 * time.Millisecond

// Rule maps a glob relative to the watch root onto the task to run when it changes.
type Rule struct {
	Pattern string
	Task    string
}

// TriggerFunc starts one invocation covering tasks. Every call is a fresh run, and calls
// never overlap.
type TriggerFunc func(ctx context.Context, tasks ...string) error

// Watcher observes the directories named by its rules.
type Watcher struct {
	root     string
	rules    []*ruleRunner
	debounce time.Duration
	trigger  TriggerFunc
	logger   *slog.Logger

	fsw  *fsnotify.Watcher
	done chan struct{}
	runs sync.WaitGroup

	mu      sync.Mutex
	pending []string
	running bool
	stopped bool
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period after the last event before a rule fires.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// New creates a watcher rooted at root. Patterns are slash-separated and relative to root.
func New(root string, rules []Rule, trigger TriggerFunc, opts ...Option) (*Watcher, error) {
	if trigger == nil {
		return nil, errors.New("watch: trigger is required")
	}
	if len(rules) == 0 {
		return nil, errors.New("watch: at least one rule is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve root: %w", err)
	}
	w := &Watcher{
		root:     abs,
		debounce: DefaultDebounce,
		trigger:  trigger,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	for _, r := range rules {
		if r.Pattern == "" || r.Task == "" {
			return nil, fmt.Errorf("watch: rule %q -> %q needs both a pattern and a task", r.Pattern, r.Task)
		}
		w.rules = append(w.rules, &ruleRunner{rule: r, w: w})
	}
	return w, nil
}

// Start installs the filesystem watches and begins processing events in the background.
// It returns once every existing directory is watched.
func (w *Watcher) Start(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	w.fsw = fsw
	w.done = make(chan struct{})

	seen := make(map[string]bool)
	for _, r := range w.rules {
		dir := filepath.Join(w.root, filepath.FromSlash(baseDir(r.rule.Pattern)))
		if seen[dir] {
			continue
		}
		seen[dir] = true
		if _, statErr := os.Stat(dir); statErr != nil {
			w.logger.Warn("Watch directory missing", logfields.Path(dir), logfields.Rule(r.rule.Pattern))
			continue
		}
		if err := w.addDirsRecursive(dir); err != nil {
			_ = fsw.Close()
			return err
		}
	}

	w.logger.Info("Watching for changes", logfields.Path(w.root), slog.Int("rules", len(w.rules)))
	go w.loop(ctx)
	return nil
}

// Wait blocks until the event loop has stopped and every triggered run has returned.
func (w *Watcher) Wait() {
	if w.done != nil {
		<-w.done
	}
	w.runs.Wait()
}

// Run watches until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.Start(ctx); err != nil {
		return err
	}
	w.Wait()
	return nil
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.done)
	defer func() {
		w.stop()
		if err := w.fsw.Close(); err != nil {
			w.logger.Warn("Error closing file watcher", logfields.Error(err))
		}
	}()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Stopping watcher")
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ctx, ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, ev fsnotify.Event) {
	if shouldIgnore(ev.Name) {
		return
	}
	if ev.Op&fsnotify.Create == fsnotify.Create {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = w.addDirsRecursive(ev.Name)
		}
	}
	rel, err := filepath.Rel(w.root, ev.Name)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)
	for _, r := range w.rules {
		if Match(r.rule.Pattern, rel) {
			w.logger.Debug("File change detected", logfields.Path(rel), slog.String("op", ev.Op.String()), logfields.Task(r.rule.Task))
			r.schedule(ctx)
		}
	}
}

func (w *Watcher) addDirsRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if err := w.fsw.Add(path); err != nil {
				w.logger.Warn("Watch add failed", logfields.Path(path), logfields.Error(err))
			}
		}
		return nil
	})
}

// shouldIgnore skips hidden files and editor temporaries.
func shouldIgnore(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") ||
		strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".tmp")
}

// ruleRunner debounces events for one rule and hands its task to the watcher's rebuild worker.
type ruleRunner struct {
	rule Rule
	w    *Watcher

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
}

func (r *ruleRunner) schedule(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return
	}
	if r.timer != nil {
		r.timer.Stop()
	}
	r.timer = time.AfterFunc(r.w.debounce, func() { r.fire(ctx) })
}

func (r *ruleRunner) fire(ctx context.Context) {
	r.mu.Lock()
	stopped := r.stopped
	r.mu.Unlock()
	if stopped {
		return
	}
	r.w.enqueue(ctx, r.rule)
}

func (r *ruleRunner) stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = true
	if r.timer != nil {
		r.timer.Stop()
	}
}

// enqueue adds the rule's task to the pending batch. A single worker drains the batch, so
// invocations never overlap; tasks queued while a run is in progress are merged into the
// next one.
func (w *Watcher) enqueue(ctx context.Context, rule Rule) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	if !slices.Contains(w.pending, rule.Task) {
		w.pending = append(w.pending, rule.Task)
		w.logger.Debug("Task queued", logfields.Task(rule.Task), logfields.Rule(rule.Pattern))
	}
	if w.running {
		return
	}
	w.running = true
	w.runs.Add(1)
	go w.drain(ctx)
}

func (w *Watcher) drain(ctx context.Context) {
	defer w.runs.Done()
	for {
		w.mu.Lock()
		if len(w.pending) == 0 || w.stopped || ctx.Err() != nil {
			w.pending = nil
			w.running = false
			w.mu.Unlock()
			return
		}
		batch := w.pending
		w.pending = nil
		w.mu.Unlock()

		w.invoke(ctx, batch)
	}
}

func (w *Watcher) invoke(ctx context.Context, tasks []string) {
	if ctx.Err() != nil {
		return
	}
	w.logger.Info("Change detected; running tasks", logfields.Targets(tasks))
	if err := w.trigger(ctx, tasks...); err != nil {
		w.logger.Warn("Triggered run failed", logfields.Targets(tasks), logfields.Error(err))
	}
}

func (w *Watcher) stop() {
	w.mu.Lock()
	w.stopped = true
	w.mu.Unlock()
	for _, r := range w.rules {
		r.stop()
	}
}
