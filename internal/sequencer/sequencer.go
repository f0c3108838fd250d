package sequencer

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Option configures a Sequencer.
type Option func(*Sequencer)

// WithConcurrency bounds the number of actions running at once. Zero or less means unbounded.
func WithConcurrency(n int) Option {
	return func(s *Sequencer) { s.concurrency = n }
}

// WithObserver installs a lifecycle observer.
func WithObserver(o Observer) Option {
	return func(s *Sequencer) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithRunIDGenerator replaces the uuid based run identifier source.
func WithRunIDGenerator(fn func() string) Option {
	return func(s *Sequencer) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// Sequencer executes tasks from a Registry. Each call to Run is an independent
// invocation with its own run state, so a Sequencer may be shared and reused.
type Sequencer struct {
	registry    *Registry
	concurrency int
	observer    Observer
	newID       func() string
	now         func() time.Time
}

// New creates a Sequencer over reg.
func New(reg *Registry, opts ...Option) *Sequencer {
	s := &Sequencer{
		registry: reg,
		observer: NoopObserver{},
		newID:    uuid.NewString,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Registry returns the registry the sequencer reads definitions from.
func (s *Sequencer) Registry() *Registry { return s.registry }

// Plan returns the execution order Run would use for targets without executing anything.
func (s *Sequencer) Plan(targets ...string) ([]string, error) {
	p, err := resolve(s.registry.snapshot(), targets)
	if err != nil {
		return nil, err
	}
	return slices.Clone(p.order), nil
}

type completion struct {
	name string
	err  error
	at   time.Time
}

// Run executes targets and their transitive dependencies, each exactly once. The first failing
// task aborts the invocation: running actions are allowed to finish and nothing new is started.
func (s *Sequencer) Run(ctx context.Context, targets ...string) (*Report, error) {
	report := &Report{
		RunID:     s.newID(),
		Targets:   slices.Clone(targets),
		StartedAt: s.now(),
		Tasks:     make(map[string]*TaskResult),
	}
	s.observer.RunStarted(report)

	err := s.execute(ctx, report)
	report.Duration = s.now().Sub(report.StartedAt)
	report.Err = err
	s.observer.RunFinished(report)
	return report, err
}

func (s *Sequencer) execute(ctx context.Context, report *Report) error {
	p, err := resolve(s.registry.snapshot(), report.Targets)
	if err != nil {
		return err
	}

	waiting := make(map[string]int, len(p.tasks))
	var ready []string
	for _, name := range p.order {
		report.Tasks[name] = &TaskResult{Name: name, State: StatePending}
		waiting[name] = len(p.deps[name])
		if waiting[name] == 0 {
			ready = append(ready, name)
		}
	}
	slices.Sort(ready)

	done := make(chan completion, len(p.tasks))
	running := 0
	var failure error

	for {
		for failure == nil && ctx.Err() == nil && len(ready) > 0 &&
			(s.concurrency <= 0 || running < s.concurrency) {
			name := ready[0]
			ready = ready[1:]

			res := report.Tasks[name]
			res.State = StateRunning
			res.StartedAt = s.now()
			s.observer.TaskStarted(report, name)

			running++
			go s.invoke(ctx, p.tasks[name], done)
		}
		if running == 0 {
			break
		}

		c := <-done
		running--
		res := report.Tasks[c.name]
		res.Duration = c.at.Sub(res.StartedAt)
		if c.err != nil {
			res.State = StateFailed
			res.Err = c.err
			s.observer.TaskFinished(report, *res)
			if failure == nil {
				failure = &TaskExecutionError{Task: c.name, Err: c.err}
			}
			continue
		}

		res.State = StateDone
		report.Order = append(report.Order, c.name)
		s.observer.TaskFinished(report, *res)
		for _, child := range p.dependents[c.name] {
			waiting[child]--
			if waiting[child] == 0 {
				ready = insertSorted(ready, child)
			}
		}
	}

	for _, res := range report.Tasks {
		if !res.State.IsTerminal() {
			res.State = StateSkipped
		}
	}

	if failure != nil {
		return failure
	}
	if err := ctx.Err(); err != nil && report.Count(StateSkipped) > 0 {
		return fmt.Errorf("run %s interrupted: %w", report.RunID, err)
	}
	return nil
}

func (s *Sequencer) invoke(ctx context.Context, t Task, done chan<- completion) {
	err := callAction(ctx, t)
	done <- completion{name: t.Name, err: err, at: s.now()}
}

func callAction(ctx context.Context, t Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Task: t.Name, Value: r}
		}
	}()
	if t.Action == nil {
		return nil
	}
	return t.Action(ctx)
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
