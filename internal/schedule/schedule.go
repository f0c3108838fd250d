// Package schedule invokes tasks periodically on top of gocron.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/buildseq/internal/logfields"
)

// TriggerFunc starts one invocation of tasks.
type TriggerFunc func(ctx context.Context, tasks ...string) error

// Scheduler wraps a gocron scheduler.
type Scheduler struct {
	scheduler gocron.Scheduler
	logger    *slog.Logger
}

// NewScheduler creates a scheduler. It does nothing until Start.
func NewScheduler(logger *slog.Logger) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{scheduler: s, logger: logger}, nil
}

// Every registers tasks to run each interval. A run that outlasts the interval delays the next
// one instead of overlapping it. With immediate set the first run starts at Start.
func (s *Scheduler) Every(ctx context.Context, interval time.Duration, immediate bool, trigger TriggerFunc, tasks ...string) (string, error) {
	if interval <= 0 {
		return "", errors.New("interval must be positive")
	}
	if len(tasks) == 0 {
		return "", errors.New("at least one task is required")
	}
	opts := []gocron.JobOption{
		gocron.WithName(strings.Join(tasks, ",")),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithContext(ctx),
	}
	if immediate {
		opts = append(opts, gocron.WithStartAt(gocron.WithStartImmediately()))
	}
	job, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func(ctx context.Context) { s.execute(ctx, trigger, tasks) }),
		opts...,
	)
	if err != nil {
		return "", fmt.Errorf("failed to create periodic job: %w", err)
	}
	return job.ID().String(), nil
}

func (s *Scheduler) execute(ctx context.Context, trigger TriggerFunc, tasks []string) {
	s.logger.Info("Executing scheduled run", logfields.Targets(tasks))
	if err := trigger(ctx, tasks...); err != nil {
		s.logger.Error("Scheduled run failed", logfields.Targets(tasks), logfields.Error(err))
	}
}

// Start begins the scheduler.
func (s *Scheduler) Start() {
	s.logger.Info("Starting scheduler")
	s.scheduler.Start()
}

// Stop shuts the scheduler down and waits for running jobs.
func (s *Scheduler) Stop() error {
	s.logger.Info("Stopping scheduler")
	return s.scheduler.Shutdown()
}

// Run starts the scheduler and blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	s.Start()
	<-ctx.Done()
	return s.Stop()
}
