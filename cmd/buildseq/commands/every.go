package commands

import (
	"context"
	"time"

	ferrors "git.home.luguber.info/inful/buildseq/internal/foundation/errors"
	"git.home.luguber.info/inful/buildseq/internal/logfields"
	"git.home.luguber.info/inful/buildseq/internal/schedule"
)

// EveryCmd implements the 'every' command.
type EveryCmd struct {
	Interval  time.Duration `help:"Time between runs" default:"1h"`
	Immediate bool          `help:"Run once right away instead of waiting one interval" default:"true" negatable:""`
	Tasks     []string      `arg:"" help:"Tasks to run"`
}

func (e *EveryCmd) Run(g *Global, root *CLI) error {
	if e.Interval <= 0 {
		return commandError("--interval must be positive, got %s", e.Interval)
	}
	s, err := openSession(g, root, sessionOptions{concurrency: -1})
	if err != nil {
		return err
	}
	defer s.close()

	// Reject unknown tasks and bad graphs before the first tick.
	if _, err := s.pipeline.Sequencer().Plan(e.Tasks...); err != nil {
		return err
	}

	sched, err := schedule.NewScheduler(g.logger())
	if err != nil {
		return schedulerError(err)
	}
	trigger := func(ctx context.Context, tasks ...string) error {
		_, err := s.pipeline.Run(ctx, tasks...)
		s.writeMetrics("")
		return err
	}
	if _, err := sched.Every(g.ctx(), e.Interval, e.Immediate, trigger, e.Tasks...); err != nil {
		return schedulerError(err)
	}
	g.logger().Info("Scheduled periodic run", logfields.Targets(e.Tasks), "interval", e.Interval.String())
	if err := sched.Run(g.ctx()); err != nil {
		return schedulerError(err)
	}
	return nil
}

func schedulerError(err error) error {
	return ferrors.RuntimeError("scheduler failed").WithCause(err).Build()
}
