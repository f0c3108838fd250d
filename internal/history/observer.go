package history

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"git.home.luguber.info/inful/buildseq/internal/logfields"
	"git.home.luguber.info/inful/buildseq/internal/sequencer"
)

// writeTimeout bounds each write made from an observer callback.
const writeTimeout = 5 * time.Second

// Observer records sequencer lifecycle callbacks into a Store. Write failures are logged
// and never affect the run.
type Observer struct {
	Store  *Store
	Logger *slog.Logger
}

var _ sequencer.Observer = (*Observer)(nil)

// NewObserver creates an Observer for store.
func NewObserver(store *Store, logger *slog.Logger) *Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Observer{Store: store, Logger: logger}
}

func (o *Observer) RunStarted(r *sequencer.Report) {
	o.write("insert run", r.RunID, func(ctx context.Context) error {
		return o.Store.StartRun(ctx, Run{ID: r.RunID, Targets: r.Targets, StartedAt: r.StartedAt})
	})
}

func (o *Observer) TaskStarted(*sequencer.Report, string) {}

func (o *Observer) TaskFinished(r *sequencer.Report, res sequencer.TaskResult) {
	o.write("record task", r.RunID, func(ctx context.Context) error {
		return o.Store.RecordTask(ctx, taskRunFrom(r.RunID, res))
	})
}

func (o *Observer) RunFinished(r *sequencer.Report) {
	run := Run{
		ID:       r.RunID,
		Targets:  r.Targets,
		Status:   r.Outcome(),
		Duration: r.Duration,
	}
	if r.Err != nil {
		run.Error = r.Err.Error()
		if task, ok := sequencer.FailedTask(r.Err); ok {
			run.FailedTask = task
		}
	}

	// Tasks that never started get a row too so the run reads complete.
	names := make([]string, 0, len(r.Tasks))
	for name, res := range r.Tasks {
		if res.State == sequencer.StateSkipped {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	o.write("finish run", r.RunID, func(ctx context.Context) error {
		var errs []error
		for _, name := range names {
			errs = append(errs, o.Store.RecordTask(ctx, taskRunFrom(r.RunID, *r.Tasks[name])))
		}
		errs = append(errs, o.Store.FinishRun(ctx, run))
		return errors.Join(errs...)
	})
}

func (o *Observer) write(op, runID string, fn func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		o.Logger.Warn("Failed to write run history", slog.String("op", op), logfields.RunID(runID), logfields.Error(err))
	}
}

func taskRunFrom(runID string, res sequencer.TaskResult) TaskRun {
	tr := TaskRun{
		RunID:     runID,
		Task:      res.Name,
		State:     string(res.State),
		StartedAt: res.StartedAt,
		Duration:  res.Duration,
	}
	if res.Err != nil {
		tr.Error = res.Err.Error()
	}
	return tr
}
