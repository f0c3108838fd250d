package sequencer

import (
	"log/slog"

	"git.home.luguber.info/inful/buildseq/internal/logfields"
)

// Observer receives lifecycle callbacks for an invocation. Callbacks are delivered
// sequentially from the coordinating goroutine and must not block for long.
type Observer interface {
	RunStarted(r *Report)
	TaskStarted(r *Report, task string)
	TaskFinished(r *Report, res TaskResult)
	RunFinished(r *Report)
}

// NoopObserver ignores every callback.
type NoopObserver struct{}

func (NoopObserver) RunStarted(*Report)               {}
func (NoopObserver) TaskStarted(*Report, string)      {}
func (NoopObserver) TaskFinished(*Report, TaskResult) {}
func (NoopObserver) RunFinished(*Report)              {}

// MultiObserver fans callbacks out to each observer in order.
type MultiObserver []Observer

func (m MultiObserver) RunStarted(r *Report) {
	for _, o := range m {
		o.RunStarted(r)
	}
}

func (m MultiObserver) TaskStarted(r *Report, task string) {
	for _, o := range m {
		o.TaskStarted(r, task)
	}
}

func (m MultiObserver) TaskFinished(r *Report, res TaskResult) {
	for _, o := range m {
		o.TaskFinished(r, res)
	}
}

func (m MultiObserver) RunFinished(r *Report) {
	for _, o := range m {
		o.RunFinished(r)
	}
}

// LogObserver writes lifecycle events to a slog logger.
type LogObserver struct {
	Logger *slog.Logger
}

func (o LogObserver) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

func (o LogObserver) RunStarted(r *Report) {
	o.logger().Info("Starting run", logfields.RunID(r.RunID), logfields.Targets(r.Targets))
}

func (o LogObserver) TaskStarted(r *Report, task string) {
	o.logger().Info("Starting task", logfields.RunID(r.RunID), logfields.Task(task))
}

func (o LogObserver) TaskFinished(r *Report, res TaskResult) {
	if res.Err != nil {
		o.logger().Error("Task failed",
			logfields.RunID(r.RunID),
			logfields.Task(res.Name),
			logfields.DurationMS(float64(res.Duration.Milliseconds())),
			logfields.Error(res.Err))
		return
	}
	o.logger().Info("Finished task",
		logfields.RunID(r.RunID),
		logfields.Task(res.Name),
		logfields.DurationMS(float64(res.Duration.Milliseconds())))
}

func (o LogObserver) RunFinished(r *Report) {
	attrs := []any{
		logfields.RunID(r.RunID),
		logfields.Targets(r.Targets),
		logfields.DurationMS(float64(r.Duration.Milliseconds())),
		slog.Int("done", r.Count(StateDone)),
		slog.Int("skipped", r.Count(StateSkipped)),
	}
	if r.Err != nil {
		o.logger().Error("Run failed", append(attrs, logfields.Error(r.Err))...)
		return
	}
	o.logger().Info("Run completed", attrs...)
}
