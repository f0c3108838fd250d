package metrics

import "git.home.luguber.info/inful/buildseq/internal/sequencer"

// Observer adapts a Recorder to sequencer.Observer.
type Observer struct {
	rec Recorder
}

var _ sequencer.Observer = Observer{}

// NewObserver wraps rec; a nil rec records nothing.
func NewObserver(rec Recorder) Observer {
	if rec == nil {
		rec = NoopRecorder{}
	}
	return Observer{rec: rec}
}

func (Observer) RunStarted(*sequencer.Report)          {}
func (Observer) TaskStarted(*sequencer.Report, string) {}

func (o Observer) TaskFinished(_ *sequencer.Report, res sequencer.TaskResult) {
	o.rec.ObserveTaskDuration(res.Name, res.Duration)
	result := ResultSuccess
	if res.State == sequencer.StateFailed {
		result = ResultFailed
	}
	o.rec.IncTaskResult(res.Name, result)
}

func (o Observer) RunFinished(r *sequencer.Report) {
	for name, res := range r.Tasks {
		if res.State == sequencer.StateSkipped {
			label := ResultSkipped
			if r.Outcome() == "canceled" {
				label = ResultCanceled
			}
			o.rec.IncTaskResult(name, label)
		}
	}
	o.rec.ObserveRunDuration(r.Duration)
	o.rec.IncRunOutcome(r.Outcome())
}
