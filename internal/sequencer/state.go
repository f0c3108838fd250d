package sequencer

import "time"

// State is the per-invocation lifecycle state of a task.
type State string

const (
	StatePending State = "pending"
	StateRunning State = "running"
	StateDone    State = "done"
	StateFailed  State = "failed"
	StateSkipped State = "skipped" // never started because the invocation aborted
)

// IsTerminal reports whether no further transition can happen in this invocation.
func (s State) IsTerminal() bool {
	switch s {
	case StateDone, StateFailed, StateSkipped:
		return true
	default:
		return false
	}
}

// TaskResult is the outcome of one task within an invocation.
type TaskResult struct {
	Name      string
	State     State
	StartedAt time.Time
	Duration  time.Duration
	Err       error
}

// Report describes one invocation. It is written only by the coordinating goroutine.
type Report struct {
	RunID     string
	Targets   []string
	StartedAt time.Time
	Duration  time.Duration
	Order     []string // completion order of successful tasks
	Tasks     map[string]*TaskResult
	Err       error
}

// Result returns the outcome recorded for name.
func (r *Report) Result(name string) (TaskResult, bool) {
	if r == nil || r.Tasks == nil {
		return TaskResult{}, false
	}
	res, ok := r.Tasks[name]
	if !ok {
		return TaskResult{}, false
	}
	return *res, true
}

// Succeeded reports whether the invocation completed without error.
func (r *Report) Succeeded() bool { return r != nil && r.Err == nil }

// Count returns the number of tasks in the given state.
func (r *Report) Count(state State) int {
	if r == nil {
		return 0
	}
	n := 0
	for _, res := range r.Tasks {
		if res.State == state {
			n++
		}
	}
	return n
}

// Outcome summarizes the invocation as success, failed or canceled.
func (r *Report) Outcome() string {
	switch {
	case r == nil || r.Err == nil:
		return "success"
	case isContextErr(r.Err):
		return "canceled"
	default:
		return "failed"
	}
}
