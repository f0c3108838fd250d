package sequencer

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel error kinds. Every typed error below matches exactly one of them via errors.Is,
// except OutputConflictError which also matches ErrConfiguration.
var (
	ErrUnknownTask      = errors.New("unknown task")
	ErrConfiguration    = errors.New("invalid task configuration")
	ErrCyclicDependency = errors.New("cyclic dependency")
	ErrOutputConflict   = errors.New("conflicting task outputs")
	ErrTaskExecution    = errors.New("task execution failed")
	errNoTasksRequested = errors.New("no task requested")
)

// UnknownTaskError reports a request for a task that was never registered.
type UnknownTaskError struct {
	Name string
}

func (e *UnknownTaskError) Error() string {
	if e.Name == "" {
		return errNoTasksRequested.Error()
	}
	return fmt.Sprintf("unknown task %q", e.Name)
}

func (e *UnknownTaskError) Is(target error) bool { return target == ErrUnknownTask }

// ConfigurationError reports a dependency on a task name that is not registered.
type ConfigurationError struct {
	Task       string
	Dependency string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("task %q depends on undeclared task %q", e.Task, e.Dependency)
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// CyclicDependencyError reports the set of tasks for which no execution order exists.
type CyclicDependencyError struct {
	Tasks []string // sorted
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("cyclic dependency among tasks: %s", strings.Join(e.Tasks, ", "))
}

func (e *CyclicDependencyError) Is(target error) bool { return target == ErrCyclicDependency }

// OutputConflictError reports two tasks that may run concurrently while writing overlapping paths.
type OutputConflictError struct {
	A, B         string
	PathA, PathB string
}

func (e *OutputConflictError) Error() string {
	return fmt.Sprintf("tasks %q and %q may run concurrently but write overlapping outputs %q and %q", e.A, e.B, e.PathA, e.PathB)
}

func (e *OutputConflictError) Is(target error) bool {
	return target == ErrOutputConflict || target == ErrConfiguration
}

// TaskExecutionError reports the first task whose action failed.
type TaskExecutionError struct {
	Task string
	Err  error
}

func (e *TaskExecutionError) Error() string {
	return fmt.Sprintf("task %q failed: %v", e.Task, e.Err)
}

func (e *TaskExecutionError) Unwrap() error { return e.Err }

func (e *TaskExecutionError) Is(target error) bool { return target == ErrTaskExecution }

// PanicError wraps a value recovered from a panicking action.
type PanicError struct {
	Task  string
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in task %q: %v", e.Task, e.Value)
}

// FailedTask returns the name of the failing task carried by err, if any.
func FailedTask(err error) (string, bool) {
	var te *TaskExecutionError
	if errors.As(err, &te) {
		return te.Task, true
	}
	return "", false
}
