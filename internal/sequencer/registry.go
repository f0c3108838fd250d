package sequencer

import (
	"context"
	"slices"
	"sort"
	"sync"
)

// Action is the unit of work attached to a task. A nil Action marks a pure grouping task.
type Action func(ctx context.Context) error

// Task is a named unit of work with declared dependencies.
type Task struct {
	Name        string
	Deps        []string
	Action      Action
	Outputs     []string // paths written by the action; used for conflict detection
	Description string
}

// TaskOption customizes a task at registration time.
type TaskOption func(*Task)

// WithOutputs declares the files or directories a task writes.
func WithOutputs(paths ...string) TaskOption {
	return func(t *Task) { t.Outputs = append(t.Outputs, paths...) }
}

// WithDescription attaches a human readable description shown in listings.
func WithDescription(desc string) TaskOption {
	return func(t *Task) { t.Description = desc }
}

// Registry maps task names to definitions. It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	tasks map[string]Task
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tasks: make(map[string]Task)}
}

// Register adds a task, replacing any previous definition with the same name.
// Dependencies are not checked here; they may be registered later.
func (r *Registry) Register(name string, deps []string, action Action, opts ...TaskOption) {
	if name == "" {
		panic("sequencer: empty task name")
	}
	t := Task{Name: name, Deps: slices.Clone(deps), Action: action}
	for _, opt := range opts {
		opt(&t)
	}
	r.mu.Lock()
	r.tasks[name] = t
	r.mu.Unlock()
}

// Lookup returns the definition registered under name.
func (r *Registry) Lookup(name string) (Task, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tasks[name]
	return t, ok
}

// Names returns all registered task names in lexical order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tasks))
	for name := range r.tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len reports the number of registered tasks.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tasks)
}

// snapshot copies the current definitions so an invocation sees a stable registry.
func (r *Registry) snapshot() map[string]Task {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]Task, len(r.tasks))
	for name, t := range r.tasks {
		out[name] = t
	}
	return out
}
