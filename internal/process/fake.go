package process

import (
	"context"
	"sync"
)

// FakeRunner records commands instead of executing them. Handler, when set, decides the outcome.
type FakeRunner struct {
	Handler func(ctx context.Context, cmd Command) (Result, error)

	mu       sync.Mutex
	commands []Command
}

func (f *FakeRunner) Run(ctx context.Context, cmd Command) (Result, error) {
	f.mu.Lock()
	f.commands = append(f.commands, cmd)
	f.mu.Unlock()
	if f.Handler != nil {
		return f.Handler(ctx, cmd)
	}
	return Result{}, nil
}

// Commands returns a copy of the recorded invocations.
func (f *FakeRunner) Commands() []Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Command(nil), f.commands...)
}

// Names returns the recorded command names together with their first argument, if any.
func (f *FakeRunner) Names() []string {
	cmds := f.Commands()
	out := make([]string, 0, len(cmds))
	for _, c := range cmds {
		name := c.Name
		if len(c.Args) > 0 {
			name += " " + c.Args[0]
		}
		out = append(out, name)
	}
	return out
}
