// Package process runs external build tools (bundlers, compilers, doc generators)
// and reports failures with their exit code and captured output.
package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"git.home.luguber.info/inful/buildseq/internal/logfields"
)

// ErrCommandNotFound is wrapped when the binary cannot be resolved on PATH.
var ErrCommandNotFound = errors.New("command not found")

// Command describes one tool invocation.
type Command struct {
	Name string
	Args []string
	Dir  string
	Env  []string // KEY=VALUE pairs appended to the current environment
}

func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// ExitError reports a command that ran and exited non-zero.
type ExitError struct {
	Command string
	Code    int
	Output  string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Output == "" {
		return fmt.Sprintf("%s exited with status %d", e.Command, e.Code)
	}
	return fmt.Sprintf("%s exited with status %d: %s", e.Command, e.Code, e.Output)
}

func (e *ExitError) Unwrap() error { return e.Err }

// Result holds the captured streams of a successful run.
type Result struct {
	Stdout string
	Stderr string
}

// Runner executes commands.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	Logger *slog.Logger
}

// NewRunner returns an ExecRunner logging to the default logger.
func NewRunner() *ExecRunner { return &ExecRunner{} }

func (r *ExecRunner) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}

// Run resolves the binary, runs it and captures stdout and stderr.
func (r *ExecRunner) Run(ctx context.Context, c Command) (Result, error) {
	path, err := exec.LookPath(c.Name)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %s: %w", ErrCommandNotFound, c.Name, err)
	}

	// #nosec G204 -- commands come from the project configuration
	cmd := exec.CommandContext(ctx, path, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log := r.logger().With(logfields.Command(c.String()))
	log.Debug("Running command", logfields.Path(c.Dir))
	err = cmd.Run()

	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if res.Stdout != "" {
		log.Debug("command stdout", "output", res.Stdout)
	}
	if res.Stderr != "" {
		log.Warn("command stderr", "error_output", res.Stderr)
	}
	if err == nil {
		return res, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return res, fmt.Errorf("%s: %w", c.Name, ctxErr)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return res, &ExitError{Command: c.String(), Code: exitErr.ExitCode(), Output: combine(res), Err: err}
	}
	return res, fmt.Errorf("run %s: %w", c.Name, err)
}

// combine prefers stderr and falls back to stdout; tools differ in which stream carries errors.
func combine(res Result) string {
	out := strings.TrimSpace(res.Stderr)
	if so := strings.TrimSpace(res.Stdout); out == "" {
		out = so
	} else if so != "" {
		out = so + "\n" + out
	}
	return out
}

// Script runs commands in order and stops at the first failure.
func Script(ctx context.Context, r Runner, cmds ...Command) error {
	for _, c := range cmds {
		if _, err := r.Run(ctx, c); err != nil {
			return err
		}
	}
	return nil
}
