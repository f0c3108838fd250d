package logfields

import (
	"log/slog"
	"strings"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyTargets    = "targets"
	KeyTask       = "task"
	KeyState      = "state"
	KeyDurationMS = "duration_ms"
	KeyPath       = "path"
	KeyCommand    = "command"
	KeyURL        = "url"
	KeyBranch     = "branch"
	KeyName       = "name"
	KeyRule       = "rule"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr        { return slog.String(KeyRunID, id) }
func Targets(names []string) slog.Attr { return slog.String(KeyTargets, strings.Join(names, ",")) }
func Task(name string) slog.Attr       { return slog.String(KeyTask, name) }
func State(s string) slog.Attr         { return slog.String(KeyState, s) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func Command(c string) slog.Attr       { return slog.String(KeyCommand, c) }
func URL(u string) slog.Attr           { return slog.String(KeyURL, u) }
func Branch(b string) slog.Attr        { return slog.String(KeyBranch, b) }
func Name(n string) slog.Attr          { return slog.String(KeyName, n) }
func Rule(r string) slog.Attr          { return slog.String(KeyRule, r) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
