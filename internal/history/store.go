// Package history records invocations and per-task outcomes in SQLite.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const driverName = "sqlite"

func init() {
	sqlx.BindDriver(driverName, sqlx.QUESTION)
}

// Run is one recorded invocation.
type Run struct {
	ID         string
	Targets    []string
	Status     string // running|success|failed|canceled
	FailedTask string
	Error      string
	StartedAt  time.Time
	Duration   time.Duration
}

// TaskRun is the recorded outcome of one task within a run.
type TaskRun struct {
	RunID     string
	Task      string
	State     string
	StartedAt time.Time
	Duration  time.Duration
	Error     string
}

type runRow struct {
	ID         string         `db:"id"`
	Targets    string         `db:"targets"`
	Status     string         `db:"status"`
	FailedTask sql.NullString `db:"failed_task"`
	Error      sql.NullString `db:"error"`
	StartedAt  int64          `db:"started_at"`
	DurationMS int64          `db:"duration_ms"`
}

func (r runRow) toRun() Run {
	run := Run{
		ID:         r.ID,
		Status:     r.Status,
		FailedTask: r.FailedTask.String,
		Error:      r.Error.String,
		StartedAt:  time.UnixMilli(r.StartedAt),
		Duration:   time.Duration(r.DurationMS) * time.Millisecond,
	}
	if r.Targets != "" {
		run.Targets = strings.Split(r.Targets, ",")
	}
	return run
}

type taskRow struct {
	RunID      string         `db:"run_id"`
	Task       string         `db:"task"`
	State      string         `db:"state"`
	StartedAt  sql.NullInt64  `db:"started_at"`
	DurationMS int64          `db:"duration_ms"`
	Error      sql.NullString `db:"error"`
}

func (r taskRow) toTaskRun() TaskRun {
	tr := TaskRun{
		RunID:    r.RunID,
		Task:     r.Task,
		State:    r.State,
		Duration: time.Duration(r.DurationMS) * time.Millisecond,
		Error:    r.Error.String,
	}
	if r.StartedAt.Valid {
		tr.StartedAt = time.UnixMilli(r.StartedAt.Int64)
	}
	return tr
}

// ErrRunNotFound is returned by Get for an unknown run id.
var ErrRunNotFound = errors.New("run not found")

// Store persists runs. It is safe for concurrent use.
type Store struct {
	db *sqlx.DB
}

// Open opens or creates the database at path. Use ":memory:" for a throwaway store.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}
	db, err := sqlx.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect sqlite database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		targets TEXT NOT NULL,
		status TEXT NOT NULL,
		failed_task TEXT,
		error TEXT,
		started_at INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	CREATE TABLE IF NOT EXISTS task_runs (
		run_id TEXT NOT NULL,
		task TEXT NOT NULL,
		state TEXT NOT NULL,
		started_at INTEGER,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		error TEXT,
		PRIMARY KEY (run_id, task)
	);
	CREATE INDEX IF NOT EXISTS idx_task_runs_run_id ON task_runs(run_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// StartRun inserts a run in the running state.
func (s *Store) StartRun(ctx context.Context, run Run) error {
	row := runRow{
		ID:        run.ID,
		Targets:   strings.Join(run.Targets, ","),
		Status:    "running",
		StartedAt: run.StartedAt.UnixMilli(),
	}
	query := `
	INSERT OR REPLACE INTO runs (id, targets, status, failed_task, error, started_at, duration_ms)
	VALUES (:id, :targets, :status, :failed_task, :error, :started_at, :duration_ms)
	`
	if _, err := s.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// FinishRun records the final status of a run.
func (s *Store) FinishRun(ctx context.Context, run Run) error {
	query := `UPDATE runs SET status = ?, failed_task = ?, error = ?, duration_ms = ? WHERE id = ?`
	res, err := s.db.ExecContext(ctx, query,
		run.Status, nullString(run.FailedTask), nullString(run.Error), run.Duration.Milliseconds(), run.ID)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update run %s: %w", run.ID, ErrRunNotFound)
	}
	return nil
}

// RecordTask inserts or replaces the outcome of one task.
func (s *Store) RecordTask(ctx context.Context, tr TaskRun) error {
	row := taskRow{
		RunID:      tr.RunID,
		Task:       tr.Task,
		State:      tr.State,
		DurationMS: tr.Duration.Milliseconds(),
		Error:      nullString(tr.Error),
	}
	if !tr.StartedAt.IsZero() {
		row.StartedAt = sql.NullInt64{Int64: tr.StartedAt.UnixMilli(), Valid: true}
	}
	query := `
	INSERT OR REPLACE INTO task_runs (run_id, task, state, started_at, duration_ms, error)
	VALUES (:run_id, :task, :state, :started_at, :duration_ms, :error)
	`
	if _, err := s.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("insert task run: %w", err)
	}
	return nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	var rows []runRow
	query := `
	SELECT id, targets, status, failed_task, error, started_at, duration_ms
	FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?
	`
	if err := s.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	runs := make([]Run, 0, len(rows))
	for _, r := range rows {
		runs = append(runs, r.toRun())
	}
	return runs, nil
}

// Get returns a single run.
func (s *Store) Get(ctx context.Context, id string) (Run, error) {
	var row runRow
	query := `
	SELECT id, targets, status, failed_task, error, started_at, duration_ms
	FROM runs WHERE id = ?
	`
	if err := s.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, fmt.Errorf("%s: %w", id, ErrRunNotFound)
		}
		return Run{}, fmt.Errorf("query run: %w", err)
	}
	return row.toRun(), nil
}

// Tasks returns the task outcomes of a run in start order. Tasks that never started come last.
func (s *Store) Tasks(ctx context.Context, runID string) ([]TaskRun, error) {
	var rows []taskRow
	query := `
	SELECT run_id, task, state, started_at, duration_ms, error
	FROM task_runs WHERE run_id = ?
	ORDER BY started_at IS NULL, started_at, task
	`
	if err := s.db.SelectContext(ctx, &rows, query, runID); err != nil {
		return nil, fmt.Errorf("query task runs: %w", err)
	}
	out := make([]TaskRun, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toTaskRun())
	}
	return out, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
