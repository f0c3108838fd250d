package commands

import (
	"errors"
	"fmt"
	"strings"

	ferrors "git.home.luguber.info/inful/buildseq/internal/foundation/errors"
	"git.home.luguber.info/inful/buildseq/internal/fsops"
	"git.home.luguber.info/inful/buildseq/internal/history"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int    `short:"n" help:"Number of runs to show" default:"20"`
	RunID string `name:"run" help:"Show the tasks of one run"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config)
	if err != nil {
		return err
	}
	if h.Limit <= 0 {
		return commandError("--limit must be positive, got %d", h.Limit)
	}
	if !fsops.Exists(cfg.History.Path) {
		fmt.Fprintf(g.out(), "No runs recorded yet (%s)\n", cfg.History.Path)
		return nil
	}
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return historyError(err, "open history")
	}
	defer func() { _ = store.Close() }()

	if h.RunID != "" {
		return h.showRun(g, store)
	}
	runs, err := store.Recent(g.ctx(), h.Limit)
	if err != nil {
		return historyError(err, "read history")
	}
	t := newTable("RUN", "STARTED", "TARGETS", "STATUS", "DURATION", "FAILED TASK")
	t.colorColumn(3, stateColor)
	for _, r := range runs {
		t.addRow(r.ID, r.StartedAt.Format("2006-01-02 15:04:05"), strings.Join(r.Targets, ","),
			r.Status, formatDuration(r.Duration), r.FailedTask)
	}
	t.render(g.out())
	return nil
}

func (h *HistoryCmd) showRun(g *Global, store *history.Store) error {
	run, err := store.Get(g.ctx(), h.RunID)
	if errors.Is(err, history.ErrRunNotFound) {
		return ferrors.NotFoundError("run not found").WithContext("run_id", h.RunID).Build()
	}
	if err != nil {
		return historyError(err, "read run")
	}
	tasks, err := store.Tasks(g.ctx(), run.ID)
	if err != nil {
		return historyError(err, "read run tasks")
	}

	fmt.Fprintf(g.out(), "Run %s (%s) started %s, %s\n", run.ID, strings.Join(run.Targets, ","),
		run.StartedAt.Format("2006-01-02 15:04:05"), run.Status)
	if run.Error != "" {
		fmt.Fprintf(g.out(), "Error: %s\n", run.Error)
	}
	t := newTable("TASK", "STATE", "DURATION", "ERROR")
	t.colorColumn(1, stateColor)
	for _, tr := range tasks {
		t.addRow(tr.Task, tr.State, formatDuration(tr.Duration), tr.Error)
	}
	t.render(g.out())
	return nil
}

func historyError(err error, msg string) error {
	return ferrors.WrapError(err, ferrors.CategoryHistory, msg).Build()
}
