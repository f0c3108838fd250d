package commands

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"

	"git.home.luguber.info/inful/buildseq/internal/sequencer"
)

// table is a minimal column-aligned table with a colored header.
type table struct {
	headers []string
	rows    [][]string
	widths  []int
	colors  map[int]func(string) *color.Color
}

func newTable(headers ...string) *table {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	return &table{headers: headers, widths: widths, colors: map[int]func(string) *color.Color{}}
}

// colorColumn picks a color per cell value for column i.
func (t *table) colorColumn(i int, pick func(string) *color.Color) { t.colors[i] = pick }

func (t *table) addRow(cells ...string) {
	for i, c := range cells {
		if i < len(t.widths) && len(c) > t.widths[i] {
			t.widths[i] = len(c)
		}
	}
	t.rows = append(t.rows, cells)
}

func (t *table) render(w io.Writer) {
	header := color.New(color.FgCyan, color.Bold)
	for i, h := range t.headers {
		header.Fprintf(w, "%-*s  ", t.widths[i], h)
	}
	fmt.Fprintln(w)
	for i := range t.headers {
		fmt.Fprint(w, strings.Repeat("-", t.widths[i])+"  ")
	}
	fmt.Fprintln(w)
	for _, row := range t.rows {
		for i, cell := range row {
			if i >= len(t.widths) {
				break
			}
			if pick, ok := t.colors[i]; ok {
				pick(cell).Fprintf(w, "%-*s  ", t.widths[i], cell)
				continue
			}
			fmt.Fprintf(w, "%-*s  ", t.widths[i], cell)
		}
		fmt.Fprintln(w)
	}
}

func stateColor(state string) *color.Color {
	switch state {
	case string(sequencer.StateDone), "success":
		return color.New(color.FgGreen)
	case string(sequencer.StateFailed):
		return color.New(color.FgRed)
	case string(sequencer.StateSkipped), "canceled", "running":
		return color.New(color.FgYellow)
	default:
		return color.New(color.Reset)
	}
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return d.Round(time.Millisecond).String()
}

// printReport writes one row per task, successful tasks first in completion order.
func printReport(w io.Writer, r *sequencer.Report) {
	if r == nil || len(r.Tasks) == 0 {
		return
	}
	names := append([]string(nil), r.Order...)
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		seen[n] = true
	}
	var rest []string
	for n := range r.Tasks {
		if !seen[n] {
			rest = append(rest, n)
		}
	}
	sort.Strings(rest)
	names = append(names, rest...)

	t := newTable("TASK", "STATE", "DURATION", "ERROR")
	t.colorColumn(1, stateColor)
	for _, n := range names {
		res := r.Tasks[n]
		errText := ""
		if res.Err != nil {
			errText = res.Err.Error()
		}
		t.addRow(n, string(res.State), formatDuration(res.Duration), errText)
	}
	fmt.Fprintln(w)
	t.render(w)

	outcome := r.Outcome()
	fmt.Fprintf(w, "\nRun %s ", r.RunID)
	stateColor(outcome).Fprint(w, outcome)
	fmt.Fprintf(w, " in %s (%d done, %d skipped)\n", formatDuration(r.Duration), r.Count(sequencer.StateDone), r.Count(sequencer.StateSkipped))
}
