package commands

import (
	"git.home.luguber.info/inful/buildseq/internal/pipeline"
)

// RunCmd implements the 'run' command.
type RunCmd struct {
	Tasks       []string `arg:"" optional:"" help:"Tasks to run" default:"default"`
	Concurrency int      `help:"Maximum number of concurrently running tasks (0 = unbounded, -1 = from config)" default:"-1"`
	MetricsFile string   `name:"metrics-file" help:"Write Prometheus metrics in textfile format after the run" type:"path"`
	NoHistory   bool     `name:"no-history" help:"Do not record this run in the history database"`
}

func (r *RunCmd) Run(g *Global, root *CLI) error {
	tasks := r.Tasks
	if len(tasks) == 0 {
		tasks = []string{pipeline.TaskDefault}
	}
	s, err := openSession(g, root, sessionOptions{concurrency: r.Concurrency, noHistory: r.NoHistory})
	if err != nil {
		return err
	}
	defer s.close()

	report, runErr := s.pipeline.Run(g.ctx(), tasks...)
	s.writeMetrics(r.MetricsFile)
	printReport(g.out(), report)
	return runErr
}
