package commands

import (
	"git.home.luguber.info/inful/buildseq/internal/pipeline"
)

// WatchCmd implements the 'watch' command, a shorthand for 'run watch'.
type WatchCmd struct {
	NoHistory bool `name:"no-history" help:"Do not record runs in the history database"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	s, err := openSession(g, root, sessionOptions{concurrency: -1, noHistory: w.NoHistory})
	if err != nil {
		return err
	}
	defer s.close()

	g.logger().Info("Press Ctrl+C to stop watching")
	_, err = s.pipeline.Run(g.ctx(), pipeline.TaskWatch)
	s.writeMetrics("")
	return err
}
