package commands

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	"git.home.luguber.info/inful/buildseq/internal/logfields"
	"git.home.luguber.info/inful/buildseq/internal/pipeline"
	"git.home.luguber.info/inful/buildseq/internal/sequencer"
)

// GraphCmd implements the 'graph' command.
type GraphCmd struct {
	Format string   `short:"f" help:"Output format: text, mermaid, dot" default:"text"`
	Output string   `short:"o" help:"Output file path (optional, prints to stdout if not specified)"`
	Tasks  []string `arg:"" optional:"" help:"Only render the dependency closure of these tasks"`
}

// Validate rejects formats RenderGraph does not support.
func (cmd *GraphCmd) Validate() error {
	formats := sequencer.SupportedGraphFormats()
	if slices.Contains(formats, sequencer.GraphFormat(cmd.Format)) {
		return nil
	}
	names := make([]string, len(formats))
	for i, f := range formats {
		names[i] = string(f)
	}
	return commandError("unsupported graph format %q (want one of %s)", cmd.Format, strings.Join(names, ", "))
}

// Run executes the graph command.
func (cmd *GraphCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config)
	if err != nil {
		return err
	}
	p, err := pipeline.New(cfg, pipeline.Deps{Logger: g.logger()})
	if err != nil {
		return err
	}
	output, err := sequencer.RenderGraph(p.Registry(), sequencer.GraphFormat(cmd.Format), cmd.Tasks...)
	if err != nil {
		return err
	}

	if cmd.Output != "" {
		if err := os.WriteFile(cmd.Output, []byte(output), 0o644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		g.logger().Info("Task graph written", logfields.Path(cmd.Output), slog.String("format", cmd.Format))
		return nil
	}
	fmt.Fprint(g.out(), output)
	return nil
}
