package commands

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/buildseq/internal/pipeline"
)

// ListCmd implements the 'list' command.
type ListCmd struct {
	Simple bool `help:"Print one task name per line"`
}

func (l *ListCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config)
	if err != nil {
		return err
	}
	p, err := pipeline.New(cfg, pipeline.Deps{Logger: g.logger()})
	if err != nil {
		return err
	}
	reg := p.Registry()

	if l.Simple {
		for _, name := range reg.Names() {
			fmt.Fprintln(g.out(), name)
		}
		return nil
	}
	t := newTable("TASK", "DEPENDS ON", "DESCRIPTION")
	for _, name := range reg.Names() {
		task, _ := reg.Lookup(name)
		deps := strings.Join(task.Deps, ", ")
		if deps == "" {
			deps = "-"
		}
		t.addRow(name, deps, task.Description)
	}
	t.render(g.out())
	return nil
}
