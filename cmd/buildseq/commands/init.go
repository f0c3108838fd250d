package commands

import (
	"fmt"

	"git.home.luguber.info/inful/buildseq/internal/config"
	ferrors "git.home.luguber.info/inful/buildseq/internal/foundation/errors"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Overwrite existing configuration file"`
}

func (i *InitCmd) Run(g *Global, root *CLI) error {
	g.logger().Info("Initializing configuration", "path", root.Config, "force", i.Force)
	if err := config.Init(root.Config, i.Force); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryConfig, "init config").UserAction().Build()
	}
	fmt.Fprintf(g.out(), "Wrote %s\n", root.Config)
	return nil
}
