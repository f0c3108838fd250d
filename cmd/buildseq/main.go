package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/buildseq/cmd/buildseq/commands"
	ferrors "git.home.luguber.info/inful/buildseq/internal/foundation/errors"
	"git.home.luguber.info/inful/buildseq/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	global := &commands.Global{Context: ctx, Out: os.Stdout}

	var cli commands.CLI
	parser := kong.Parse(&cli,
		kong.Name("buildseq"),
		kong.Description("Run the project's build tasks in dependency order."),
		kong.Vars{"version": version.String()},
		kong.Bind(global),
		kong.UsageOnError(),
	)
	err := parser.Run(&cli)
	stop()

	adapter := ferrors.NewCLIErrorAdapter(cli.Verbose, slog.Default())
	os.Exit(adapter.Handle(commands.Classify(err)))
}
