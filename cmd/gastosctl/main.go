package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"path"

	"github.com/google/subcommands"

	"gastos/internal/cli"
	"gastos/internal/commands"
	"gastos/internal/log"
)

func main() {
	cli.LoadEnvFile()

	logger := log.NewText(os.Stderr, slog.LevelWarn, log.ComponentCLI)
	cfg := cli.LoadAndValidateConfig(logger)

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	commands.Register(commander, &commands.Env{
		Config: cfg,
		Out:    os.Stdout,
		Err:    os.Stderr,
		Logger: logger,
	})

	flag.Parse()

	ctx, stop := cli.GracefulShutdown(context.Background(), logger)
	status := commander.Execute(ctx)
	stop()
	os.Exit(int(status))
}
