package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/wolfeidau/pagebundle/cmd/pagebundle/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Build     commands.BuildCmd     `cmd:"" help:"Build the site into the output directory"`
		Config    commands.ConfigCmd    `cmd:"" help:"Print the resolved build configuration"`
		Templates commands.TemplatesCmd `cmd:"" help:"List discovered page templates"`
		Serve     commands.ServeCmd     `cmd:"" help:"Build and serve the output directory"`
		Debug     bool                  `help:"Enable debug mode."`
		Version   kong.VersionFlag
	}
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := kong.Parse(&cli,
		kong.Name("pagebundle"),
		kong.Description("Build production front-end sites from page templates and script entry points."),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version})
	cmd.FatalIfErrorf(err)
}
