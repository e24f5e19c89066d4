package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/buildwatch/buildwatch/internal/cli"
	"github.com/buildwatch/buildwatch/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v\n", err)
		cfg = config.Default()
	}

	var c cli.CLI

	ctx := kong.Parse(&c,
		kong.Name("buildwatch"),
		kong.Description("Deployment monitor: stream provisioning and container logs, detect failures, serve status over HTTP"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}),
	)

	globals := cli.NewGlobals(&c, cfg)

	if err := ctx.Run(globals); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
