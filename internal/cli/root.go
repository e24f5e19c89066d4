// Package cli defines the buildwatch command tree. The run command hosts the
// monitoring daemon; the rest are thin clients of a running daemon's API.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/buildwatch/buildwatch/internal/config"
)

// CLI is the root command structure for buildwatch.
type CLI struct {
	// Global flags
	Server  string `short:"s" default:"http://localhost:9090" help:"Daemon API address for client commands"`
	Quiet   bool   `short:"q" help:"Suppress log mirroring to stdout"`
	Verbose bool   `short:"v" help:"Show debug output"`

	// Commands
	Run     RunCmd     `cmd:"" default:"withargs" help:"Run the deployment monitor daemon"`
	Status  StatusCmd  `cmd:"" help:"Show deployment status of a running daemon"`
	Logs    LogsCmd    `cmd:"" help:"Print recent log entries from a running daemon"`
	Issues  IssuesCmd  `cmd:"" help:"List detected issues from a running daemon"`
	Watch   WatchCmd   `cmd:"" help:"Follow the live log stream of a running daemon"`
	UI      UICmd      `cmd:"" help:"Interactive log viewer for a running daemon"`
	Version VersionCmd `cmd:"" help:"Show version information"`
}

// Globals holds shared state for all commands.
type Globals struct {
	Server  string
	Quiet   bool
	Verbose bool
	Stdout  io.Writer
	Stderr  io.Writer
	Config  *config.Config
}

// NewGlobals creates a Globals instance from CLI flags and loaded config.
func NewGlobals(cli *CLI, cfg *config.Config) *Globals {
	g := &Globals{
		Server:  cli.Server,
		Quiet:   cli.Quiet,
		Verbose: cli.Verbose,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Config:  cfg,
	}

	if cfg != nil {
		if !cli.Quiet && cfg.Quiet {
			g.Quiet = true
		}
		if !cli.Verbose && cfg.Verbose {
			g.Verbose = true
		}
	}

	return g
}

// Debug prints a debug message if verbose mode is enabled.
func (g *Globals) Debug(format string, args ...interface{}) {
	if g.Verbose {
		fmt.Fprintf(g.Stderr, "[DEBUG] "+format+"\n", args...)
	}
}

// VersionCmd shows version information.
type VersionCmd struct{}

// Run executes the version command.
func (v *VersionCmd) Run(globals *Globals) error {
	fmt.Fprintf(globals.Stdout, "buildwatch version %s (%s)\n", Version, Commit)
	return nil
}

// Version information (set at build time)
var (
	Version = "dev"
	Commit  = "none"
)
