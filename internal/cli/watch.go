package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"

	"github.com/buildwatch/buildwatch/internal/client"
	"github.com/buildwatch/buildwatch/internal/domain"
	"github.com/buildwatch/buildwatch/internal/output"
)

// WatchCmd follows the daemon's live log stream, printing entries as they
// arrive until interrupted.
type WatchCmd struct{}

// Run executes the watch command.
func (w *WatchCmd) Run(globals *Globals) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	styled := false
	if f, ok := globals.Stdout.(*os.File); ok {
		styled = isatty.IsTerminal(f.Fd())
	}

	globals.Debug("connecting to %s/stream", globals.Server)

	return client.New(globals.Server).Stream(ctx, func(entry domain.LogEntry) {
		line := entry.Formatted
		if styled {
			line = output.CategoryStyle(entry.Category).Render(line)
		}
		fmt.Fprintln(globals.Stdout, line)
	})
}
