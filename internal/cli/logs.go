package cli

import (
	"context"
	"fmt"

	"github.com/buildwatch/buildwatch/internal/client"
)

// LogsCmd prints recent buffered log entries from a running daemon.
type LogsCmd struct {
	Lines int `short:"n" default:"100" help:"Number of entries to print"`
}

// Run executes the logs command.
func (l *LogsCmd) Run(globals *Globals) error {
	logs, err := client.New(globals.Server).Logs(context.Background(), l.Lines)
	if err != nil {
		return fmt.Errorf("fetch logs: %w", err)
	}

	for _, entry := range logs {
		fmt.Fprintln(globals.Stdout, entry.Formatted)
	}
	return nil
}
