package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/buildwatch/buildwatch/internal/client"
	"github.com/buildwatch/buildwatch/internal/domain"
	"github.com/buildwatch/buildwatch/internal/tui"
)

// UICmd opens the interactive viewer on a running daemon's log stream.
type UICmd struct {
	Replay int `default:"100" help:"Number of buffered entries to load before streaming"`
}

// Run executes the ui command.
func (u *UICmd) Run(globals *Globals) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := client.New(globals.Server)

	logChan := make(chan domain.LogEntry, 256)
	errChan := make(chan error, 1)

	go func() {
		defer close(logChan)

		if u.Replay > 0 {
			history, err := c.Logs(ctx, u.Replay)
			if err != nil {
				errChan <- err
				return
			}
			for _, entry := range history {
				logChan <- entry
			}
		}

		if err := c.Stream(ctx, func(entry domain.LogEntry) {
			select {
			case logChan <- entry:
			case <-ctx.Done():
			}
		}); err != nil {
			errChan <- err
		}
	}()

	p := tea.NewProgram(
		tui.New(globals.Server, logChan, errChan),
		tea.WithAltScreen(),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run viewer: %w", err)
	}
	return nil
}
