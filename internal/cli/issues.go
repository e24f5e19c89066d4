package cli

import (
	"context"
	"fmt"

	"github.com/olekukonko/tablewriter"

	"github.com/buildwatch/buildwatch/internal/client"
)

// IssuesCmd lists detected issues from a running daemon, most recent first.
type IssuesCmd struct{}

// Run executes the issues command.
func (i *IssuesCmd) Run(globals *Globals) error {
	issues, err := client.New(globals.Server).Issues(context.Background())
	if err != nil {
		return fmt.Errorf("fetch issues: %w", err)
	}

	if len(issues) == 0 {
		fmt.Fprintln(globals.Stdout, "No issues detected")
		return nil
	}

	table := tablewriter.NewTable(globals.Stdout)
	table.Header("Detected", "Severity", "Type", "Message")
	for _, issue := range issues {
		_ = table.Append(
			issue.Timestamp.Format("15:04:05"),
			string(issue.Severity),
			issue.Type,
			issue.Message,
		)
	}
	return table.Render()
}
