package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/buildwatch/buildwatch/internal/client"
)

// StatusCmd shows the deployment status of a running daemon.
type StatusCmd struct{}

// Run executes the status command.
func (s *StatusCmd) Run(globals *Globals) error {
	status, err := client.New(globals.Server).Status(context.Background())
	if err != nil {
		return fmt.Errorf("fetch status: %w", err)
	}

	table := tablewriter.NewTable(globals.Stdout)
	table.Header("Field", "Value")
	_ = table.Append("Phase", string(status.Phase))
	_ = table.Append("App", status.AppName)
	_ = table.Append("Deployment", status.DeploymentID)
	_ = table.Append("Container", status.ContainerName)
	_ = table.Append("Cloud-init complete", strconv.FormatBool(status.ProvisioningComplete))
	_ = table.Append("Container started", strconv.FormatBool(status.ContainerStarted))
	_ = table.Append("Buffered logs", strconv.Itoa(status.LogCount))
	_ = table.Append("Unresolved issues", strconv.Itoa(len(status.Issues)))
	if err := table.Render(); err != nil {
		return err
	}

	for _, issue := range status.Issues {
		fmt.Fprintf(globals.Stdout, "  [%s] %s: %s\n", issue.Severity, issue.Type, issue.Message)
	}

	return nil
}
