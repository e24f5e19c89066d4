// Package client is a small HTTP client for the monitor's API, used by the
// CLI subcommands that query or follow a running daemon.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/buildwatch/buildwatch/internal/domain"
)

const requestTimeout = 10 * time.Second

// Client talks to a running monitor daemon.
type Client struct {
	base string
	http *http.Client
}

// New creates a client for the daemon at baseURL, e.g. "http://localhost:9090".
func New(baseURL string) *Client {
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: requestTimeout},
	}
}

// Status is the daemon's deployment view plus its unresolved issues.
type Status struct {
	domain.Status
	Issues []domain.Issue `json:"issues"`
}

type logsPayload struct {
	Logs []domain.LogEntry `json:"logs"`
}

type issuesPayload struct {
	Issues []domain.Issue `json:"issues"`
}

// Status fetches the current deployment status.
func (c *Client) Status(ctx context.Context) (*Status, error) {
	var status Status
	if err := c.getJSON(ctx, "/status", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Logs fetches the last n buffered log entries, oldest first.
func (c *Client) Logs(ctx context.Context, n int) ([]domain.LogEntry, error) {
	path := "/logs"
	if n > 0 {
		path += "?lines=" + strconv.Itoa(n)
	}

	var payload logsPayload
	if err := c.getJSON(ctx, path, &payload); err != nil {
		return nil, err
	}
	return payload.Logs, nil
}

// Issues fetches all retained issues, most recent first.
func (c *Client) Issues(ctx context.Context) ([]domain.Issue, error) {
	var payload issuesPayload
	if err := c.getJSON(ctx, "/issues", &payload); err != nil {
		return nil, err
	}
	return payload.Issues, nil
}

func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return err
	}

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("request %s: unexpected status %s", path, res.Status)
	}

	if err := json.NewDecoder(res.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
