package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/buildwatch/buildwatch/internal/domain"
)

const defaultLogLines = 100

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
}

type statusResponse struct {
	domain.Status
	Issues []domain.Issue `json:"issues"`
}

type logsResponse struct {
	Logs  []domain.LogEntry `json:"logs"`
	Count int               `json:"count"`
}

type issuesResponse struct {
	Issues []domain.Issue `json:"issues"`
	Count  int            `json:"count"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Service:   "build-monitor",
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	issues := s.issues.Unresolved()
	if issues == nil {
		issues = []domain.Issue{}
	}
	writeJSON(w, http.StatusOK, statusResponse{
		Status: s.status(),
		Issues: issues,
	})
}

// handleLogs serves the most recent buffered entries, oldest first. lines
// defaults to 100; a malformed or non-positive value falls back to the
// default rather than erroring.
func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	lines := defaultLogLines
	if raw := r.URL.Query().Get("lines"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			lines = n
		}
	}

	logs := s.buffer.Last(lines)
	if logs == nil {
		logs = []domain.LogEntry{}
	}
	writeJSON(w, http.StatusOK, logsResponse{Logs: logs, Count: len(logs)})
}

// handleIssues serves all retained issues, most recent first.
func (s *Server) handleIssues(w http.ResponseWriter, r *http.Request) {
	issues := s.issues.Snapshot()
	if issues == nil {
		issues = []domain.Issue{}
	}
	writeJSON(w, http.StatusOK, issuesResponse{Issues: issues, Count: len(issues)})
}
