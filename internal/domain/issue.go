package domain

import "time"

// Severity ranks detected issues.
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Issue is a detected failure signature. Line carries the evidence line that
// matched, truncated to EvidenceLimit characters. Resolved is always false in
// the current design; no resolution path exists yet.
type Issue struct {
	Type           string    `json:"type"`
	Severity       Severity  `json:"severity"`
	Message        string    `json:"message"`
	Recommendation string    `json:"recommendation"`
	Line           string    `json:"line"`
	Timestamp      time.Time `json:"timestamp"`
	Resolved       bool      `json:"resolved"`
}

// EvidenceLimit caps the stored evidence line length.
const EvidenceLimit = 200
