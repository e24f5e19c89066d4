package domain

import "time"

// Category classifies a log entry by where it came from and how severe it is.
type Category string

const (
	CategoryInfo         Category = "info"
	CategorySuccess      Category = "success"
	CategoryWarning      Category = "warning"
	CategoryError        Category = "error"
	CategoryProvisioning Category = "provisioning"
	CategoryContainer    Category = "container"
	CategoryIssue        Category = "issue"
)

// LogEntry is one published log line. Entries are immutable once created;
// buffer insertion order is the authoritative order, not Timestamp.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
	Category  Category  `json:"category"`
	Formatted string    `json:"formatted"`
}

// NewLogEntry stamps a message with the wall clock and its display form.
func NewLogEntry(message string, category Category) LogEntry {
	now := time.Now().UTC()
	return LogEntry{
		Timestamp: now,
		Message:   message,
		Category:  category,
		Formatted: "[" + now.Format("15:04:05") + "] " + message,
	}
}
