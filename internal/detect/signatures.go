package detect

import (
	"strings"

	"github.com/buildwatch/buildwatch/internal/domain"
)

// Signature is one known failure pattern. Signatures are independent: a
// single line can match several of them.
type Signature struct {
	Type           string
	Severity       domain.Severity
	Message        string
	Recommendation string
	Match          func(line, lower string) bool
}

// Signatures returns the ordered signature set.
func Signatures() []Signature {
	return []Signature{
		{
			Type:           "oom",
			Severity:       domain.SeverityCritical,
			Message:        "Out of memory detected",
			Recommendation: "Increase instance memory or optimize application",
			Match: func(line, lower string) bool {
				// 137 is the exit code of a SIGKILLed (usually OOM-killed)
				// container process.
				return strings.Contains(lower, "out of memory") ||
					strings.Contains(lower, "oom") ||
					strings.Contains(line, "137")
			},
		},
		{
			Type:           "crash",
			Severity:       domain.SeverityCritical,
			Message:        "Application crash detected",
			Recommendation: "Check application logs for crash cause",
			Match: func(line, lower string) bool {
				return strings.Contains(lower, "crash") ||
					strings.Contains(lower, "segfault") ||
					strings.Contains(lower, "core dump")
			},
		},
		{
			Type:           "port_conflict",
			Severity:       domain.SeverityError,
			Message:        "Port conflict detected",
			Recommendation: "Check if another service is using the same port",
			Match: func(line, lower string) bool {
				return strings.Contains(lower, "address already in use")
			},
		},
		{
			Type:           "permission",
			Severity:       domain.SeverityError,
			Message:        "Permission error detected",
			Recommendation: "Check file/directory permissions",
			Match: func(line, lower string) bool {
				return strings.Contains(lower, "permission denied")
			},
		},
		{
			Type:           "connection",
			Severity:       domain.SeverityWarning,
			Message:        "Connection error detected",
			Recommendation: "Check if dependent services are running",
			Match: func(line, lower string) bool {
				return strings.Contains(lower, "connection refused") ||
					strings.Contains(lower, "cannot connect")
			},
		},
	}
}
