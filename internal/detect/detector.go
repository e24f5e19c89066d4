package detect

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/buildwatch/buildwatch/internal/domain"
	"github.com/buildwatch/buildwatch/internal/monitor"
)

const (
	scanInterval = 5 * time.Second

	// scanWindow is how many of the most recent log entries each pass
	// inspects.
	scanWindow = 50

	// dedupeWindow is how many recently published issues a candidate is
	// compared against before publishing.
	dedupeWindow = 10
)

// Detector periodically scans recent log entries for known failure
// signatures and publishes deduplicated issues. Published issues are echoed
// back into the log stream so they appear inline.
type Detector struct {
	buffer     *monitor.LogBuffer
	issues     *IssueBuffer
	echo       func(message string, category domain.Category)
	signatures []Signature
	clk        clock.Clock
	log        *zap.Logger
}

// NewDetector creates a detector reading from buffer and publishing to a new
// issue buffer of the given capacity. echo receives inline issue lines; it
// may be nil.
func NewDetector(buffer *monitor.LogBuffer, capacity int, echo func(string, domain.Category), clk clock.Clock, log *zap.Logger) *Detector {
	if clk == nil {
		clk = clock.New()
	}
	if log == nil {
		log = zap.NewNop()
	}
	if echo == nil {
		echo = func(string, domain.Category) {}
	}
	return &Detector{
		buffer:     buffer,
		issues:     NewIssueBuffer(capacity),
		echo:       echo,
		signatures: Signatures(),
		clk:        clk,
		log:        log,
	}
}

// Issues exposes the shared issue buffer for readers.
func (d *Detector) Issues() *IssueBuffer {
	return d.issues
}

// Run scans on a fixed interval until ctx is cancelled. A failure in one
// scan pass is contained: it is logged and the loop retries after a full
// interval.
func (d *Detector) Run(ctx context.Context) {
	ticker := d.clk.Ticker(scanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.scanOnce()
		}
	}
}

func (d *Detector) scanOnce() {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("issue scan panicked", zap.Any("panic", r))
		}
	}()

	for _, entry := range d.buffer.Last(scanWindow) {
		// Issue echoes would re-match their own signature text.
		if entry.Category == domain.CategoryIssue {
			continue
		}
		d.CheckLine(entry.Message)
	}
}

// CheckLine applies every signature to one line, publishing a deduplicated
// issue per match. Signatures are not mutually exclusive.
func (d *Detector) CheckLine(line string) {
	lower := strings.ToLower(line)

	for _, sig := range d.signatures {
		if !sig.Match(line, lower) {
			continue
		}

		// Truncate on a rune boundary; classified lines carry emoji.
		evidence := line
		if utf8.RuneCountInString(evidence) > domain.EvidenceLimit {
			evidence = string([]rune(evidence)[:domain.EvidenceLimit])
		}

		d.publish(domain.Issue{
			Type:           sig.Type,
			Severity:       sig.Severity,
			Message:        sig.Message,
			Recommendation: sig.Recommendation,
			Line:           evidence,
			Timestamp:      time.Now().UTC(),
		})
	}
}

// publish appends the issue unless an identical one (same type and evidence
// line) is among the most recently published. Duplicates are dropped without
// re-timestamping.
func (d *Detector) publish(issue domain.Issue) {
	for _, recent := range d.issues.Recent(dedupeWindow) {
		if recent.Type == issue.Type && recent.Line == issue.Line {
			return
		}
	}

	d.issues.Append(issue)

	icon := "⚠️"
	if issue.Severity == domain.SeverityCritical {
		icon = "🚨"
	}
	d.echo(fmt.Sprintf("%s %s: %s", icon, strings.ToUpper(string(issue.Severity)), issue.Message), domain.CategoryIssue)
	if issue.Recommendation != "" {
		d.echo("   → "+issue.Recommendation, domain.CategoryIssue)
	}
}
