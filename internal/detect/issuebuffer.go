package detect

import (
	"sync"

	"github.com/buildwatch/buildwatch/internal/domain"
)

// IssueBuffer is a thread-safe circular buffer of detected issues. The
// detector is the sole writer; the API server reads snapshots.
type IssueBuffer struct {
	mu     sync.RWMutex
	buffer []domain.Issue
	size   int
	head   int
	count  int
}

// NewIssueBuffer creates a buffer with the specified capacity.
func NewIssueBuffer(size int) *IssueBuffer {
	if size <= 0 {
		size = 100 // Default
	}
	return &IssueBuffer{
		buffer: make([]domain.Issue, size),
		size:   size,
	}
}

// Append adds an issue, dropping the oldest when full.
func (b *IssueBuffer) Append(issue domain.Issue) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.buffer[b.head] = issue
	b.head = (b.head + 1) % b.size
	if b.count < b.size {
		b.count++
	}
}

// Recent returns the last n issues (most recent), oldest first.
func (b *IssueBuffer) Recent(n int) []domain.Issue {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if n > b.count {
		n = b.count
	}
	if n < 0 {
		n = 0
	}

	result := make([]domain.Issue, n)
	start := (b.head - n + b.size) % b.size
	for i := 0; i < n; i++ {
		result[i] = b.buffer[(start+i)%b.size]
	}

	return result
}

// Snapshot returns all issues most-recent-first, the order the API serves.
func (b *IssueBuffer) Snapshot() []domain.Issue {
	b.mu.RLock()
	defer b.mu.RUnlock()

	result := make([]domain.Issue, b.count)
	for i := 0; i < b.count; i++ {
		// Walk backwards from the newest entry.
		idx := (b.head - 1 - i + b.size*2) % b.size
		result[i] = b.buffer[idx]
	}

	return result
}

// Unresolved returns the unresolved issues most-recent-first.
func (b *IssueBuffer) Unresolved() []domain.Issue {
	all := b.Snapshot()
	result := make([]domain.Issue, 0, len(all))
	for _, issue := range all {
		if !issue.Resolved {
			result = append(result, issue)
		}
	}
	return result
}

// Count returns the number of issues currently retained.
func (b *IssueBuffer) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.count
}
