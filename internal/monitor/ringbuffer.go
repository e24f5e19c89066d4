package monitor

import (
	"sync"

	"github.com/buildwatch/buildwatch/internal/domain"
)

// LogBuffer is a thread-safe circular buffer of log entries. The streamer is
// the sole writer; the detector and the API server read snapshots. The lock
// is held only for the array mutation or copy, never across I/O.
type LogBuffer struct {
	mu     sync.RWMutex
	buffer []domain.LogEntry
	size   int
	head   int
	count  int
	total  uint64
}

// NewLogBuffer creates a buffer with the specified capacity.
func NewLogBuffer(size int) *LogBuffer {
	if size <= 0 {
		size = 1000 // Default
	}
	return &LogBuffer{
		buffer: make([]domain.LogEntry, size),
		size:   size,
	}
}

// Append adds an entry, dropping the oldest when full.
func (b *LogBuffer) Append(entry domain.LogEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.buffer[b.head] = entry
	b.head = (b.head + 1) % b.size
	if b.count < b.size {
		b.count++
	}
	b.total++
}

// Snapshot returns a copy of all entries in order (oldest first).
func (b *LogBuffer) Snapshot() []domain.LogEntry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.copyAllLocked()
}

func (b *LogBuffer) copyAllLocked() []domain.LogEntry {
	result := make([]domain.LogEntry, b.count)

	if b.count < b.size {
		copy(result, b.buffer[:b.count])
	} else {
		copy(result, b.buffer[b.head:])
		copy(result[b.size-b.head:], b.buffer[:b.head])
	}

	return result
}

// Last returns the last n entries (most recent), oldest first.
func (b *LogBuffer) Last(n int) []domain.LogEntry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if n > b.count {
		n = b.count
	}
	if n < 0 {
		n = 0
	}

	result := make([]domain.LogEntry, n)

	start := (b.head - n + b.size) % b.size
	for i := 0; i < n; i++ {
		result[i] = b.buffer[(start+i)%b.size]
	}

	return result
}

// Since returns the entries appended after sequence number seq along with the
// new sequence cursor. Entries already evicted from the ring are lost; the
// caller simply resumes from the oldest retained entry.
func (b *LogBuffer) Since(seq uint64) ([]domain.LogEntry, uint64) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if seq >= b.total {
		return nil, b.total
	}

	missed := b.total - seq
	if missed > uint64(b.count) {
		missed = uint64(b.count)
	}

	n := int(missed)
	result := make([]domain.LogEntry, n)
	start := (b.head - n + b.size) % b.size
	for i := 0; i < n; i++ {
		result[i] = b.buffer[(start+i)%b.size]
	}

	return result, b.total
}

// Count returns the number of entries currently retained.
func (b *LogBuffer) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.count
}

// Total returns the monotonic count of entries ever appended.
func (b *LogBuffer) Total() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.total
}
