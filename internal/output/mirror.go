package output

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/mattn/go-isatty"

	"github.com/buildwatch/buildwatch/internal/domain"
)

// Mirror echoes every published log entry to stdout immediately and appends
// it to the persistent log file. Stdout writes are unbuffered; the file is
// best-effort and write failures never reach the caller.
type Mirror struct {
	mu     sync.Mutex
	stdout io.Writer
	file   *os.File
	styled bool
}

// NewMirror creates a mirror writing to w and appending to logPath. If the
// log file cannot be opened, file persistence is silently disabled.
func NewMirror(w io.Writer, logPath string) *Mirror {
	m := &Mirror{stdout: w}

	if f, ok := w.(*os.File); ok {
		m.styled = isatty.IsTerminal(f.Fd())
	}

	if logPath != "" {
		if err := os.MkdirAll(filepath.Dir(logPath), 0755); err == nil {
			if f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644); err == nil {
				m.file = f
			}
		}
	}

	return m
}

// Emit writes the entry's display form to stdout and the log file.
func (m *Mirror) Emit(entry domain.LogEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	line := entry.Formatted
	if m.styled {
		line = CategoryStyle(entry.Category).Render(line)
	}
	_, _ = io.WriteString(m.stdout, line+"\n")

	if m.file != nil {
		_, _ = m.file.WriteString(entry.Formatted + "\n")
	}
}

// Close releases the log file, if any.
func (m *Mirror) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.file != nil {
		_ = m.file.Close()
		m.file = nil
	}
}
