package tui

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/buildwatch/buildwatch/internal/domain"
)

func TestFormatLineTruncatesOnRuneBoundary(t *testing.T) {
	m := Model{width: 40}

	entry := domain.LogEntry{
		Timestamp: time.Now(),
		Message:   "📦 Installing " + strings.Repeat("📦", 60),
		Category:  domain.CategoryProvisioning,
	}

	line := m.formatLine(entry)
	assert.True(t, utf8.ValidString(line))
	assert.Contains(t, line, "...")
}

func TestFormatLineShortMessageUntouched(t *testing.T) {
	m := Model{width: 80}

	entry := domain.LogEntry{
		Timestamp: time.Now(),
		Message:   "✓ Container 'app' detected",
		Category:  domain.CategorySuccess,
	}

	line := m.formatLine(entry)
	assert.Contains(t, line, "✓ Container 'app' detected")
	assert.NotContains(t, line, "...")
}

func TestFilterModeMatches(t *testing.T) {
	assert.True(t, filterAll.matches(domain.CategoryContainer))
	assert.True(t, filterWarnings.matches(domain.CategoryError))
	assert.True(t, filterWarnings.matches(domain.CategoryIssue))
	assert.False(t, filterWarnings.matches(domain.CategoryInfo))
	assert.True(t, filterErrors.matches(domain.CategoryError))
	assert.False(t, filterErrors.matches(domain.CategoryWarning))
	assert.True(t, filterIssues.matches(domain.CategoryIssue))
	assert.False(t, filterIssues.matches(domain.CategorySuccess))
}
