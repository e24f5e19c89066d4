// Package tui is the interactive viewer for a running monitor daemon. It
// renders the live log stream with search, pause, and category filtering.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/buildwatch/buildwatch/internal/domain"
	"github.com/buildwatch/buildwatch/internal/output"
)

var (
	infoStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	errCountStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	issueStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("201"))
	highlightStyle = lipgloss.NewStyle().Background(lipgloss.Color("57")).Foreground(lipgloss.Color("230")).Bold(true)
)

// filterMode selects which entry categories are visible.
type filterMode int

const (
	filterAll filterMode = iota
	filterWarnings
	filterErrors
	filterIssues
)

func (f filterMode) String() string {
	switch f {
	case filterWarnings:
		return "warnings+"
	case filterErrors:
		return "errors"
	case filterIssues:
		return "issues"
	default:
		return "all"
	}
}

func (f filterMode) matches(c domain.Category) bool {
	switch f {
	case filterWarnings:
		return c == domain.CategoryWarning || c == domain.CategoryError || c == domain.CategoryIssue
	case filterErrors:
		return c == domain.CategoryError
	case filterIssues:
		return c == domain.CategoryIssue
	default:
		return true
	}
}

// Stats holds counters over all received entries.
type Stats struct {
	Total    int
	Errors   int
	Warnings int
	Issues   int
}

// Model represents the viewer state.
type Model struct {
	logs        []domain.LogEntry
	content     string
	viewport    viewport.Model
	textinput   textinput.Model
	logChan     <-chan domain.LogEntry
	errChan     <-chan error
	width       int
	height      int
	ready       bool
	searching   bool
	searchQuery string
	filter      filterMode
	paused      bool
	follow      bool
	stats       Stats
	server      string
	streamErr   error
}

// LogMsg is a message containing a new log entry.
type LogMsg domain.LogEntry

// ErrMsg is a message containing a stream error.
type ErrMsg error

// New creates a viewer fed by logChan. server is shown in the header.
func New(server string, logChan <-chan domain.LogEntry, errChan <-chan error) Model {
	ti := textinput.New()
	ti.Placeholder = "Search logs..."
	ti.CharLimit = 100
	ti.Width = 40

	return Model{
		logs:      make([]domain.LogEntry, 0, 1000),
		textinput: ti,
		logChan:   logChan,
		errChan:   errChan,
		follow:    true,
		server:    server,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		waitForLog(m.logChan),
		waitForError(m.errChan),
	)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.searching {
			switch msg.String() {
			case "esc":
				m.searching = false
				m.textinput.Blur()
				m.searchQuery = ""
				m.rebuild()
			case "enter":
				m.searching = false
				m.textinput.Blur()
				m.searchQuery = m.textinput.Value()
				m.rebuild()
			default:
				m.textinput, cmd = m.textinput.Update(msg)
				cmds = append(cmds, cmd)
			}
		} else {
			switch msg.String() {
			case "q", "ctrl+c":
				return m, tea.Quit
			case "/":
				m.searching = true
				m.textinput.Focus()
				return m, textinput.Blink
			case "esc":
				if m.searchQuery != "" {
					m.searchQuery = ""
					m.textinput.SetValue("")
					m.rebuild()
				}
			case "p", " ":
				m.paused = !m.paused
			case "f":
				m.follow = !m.follow
				if m.follow {
					m.viewport.GotoBottom()
				}
			case "c":
				m.logs = m.logs[:0]
				m.stats = Stats{}
				m.content = ""
				m.updateViewport()
			case "1":
				m.filter = filterAll
				m.rebuild()
			case "2":
				m.filter = filterWarnings
				m.rebuild()
			case "3":
				m.filter = filterErrors
				m.rebuild()
			case "4":
				m.filter = filterIssues
				m.rebuild()
			case "g", "home":
				m.viewport.GotoTop()
			case "G", "end":
				m.viewport.GotoBottom()
			case "j", "down":
				m.viewport.LineDown(1)
			case "k", "up":
				m.viewport.LineUp(1)
			case "ctrl+d", "pgdown":
				m.viewport.HalfViewDown()
			case "ctrl+u", "pgup":
				m.viewport.HalfViewUp()
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 2
		footerHeight := 1
		viewportHeight := m.height - headerHeight - footerHeight

		if !m.ready {
			m.viewport = viewport.New(m.width, viewportHeight)
			m.viewport.YPosition = headerHeight
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = viewportHeight
		}
		m.updateViewport()

	case LogMsg:
		if !m.paused {
			entry := domain.LogEntry(msg)
			m.logs = append(m.logs, entry)
			m.count(entry)

			if m.entryMatches(entry, strings.ToLower(m.searchQuery)) {
				line := m.formatLine(entry)
				if m.content == "" {
					m.content = line
				} else {
					m.content += "\n" + line
				}
				m.updateViewport()
			}
		}
		cmds = append(cmds, waitForLog(m.logChan))

	case ErrMsg:
		m.streamErr = msg
		cmds = append(cmds, waitForError(m.errChan))
	}

	if m.ready {
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// View renders the UI.
func (m Model) View() string {
	if !m.ready {
		return "Connecting..."
	}
	return fmt.Sprintf("%s\n%s\n%s", m.renderHeader(), m.viewport.View(), m.renderFooter())
}

func (m *Model) count(entry domain.LogEntry) {
	m.stats.Total++
	switch entry.Category {
	case domain.CategoryError:
		m.stats.Errors++
	case domain.CategoryWarning:
		m.stats.Warnings++
	case domain.CategoryIssue:
		m.stats.Issues++
	}
}

func (m *Model) renderHeader() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("39")).
		Background(lipgloss.Color("236")).
		Padding(0, 1).
		Width(m.width)

	title := "buildwatch @ " + m.server
	if m.paused {
		title += " [PAUSED]"
	}
	if !m.follow {
		title += " [NO-FOLLOW]"
	}
	if m.streamErr != nil {
		title += " [STREAM LOST]"
	}

	info := fmt.Sprintf("Total: %d", m.stats.Total)
	if m.stats.Errors > 0 {
		info += " | " + errCountStyle.Render(fmt.Sprintf("Errors: %d", m.stats.Errors))
	}
	if m.stats.Warnings > 0 {
		info += fmt.Sprintf(" | Warnings: %d", m.stats.Warnings)
	}
	if m.stats.Issues > 0 {
		info += " | " + issueStyle.Render(fmt.Sprintf("Issues: %d", m.stats.Issues))
	}
	info += " | Filter: " + m.filter.String()
	if m.searchQuery != "" {
		info += fmt.Sprintf(" | Search: %q", m.searchQuery)
	}

	return titleStyle.Render(title) + "\n" + infoStyle.Width(m.width).Render(info)
}

func (m *Model) renderFooter() string {
	if m.searching {
		return m.textinput.View()
	}

	help := "q:quit /:search 1-4:filter p:pause f:follow c:clear g/G:top/bottom j/k:scroll"
	return infoStyle.Width(m.width).Render(help)
}

// rebuild recomputes the visible content from scratch after a filter or
// search change.
func (m *Model) rebuild() {
	query := strings.ToLower(m.searchQuery)
	var b strings.Builder

	for _, entry := range m.logs {
		if !m.entryMatches(entry, query) {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(m.formatLine(entry))
	}

	m.content = b.String()
	m.updateViewport()
}

func (m *Model) updateViewport() {
	if !m.ready {
		return
	}

	m.viewport.SetContent(m.content)

	if m.follow {
		m.viewport.GotoBottom()
	}
}

func (m *Model) entryMatches(entry domain.LogEntry, query string) bool {
	if !m.filter.matches(entry.Category) {
		return false
	}
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(entry.Message), query)
}

func (m *Model) formatLine(entry domain.LogEntry) string {
	msg := entry.Message

	maxLen := m.width - 12
	if maxLen < 20 {
		maxLen = 20
	}
	// Truncate on a rune boundary; log lines carry emoji.
	if runes := []rune(msg); len(runes) > maxLen {
		msg = string(runes[:maxLen-3]) + "..."
	}

	if m.searchQuery != "" {
		msg = highlight(msg, m.searchQuery)
	}

	timeStr := infoStyle.Render(entry.Timestamp.Format("15:04:05"))
	return timeStr + " " + output.CategoryStyle(entry.Category).Render(msg)
}

func highlight(s, query string) string {
	if query == "" || s == "" {
		return s
	}
	qs := strings.ToLower(query)
	ls := strings.ToLower(s)
	var b strings.Builder
	for {
		idx := strings.Index(ls, qs)
		if idx < 0 {
			b.WriteString(s)
			break
		}
		b.WriteString(s[:idx])
		b.WriteString(highlightStyle.Render(s[idx : idx+len(query)]))
		s = s[idx+len(query):]
		ls = ls[idx+len(query):]
	}
	return b.String()
}

// waitForLog creates a command that waits for a log entry.
func waitForLog(ch <-chan domain.LogEntry) tea.Cmd {
	return func() tea.Msg {
		entry, ok := <-ch
		if !ok {
			return nil
		}
		return LogMsg(entry)
	}
}

// waitForError creates a command that waits for a stream error.
func waitForError(ch <-chan error) tea.Cmd {
	return func() tea.Msg {
		err, ok := <-ch
		if !ok {
			return nil
		}
		return ErrMsg(err)
	}
}
