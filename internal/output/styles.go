package output

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/buildwatch/buildwatch/internal/domain"
)

// Styles holds all lipgloss styles for mirrored log output.
var Styles = struct {
	Info         lipgloss.Style
	Success      lipgloss.Style
	Warning      lipgloss.Style
	Error        lipgloss.Style
	Provisioning lipgloss.Style
	Container    lipgloss.Style
	Issue        lipgloss.Style
}{
	Info:         lipgloss.NewStyle().Foreground(lipgloss.Color("39")),             // Cyan
	Success:      lipgloss.NewStyle().Foreground(lipgloss.Color("42")),             // Green
	Warning:      lipgloss.NewStyle().Foreground(lipgloss.Color("214")),            // Orange
	Error:        lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true), // Red bold
	Provisioning: lipgloss.NewStyle().Foreground(lipgloss.Color("252")),            // White
	Container:    lipgloss.NewStyle().Foreground(lipgloss.Color("252")),            // White
	Issue:        lipgloss.NewStyle().Foreground(lipgloss.Color("201")).Bold(true), // Magenta bold
}

// CategoryStyle returns the appropriate style for a log category.
func CategoryStyle(category domain.Category) lipgloss.Style {
	switch category {
	case domain.CategoryInfo:
		return Styles.Info
	case domain.CategorySuccess:
		return Styles.Success
	case domain.CategoryWarning:
		return Styles.Warning
	case domain.CategoryError:
		return Styles.Error
	case domain.CategoryProvisioning:
		return Styles.Provisioning
	case domain.CategoryContainer:
		return Styles.Container
	case domain.CategoryIssue:
		return Styles.Issue
	default:
		return Styles.Info
	}
}
