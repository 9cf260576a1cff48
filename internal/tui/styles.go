// Package tui implements the render loop and widgets for the build
// dashboard, plus the App model it renders.
package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorBorder  = lipgloss.Color("#3b4252")
	colorAccent  = lipgloss.Color("#8BC34A")
	colorWarning = lipgloss.Color("#FFC107")
	colorError   = lipgloss.Color("#e53935")
	colorInfo    = lipgloss.Color("#2196F3")
	colorMuted   = lipgloss.Color("#6b7280")
	colorText    = lipgloss.Color("#e5e7eb")
)

var (
	frameStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)

	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(colorText)

	statusStyle = map[string]lipgloss.Style{
		"Pending":    lipgloss.NewStyle().Foreground(colorMuted),
		"InProgress": lipgloss.NewStyle().Foreground(colorInfo),
		"Success":    lipgloss.NewStyle().Foreground(colorAccent),
		"Failed":     lipgloss.NewStyle().Foreground(colorError),
	}

	logLevelStyle = map[string]lipgloss.Style{
		"DEBUG": lipgloss.NewStyle().Foreground(colorMuted),
		"INFO":  lipgloss.NewStyle().Foreground(colorInfo),
		"WARN":  lipgloss.NewStyle().Foreground(colorWarning),
		"ERROR": lipgloss.NewStyle().Foreground(colorError),
	}

	instructionsStyle = lipgloss.NewStyle().Foreground(colorMuted).Italic(true)
)

// statusGlyph returns the one-character glyph used on the task-status row.
func statusGlyph(status string) string {
	switch status {
	case "Pending":
		return "○"
	case "InProgress":
		return "◐"
	case "Success":
		return "✓"
	case "Failed":
		return "✗"
	default:
		return "?"
	}
}
