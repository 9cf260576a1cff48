package tui

import (
	"fmt"
	"strings"
	"time"

	"extforge/internal/model"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

var gauge = progress.New(progress.WithDefaultGradient())

const minWidth = 60
const minHeight = 16

// View renders the task-status row, overall progress gauge, textual status
// line, scrollable log block, and the instructions line.
func (a *App) View() string {
	if !a.ready {
		return "initializing..."
	}

	width := a.width
	if width < minWidth {
		width = minWidth
	}

	var b strings.Builder
	b.WriteString(headingStyle.Render("extforge") + "\n\n")
	b.WriteString(a.renderTaskRow() + "\n\n")
	b.WriteString(a.renderProgress(width) + "\n")
	b.WriteString(a.renderStatusLine() + "\n\n")
	b.WriteString(a.renderLogBlock(width) + "\n")
	b.WriteString(instructionsStyle.Render("q quit  •  r reset  •  ↑/↓ scroll logs"))

	return frameStyle.Width(width).Render(b.String())
}

func (a *App) renderTaskRow() string {
	var parts []string
	for _, c := range a.components {
		t, ok := a.tasks[c]
		if !ok {
			continue
		}
		status := t.Status.String()
		glyph := statusGlyph(status)
		if t.Status == model.InProgress {
			glyph = a.spinner.View()
		}
		style, ok := statusStyle[status]
		if !ok {
			style = lipgloss.NewStyle()
		}
		parts = append(parts, style.Render(fmt.Sprintf("%s %s", glyph, c.String())))
	}
	return strings.Join(parts, "   ")
}

func (a *App) renderProgress(width int) string {
	gauge.Width = width - 4
	if gauge.Width < 10 {
		gauge.Width = 10
	}
	return gauge.ViewAs(a.overallProgress) + "\n" + a.renderCounters()
}

// renderCounters summarizes the per-component status breakdown the gauge
// itself collapses into a single percentage.
func (a *App) renderCounters() string {
	var completed, inProgress, pending, failed int
	for _, t := range a.tasks {
		switch t.Status {
		case model.Success:
			completed++
		case model.InProgress:
			inProgress++
		case model.Pending:
			pending++
		case model.Failed:
			failed++
		}
	}
	return instructionsStyle.Render(fmt.Sprintf(
		"total %d  completed %d  in-progress %d  pending %d  failed %d",
		len(a.tasks), completed, inProgress, pending, failed,
	))
}

func (a *App) renderStatusLine() string {
	state := model.DeriveBuildState(a.tasks, a.overallStart, time.Now())
	switch state.Phase {
	case model.Idle:
		return statusStyle["Pending"].Render("waiting to start")
	case model.Running:
		return statusStyle["InProgress"].Render(fmt.Sprintf("building... %.0f%%", a.overallProgress*100))
	case model.Complete:
		return statusStyle["Success"].Render(fmt.Sprintf("build complete in %s", state.Duration.Round(time.Millisecond)))
	case model.Failed:
		return statusStyle["Failed"].Render(fmt.Sprintf("build failed after %s", state.Duration.Round(time.Millisecond)))
	default:
		return ""
	}
}

func (a *App) renderLogBlock(width int) string {
	visibleRows := a.logHeight()
	lines := a.logs.Visible(visibleRows)

	var b strings.Builder
	for _, l := range lines {
		style, ok := logLevelStyle[l.level]
		if !ok {
			style = lipgloss.NewStyle()
		}
		b.WriteString(style.Render(l.String()) + "\n")
	}
	for i := len(lines); i < visibleRows; i++ {
		b.WriteString("\n")
	}

	return lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(colorBorder).
		Width(width - 4).
		Height(visibleRows).
		Render(strings.TrimRight(b.String(), "\n"))
}

func (a *App) logHeight() int {
	reserved := 11 // heading, task row, gauge, counters, status, instructions, borders
	h := a.height - reserved
	if h < 4 {
		h = 4
	}
	if a.height == 0 {
		h = minHeight
	}
	return h
}
