package tui

import (
	"fmt"
	"time"
)

// logCapacity bounds the log buffer to a few thousand lines.
const logCapacity = 2000

// logLine is one formatted, leveled log entry.
type logLine struct {
	level string
	text  string
	at    time.Time
}

func (l logLine) String() string {
	return fmt.Sprintf("%s [%s] %s", l.at.Format("15:04:05.000"), l.level, l.text)
}

// logBuffer is an ordered, capacity-bounded ring of formatted log lines.
type logBuffer struct {
	lines        []logLine
	scrollOffset int
	userScrolled bool
}

func newLogBuffer() *logBuffer {
	return &logBuffer{}
}

// Append adds a line, evicting the oldest entry once the cap is exceeded.
func (b *logBuffer) Append(line logLine) {
	b.lines = append(b.lines, line)
	if len(b.lines) > logCapacity {
		overflow := len(b.lines) - logCapacity
		b.lines = b.lines[overflow:]
		if b.scrollOffset > 0 {
			b.scrollOffset -= overflow
			if b.scrollOffset < 0 {
				b.scrollOffset = 0
			}
		}
	}
}

func (b *logBuffer) Len() int {
	return len(b.lines)
}

// clampScroll enforces scrollOffset <= max(0, len - visibleRows).
func (b *logBuffer) clampScroll(visibleRows int) {
	maxOffset := len(b.lines) - visibleRows
	if maxOffset < 0 {
		maxOffset = 0
	}
	if b.scrollOffset > maxOffset {
		b.scrollOffset = maxOffset
	}
	if b.scrollOffset < 0 {
		b.scrollOffset = 0
	}
}

// Visible returns the lines to render for a viewport of visibleRows tall,
// following the tail (auto-follow) unless userScrolled is set.
func (b *logBuffer) Visible(visibleRows int) []logLine {
	if visibleRows <= 0 {
		return nil
	}
	b.clampScroll(visibleRows)

	start := 0
	if !b.userScrolled {
		start = len(b.lines) - visibleRows
		if start < 0 {
			start = 0
		}
	} else {
		start = b.scrollOffset
	}
	end := start + visibleRows
	if end > len(b.lines) {
		end = len(b.lines)
	}
	if start > end {
		start = end
	}
	return b.lines[start:end]
}

// ScrollBy moves the scroll offset by delta lines and marks manual scroll.
func (b *logBuffer) ScrollBy(delta int) {
	b.scrollOffset += delta
	if b.scrollOffset < 0 {
		b.scrollOffset = 0
	}
	b.userScrolled = true
}

// ResetScroll clears manual-scroll state, returning to auto-follow.
func (b *logBuffer) ResetScroll() {
	b.scrollOffset = 0
	b.userScrolled = false
}

func (b *logBuffer) Clear() {
	b.lines = nil
	b.ResetScroll()
}
