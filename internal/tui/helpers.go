package tui

import "github.com/charmbracelet/lipgloss"

// truncate shortens a string to at most max runes
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}

// panelHeights splits the terminal between the top and bottom rows after
// the optional tray bar and the help footer
func (m Model) panelHeights() (top, bottom int) {
	avail := m.height - lipgloss.Height(m.footer())
	if m.cfg.Tray {
		avail--
	}
	top = int(float64(avail) * 0.6)
	return top, avail - top
}

// visibleEventLines calculates how many events fit in the events panel
func (m Model) visibleEventLines() int {
	_, bottom := m.panelHeights()
	// Borders, padding and title
	visible := bottom - 8
	if visible < 3 {
		visible = 3
	}
	return visible
}

// scrollEvents moves the events window; positive is toward older events
func (m *Model) scrollEvents(delta int) {
	maxScroll := len(m.events) - m.visibleEventLines()
	if maxScroll < 0 {
		maxScroll = 0
	}
	m.eventsScroll += delta
	if m.eventsScroll > maxScroll {
		m.eventsScroll = maxScroll
	}
	if m.eventsScroll < 0 {
		m.eventsScroll = 0
	}
}
