package tui

import "github.com/charmbracelet/lipgloss"

// View renders the TUI interface
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var body string
	if m.mode == viewProcesses {
		body = m.renderProcessView()
	} else {
		body = m.renderFourPanelView()
	}

	parts := make([]string, 0, 3)
	if m.cfg.Tray {
		parts = append(parts, renderTrayBar(m.latest, m.cfg.IntervalSeconds, m.width))
	}
	parts = append(parts, body, m.footer())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// footer is the key help line
func (m Model) footer() string {
	if m.mode == viewProcesses {
		return m.help.View(processHelp{m.keys})
	}
	return m.help.View(m.keys)
}

// renderFourPanelView renders the four-panel grid layout
func (m Model) renderFourPanelView() string {
	// 60% left, 40% right for columns
	leftWidth := int(float64(m.width) * 0.6)
	rightWidth := m.width - leftWidth

	topHeight, bottomHeight := m.panelHeights()

	topLeftPanel := m.renderGraphPanel(leftWidth, topHeight)
	topRightPanel := m.renderSummaryPanel(rightWidth, topHeight)
	bottomLeftPanel := m.renderHistoryPanel(leftWidth, bottomHeight)
	bottomRightPanel := m.renderEventsPanel(rightWidth, bottomHeight)

	topRow := lipgloss.JoinHorizontal(lipgloss.Top, topLeftPanel, topRightPanel)
	bottomRow := lipgloss.JoinHorizontal(lipgloss.Top, bottomLeftPanel, bottomRightPanel)

	return lipgloss.JoinVertical(lipgloss.Left, topRow, bottomRow)
}
