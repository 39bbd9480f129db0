package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/rusenback/hostmon/internal/model"
	"github.com/rusenback/hostmon/internal/tui/views"
)

const (
	pidColWidth = 8
	pctColWidth = 7
)

func newProcessTable() table.Model {
	t := table.New(
		table.WithColumns(processColumns(40)),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#585B70")).
		BorderBottom(true).
		Bold(true).
		Foreground(lipgloss.Color("#CBA6F7"))
	s.Selected = selectedStyle
	t.SetStyles(s)
	return t
}

func processColumns(nameWidth int) []table.Column {
	if nameWidth < 10 {
		nameWidth = 10
	}
	return []table.Column{
		{Title: "PID", Width: pidColWidth},
		{Title: "NAME", Width: nameWidth},
		{Title: "CPU%", Width: pctColWidth},
		{Title: "MEM%", Width: pctColWidth},
	}
}

// setProcesses replaces the rows, keeping the cursor on the same pid when it survives
func (m *Model) setProcesses(procs []model.ProcessInfo) {
	var selected int32
	if p, ok := m.selectedProcess(); ok {
		selected = p.PID
	}

	m.procs = procs
	rows := make([]table.Row, len(procs))
	cursor := 0
	for i, p := range procs {
		name := p.Name
		if name == "" {
			name = "?"
		}
		rows[i] = table.Row{
			strconv.Itoa(int(p.PID)),
			name,
			fmt.Sprintf("%.1f", p.CPUPercent),
			fmt.Sprintf("%.1f", p.MemPercent),
		}
		if p.PID == selected {
			cursor = i
		}
	}
	m.procTable.SetRows(rows)
	if len(rows) > 0 {
		m.procTable.SetCursor(cursor)
	}
}

func (m Model) selectedProcess() (model.ProcessInfo, bool) {
	i := m.procTable.Cursor()
	if i < 0 || i >= len(m.procs) {
		return model.ProcessInfo{}, false
	}
	return m.procs[i], true
}

// resizeProcessTable fits the table to the terminal
func (m *Model) resizeProcessTable() {
	if m.width == 0 || m.height == 0 {
		return
	}

	width := m.width - 8
	if m.detail != nil || m.width >= 120 {
		width = int(float64(m.width)*0.55) - 8
	}
	if width < 20 {
		width = 20
	}
	nameWidth := width - pidColWidth - 2*pctColWidth - 8
	m.procTable.SetColumns(processColumns(nameWidth))
	m.procTable.SetWidth(width)

	// Title, borders, padding, prompt and footer
	height := m.height - 12
	if m.cfg.Tray {
		height--
	}
	if height < 3 {
		height = 3
	}
	m.procTable.SetHeight(height)
}

// renderProcessView renders the process table with the detail box beside it
func (m Model) renderProcessView() string {
	var s strings.Builder

	title := fmt.Sprintf("⚙ Processes (%d, top %d by CPU, every %ds)",
		len(m.procs), m.cfg.ProcessLimit, m.cfg.ProcessRefreshSeconds)
	s.WriteString(titleStyle.Render(title) + "\n\n")

	if m.procsLoading && len(m.procs) == 0 {
		s.WriteString("Loading...\n")
	} else {
		s.WriteString(m.procTable.View() + "\n")
	}

	if m.confirmPID != 0 {
		prompt := fmt.Sprintf("Terminate %s (pid %d)? [y/n]", m.confirmName, m.confirmPID)
		s.WriteString("\n" + confirmStyle.Render(prompt))
	}

	left := panelStyle.Render(s.String())
	if m.detail == nil {
		return left
	}

	right := views.RenderProcessDetail(m.detail)
	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}
