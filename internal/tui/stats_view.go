package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/rusenback/hostmon/internal/pipeline"
)

// colorize picks green, orange or red by load
func colorize(percent float64, text string) string {
	var color string
	switch {
	case percent > 80:
		color = "#F38BA8" // red/pink
	case percent > 50:
		color = "#FAB387" // orange
	default:
		color = "#A6E3A1" // green
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(text)
}

func renderBar(percent float64, length int) string {
	if length < 1 {
		return ""
	}
	filled := int(percent / 100 * float64(length))
	if filled > length {
		filled = length
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("█", filled) + strings.Repeat("─", length-filled)
}

// formatRate renders a KB/s figure, switching to MB/s when large
func formatRate(kbps float64) string {
	if kbps >= 1024 || kbps <= -1024 {
		return fmt.Sprintf("%.2f MB/s", kbps/1024)
	}
	return fmt.Sprintf("%.2f KB/s", kbps)
}

// renderSummary renders the current values of the latest sample
func renderSummary(p *pipeline.Point, width int) string {
	if p == nil {
		return helpStyle.Render("Waiting for the first sample...")
	}

	barLength := width - 20
	if barLength > 30 {
		barLength = 30
	}
	if barLength < 5 {
		barLength = 5
	}

	s := p.Sample

	cpuStr := fmt.Sprintf("%6.2f%% |%s|", s.CPUPercent, renderBar(s.CPUPercent, barLength))
	cpuBox := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#89B4FA")).
		Padding(0, 1).
		Render("CPU\n" + colorize(s.CPUPercent, cpuStr))

	memStr := fmt.Sprintf("%6.2f%% |%s|", s.MemPercent, renderBar(s.MemPercent, barLength))
	memBox := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#A6E3A1")).
		Padding(0, 1).
		Render("MEM\n" + colorize(s.MemPercent, memStr))

	procStr := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#F9E2AF")).
		Render(fmt.Sprintf("Processes: %d", s.Processes))

	netStr := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#89B4FA")).
		Render(fmt.Sprintf("Sent: %s | Recv: %s",
			humanize.IBytes(s.NetSent), humanize.IBytes(s.NetRecv)))

	rateStr := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#CBA6F7")).
		Render("Network: " + formatRate(p.RateKBps))

	updated := graphAxisStyle.Render("Updated " + s.Timestamp.Format("15:04:05"))

	return lipgloss.JoinVertical(lipgloss.Left,
		cpuBox,
		memBox,
		procStr,
		netStr,
		rateStr,
		"",
		updated,
	)
}

// renderTrayBar is the one-line status shown when tray mode is on
func renderTrayBar(p *pipeline.Point, intervalSeconds, width int) string {
	text := "hostmon ▸ waiting for first sample"
	if p != nil {
		text = fmt.Sprintf("hostmon ▸ CPU %.1f%% │ MEM %.1f%% │ NET %s │ %d procs │ every %ds",
			p.Sample.CPUPercent, p.Sample.MemPercent, formatRate(p.RateKBps),
			p.Sample.Processes, intervalSeconds)
	}
	return trayStyle.Width(width).Render(truncate(text, width))
}
