package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/rusenback/hostmon/internal/model"
)

var (
	detailBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7D56F4")).
			Padding(1, 2).
			Width(60)

	detailTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#A6E3A1"))

	detailLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Width(10).
				Foreground(lipgloss.Color("#FFFFFF"))

	detailValueStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B4BEFE"))

	progressBarStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#7D56F4"))
)

// RenderProcessDetail renders the inspect box for one process
func RenderProcessDetail(d *model.ProcessDetail) string {
	if d == nil {
		return detailBoxStyle.Render("Loading...")
	}

	var s strings.Builder

	name := d.Name
	if name == "" {
		name = "?"
	}
	s.WriteString(detailTitleStyle.Render(fmt.Sprintf("🔎 %s (pid %d)", name, d.PID)))
	s.WriteString("\n\n")

	s.WriteString(detailLabelStyle.Render("CPU:"))
	s.WriteString(RenderProgressBar(d.CPUPercent, 100, 30))
	s.WriteString(fmt.Sprintf(" %.1f%%\n", d.CPUPercent))

	s.WriteString(detailLabelStyle.Render("Memory:"))
	s.WriteString(RenderProgressBar(d.MemPercent, 100, 30))
	s.WriteString(fmt.Sprintf(" %.1f%%\n\n", d.MemPercent))

	field := func(label, value string) {
		if value == "" {
			value = "-"
		}
		s.WriteString(detailLabelStyle.Render(label))
		s.WriteString(detailValueStyle.Render(value) + "\n")
	}

	field("Status:", d.Status)
	field("User:", d.Username)
	field("Exe:", wrap(d.Exe, 44))
	field("Cmdline:", wrap(strings.Join(d.Cmdline, " "), 44))
	if !d.CreateTime.IsZero() {
		field("Started:", fmt.Sprintf("%s (%s)",
			d.CreateTime.Format(time.DateTime), humanize.Time(d.CreateTime)))
	} else {
		field("Started:", "")
	}

	s.WriteString("\n" + lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086")).Render("esc: close"))

	return detailBoxStyle.Render(s.String())
}

// RenderProgressBar draws value/max as a fixed-width bar
func RenderProgressBar(value, max float64, width int) string {
	if max == 0 {
		max = 1
	}

	percent := value / max
	if percent > 1 {
		percent = 1
	}
	if percent < 0 {
		percent = 0
	}

	filled := int(percent * float64(width))
	empty := width - filled

	bar := "[" + strings.Repeat("█", filled) + strings.Repeat("░", empty) + "]"
	return progressBarStyle.Render(bar)
}

// wrap breaks s into lines of at most width runes, indented under the value column
func wrap(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	var lines []string
	for len(r) > width {
		lines = append(lines, string(r[:width]))
		r = r[width:]
	}
	lines = append(lines, string(r))
	return strings.Join(lines, "\n"+strings.Repeat(" ", 10))
}
