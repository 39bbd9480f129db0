package tui

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/rusenback/hostmon/internal/pipeline"
	"github.com/rusenback/hostmon/internal/storage"
)

// renderSummaryPanel renders the current values panel
func (m Model) renderSummaryPanel(width, height int) string {
	var s strings.Builder
	s.WriteString(titleStyle.Render("📊 System") + "\n\n")
	s.WriteString(renderSummary(m.latest, width-6))

	return panelStyle.
		Width(width - 4).
		Height(height - 4).
		Render(s.String())
}

// renderGraphPanel renders live history or a stored range
func (m Model) renderGraphPanel(width, height int) string {
	content := renderGraphContent(m.graphSeries(), width-4, height-4)
	return panelStyle.
		Width(width - 4).
		Height(height - 4).
		Render(content)
}

// graphSeries picks the data for the selected range
func (m Model) graphSeries() series {
	if m.rangeIdx == 0 || m.rangeIdx > len(storage.TimeRanges) {
		sr := series{
			label: "live",
			cpu:   pipeline.CPU(m.history),
			mem:   pipeline.Mem(m.history),
			rates: pipeline.Rates(m.history),
		}
		if n := len(m.history); n > 1 {
			sr.span = m.history[n-1].Sample.Timestamp.Sub(m.history[0].Sample.Timestamp)
		}
		return sr
	}

	tr := storage.TimeRanges[m.rangeIdx-1]
	sr := series{
		label: tr.String(),
		cpu:   make([]float64, len(m.rangePoints)),
		mem:   make([]float64, len(m.rangePoints)),
	}
	for i, p := range m.rangePoints {
		sr.cpu[i] = p.CPUPercent
		sr.mem[i] = p.MemPercent
	}
	if n := len(m.rangePoints); n > 1 {
		sr.span = m.rangePoints[n-1].Timestamp.Sub(m.rangePoints[0].Timestamp)
	}
	return sr
}

// renderHistoryPanel renders the most recent persisted samples, newest first
func (m Model) renderHistoryPanel(width, height int) string {
	var s strings.Builder
	s.WriteString(titleStyle.Render("🗄 History") + "\n\n")

	if len(m.records) == 0 {
		s.WriteString("No samples stored yet")
	} else {
		header := fmt.Sprintf("%-19s %7s %7s %10s %10s %6s",
			"TIME", "CPU%", "MEM%", "SENT", "RECV", "PROCS")
		s.WriteString(headerStyle.Render(header) + "\n")

		// Title, header, borders and padding
		maxRows := height - 9
		lineWidth := max(width-8, 0)
		for i, r := range m.records {
			if i >= maxRows {
				break
			}
			line := fmt.Sprintf("%-19s %7.1f %7.1f %10s %10s %6d",
				r.Timestamp.Format("2006-01-02 15:04:05"),
				r.CPUPercent,
				r.MemPercent,
				humanize.IBytes(r.NetSent),
				humanize.IBytes(r.NetRecv),
				r.Processes)
			s.WriteString(truncate(line, lineWidth) + "\n")
		}
	}

	return panelStyle.
		Width(width - 4).
		Height(height - 4).
		Render(s.String())
}

// renderEventsPanel renders operator messages, newest at the bottom
func (m Model) renderEventsPanel(width, height int) string {
	var s strings.Builder
	s.WriteString(titleStyle.Render("📋 Events") + "\n\n")

	if len(m.events) == 0 {
		s.WriteString("No events")
	} else {
		visible := m.visibleEventLines()
		end := len(m.events) - m.eventsScroll
		start := end - visible
		if start < 0 {
			start = 0
		}

		maxLineWidth := max(width-8, 0)
		for i := start; i < end; i++ {
			s.WriteString(styleEvent(m.events[i], maxLineWidth) + "\n")
		}

		if len(m.events) > visible {
			s.WriteString(graphAxisStyle.Render(fmt.Sprintf("[%d-%d/%d] PgUp/PgDown:scroll",
				start+1, end, len(m.events))))
		}
	}

	return panelStyle.
		Width(width - 4).
		Height(height - 4).
		Render(s.String())
}
