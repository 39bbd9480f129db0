package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	graphTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#B4BEFE"))
	graphAxisStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))
	cpuGraphStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#89B4FA"))
	memGraphStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#A6E3A1"))
	bothGraphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#CBA6F7"))
	netGraphStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F9E2AF"))
)

var sparkChars = []string{"▁", "▂", "▃", "▄", "▅", "▆", "▇", "█"}

// series is what the graph panel draws
type series struct {
	label string
	cpu   []float64
	mem   []float64
	// rates is only set for the live view
	rates []float64
	span  time.Duration
}

// renderSparkline creates a compact sparkline of the last width points
func renderSparkline(data []float64, width int) string {
	if width <= 0 {
		return ""
	}
	if len(data) == 0 {
		return strings.Repeat("▁", width)
	}

	start := 0
	if len(data) > width {
		start = len(data) - width
	}
	displayData := data[start:]

	min, max := math.MaxFloat64, -math.MaxFloat64
	for _, v := range displayData {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	if max == min {
		min = math.Max(0, max-10)
		max = max + 10
	}

	dataRange := max - min
	if dataRange == 0 {
		dataRange = 1
	}

	var result strings.Builder
	for _, value := range displayData {
		normalized := (value - min) / dataRange
		charIndex := int(normalized * float64(len(sparkChars)-1))
		if charIndex >= len(sparkChars) {
			charIndex = len(sparkChars) - 1
		}
		if charIndex < 0 {
			charIndex = 0
		}
		result.WriteString(sparkChars[charIndex])
	}

	// Pad on the left so the newest point stays at the right edge
	if n := len(displayData); n < width {
		return strings.Repeat("▁", width-n) + result.String()
	}
	return result.String()
}

// renderGraphContent renders CPU and memory on one graph plus the network sparkline
func renderGraphContent(sr series, width, height int) string {
	var s strings.Builder

	title := fmt.Sprintf("📈 Resource Usage - %s", sr.label)
	s.WriteString(graphTitleStyle.Render(title) + "\n")

	hint := "[0]live [1]30m [2]1h [3]6h [4]1d [5]1w"
	s.WriteString(graphAxisStyle.Render(hint) + "\n\n")

	if len(sr.cpu) == 0 || len(sr.mem) == 0 {
		s.WriteString("Waiting for data...")
		return s.String()
	}

	graphHeight := height - 12
	if sr.rates != nil {
		graphHeight -= 2
	}
	if graphHeight < 4 {
		graphHeight = 4
	}

	s.WriteString(renderCombinedGraph(sr.cpu, sr.mem, width-8, graphHeight, sr.span))

	if sr.rates != nil {
		current := sr.rates[len(sr.rates)-1]
		line := netGraphStyle.Render(renderSparkline(sr.rates, width-30))
		s.WriteString("\n" + graphAxisStyle.Render("Net ") + line + " " + netGraphStyle.Render(formatRate(current)))
	}

	return s.String()
}

// renderCombinedGraph creates a multi-line ASCII graph with both CPU and Memory
func renderCombinedGraph(cpuData, memData []float64, width, height int, span time.Duration) string {
	var s strings.Builder

	cpuCurrent := cpuData[len(cpuData)-1]
	memCurrent := memData[len(memData)-1]

	cpuLegend := cpuGraphStyle.Render("█") + " CPU: " + cpuGraphStyle.Render(fmt.Sprintf("%.1f%%", cpuCurrent))
	memLegend := memGraphStyle.Render("█") + " Memory: " + memGraphStyle.Render(fmt.Sprintf("%.1f%%", memCurrent))
	overlapLegend := bothGraphStyle.Render("█") + " Both"
	s.WriteString(cpuLegend + "  " + memLegend + "  " + overlapLegend + "\n\n")

	minVal, maxVal := 0.0, 100.0

	// Leave room for Y-axis labels
	maxWidth := width - 10
	if maxWidth < 20 {
		maxWidth = 20
	}
	n := min(len(cpuData), len(memData))
	dataPointsToShow := n
	if dataPointsToShow > maxWidth {
		dataPointsToShow = maxWidth
	}

	displayCPU := cpuData[len(cpuData)-dataPointsToShow:]
	displayMem := memData[len(memData)-dataPointsToShow:]

	// Only the visible part of the span is labelled
	if n > 1 && dataPointsToShow < n {
		span = span * time.Duration(dataPointsToShow-1) / time.Duration(n-1)
	}

	for row := height; row >= 0; row-- {
		var line strings.Builder

		isGridLine := row == height || row == height*3/4 || row == height/2 || row == height/4 || row == 0

		switch row {
		case height:
			line.WriteString(graphAxisStyle.Render(fmt.Sprintf("%3.0f%% ", maxVal)))
		case height * 3 / 4:
			line.WriteString(graphAxisStyle.Render(" 75% "))
		case height / 2:
			line.WriteString(graphAxisStyle.Render(" 50% "))
		case height / 4:
			line.WriteString(graphAxisStyle.Render(" 25% "))
		case 0:
			line.WriteString(graphAxisStyle.Render(fmt.Sprintf("%3.0f%% ", minVal)))
		default:
			line.WriteString("     ")
		}

		line.WriteString(graphAxisStyle.Render("│"))

		threshold := minVal + (float64(row)/float64(height))*(maxVal-minVal)

		for i := range displayCPU {
			cpuAbove := displayCPU[i] >= threshold
			memAbove := displayMem[i] >= threshold

			switch {
			case isGridLine && !cpuAbove && !memAbove:
				line.WriteString(graphAxisStyle.Render("·"))
			case cpuAbove && memAbove:
				line.WriteString(bothGraphStyle.Render("█"))
			case cpuAbove:
				line.WriteString(cpuGraphStyle.Render("█"))
			case memAbove:
				line.WriteString(memGraphStyle.Render("█"))
			default:
				line.WriteString(" ")
			}
		}

		s.WriteString(line.String() + "\n")
	}

	axisLength := len(displayCPU)
	if axisLength < 1 {
		axisLength = 1
	}
	s.WriteString("     " + graphAxisStyle.Render("└"+strings.Repeat("─", axisLength)) + "\n")
	s.WriteString(renderTimeLabels(axisLength, span) + "\n")

	return s.String()
}

// formatAgo renders a duration as a coarse "x ago" label
func formatAgo(d time.Duration) string {
	secs := int(d.Seconds())
	switch {
	case secs < 60:
		return "Now"
	case secs < 3600:
		return fmt.Sprintf("%dm ago", secs/60)
	case secs < 86400:
		return fmt.Sprintf("%dh ago", secs/3600)
	default:
		return fmt.Sprintf("%dd ago", secs/86400)
	}
}

// renderTimeLabels creates time markers along the X-axis; the left edge is span ago
func renderTimeLabels(axisLength int, span time.Duration) string {
	if axisLength < 20 {
		return graphAxisStyle.Render(fmt.Sprintf("     %s → Now", formatAgo(span)))
	}

	numMarkers := 5
	if axisLength < 50 {
		numMarkers = 3
	}

	type marker struct {
		position int
		label    string
	}
	markers := make([]marker, numMarkers)

	for i := 0; i < numMarkers; i++ {
		position := (i * axisLength) / (numMarkers - 1)
		if i == numMarkers-1 {
			position = axisLength - 1
		}

		ago := span - span*time.Duration(position)/time.Duration(max(axisLength-1, 1))
		markers[i] = marker{position: position, label: formatAgo(ago)}
	}

	var s strings.Builder
	s.WriteString("     ") // Y-axis label space

	currentCol := 0
	for _, m := range markers {
		labelStart := m.position - len(m.label)/2
		if labelStart < currentCol {
			labelStart = currentCol
		}
		if spaces := labelStart - currentCol; spaces > 0 {
			s.WriteString(strings.Repeat(" ", spaces))
		}
		s.WriteString(m.label)
		currentCol = labelStart + len(m.label)
	}

	return graphAxisStyle.Render(s.String())
}
