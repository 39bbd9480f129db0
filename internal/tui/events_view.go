package tui

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

type eventLevel int

const (
	levelInfo eventLevel = iota
	levelWarn
	levelError
)

// event is one operator-facing message
type event struct {
	at    time.Time
	level eventLevel
	text  string
}

var (
	pidPattern  = regexp.MustCompile(`\bpid \d+\b`)
	pathPattern = regexp.MustCompile(`(/[\w\-.]+){2,}`)

	timestampStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086")) // Dim gray

	errorEventStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F38BA8")) // Red
	warnEventStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAB387")) // Orange
	infoEventStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#CDD6F4")) // Normal

	infoIndicator  = lipgloss.NewStyle().Foreground(lipgloss.Color("#A6E3A1")).Render("○")
	warnIndicator  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAB387")).Render("◐")
	errorIndicator = lipgloss.NewStyle().Foreground(lipgloss.Color("#F38BA8")).Render("●")

	pidStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F9E2AF")) // Yellow
	pathStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#CBA6F7")) // Purple
)

// addEvent appends a message, dropping the oldest past maxEvents
func (m *Model) addEvent(level eventLevel, text string) {
	m.events = append(m.events, event{at: time.Now(), level: level, text: text})
	if len(m.events) > maxEvents {
		m.events = m.events[len(m.events)-maxEvents:]
	}
}

// styleEvent renders one event line within maxWidth cells
func styleEvent(e event, maxWidth int) string {
	ts := timestampStyle.Render(e.at.Format("15:04:05"))

	indicator, base := infoIndicator, infoEventStyle
	switch e.level {
	case levelWarn:
		indicator, base = warnIndicator, warnEventStyle
	case levelError:
		indicator, base = errorIndicator, errorEventStyle
	}

	prefix := ts + " " + indicator + " "
	room := maxWidth - lipgloss.Width(prefix)
	text := e.text
	if room > 3 && len([]rune(text)) > room {
		text = truncate(text, room)
	}

	return prefix + highlight(text, base)
}

// highlight styles pids and paths inside an otherwise uniformly styled message
func highlight(text string, base lipgloss.Style) string {
	type span struct {
		start, end int
		style      lipgloss.Style
	}
	var spans []span
	for _, loc := range pidPattern.FindAllStringIndex(text, -1) {
		spans = append(spans, span{loc[0], loc[1], pidStyle})
	}
	for _, loc := range pathPattern.FindAllStringIndex(text, -1) {
		overlaps := false
		for _, s := range spans {
			if loc[0] < s.end && s.start < loc[1] {
				overlaps = true
				break
			}
		}
		if !overlaps {
			spans = append(spans, span{loc[0], loc[1], pathStyle})
		}
	}
	if len(spans) == 0 {
		return base.Render(text)
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	var out strings.Builder
	pos := 0
	for _, s := range spans {
		if s.start > pos {
			out.WriteString(base.Render(text[pos:s.start]))
		}
		out.WriteString(s.style.Render(text[s.start:s.end]))
		pos = s.end
	}
	if pos < len(text) {
		out.WriteString(base.Render(text[pos:]))
	}
	return out.String()
}
