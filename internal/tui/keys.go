package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap implements help.KeyMap
type keyMap struct {
	Quit      key.Binding
	Processes key.Binding
	Back      key.Binding
	Up        key.Binding
	Down      key.Binding
	Inspect   key.Binding
	Terminate key.Binding
	Confirm   key.Binding
	Cancel    key.Binding
	Refresh   key.Binding
	Shorter   key.Binding
	Longer    key.Binding
	Live      key.Binding
	Range     key.Binding
	EventsUp  key.Binding
	EventsDn  key.Binding
	Help      key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Processes, k.Range, k.Shorter, k.Longer, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Live, k.Range, k.Shorter, k.Longer},
		{k.Processes, k.Up, k.Down, k.Inspect, k.Terminate, k.Refresh, k.Back},
		{k.EventsUp, k.EventsDn, k.Help, k.Quit},
	}
}

// processHelp is the footer shown in the process view
type processHelp struct{ k keyMap }

func (p processHelp) ShortHelp() []key.Binding {
	return []key.Binding{p.k.Up, p.k.Down, p.k.Inspect, p.k.Terminate, p.k.Refresh, p.k.Back, p.k.Quit}
}

func (p processHelp) FullHelp() [][]key.Binding {
	return [][]key.Binding{p.ShortHelp()}
}

var keys = keyMap{
	Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Processes: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "processes")),
	Back:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	Up:        key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/up", "up")),
	Down:      key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/dn", "down")),
	Inspect:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "inspect")),
	Terminate: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "terminate")),
	Confirm:   key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "confirm")),
	Cancel:    key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "cancel")),
	Refresh:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	Shorter:   key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "interval -")),
	Longer:    key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "interval +")),
	Live:      key.NewBinding(key.WithKeys("0"), key.WithHelp("0", "live")),
	Range:     key.NewBinding(key.WithKeys("1", "2", "3", "4", "5"), key.WithHelp("1-5", "range")),
	EventsUp:  key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "older events")),
	EventsDn:  key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "newer events")),
	Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
}
