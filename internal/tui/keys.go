package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Toggle     key.Binding
	Reset      key.Binding
	Chroma     key.Binding
	Integrated key.Binding
	Audio      key.Binding
	Track      key.Binding
	VolUp      key.Binding
	VolDown    key.Binding
	Help       key.Binding
	Quit       key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Toggle:     key.NewBinding(key.WithKeys(" ", "s"), key.WithHelp("space", "start/stop")),
		Reset:      key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset")),
		Chroma:     key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "colour rotation")),
		Integrated: key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "colours in session")),
		Audio:      key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "sound in session")),
		Track:      key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "next track")),
		VolUp:      key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+/-", "volume")),
		VolDown:    key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("+/-", "volume")),
		Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:       key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Reset, k.Chroma, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Toggle, k.Reset},
		{k.Chroma, k.Integrated, k.Audio},
		{k.Track, k.VolUp},
		{k.Help, k.Quit},
	}
}
