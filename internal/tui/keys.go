package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Toggle key.Binding
	Skip   key.Binding
	Stop   key.Binding
	Reset  key.Binding
	Tag    key.Binding
	Note   key.Binding
	Clear  key.Binding
	Help   key.Binding
	Quit   key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Toggle: key.NewBinding(key.WithKeys(" ", "space", "p"), key.WithHelp("space", "start/pause")),
		Skip:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "skip")),
		Stop:   key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "stop")),
		Reset:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset")),
		Tag:    key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "add tag")),
		Note:   key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "add note")),
		Clear:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear alerts")),
		Help:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Skip, k.Stop, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Toggle, k.Skip, k.Stop, k.Reset},
		{k.Tag, k.Note, k.Clear},
		{k.Help, k.Quit},
	}
}
