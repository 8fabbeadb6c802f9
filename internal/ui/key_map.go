package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	enter  key.Binding
	back   key.Binding
	search key.Binding
	remove key.Binding
	reload key.Binding
	toggle key.Binding
	reset  key.Binding
	faster key.Binding
	slower key.Binding
	chord  key.Binding
	focus  key.Binding
	save   key.Binding
	quit   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		enter:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		back:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		search: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "find songs")),
		remove: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		reload: key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "reload")),
		toggle: key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "play/pause")),
		reset:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset")),
		faster: key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "faster")),
		slower: key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "slower")),
		chord:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "next chord")),
		focus:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "results")),
		save:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "save")),
		quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.enter, k.back, k.search, k.remove},
		{k.toggle, k.reset, k.faster, k.slower, k.chord},
		{k.focus, k.save, k.reload, k.quit},
	}
}
