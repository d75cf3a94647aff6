package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rlch/soql/complete"
)

type keyMap struct {
	Focus     key.Binding
	Accept    key.Binding
	Up        key.Binding
	Down      key.Binding
	Hide      key.Binding
	SelectAll key.Binding
	Run       key.Binding
	Tooling   key.Binding
	Save      key.Binding
	PageUp    key.Binding
	PageDown  key.Binding
	Quit      key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Focus:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "focus list")),
		Accept:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "insert")),
		Up:        key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "previous")),
		Down:      key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "next")),
		Hide:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "hide")),
		SelectAll: key.NewBinding(key.WithKeys("ctrl+@"), key.WithHelp("ctrl+space", "all fields")),
		Run:       key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "run")),
		Tooling:   key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "tooling")),
		Save:      key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
		PageUp:    key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "scroll results")),
		PageDown:  key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "scroll results")),
		Quit:      key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Focus, k.Accept, k.SelectAll, k.Run, k.Tooling, k.Save, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Focus, k.Up, k.Down, k.Accept, k.Hide, k.SelectAll},
		{k.Run, k.Tooling, k.Save, k.PageUp, k.PageDown, k.Quit},
	}
}

// listKey maps a key press onto the suggestion list's keys.
func (k keyMap) listKey(msg tea.KeyMsg) (complete.Key, bool) {
	switch {
	case key.Matches(msg, k.Focus):
		return complete.KeyTab, true
	case key.Matches(msg, k.Accept):
		return complete.KeyEnter, true
	case key.Matches(msg, k.Up):
		return complete.KeyUp, true
	case key.Matches(msg, k.Down):
		return complete.KeyDown, true
	case key.Matches(msg, k.Hide):
		return complete.KeyEscape, true
	case key.Matches(msg, k.SelectAll):
		return complete.KeySelectAll, true
	}

	return 0, false
}
