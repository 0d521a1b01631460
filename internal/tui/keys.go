package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the keybindings of the run view.
type KeyMap struct {
	Cancel key.Binding // Stop the run after the current file
	Quit   key.Binding // Leave once the run has ended
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Cancel: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q/esc", "cancel run"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c", "enter"),
			key.WithHelp("q", "quit"),
		),
	}
}
