package keys

import "github.com/charmbracelet/bubbles/key"

// WatchKeys are the bindings of the watch screen
type WatchKeys struct {
	CommonKeys
	Enter        key.Binding
	Up           key.Binding
	Down         key.Binding
	Refresh      key.Binding
	ToggleOutput key.Binding
	ToggleRaw    key.Binding
	Clear        key.Binding
}

func NewWatchKeys() WatchKeys {
	return WatchKeys{
		CommonKeys: NewCommonKeys(),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "run command"),
		),
		Up: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("↑", "previous command"),
		),
		Down: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("↓", "next command"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "poll now"),
		),
		ToggleOutput: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "toggle output"),
		),
		ToggleRaw: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "toggle raw replies"),
		),
		Clear: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "clear log"),
		),
	}
}

func (k WatchKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.CommandMode, k.ToggleOutput, k.Refresh, k.Quit}
}

func (k WatchKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.CommandMode, k.Escape, k.Enter, k.Up, k.Down},
		{k.ToggleOutput, k.Refresh, k.ToggleRaw, k.Clear},
		{k.Help, k.Quit},
	}
}
