package watch

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds the watch view bindings
type KeyMap struct {
	Next       key.Binding
	Add        key.Binding
	Filter     key.Binding
	Sync       key.Binding
	KeepLocal  key.Binding
	KeepRemote key.Binding
	Help       key.Binding
	Quit       key.Binding

	Submit    key.Binding
	Cancel    key.Binding
	NextField key.Binding
}

// DefaultKeyMap returns the default bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Next:       key.NewBinding(key.WithKeys("n", " "), key.WithHelp("n", "new quote")),
		Add:        key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		Filter:     key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "cycle category")),
		Sync:       key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sync now")),
		KeepLocal:  key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "keep local"), key.WithDisabled()),
		KeepRemote: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "keep server"), key.WithDisabled()),
		Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),

		Submit:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "save")),
		Cancel:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		NextField: key.NewBinding(key.WithKeys("tab", "shift+tab"), key.WithHelp("tab", "next field")),
	}
}

// ShortHelp implements help.KeyMap
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Sync, k.KeepLocal, k.KeepRemote, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Add, k.Filter},
		{k.Sync, k.KeepLocal, k.KeepRemote},
		{k.Help, k.Quit},
	}
}

// setConflict enables the resolution keys only while a conflict is pending
func (k *KeyMap) setConflict(on bool) {
	k.KeepLocal.SetEnabled(on)
	k.KeepRemote.SetEnabled(on)
}
