// Package keymap holds the console's keybindings and the vim-style
// sequence handling they rely on.
package keymap

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/grovetools/console/config"
)

// KeyMap contains every binding of the console front end.
type KeyMap struct {
	// Navigation
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Top      key.Binding // gg sequence
	Bottom   key.Binding

	// Regions
	Open          key.Binding
	Back          key.Binding
	Notes         key.Binding
	MaximizePanel key.Binding
	ToggleMenu    key.Binding
	NextScope     key.Binding
	PrevScope     key.Binding
	Activities    key.Binding
	Actions       key.Binding
	NotesPage     key.Binding

	// Activity actions
	CancelActivity key.Binding
	Refresh        key.Binding
	Save           key.Binding

	// Confirm modal
	ChooseSave    key.Binding
	ChooseDiscard key.Binding
	ChooseStay    key.Binding

	Help key.Binding
	Quit key.Binding
}

// DefaultVim returns the default vim-style keymap.
func DefaultVim() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "down"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("ctrl+u", "pgup"),
			key.WithHelp("C-u", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("ctrl+d", "pgdown"),
			key.WithHelp("C-d", "page down"),
		),
		Top: key.NewBinding(
			key.WithKeys("gg"),
			key.WithHelp("gg", "top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G"),
			key.WithHelp("G", "bottom"),
		),

		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open detail"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close panel"),
		),
		Notes: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "notes"),
		),
		MaximizePanel: key.NewBinding(
			key.WithKeys("z"),
			key.WithHelp("z", "maximize panel"),
		),
		ToggleMenu: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "toggle menu"),
		),
		NextScope: key.NewBinding(
			key.WithKeys("tab", "l"),
			key.WithHelp("tab", "next scope"),
		),
		PrevScope: key.NewBinding(
			key.WithKeys("shift+tab", "h"),
			key.WithHelp("S-tab", "prev scope"),
		),
		Activities: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "activities"),
		),
		Actions: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "actions"),
		),
		NotesPage: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "notes page"),
		),

		CancelActivity: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "cancel activity"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("C-r", "refresh"),
		),
		Save: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("C-s", "save"),
		),

		ChooseSave: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "save"),
		),
		ChooseDiscard: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "discard"),
		),
		ChooseStay: key.NewBinding(
			key.WithKeys("esc", "c"),
			key.WithHelp("esc", "stay"),
		),

		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// DefaultArrows returns a keymap without letter navigation or sequences.
func DefaultArrows() KeyMap {
	k := DefaultVim()
	k.Up = key.NewBinding(
		key.WithKeys("up"),
		key.WithHelp("up", "up"),
	)
	k.Down = key.NewBinding(
		key.WithKeys("down"),
		key.WithHelp("down", "down"),
	)
	k.Top = key.NewBinding(
		key.WithKeys("home"),
		key.WithHelp("home", "top"),
	)
	k.Bottom = key.NewBinding(
		key.WithKeys("end"),
		key.WithHelp("end", "bottom"),
	)
	k.NextScope = key.NewBinding(
		key.WithKeys("tab", "right"),
		key.WithHelp("tab", "next scope"),
	)
	k.PrevScope = key.NewBinding(
		key.WithKeys("shift+tab", "left"),
		key.WithHelp("S-tab", "prev scope"),
	)
	return k
}

// Load picks the configured preset and applies the per-binding overrides.
func Load(cfg config.TUIConfig) KeyMap {
	var k KeyMap
	switch cfg.Preset {
	case config.PresetArrows:
		k = DefaultArrows()
	default:
		k = DefaultVim()
	}
	ApplyOverrides(&k, cfg.Keybindings)
	return k
}

// Sequences returns the bindings that span more than one key press.
func (k KeyMap) Sequences() []key.Binding {
	var seqs []key.Binding
	for _, b := range []key.Binding{k.Top} {
		for _, keyStr := range b.Keys() {
			if IsSequence(keyStr) {
				seqs = append(seqs, b)
				break
			}
		}
	}
	return seqs
}

// ShortHelp returns keybindings to be shown in the compact help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Open, k.Notes, k.ToggleMenu, k.Help, k.Quit}
}

// FullHelp returns keybindings for the expanded help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	var groups [][]key.Binding
	for _, s := range k.Sections() {
		if b := s.FilterEnabled(); len(b) > 0 {
			groups = append(groups, b)
		}
	}
	return groups
}

// Sections groups the bindings for the help overlay.
func (k KeyMap) Sections() []Section {
	return []Section{
		NavigationSection(k.Up, k.Down, k.PageUp, k.PageDown, k.Top, k.Bottom),
		NewSection("Regions", k.Open, k.Back, k.Notes, k.MaximizePanel, k.ToggleMenu, k.NextScope, k.PrevScope, k.Activities, k.Actions, k.NotesPage),
		ActionsSection(k.CancelActivity, k.Refresh, k.Save),
		SystemSection(k.Help, k.Quit),
	}
}
