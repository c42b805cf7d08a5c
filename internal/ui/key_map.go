package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	next      key.Binding
	prev      key.Binding
	up        key.Binding
	down      key.Binding
	left      key.Binding
	right     key.Binding
	enter     key.Binding
	back      key.Binding
	start     key.Binding
	stop      key.Binding
	reboot    key.Binding
	refresh   key.Binding
	mode      key.Binding
	create    key.Binding
	add       key.Binding
	remove    key.Binding
	save      key.Binding
	quit      key.Binding
	forceQuit key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		next:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
		prev:      key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev tab")),
		up:        key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "up")),
		down:      key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "down")),
		left:      key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "prev theme")),
		right:     key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "next theme")),
		enter:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		back:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		start:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "start")),
		stop:      key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "stop")),
		reboot:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reboot")),
		refresh:   key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "refresh")),
		mode:      key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "toggle mode")),
		create:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new playlist")),
		add:       key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add track")),
		remove:    key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "remove track")),
		save:      key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
		quit:      key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		forceQuit: key.NewBinding(key.WithKeys("ctrl+c")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.next, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.next, k.prev, k.quit},
		{k.start, k.stop, k.reboot, k.refresh},
		{k.mode, k.create, k.add, k.remove, k.save},
	}
}

func (k keyMap) statusHelp() []key.Binding {
	return []key.Binding{k.start, k.stop, k.reboot, k.refresh, k.next, k.quit}
}

func (k keyMap) editorHelp(f editorFocus) []key.Binding {
	switch f {
	case focusForm, focusNewPlaylist:
		return []key.Binding{k.enter, k.back}
	case focusTracks:
		return []key.Binding{k.enter, k.add, k.remove, k.save, k.mode, k.back, k.next}
	default:
		return []key.Binding{k.enter, k.create, k.save, k.mode, k.next, k.quit}
	}
}

func (k keyMap) setupHelp() []key.Binding {
	return []key.Binding{k.up, k.down, k.left, k.right, k.enter, k.next}
}
