package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
)

var (
	_ list.Item = playlistItem{}
	_ list.Item = trackItem{}
)

// playlistItem wraps a playlist name to implement [list.Item].
type playlistItem struct {
	name    string
	current bool
	unsaved bool
	tracks  int
}

func (i playlistItem) FilterValue() string { return i.name }
func (i playlistItem) Title() string       { return i.name }
func (i playlistItem) Description() string {
	switch {
	case i.current && i.unsaved:
		return fmt.Sprintf("editing • %d tracks • unsaved", i.tracks)
	case i.current:
		return fmt.Sprintf("editing • %d tracks", i.tracks)
	case i.unsaved:
		return "unsaved"
	}
	return ""
}

// trackItem wraps one url/title pair to implement [list.Item].
type trackItem struct {
	url   string
	title string
}

func (i trackItem) FilterValue() string { return i.title }
func (i trackItem) Title() string       { return i.title }
func (i trackItem) Description() string { return i.url }

func newList(title string, p *Palette) list.Model {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.KeyMap.Quit.SetEnabled(false)
	l.KeyMap.ForceQuit.SetEnabled(false)
	styleList(&l, p)
	return l
}

func styleList(l *list.Model, p *Palette) {
	d := list.NewDefaultDelegate()
	d.Styles.SelectedTitle = d.Styles.SelectedTitle.Foreground(p.primary).BorderLeftForeground(p.primary)
	d.Styles.SelectedDesc = d.Styles.SelectedDesc.Foreground(p.primary).BorderLeftForeground(p.primary)
	l.SetDelegate(d)
	l.Styles.Title = l.Styles.Title.Background(p.primary)
}

func newInput(placeholder string, limit int) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = limit
	return in
}
