package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/ambiencectl/internal/models"
)

// Palette is a simple stylesheet built with named [lipgloss.Style] fields, resolved from a [models.Theme].
type Palette struct {
	primary lipgloss.Color
	title   lipgloss.Style
	tab     lipgloss.Style
	active  lipgloss.Style
	ok      lipgloss.Style
	err     lipgloss.Style
	warn    lipgloss.Style
	help    lipgloss.Style
}

func NewPalette(t models.Theme) *Palette {
	return &Palette{
		primary: lipgloss.Color(t.Primary),
		title:   NewBold(t.Primary).MarginBottom(1),
		tab:     NewStyle(t.Muted).Padding(0, 1),
		active:  NewBold(t.Primary).Padding(0, 1).Underline(true),
		ok:      NewBold(t.Success),
		err:     NewBold(t.Danger),
		warn:    NewStyle(t.Warning),
		help:    NewEm(t.Muted),
	}
}

// Bot renders a bot status label in the color of its state.
func (p *Palette) Bot(s models.BotStatus) string {
	switch s {
	case models.BotOnline:
		return p.ok.Render(s.Label())
	case models.BotBooting:
		return p.warn.Render(s.Label())
	default:
		return p.err.Render(s.Label())
	}
}

// Web renders a web status label.
func (p *Palette) Web(s models.WebStatus) string {
	if s == models.WebOnline {
		return p.ok.Render(s.Label())
	}
	return p.err.Render(s.Label())
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}
