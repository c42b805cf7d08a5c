package models

import "slices"

const (
	// ThemePreferenceKey is the preference key the theme preset is stored under.
	ThemePreferenceKey = "ai-theme"
	// DefaultThemeName is used when no preset has been saved.
	DefaultThemeName = "green"
)

// Theme is a named preset resolved to a fixed set of color tokens.
type Theme struct {
	Name    string
	Primary string
	Success string
	Danger  string
	Warning string
	Muted   string
}

var themes = map[string]Theme{
	"green":  {Name: "green", Primary: "#4CAF50", Success: "#4CAF50", Danger: "#F44336", Warning: "#FFCA28", Muted: "#626262"},
	"blue":   {Name: "blue", Primary: "#2196F3", Success: "#4CAF50", Danger: "#F44336", Warning: "#FFCA28", Muted: "#626262"},
	"purple": {Name: "purple", Primary: "#7D56F4", Success: "#04B575", Danger: "#FF0000", Warning: "#FFA500", Muted: "#626262"},
	"red":    {Name: "red", Primary: "#E53935", Success: "#4CAF50", Danger: "#B71C1C", Warning: "#FFCA28", Muted: "#757575"},
	"amber":  {Name: "amber", Primary: "#FFB300", Success: "#7CB342", Danger: "#E53935", Warning: "#FB8C00", Muted: "#8D6E63"},
}

// LookupTheme resolves a preset by name.
func LookupTheme(name string) (Theme, bool) {
	t, ok := themes[name]
	return t, ok
}

// ThemeOrDefault resolves a preset by name, falling back to [DefaultThemeName].
func ThemeOrDefault(name string) Theme {
	if t, ok := themes[name]; ok {
		return t
	}
	return themes[DefaultThemeName]
}

// ThemeNames lists the available presets in sorted order.
func ThemeNames() []string {
	names := make([]string, 0, len(themes))
	for name := range themes {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
