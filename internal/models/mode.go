package models

import (
	"fmt"
	"strings"
)

// Mode selects which server-owned collection the editor works on.
type Mode int

const (
	ModeMusic Mode = iota
	ModeAmbience
)

func (m Mode) String() string {
	if m == ModeAmbience {
		return "ambience"
	}
	return "music"
}

// ParseMode parses "music" or "ambience".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "music", "":
		return ModeMusic, nil
	case "ambience":
		return ModeAmbience, nil
	default:
		return ModeMusic, fmt.Errorf("unknown mode %q", s)
	}
}
