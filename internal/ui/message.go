package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ambiencectl/internal/dashboard"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgUpdate MsgKind = iota
	MsgActionDone
)

type actionResult struct {
	message string
	err     error
}

// updateMsg is the constructor for [MsgUpdate]
func updateMsg(u dashboard.Update) Msg {
	return Msg{kind: MsgUpdate, data: u}
}

// actionDoneMsg is the constructor for [MsgActionDone]
func actionDoneMsg(message string, err error) Msg {
	return Msg{kind: MsgActionDone, data: actionResult{message, err}}
}
