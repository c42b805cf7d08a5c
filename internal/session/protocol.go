package session

import (
	"encoding/json"
	"fmt"

	"github.com/desertthunder/ambiencectl/internal/shared"
)

// Outbound command names.
const (
	CmdGetPlaylists = "GET_PLAYLISTS"
	CmdGetAmbience  = "GET_AMBIENCE"
	CmdSavePlaylist = "SAVE_PLAYLIST"
	CmdSaveAmbience = "SAVE_AMBIENCE"
	CmdGetBotStatus = "GET_BOT_STATUS"
	CmdStartBot     = "START_BOT"
	CmdStopBot      = "STOP_BOT"
	CmdRebootBot    = "REBOOT_BOT"
	CmdSetupSave    = "SETUP_SAVE"
)

// Inbound event names.
const (
	EvtHeartbeat      = "HEARTBEAT"
	EvtStatus         = "RETURN_STATUS"
	EvtPlaylists      = "RETURN_PLAYLISTS"
	EvtAmbience       = "RETURN_AMBIENCE"
	EvtPlaylistSaved  = "RETURN_PLAYLIST_SAVE"
	EvtAmbienceSaved  = "RETURN_AMBIENCE_SAVE"
	EvtSetupSaved     = "RETURN_SETUP_SAVE"
	EvtCommandUnknown = "UNKNOWN_COMMAND"
)

// Command is a one-way outbound request identified by name.
type Command struct {
	Name    string         `json:"name"`
	Payload map[string]any `json:"payload,omitempty"`
}

// Event is a one-way named message from the backend. The payload is decoded by whichever handler receives it.
type Event struct {
	Name    string          `json:"name"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// EncodeCommand serializes a command frame.
func EncodeCommand(name string, payload map[string]any) ([]byte, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: command name is required", shared.ErrInvalidArgument)
	}
	data, err := json.Marshal(Command{Name: name, Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("failed to encode command %s: %w", name, err)
	}
	return data, nil
}

// DecodeEvent parses an event frame. Frames that are not JSON objects or lack a name are malformed.
func DecodeEvent(data []byte) (Event, error) {
	var evt Event
	if err := json.Unmarshal(data, &evt); err != nil {
		return Event{}, fmt.Errorf("%w: %v", shared.ErrMalformedFrame, err)
	}
	if evt.Name == "" {
		return Event{}, fmt.Errorf("%w: missing event name", shared.ErrMalformedFrame)
	}
	return evt, nil
}

// EncodeEvent serializes an event frame. Used by the development backend and tests.
func EncodeEvent(name string, payload any) ([]byte, error) {
	evt := struct {
		Name    string `json:"name"`
		Payload any    `json:"payload,omitempty"`
	}{Name: name, Payload: payload}

	data, err := json.Marshal(evt)
	if err != nil {
		return nil, fmt.Errorf("failed to encode event %s: %w", name, err)
	}
	return data, nil
}

// DecodeCommand parses a command frame. Used by the development backend.
func DecodeCommand(data []byte) (Command, error) {
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return Command{}, fmt.Errorf("%w: %v", shared.ErrMalformedFrame, err)
	}
	if cmd.Name == "" {
		return Command{}, fmt.Errorf("%w: missing command name", shared.ErrMalformedFrame)
	}
	return cmd, nil
}
