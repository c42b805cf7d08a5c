package ui

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ambiencectl/internal/dashboard"
	"github.com/desertthunder/ambiencectl/internal/models"
	"github.com/desertthunder/ambiencectl/internal/session"
	"github.com/desertthunder/ambiencectl/internal/shared"
)

type command struct {
	name    string
	payload map[string]any
}

// fakeSession records sent commands and lets tests deliver events.
type fakeSession struct {
	mu       sync.Mutex
	handlers map[string]session.Handler
	sent     []command
}

func (f *fakeSession) Send(ctx context.Context, name string, payload map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, command{name, payload})
	return nil
}

func (f *fakeSession) On(name string, h session.Handler) { f.handlers[name] = h }
func (f *fakeSession) OnAny(func(session.Event))         {}
func (f *fakeSession) OnConnect(func())                  {}
func (f *fakeSession) OnStateChange(func(session.State)) {}

func (f *fakeSession) deliver(t *testing.T, name string, payload any) {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}
	f.handlers[name](raw)
}

func (f *fakeSession) last() command {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return command{}
	}
	return f.sent[len(f.sent)-1]
}

type fakeThemes struct{ saved []string }

func (f *fakeThemes) SaveTheme(name string) error {
	f.saved = append(f.saved, name)
	return nil
}

func setup(t *testing.T) (*Model, *fakeSession, *fakeThemes) {
	t.Helper()
	fs := &fakeSession{handlers: make(map[string]session.Handler)}
	d, err := dashboard.New(dashboard.Options{
		Commander: fs,
		Lifecycle: fs,
		Logger:    shared.NewLogger(&bytes.Buffer{}),
	})
	if err != nil {
		t.Fatalf("dashboard.New failed: %v", err)
	}

	themes := &fakeThemes{}
	m := NewModel(context.Background(), d, models.ThemeOrDefault("green"), themes)
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return m, fs, themes
}

func press(m *Model, keys ...string) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		_, cmd = m.Update(keyMsg(k))
	}
	return cmd
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
}

// finish runs an action command and feeds its result back into the model.
func finish(t *testing.T, m *Model, cmd tea.Cmd) actionResult {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	msg, ok := cmd().(Msg)
	if !ok || msg.kind != MsgActionDone {
		t.Fatalf("expected an action result, got %#v", msg)
	}
	m.Update(msg)
	return msg.data.(actionResult)
}

func TestTabs(t *testing.T) {
	m, _, _ := setup(t)

	want := []ViewState{EditorView, SetupView, StatusView}
	for _, v := range want {
		press(m, "tab")
		if m.ActiveView() != v {
			t.Fatalf("expected %s, got %s", v, m.ActiveView())
		}
	}

	press(m, "shift+tab")
	if m.ActiveView() != SetupView {
		t.Errorf("expected shift+tab to go back to setup, got %s", m.ActiveView())
	}

	if ViewState(7).String() != "" {
		t.Error("expected unknown view to have an empty name")
	}
}

func TestStatusView(t *testing.T) {
	t.Run("renders status", func(t *testing.T) {
		m, _, _ := setup(t)
		out := m.View()
		for _, s := range []string{"Bot Status", "Offline", "Start"} {
			if !strings.Contains(out, s) {
				t.Errorf("expected %q in view", s)
			}
		}
	})

	t.Run("start sends command", func(t *testing.T) {
		m, fs, _ := setup(t)
		r := finish(t, m, press(m, "s"))
		if r.err != nil {
			t.Fatalf("unexpected error: %v", r.err)
		}
		if fs.last().name != session.CmdStartBot {
			t.Errorf("expected START_BOT, got %q", fs.last().name)
		}
	})

	t.Run("unavailable control reports error", func(t *testing.T) {
		m, _, _ := setup(t)
		r := finish(t, m, press(m, "x"))
		if !errors.Is(r.err, shared.ErrControlUnavailable) {
			t.Errorf("expected ErrControlUnavailable, got %v", r.err)
		}
		if !strings.Contains(m.View(), "Error") {
			t.Error("expected error in view")
		}
	})

	t.Run("heartbeat enables stop", func(t *testing.T) {
		m, fs, _ := setup(t)
		fs.deliver(t, session.EvtHeartbeat, map[string]any{"webOK": true, "botOK": "online"})
		finish(t, m, press(m, "x"))
		if fs.last().name != session.CmdStopBot {
			t.Errorf("expected STOP_BOT, got %q", fs.last().name)
		}
	})
}

func TestEditorView(t *testing.T) {
	load := func(t *testing.T) (*Model, *fakeSession) {
		m, fs, _ := setup(t)
		fs.deliver(t, session.EvtPlaylists, map[string]any{"Chill": map[string]string{"http://a": "A"}})
		m.refresh()
		press(m, "tab")
		return m, fs
	}

	t.Run("loading", func(t *testing.T) {
		m, _, _ := setup(t)
		press(m, "tab")
		if !strings.Contains(m.View(), "Loading") {
			t.Error("expected loading indicator before playlists arrive")
		}
	})

	t.Run("add track and save", func(t *testing.T) {
		m, fs := load(t)

		press(m, "enter")
		if m.focus != focusTracks || m.dash.View().Current != "Chill" {
			t.Fatalf("expected Chill to be opened, focus %d", m.focus)
		}

		press(m, "a", "Song B", "enter", "http://b", "enter")
		if m.err != nil {
			t.Fatalf("unexpected error: %v", m.err)
		}
		v := m.dash.View()
		if v.Tracks["http://b"] != "Song B" || !v.Dirty {
			t.Fatalf("expected dirty playlist with new track, got %+v", v)
		}
		if m.focus != focusTracks {
			t.Errorf("expected form to close, focus %d", m.focus)
		}

		finish(t, m, press(m, "ctrl+s"))
		last := fs.last()
		if last.name != session.CmdSavePlaylist || last.payload["name"] != "Chill" {
			t.Errorf("unexpected save %+v", last)
		}
	})

	t.Run("edit track", func(t *testing.T) {
		m, _ := load(t)
		press(m, "enter", "enter")
		if m.focus != focusForm || m.titleInput.Value() != "A" {
			t.Fatalf("expected form prefilled with selection, got %q", m.titleInput.Value())
		}

		press(m, "!", "enter", "enter")
		if got := m.dash.View().Tracks["http://a"]; got != "A!" {
			t.Errorf("expected edited title, got %q", got)
		}
	})

	t.Run("empty fields keep form open", func(t *testing.T) {
		m, _ := load(t)
		press(m, "enter", "a", "enter", "enter")
		if !errors.Is(m.err, shared.ErrEmptyTrackField) || m.focus != focusForm {
			t.Errorf("expected ErrEmptyTrackField with form open, got %v", m.err)
		}
		press(m, "esc")
		if m.focus != focusTracks {
			t.Error("expected esc to close the form")
		}
	})

	t.Run("remove track", func(t *testing.T) {
		m, _ := load(t)
		press(m, "enter", "d")
		if len(m.dash.View().Tracks) != 0 {
			t.Errorf("expected track removed, got %v", m.dash.View().Tracks)
		}
	})

	t.Run("new playlist", func(t *testing.T) {
		m, _ := load(t)
		press(m, "n", "Focus", "enter")
		if m.dash.View().Current != "Focus" || m.focus != focusTracks {
			t.Errorf("expected Focus to be created and opened, got %q", m.dash.View().Current)
		}

		press(m, "esc", "n", "Focus", "enter")
		if !errors.Is(m.err, shared.ErrDuplicatePlaylist) {
			t.Errorf("expected ErrDuplicatePlaylist, got %v", m.err)
		}
	})

	t.Run("toggle mode", func(t *testing.T) {
		m, fs := load(t)
		finish(t, m, press(m, "m"))
		if m.dash.Store().Mode() != models.ModeAmbience {
			t.Fatal("expected ambience mode")
		}
		if fs.last().name != session.CmdGetAmbience {
			t.Errorf("expected GET_AMBIENCE, got %q", fs.last().name)
		}

		finish(t, m, press(m, "m"))
		if m.dash.Store().Mode() != models.ModeMusic || m.focus != focusPlaylists {
			t.Error("expected music mode with playlist focus")
		}
	})
}

func TestSetupView(t *testing.T) {
	t.Run("theme cycles and persists", func(t *testing.T) {
		m, _, themes := setup(t)
		press(m, "tab", "tab", "right")

		if m.Theme().Name != "purple" {
			t.Errorf("expected purple after green, got %s", m.Theme().Name)
		}
		if len(themes.saved) != 1 || themes.saved[0] != "purple" {
			t.Errorf("expected theme to be saved, got %v", themes.saved)
		}

		press(m, "left", "left")
		if m.Theme().Name != "blue" {
			t.Errorf("expected blue, got %s", m.Theme().Name)
		}
	})

	t.Run("saves channel ids", func(t *testing.T) {
		m, fs, _ := setup(t)
		press(m, "tab", "tab", "down", "111", "enter", "222")
		finish(t, m, press(m, "enter"))

		last := fs.last()
		if last.name != session.CmdSetupSave {
			t.Fatalf("expected SETUP_SAVE, got %q", last.name)
		}
		if last.payload["text_channel_id"] != "111" || last.payload["voice_channel_id"] != "222" {
			t.Errorf("unexpected payload %v", last.payload)
		}
	})

	t.Run("missing ids report error", func(t *testing.T) {
		m, _, _ := setup(t)
		press(m, "tab", "tab", "down", "down")
		r := finish(t, m, press(m, "enter"))
		if !errors.Is(r.err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", r.err)
		}
	})
}

func TestUpdates(t *testing.T) {
	m, fs, _ := setup(t)
	cmd := m.Init()

	fs.deliver(t, session.EvtPlaylists, map[string]any{"Chill": map[string]string{}})

	msg := cmd()
	m.Update(msg)
	if len(m.playlistList.Items()) != 1 {
		t.Errorf("expected playlists to be rendered, got %d items", len(m.playlistList.Items()))
	}
}

func TestPlaylistItemDescription(t *testing.T) {
	tests := []struct {
		item playlistItem
		want string
	}{
		{item: playlistItem{name: "A"}, want: ""},
		{item: playlistItem{name: "A", unsaved: true}, want: "unsaved"},
		{item: playlistItem{name: "A", current: true, tracks: 2}, want: "editing • 2 tracks"},
		{item: playlistItem{name: "A", current: true, unsaved: true, tracks: 1}, want: "editing • 1 tracks • unsaved"},
	}

	for _, tt := range tests {
		if got := tt.item.Description(); got != tt.want {
			t.Errorf("%+v: expected %q, got %q", tt.item, tt.want, got)
		}
	}
}
