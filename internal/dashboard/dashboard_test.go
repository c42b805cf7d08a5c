package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/ambiencectl/internal/models"
	"github.com/desertthunder/ambiencectl/internal/session"
	"github.com/desertthunder/ambiencectl/internal/shared"
	"github.com/desertthunder/ambiencectl/internal/status"
	"github.com/desertthunder/ambiencectl/internal/store"
	tu "github.com/desertthunder/ambiencectl/internal/testing"
)

type sent struct {
	name    string
	payload map[string]any
}

// fakeSession stands in for both the dispatcher and the manager.
type fakeSession struct {
	mu       sync.Mutex
	handlers map[string]session.Handler
	observer func(session.Event)
	hooks    []func()
	states   []func(session.State)
	sent     []sent
	sendErr  error
}

func newFakeSession() *fakeSession {
	return &fakeSession{handlers: make(map[string]session.Handler)}
}

func (f *fakeSession) Send(ctx context.Context, name string, payload map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, sent{name: name, payload: payload})
	return nil
}

func (f *fakeSession) On(name string, h session.Handler) { f.handlers[name] = h }

func (f *fakeSession) OnAny(fn func(session.Event)) { f.observer = fn }

func (f *fakeSession) OnConnect(fn func()) { f.hooks = append(f.hooks, fn) }

func (f *fakeSession) OnStateChange(fn func(session.State)) { f.states = append(f.states, fn) }

func (f *fakeSession) connect() {
	f.setState(session.StateOpen)
	for _, h := range f.hooks {
		h()
	}
}

func (f *fakeSession) setState(s session.State) {
	for _, fn := range f.states {
		fn(s)
	}
}

// deliver routes an event the way the dispatcher does.
func (f *fakeSession) deliver(t *testing.T, name string, payload any) {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}
	if f.observer != nil {
		f.observer(session.Event{Name: name, Payload: raw})
	}
	if h, ok := f.handlers[name]; ok {
		h(raw)
	}
}

func (f *fakeSession) names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.sent))
	for i, s := range f.sent {
		out[i] = s.name
	}
	return out
}

func (f *fakeSession) last() sent {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return sent{}
	}
	return f.sent[len(f.sent)-1]
}

func (f *fakeSession) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = nil
}

type fakeRecorder struct {
	records []store.Snapshot
	acks    []models.Mode
	err     error
}

func (r *fakeRecorder) RecordSave(ctx context.Context, snap store.Snapshot) error {
	r.records = append(r.records, snap)
	return r.err
}

func (r *fakeRecorder) AcknowledgeSave(ctx context.Context, mode models.Mode) error {
	r.acks = append(r.acks, mode)
	return r.err
}

func newTestDashboard(t *testing.T, opts Options) (*Dashboard, *fakeSession) {
	t.Helper()
	f := newFakeSession()
	opts.Commander = f
	opts.Lifecycle = f
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(&bytes.Buffer{})
	}
	d, err := New(opts)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return d, f
}

func drain(d *Dashboard) []Kind {
	var kinds []Kind
	for {
		select {
		case u := <-d.Updates():
			kinds = append(kinds, u.Kind)
		default:
			return kinds
		}
	}
}

func contains(kinds []Kind, k Kind) bool {
	for _, got := range kinds {
		if got == k {
			return true
		}
	}
	return false
}

func TestNew(t *testing.T) {
	t.Run("requires commander and lifecycle", func(t *testing.T) {
		if _, err := New(Options{}); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("registers every handler once", func(t *testing.T) {
		_, f := newTestDashboard(t, Options{})
		for _, name := range []string{
			session.EvtHeartbeat, session.EvtStatus, session.EvtPlaylists, session.EvtAmbience,
			session.EvtPlaylistSaved, session.EvtAmbienceSaved, session.EvtSetupSaved,
		} {
			if _, ok := f.handlers[name]; !ok {
				t.Errorf("expected handler for %s", name)
			}
		}
		if len(f.hooks) != 1 {
			t.Errorf("expected one connect hook, got %d", len(f.hooks))
		}
	})
}

func TestDashboardConnect(t *testing.T) {
	t.Run("fetches status and collection on every connect", func(t *testing.T) {
		d, f := newTestDashboard(t, Options{})

		f.connect()
		got := f.names()
		if len(got) != 2 || got[0] != session.CmdGetBotStatus || got[1] != session.CmdGetPlaylists {
			t.Errorf("unexpected commands %v", got)
		}

		f.setState(session.StateClosed)
		f.reset()
		_ = d.SwitchMode(context.Background(), models.ModeAmbience)
		f.reset()
		f.connect()

		got = f.names()
		if len(got) != 2 || got[1] != session.CmdGetAmbience {
			t.Errorf("expected ambience fetch after reconnect, got %v", got)
		}

		kinds := drain(d)
		if !contains(kinds, Connected) || !contains(kinds, Disconnected) {
			t.Errorf("expected connected and disconnected updates, got %v", kinds)
		}
	})

	t.Run("disconnect marks web offline and keeps bot status", func(t *testing.T) {
		d, f := newTestDashboard(t, Options{})
		f.connect()
		f.deliver(t, session.EvtStatus, "online")

		f.setState(session.StateClosed)

		snap := d.Status()
		if snap.Web != models.WebOffline || snap.Bot != models.BotOnline {
			t.Errorf("unexpected status %+v", snap)
		}
	})

	t.Run("failed dials do not repeat disconnected updates", func(t *testing.T) {
		d, f := newTestDashboard(t, Options{})
		f.setState(session.StateConnecting)
		f.setState(session.StateClosed)
		f.setState(session.StateConnecting)
		f.setState(session.StateClosed)

		if contains(drain(d), Disconnected) {
			t.Error("expected no disconnected update without an open connection")
		}
	})
}

func TestDashboardEvents(t *testing.T) {
	t.Run("heartbeat drives status", func(t *testing.T) {
		d, f := newTestDashboard(t, Options{})
		f.deliver(t, session.EvtHeartbeat, map[string]any{"webOK": false, "botOK": "booting"})

		snap := d.Status()
		if snap.Web != models.WebOffline || snap.Bot != models.BotBooting {
			t.Errorf("unexpected status %+v", snap)
		}
		if !contains(drain(d), StatusChanged) {
			t.Error("expected status update")
		}
	})

	t.Run("steady heartbeat publishes one status", func(t *testing.T) {
		d, f := newTestDashboard(t, Options{})
		for range 3 {
			f.deliver(t, session.EvtHeartbeat, map[string]any{"webOK": false, "botOK": "booting"})
		}

		n := 0
		for _, k := range drain(d) {
			if k == StatusChanged {
				n++
			}
		}
		if n != 1 {
			t.Errorf("expected a single status update, got %d", n)
		}
		if snap := d.Status(); snap.Web != models.WebOffline || snap.Bot != models.BotBooting {
			t.Errorf("unexpected status %+v", snap)
		}
	})

	t.Run("status reply publishes one status", func(t *testing.T) {
		d, f := newTestDashboard(t, Options{})
		f.deliver(t, session.EvtStatus, "online")

		n := 0
		for _, k := range drain(d) {
			if k == StatusChanged {
				n++
			}
		}
		if n != 1 || d.Status().Web != models.WebOnline || d.Status().Bot != models.BotOnline {
			t.Errorf("expected one online snapshot, got %d updates and %+v", n, d.Status())
		}
	})

	t.Run("any event marks web online", func(t *testing.T) {
		d, f := newTestDashboard(t, Options{})
		f.deliver(t, "SOMETHING_NEW", "junk")
		if d.Status().Web != models.WebOnline {
			t.Error("expected web online")
		}
	})

	t.Run("playlists reply loads the store", func(t *testing.T) {
		d, f := newTestDashboard(t, Options{})
		f.deliver(t, session.EvtPlaylists, map[string]any{"Chill": map[string]string{"http://a": "A"}, "Empty": nil})

		v := d.View()
		if len(v.Playlists) != 2 || !v.Loaded {
			t.Errorf("unexpected view %+v", v)
		}
		if !contains(drain(d), PlaylistsLoaded) {
			t.Error("expected playlists loaded update")
		}
	})

	t.Run("stale reply for another mode is dropped", func(t *testing.T) {
		d, f := newTestDashboard(t, Options{Store: store.New(models.ModeAmbience)})
		f.deliver(t, session.EvtPlaylists, map[string]any{"Chill": map[string]string{}})

		if v := d.View(); v.Loaded || len(v.Playlists) != 0 {
			t.Errorf("expected stale reply to be dropped, got %+v", v)
		}
		if contains(drain(d), PlaylistsLoaded) {
			t.Error("expected no playlists loaded update")
		}
	})

	t.Run("malformed playlists reply is dropped", func(t *testing.T) {
		d, f := newTestDashboard(t, Options{})
		f.deliver(t, session.EvtPlaylists, []int{1, 2})
		if d.View().Loaded {
			t.Error("expected store to stay unloaded")
		}
	})

	t.Run("ambience reply loads the singleton", func(t *testing.T) {
		d, f := newTestDashboard(t, Options{Store: store.New(models.ModeAmbience)})
		f.deliver(t, session.EvtAmbience, map[string]string{"http://rain": "Rain"})

		v := d.View()
		if v.Current != models.AmbienceName || v.Tracks["http://rain"] != "Rain" {
			t.Errorf("unexpected view %+v", v)
		}
		if !contains(drain(d), AmbienceLoaded) {
			t.Error("expected ambience loaded update")
		}
	})

	t.Run("setup reply emits an update", func(t *testing.T) {
		d, f := newTestDashboard(t, Options{})
		f.deliver(t, session.EvtSetupSaved, nil)
		if !contains(drain(d), SetupSaved) {
			t.Error("expected setup saved update")
		}
	})
}

func TestDashboardSave(t *testing.T) {
	t.Run("music save sends name and data", func(t *testing.T) {
		rec := &fakeRecorder{}
		d, f := newTestDashboard(t, Options{Recorder: rec})
		f.deliver(t, session.EvtPlaylists, map[string]any{"Chill": map[string]string{}})

		s := d.Store()
		_ = s.SelectPlaylist("Chill")
		_ = s.UpsertTrack("http://a", "Song A")
		_ = s.SelectTrack("http://a")

		if err := d.Save(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		last := f.last()
		if last.name != session.CmdSavePlaylist || last.payload["name"] != "Chill" {
			t.Fatalf("unexpected command %+v", last)
		}
		data, ok := last.payload["data"].(models.Playlist)
		if !ok || data["http://a"] != "Song A" {
			t.Errorf("unexpected data %v", last.payload["data"])
		}
		if v := d.View(); v.Selection != "" || !v.Dirty {
			t.Errorf("expected selection cleared and still dirty until ack, got %+v", v)
		}
		if len(rec.records) != 1 || rec.records[0].Name != "Chill" {
			t.Errorf("expected save to be recorded, got %+v", rec.records)
		}

		f.deliver(t, session.EvtPlaylistSaved, map[string]string{"name": "Chill"})
		if d.View().Dirty {
			t.Error("expected ack to clear dirty flag")
		}
		if len(rec.acks) != 1 || rec.acks[0] != models.ModeMusic {
			t.Errorf("expected ack to be recorded, got %v", rec.acks)
		}
		if !contains(drain(d), PlaylistSaved) {
			t.Error("expected playlist saved update")
		}
	})

	t.Run("ambience save sends data only", func(t *testing.T) {
		d, f := newTestDashboard(t, Options{Store: store.New(models.ModeAmbience)})
		f.deliver(t, session.EvtAmbience, map[string]string{"http://rain": "Rain"})

		if err := d.Save(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		last := f.last()
		if last.name != session.CmdSaveAmbience {
			t.Fatalf("expected %s, got %s", session.CmdSaveAmbience, last.name)
		}
		if _, ok := last.payload["name"]; ok {
			t.Error("expected no name in ambience save")
		}
	})

	t.Run("validation fails before sending", func(t *testing.T) {
		d, f := newTestDashboard(t, Options{})
		f.deliver(t, session.EvtPlaylists, map[string]any{"Chill": map[string]string{}})
		f.reset()

		if err := d.Save(context.Background()); !errors.Is(err, shared.ErrNoPlaylistSelected) {
			t.Errorf("expected ErrNoPlaylistSelected, got %v", err)
		}
		if len(f.names()) != 0 {
			t.Errorf("expected nothing sent, got %v", f.names())
		}
	})

	t.Run("send failure keeps selection", func(t *testing.T) {
		rec := &fakeRecorder{}
		d, f := newTestDashboard(t, Options{Recorder: rec})
		f.deliver(t, session.EvtPlaylists, map[string]any{"Chill": map[string]string{"http://a": "A"}})
		_ = d.Store().SelectPlaylist("Chill")
		_ = d.Store().SelectTrack("http://a")
		f.sendErr = shared.ErrNotConnected

		if err := d.Save(context.Background()); !errors.Is(err, shared.ErrNotConnected) {
			t.Errorf("expected ErrNotConnected, got %v", err)
		}
		if d.View().Selection != "http://a" {
			t.Error("expected selection to survive a failed send")
		}
		if len(rec.records) != 0 {
			t.Error("expected no record for an unsent save")
		}
	})

	t.Run("recorder errors are ignored", func(t *testing.T) {
		d, f := newTestDashboard(t, Options{Recorder: &fakeRecorder{err: errors.New("disk full")}})
		f.deliver(t, session.EvtPlaylists, map[string]any{"Chill": map[string]string{}})
		_ = d.Store().SelectPlaylist("Chill")

		if err := d.Save(context.Background()); err != nil {
			t.Errorf("expected save to succeed, got %v", err)
		}
	})
}

func TestDashboardControls(t *testing.T) {
	t.Run("affordances gate commands", func(t *testing.T) {
		tests := []struct {
			name   string
			bot    string
			action func(*Dashboard, context.Context) error
			want   error
		}{
			{name: "start while offline", bot: "offline", action: (*Dashboard).StartBot},
			{name: "start while online", bot: "online", action: (*Dashboard).StartBot, want: shared.ErrControlUnavailable},
			{name: "stop while booting", bot: "booting", action: (*Dashboard).StopBot},
			{name: "stop while offline", bot: "offline", action: (*Dashboard).StopBot, want: shared.ErrControlUnavailable},
			{name: "reboot while online", bot: "online", action: (*Dashboard).RebootBot},
			{name: "reboot while booting", bot: "booting", action: (*Dashboard).RebootBot, want: shared.ErrControlUnavailable},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				d, f := newTestDashboard(t, Options{})
				f.deliver(t, session.EvtStatus, tt.bot)

				err := tt.action(d, context.Background())
				if tt.want == nil && err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				if tt.want != nil && !errors.Is(err, tt.want) {
					t.Errorf("expected %v, got %v", tt.want, err)
				}
			})
		}
	})

	t.Run("rapid controls are throttled", func(t *testing.T) {
		d, f := newTestDashboard(t, Options{ControlInterval: time.Hour})
		f.deliver(t, session.EvtStatus, "online")

		if err := d.StopBot(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := d.RebootBot(context.Background()); !errors.Is(err, shared.ErrThrottled) {
			t.Errorf("expected ErrThrottled, got %v", err)
		}
	})
}

func TestDashboardSetup(t *testing.T) {
	d, f := newTestDashboard(t, Options{})

	if err := d.SaveSetup(context.Background(), " ", "123"); !errors.Is(err, shared.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}

	if err := d.SaveSetup(context.Background(), " 111 ", "222"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	last := f.last()
	if last.name != session.CmdSetupSave || last.payload["text_channel_id"] != "111" || last.payload["voice_channel_id"] != "222" {
		t.Errorf("unexpected command %+v", last)
	}
}

func TestDashboardUpdates(t *testing.T) {
	t.Run("full buffer drops updates", func(t *testing.T) {
		d, f := newTestDashboard(t, Options{Buffer: 1})
		f.deliver(t, session.EvtStatus, "online")
		f.deliver(t, session.EvtStatus, "offline")
		f.deliver(t, session.EvtSetupSaved, nil)

		if got := len(drain(d)); got != 1 {
			t.Errorf("expected 1 buffered update, got %d", got)
		}
	})

	t.Run("Kind String", func(t *testing.T) {
		if PlaylistSaved.String() != "playlist_saved" || Kind(99).String() != "" {
			t.Error("unexpected kind names")
		}
	})
}

func TestDashboardOverSession(t *testing.T) {
	conn := tu.NewMockConn()
	dialer := tu.NewMockDialer().Queue(conn)
	logger := shared.NewLogger(&bytes.Buffer{})

	dispatcher := session.NewDispatcher(logger)
	manager := session.NewManager(session.DialFunc(func(ctx context.Context) (session.Conn, error) {
		c, err := dialer.Next(ctx)
		if err != nil {
			return nil, err
		}
		return c, nil
	}), dispatcher, session.Options{InitialBackoff: time.Millisecond, PingInterval: -1, ReadTimeout: -1, Logger: logger})

	d, err := New(Options{Commander: dispatcher, Lifecycle: manager, Status: status.NewReconciler(), Logger: logger})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go manager.Connect(ctx)

	first := tu.Receive(t, conn.Writes(), 2*time.Second)
	second := tu.Receive(t, conn.Writes(), 2*time.Second)
	for i, data := range [][]byte{first, second} {
		cmd, err := session.DecodeCommand(data)
		if err != nil {
			t.Fatalf("bad frame %d: %v", i, err)
		}
		want := []string{session.CmdGetBotStatus, session.CmdGetPlaylists}[i]
		if cmd.Name != want {
			t.Errorf("expected %s, got %s", want, cmd.Name)
		}
	}

	reply, _ := session.EncodeEvent(session.EvtPlaylists, map[string]any{"Chill": map[string]string{"http://a": "A"}})
	conn.Push(reply)

	tu.Eventually(t, 2*time.Second, func() bool { return d.View().Loaded }, "expected playlists to load")
	if d.Status().Web != models.WebOnline {
		t.Error("expected web online after an event")
	}
}
