package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ambiencectl/internal/models"
	"github.com/desertthunder/ambiencectl/internal/session"
	"github.com/desertthunder/ambiencectl/internal/shared"
	"github.com/desertthunder/ambiencectl/internal/status"
	"github.com/desertthunder/ambiencectl/internal/store"
	"golang.org/x/time/rate"
)

const (
	defaultControlInterval = 2 * time.Second
	defaultBuffer          = 64
)

// Commander sends commands and routes inbound events. Implemented by [session.Dispatcher].
type Commander interface {
	Send(ctx context.Context, name string, payload map[string]any) error
	On(name string, h session.Handler)
	OnAny(fn func(session.Event))
}

// Lifecycle reports connection events. Implemented by [session.Manager].
type Lifecycle interface {
	OnConnect(fn func())
	OnStateChange(fn func(session.State))
}

// SaveRecorder persists a journal of sent saves and their acknowledgments.
type SaveRecorder interface {
	RecordSave(ctx context.Context, snap store.Snapshot) error
	AcknowledgeSave(ctx context.Context, mode models.Mode) error
}

// Options configures a [Dashboard].
type Options struct {
	Commander       Commander
	Lifecycle       Lifecycle
	Store           *store.Store
	Status          *status.Reconciler
	Logger          *log.Logger
	ControlInterval time.Duration // Minimum spacing between bot control commands
	Recorder        SaveRecorder  // Optional save journal
	Buffer          int           // Update channel capacity
}

// Dashboard is the application core: it owns the handler registrations and turns user actions into commands.
type Dashboard struct {
	cmd      Commander
	store    *store.Store
	status   *status.Reconciler
	logger   *log.Logger
	limiter  *rate.Limiter
	recorder SaveRecorder
	updates  chan Update

	mu   sync.Mutex
	open bool
}

// New creates a dashboard and registers its handlers and connect hook.
// It must be called once per Commander, before the connection loop starts.
func New(opts Options) (*Dashboard, error) {
	if opts.Commander == nil || opts.Lifecycle == nil {
		return nil, fmt.Errorf("%w: dashboard requires a commander and a lifecycle", shared.ErrMissingArgument)
	}
	if opts.Store == nil {
		opts.Store = store.New(models.ModeMusic)
	}
	if opts.Status == nil {
		opts.Status = status.NewReconciler()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.ControlInterval <= 0 {
		opts.ControlInterval = defaultControlInterval
	}
	if opts.Buffer <= 0 {
		opts.Buffer = defaultBuffer
	}

	d := &Dashboard{
		cmd:      opts.Commander,
		store:    opts.Store,
		status:   opts.Status,
		logger:   shared.WithLogger(opts.Logger, "component", "dashboard"),
		limiter:  rate.NewLimiter(rate.Every(opts.ControlInterval), 1),
		recorder: opts.Recorder,
		updates:  make(chan Update, opts.Buffer),
	}

	d.register(opts.Lifecycle)
	return d, nil
}

// Updates returns the change stream. It is never closed.
func (d *Dashboard) Updates() <-chan Update {
	return d.updates
}

// View returns the editor state.
func (d *Dashboard) View() store.View {
	return d.store.View()
}

// Status returns the displayed status.
func (d *Dashboard) Status() status.Snapshot {
	return d.status.Snapshot()
}

// Store exposes the edit model for direct track and playlist edits.
func (d *Dashboard) Store() *store.Store {
	return d.store
}

func (d *Dashboard) register(lc Lifecycle) {
	d.cmd.OnAny(d.observe)
	d.cmd.On(session.EvtHeartbeat, d.status.ApplyHeartbeat)
	d.cmd.On(session.EvtStatus, d.status.ApplyStatus)
	d.cmd.On(session.EvtPlaylists, d.handlePlaylists)
	d.cmd.On(session.EvtAmbience, d.handleAmbience)
	d.cmd.On(session.EvtPlaylistSaved, d.handlePlaylistSaved)
	d.cmd.On(session.EvtAmbienceSaved, d.handleAmbienceSaved)
	d.cmd.On(session.EvtSetupSaved, func(json.RawMessage) { d.emit(setupSavedUpdate()) })
	d.cmd.On(session.EvtCommandUnknown, d.handleUnknown)

	d.status.Subscribe(func(s status.Snapshot) { d.emit(statusUpdate(s)) })
	d.store.Subscribe(func(v store.View) { d.emit(storeUpdate(v)) })

	lc.OnConnect(d.onConnect)
	lc.OnStateChange(d.onStateChange)
}

// observe applies the reachability rule. Heartbeat and status replies imply it in their own update,
// so a single snapshot is published per frame.
func (d *Dashboard) observe(e session.Event) {
	switch e.Name {
	case session.EvtHeartbeat, session.EvtStatus:
		return
	}
	d.status.Observe()
}

func (d *Dashboard) onConnect() {
	d.emit(connectedUpdate())

	ctx := context.Background()
	if err := d.cmd.Send(ctx, session.CmdGetBotStatus, nil); err != nil {
		d.logger.Warn("status fetch failed", "error", err)
	}
	if err := d.fetch(ctx, d.store.Mode()); err != nil {
		d.logger.Warn("collection fetch failed", "error", err)
	}
}

func (d *Dashboard) onStateChange(s session.State) {
	d.mu.Lock()
	wasOpen := d.open
	d.open = s == session.StateOpen
	d.mu.Unlock()

	if s == session.StateClosed {
		d.status.MarkDisconnected()
		if wasOpen {
			d.emit(disconnectedUpdate())
		}
	}
}

func (d *Dashboard) handlePlaylists(raw json.RawMessage) {
	c, err := models.DecodeCollection(raw)
	if err != nil {
		d.logger.Warn("dropping playlists reply", "error", err)
		return
	}
	if err := d.store.ReplaceAll(c); err != nil {
		d.dropStale(session.EvtPlaylists, err)
		return
	}
	d.emit(playlistsLoadedUpdate(c))
}

func (d *Dashboard) handleAmbience(raw json.RawMessage) {
	p, err := models.DecodePlaylist(raw)
	if err != nil {
		d.logger.Warn("dropping ambience reply", "error", err)
		return
	}
	if err := d.store.ReplaceAmbience(p); err != nil {
		d.dropStale(session.EvtAmbience, err)
		return
	}
	d.emit(ambienceLoadedUpdate(p))
}

func (d *Dashboard) handlePlaylistSaved(raw json.RawMessage) {
	var ack struct {
		Name string `json:"name"`
	}
	_ = json.Unmarshal(raw, &ack)

	if d.store.Mode() == models.ModeMusic {
		d.store.MarkSaved(ack.Name)
	}
	d.acknowledge(models.ModeMusic)
	d.emit(playlistSavedUpdate(ack.Name))
}

func (d *Dashboard) handleAmbienceSaved(json.RawMessage) {
	if d.store.Mode() == models.ModeAmbience {
		d.store.MarkSaved(models.AmbienceName)
	}
	d.acknowledge(models.ModeAmbience)
	d.emit(ambienceSavedUpdate())
}

func (d *Dashboard) handleUnknown(raw json.RawMessage) {
	var payload struct {
		Name string `json:"name"`
	}
	_ = json.Unmarshal(raw, &payload)
	d.logger.Warn("backend rejected command", "command", payload.Name)
}

func (d *Dashboard) dropStale(event string, err error) {
	if errors.Is(err, shared.ErrModeMismatch) {
		d.logger.Debug("dropping stale reply", "event", event, "error", err)
		return
	}
	d.logger.Warn("failed to apply reply", "event", event, "error", err)
}

// Save sends the current playlist to the backend. Validation failures are returned before anything is sent.
func (d *Dashboard) Save(ctx context.Context) error {
	snap, err := d.store.SnapshotForSave()
	if err != nil {
		return err
	}

	switch snap.Mode {
	case models.ModeAmbience:
		err = d.cmd.Send(ctx, session.CmdSaveAmbience, map[string]any{"data": snap.Data})
	default:
		err = d.cmd.Send(ctx, session.CmdSavePlaylist, map[string]any{"name": snap.Name, "data": snap.Data})
	}
	if err != nil {
		return err
	}

	d.store.ClearSelection()
	d.record(ctx, snap)
	d.logger.Info("save sent", "mode", snap.Mode, "playlist", snap.Name, "tracks", len(snap.Data))
	return nil
}

// SwitchMode changes the edit mode and fetches the matching collection.
// The local switch happens even when the fetch cannot be sent.
func (d *Dashboard) SwitchMode(ctx context.Context, mode models.Mode) error {
	d.store.SwitchMode(mode)
	return d.fetch(ctx, mode)
}

// Refresh re-fetches the collection for the current mode and the bot status.
func (d *Dashboard) Refresh(ctx context.Context) error {
	if err := d.fetch(ctx, d.store.Mode()); err != nil {
		return err
	}
	return d.cmd.Send(ctx, session.CmdGetBotStatus, nil)
}

// RequestStatus asks the backend for the bot status.
func (d *Dashboard) RequestStatus(ctx context.Context) error {
	return d.cmd.Send(ctx, session.CmdGetBotStatus, nil)
}

// StartBot asks the backend to start the bot. Only available while the bot is offline.
func (d *Dashboard) StartBot(ctx context.Context) error {
	return d.control(ctx, session.CmdStartBot, "start", func(c models.Controls) bool { return c.Start })
}

// StopBot asks the backend to stop the bot. Available while the bot is online or booting.
func (d *Dashboard) StopBot(ctx context.Context) error {
	return d.control(ctx, session.CmdStopBot, "stop", func(c models.Controls) bool { return c.Stop })
}

// RebootBot asks the backend to restart the bot. Only available while the bot is online.
func (d *Dashboard) RebootBot(ctx context.Context) error {
	return d.control(ctx, session.CmdRebootBot, "reboot", func(c models.Controls) bool { return c.Reboot })
}

// SaveSetup sends the bot's text and voice channel ids.
func (d *Dashboard) SaveSetup(ctx context.Context, textChannelID, voiceChannelID string) error {
	textChannelID = strings.TrimSpace(textChannelID)
	voiceChannelID = strings.TrimSpace(voiceChannelID)
	if textChannelID == "" || voiceChannelID == "" {
		return fmt.Errorf("%w: text and voice channel ids are required", shared.ErrInvalidInput)
	}

	return d.cmd.Send(ctx, session.CmdSetupSave, map[string]any{
		"text_channel_id":  textChannelID,
		"voice_channel_id": voiceChannelID,
	})
}

func (d *Dashboard) control(ctx context.Context, command, action string, allowed func(models.Controls) bool) error {
	snap := d.status.Snapshot()
	if !allowed(snap.Controls) {
		return fmt.Errorf("%w: cannot %s while bot is %s", shared.ErrControlUnavailable, action, snap.Bot)
	}
	if !d.limiter.Allow() {
		return fmt.Errorf("%w: %s requested too soon", shared.ErrThrottled, action)
	}
	if err := d.cmd.Send(ctx, command, nil); err != nil {
		return err
	}
	d.logger.Info("bot control sent", "command", command)
	return nil
}

func (d *Dashboard) fetch(ctx context.Context, mode models.Mode) error {
	if mode == models.ModeAmbience {
		return d.cmd.Send(ctx, session.CmdGetAmbience, nil)
	}
	return d.cmd.Send(ctx, session.CmdGetPlaylists, nil)
}

// emit sends an update without blocking.
func (d *Dashboard) emit(u Update) {
	select {
	case d.updates <- u:
	default:
		d.logger.Debug("update dropped", "kind", u.Kind)
	}
}

// record journals a sent save. Errors are logged and ignored.
func (d *Dashboard) record(ctx context.Context, snap store.Snapshot) {
	if d.recorder == nil {
		return
	}
	if err := d.recorder.RecordSave(ctx, snap); err != nil {
		d.logger.Debug("failed to record save", "error", err)
	}
}

func (d *Dashboard) acknowledge(mode models.Mode) {
	if d.recorder == nil {
		return
	}
	if err := d.recorder.AcknowledgeSave(context.Background(), mode); err != nil {
		d.logger.Debug("failed to acknowledge save", "error", err)
	}
}
