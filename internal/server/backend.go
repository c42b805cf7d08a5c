package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/websocket"
	"github.com/desertthunder/ambiencectl/internal/models"
	"github.com/desertthunder/ambiencectl/internal/session"
	"github.com/desertthunder/ambiencectl/internal/shared"
)

// AuthHeader carries the shared key on websocket handshakes.
const AuthHeader = "X-Auth-Key"

// BackendOptions configures a [Backend].
type BackendOptions struct {
	AuthKey           string
	HeartbeatInterval time.Duration
	BootDelay         time.Duration
	Logger            *log.Logger
	Playlists         models.PlaylistCollection // Initial music playlists
	Ambience          models.Playlist           // Initial ambience singleton
}

// Setup is the bot configuration saved through SETUP_SAVE.
type Setup struct {
	TextChannelID  string `json:"text_channel_id"`
	VoiceChannelID string `json:"voice_channel_id"`
}

// Backend is an in-memory stand-in for the bot's web backend.
type Backend struct {
	opts   BackendOptions
	logger *log.Logger

	mu        sync.Mutex
	playlists models.PlaylistCollection
	ambience  models.Playlist
	bot       models.BotStatus
	setup     Setup
	clients   map[string]session.Conn
	boot      *time.Timer
}

// NewBackend creates a backend with the bot offline.
func NewBackend(opts BackendOptions) *Backend {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.HeartbeatInterval <= 0 {
		opts.HeartbeatInterval = 5 * time.Second
	}
	if opts.BootDelay <= 0 {
		opts.BootDelay = 3 * time.Second
	}
	if opts.Playlists == nil {
		opts.Playlists = models.PlaylistCollection{}
	}

	return &Backend{
		opts:      opts,
		logger:    shared.WithLogger(opts.Logger, "component", "backend"),
		playlists: opts.Playlists.Clone(),
		ambience:  opts.Ambience.Clone(),
		bot:       models.BotOffline,
		clients:   make(map[string]session.Conn),
	}
}

// Routes returns the HTTP routes this handler serves.
func (b *Backend) Routes() []string {
	return []string{"/ws"}
}

// ServeHTTP upgrades the request and serves one client until it disconnects.
func (b *Backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !b.authorized(r.Header.Get(AuthHeader)) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		b.logger.Warn("websocket accept failed", "error", err)
		return
	}

	conn := session.NewWebSocketConn(ws)
	id := shared.ShortID()
	logger := shared.WithLogger(b.logger, "client", id)

	b.mu.Lock()
	b.clients[id] = conn
	b.mu.Unlock()
	metricClients.Inc()
	logger.Info("client connected")

	defer func() {
		b.mu.Lock()
		delete(b.clients, id)
		b.mu.Unlock()
		metricClients.Dec()
		_ = conn.Close()
		logger.Info("client disconnected")
	}()

	ctx := r.Context()
	for {
		data, err := conn.Read(ctx)
		if err != nil {
			return
		}

		cmd, err := session.DecodeCommand(data)
		if err != nil {
			logger.Warn("dropping frame", "error", err)
			continue
		}

		logger.Debug("command", "name", cmd.Name)
		for _, reply := range b.Handle(cmd) {
			if err := b.send(ctx, conn, reply); err != nil {
				logger.Warn("reply failed", "error", err)
				return
			}
		}
	}
}

// Reply is one outbound event.
type Reply struct {
	Name    string
	Payload any
}

// Handle applies a command and returns the events to send back to its sender.
// Status changes are additionally broadcast to every client as heartbeats.
func (b *Backend) Handle(cmd session.Command) []Reply {
	metricCommands.WithLabelValues(commandLabel(cmd.Name)).Inc()

	switch cmd.Name {
	case session.CmdGetPlaylists:
		b.mu.Lock()
		defer b.mu.Unlock()
		return []Reply{{session.EvtPlaylists, b.playlists.Clone()}}

	case session.CmdGetAmbience:
		b.mu.Lock()
		defer b.mu.Unlock()
		return []Reply{{session.EvtAmbience, b.ambience.Clone()}}

	case session.CmdSavePlaylist:
		name, _ := cmd.Payload["name"].(string)
		name = strings.TrimSpace(name)
		if name == "" || models.IsReservedName(name) {
			return []Reply{{session.EvtCommandUnknown, map[string]string{"name": cmd.Name, "error": "invalid playlist name"}}}
		}
		pl, err := decodeData(cmd.Payload["data"])
		if err != nil {
			return []Reply{{session.EvtCommandUnknown, map[string]string{"name": cmd.Name, "error": err.Error()}}}
		}
		b.mu.Lock()
		b.playlists[name] = pl
		b.mu.Unlock()
		return []Reply{{session.EvtPlaylistSaved, map[string]string{"name": name}}}

	case session.CmdSaveAmbience:
		pl, err := decodeData(cmd.Payload["data"])
		if err != nil {
			return []Reply{{session.EvtCommandUnknown, map[string]string{"name": cmd.Name, "error": err.Error()}}}
		}
		b.mu.Lock()
		b.ambience = pl
		b.mu.Unlock()
		return []Reply{{session.EvtAmbienceSaved, nil}}

	case session.CmdGetBotStatus:
		return []Reply{{session.EvtStatus, b.BotStatus().String()}}

	case session.CmdStartBot:
		b.startBot()
		return nil

	case session.CmdStopBot:
		b.stopBot()
		return nil

	case session.CmdRebootBot:
		b.rebootBot()
		return nil

	case session.CmdSetupSave:
		text, _ := cmd.Payload["text_channel_id"].(string)
		voice, _ := cmd.Payload["voice_channel_id"].(string)
		b.mu.Lock()
		b.setup = Setup{TextChannelID: text, VoiceChannelID: voice}
		b.mu.Unlock()
		return []Reply{{session.EvtSetupSaved, nil}}

	default:
		return []Reply{{session.EvtCommandUnknown, map[string]string{"name": cmd.Name}}}
	}
}

// Run broadcasts heartbeats until ctx is cancelled.
func (b *Backend) Run(ctx context.Context) {
	ticker := time.NewTicker(b.opts.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.mu.Lock()
			if b.boot != nil {
				b.boot.Stop()
			}
			clients := make([]session.Conn, 0, len(b.clients))
			for _, c := range b.clients {
				clients = append(clients, c)
			}
			b.mu.Unlock()
			for _, c := range clients {
				_ = c.Close()
			}
			return
		case <-ticker.C:
			b.broadcastHeartbeat()
		}
	}
}

// BotStatus returns the simulated bot status.
func (b *Backend) BotStatus() models.BotStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bot
}

// Playlists returns a copy of the stored music playlists.
func (b *Backend) Playlists() models.PlaylistCollection {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.playlists.Clone()
}

// Ambience returns a copy of the stored ambience singleton.
func (b *Backend) Ambience() models.Playlist {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ambience.Clone()
}

// Setup returns the saved bot setup.
func (b *Backend) Setup() Setup {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.setup
}

// Clients returns the number of connected clients.
func (b *Backend) Clients() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

func (b *Backend) startBot() {
	b.mu.Lock()
	if b.bot != models.BotOffline {
		b.mu.Unlock()
		return
	}
	b.bootLocked()
	b.mu.Unlock()
	b.broadcastHeartbeat()
}

func (b *Backend) stopBot() {
	b.mu.Lock()
	if b.boot != nil {
		b.boot.Stop()
		b.boot = nil
	}
	b.setBotLocked(models.BotOffline)
	b.mu.Unlock()
	b.broadcastHeartbeat()
}

func (b *Backend) rebootBot() {
	b.mu.Lock()
	if b.bot != models.BotOnline {
		b.mu.Unlock()
		return
	}
	b.bootLocked()
	b.mu.Unlock()
	b.broadcastHeartbeat()
}

// bootLocked moves the bot to booting and schedules it online. b.mu must be held.
func (b *Backend) bootLocked() {
	if b.boot != nil {
		b.boot.Stop()
	}
	b.setBotLocked(models.BotBooting)
	b.boot = time.AfterFunc(b.opts.BootDelay, func() {
		b.mu.Lock()
		if b.bot != models.BotBooting {
			b.mu.Unlock()
			return
		}
		b.setBotLocked(models.BotOnline)
		b.boot = nil
		b.mu.Unlock()
		b.broadcastHeartbeat()
	})
}

// setBotLocked records a status change. b.mu must be held.
func (b *Backend) setBotLocked(s models.BotStatus) {
	b.bot = s
	metricBotStatus.Set(botStatusValue(s))
}

func (b *Backend) broadcastHeartbeat() {
	b.mu.Lock()
	payload := map[string]any{"webOK": true, "botOK": b.bot.String()}
	clients := make([]session.Conn, 0, len(b.clients))
	for _, c := range b.clients {
		clients = append(clients, c)
	}
	b.mu.Unlock()

	for _, c := range clients {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := b.send(ctx, c, Reply{session.EvtHeartbeat, payload}); err != nil {
			b.logger.Debug("heartbeat failed", "error", err)
		}
		cancel()
	}
}

func (b *Backend) send(ctx context.Context, conn session.Conn, r Reply) error {
	data, err := session.EncodeEvent(r.Name, r.Payload)
	if err != nil {
		return err
	}
	return conn.Write(ctx, data)
}

func (b *Backend) authorized(key string) bool {
	return b.opts.AuthKey == "" || key == b.opts.AuthKey
}

// AuthCheck answers POST /auth_check with {"ok": bool}.
func (b *Backend) AuthCheck() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Key string `json:"key"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "invalid request"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": b.authorized(req.Key)})
	})
}

// Health answers GET /health.
func (b *Backend) Health() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "clients": b.Clients(), "bot": b.BotStatus().String()})
	})
}

// NewRouter wires the backend's routes behind logging and panic recovery.
func NewRouter(b *Backend, logger *log.Logger) *BasicRouter {
	r := NewBasicRouter()
	r.Use(RecoverMiddleware(logger), LoggingMiddleware(logger))
	r.Handler(b)
	r.Handle(http.MethodPost, "/auth_check", b.AuthCheck())
	r.Handle(http.MethodGet, "/health", b.Health())
	r.Handle(http.MethodGet, "/metrics", b.Metrics())
	return r
}

func decodeData(v any) (models.Playlist, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return models.DecodePlaylist(raw)
}
