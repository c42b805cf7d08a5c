package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ambiencectl/internal/dashboard"
	"github.com/desertthunder/ambiencectl/internal/models"
	"github.com/desertthunder/ambiencectl/internal/server"
	"github.com/desertthunder/ambiencectl/internal/services"
	"github.com/desertthunder/ambiencectl/internal/session"
	"github.com/desertthunder/ambiencectl/internal/shared"
	"github.com/desertthunder/ambiencectl/internal/store"
	"github.com/urfave/cli/v3"
)

const defaultWait = 10 * time.Second

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	dialer     session.Dialer
	auth       *services.AuthService
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Dialer     session.Dialer // Defaults to a websocket dialer for backend.ws_url
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		dialer:     opts.Dialer,
	}

	if url := opts.Config.Backend.AuthURL; url != "" {
		r.auth = services.NewAuthService(services.NewAPIService(url, opts.HTTPClient))
	}
	if r.dialer == nil {
		d := session.NewWebSocketDialer(opts.Config.Backend.WSURL)
		if key := opts.Config.Backend.AuthKey; key != "" {
			d.Header.Set(server.AuthHeader, key)
		}
		r.dialer = d
	}
	return r
}

// SetLogger replaces the logger, e.g. with a file logger while the TUI owns the terminal.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, statusCommand, botCommand, playlistsCommand, ambienceCommand,
		themeCommand, historyCommand, serveCommand, discoverCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// requireAuth consults the authentication gate. It is skipped when no auth URL is configured.
func (r *Runner) requireAuth(ctx context.Context) error {
	if r.auth == nil {
		return nil
	}
	if err := r.auth.Require(ctx, r.config.Backend.AuthKey); err != nil {
		return fmt.Errorf("authentication gate: %w", err)
	}
	return nil
}

// openDatabase opens the configured database with migrations applied.
func (r *Runner) openDatabase() (*sql.DB, error) {
	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// liveSession is one backend connection driving a dashboard.
type liveSession struct {
	dash    *dashboard.Dashboard
	manager *session.Manager
	cancel  context.CancelFunc
	done    chan error
}

// connect passes the authentication gate, then starts the connection loop in the background.
// recorder may be nil, but must not be a typed nil.
func (r *Runner) connect(ctx context.Context, mode models.Mode, recorder dashboard.SaveRecorder) (*liveSession, error) {
	if err := r.requireAuth(ctx); err != nil {
		return nil, err
	}

	rc := r.config.Reconnect
	dispatcher := session.NewDispatcher(r.logger)
	manager := session.NewManager(r.dialer, dispatcher, session.Options{
		InitialBackoff: rc.InitialBackoff(),
		MaxBackoff:     rc.MaxBackoff(),
		PingInterval:   rc.PingInterval(),
		ReadTimeout:    rc.ReadTimeout(),
		Logger:         r.logger,
	})

	dash, err := dashboard.New(dashboard.Options{
		Commander:       dispatcher,
		Lifecycle:       manager,
		Store:           store.New(mode),
		Logger:          r.logger,
		ControlInterval: r.config.Control.MinInterval(),
		Recorder:        recorder,
	})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &liveSession{dash: dash, manager: manager, cancel: cancel, done: make(chan error, 1)}
	go func() { s.done <- manager.Connect(ctx) }()
	return s, nil
}

// Close stops the connection loop and waits for it to exit.
func (s *liveSession) Close() {
	s.cancel()
	_ = s.manager.Close()
	<-s.done
}

// waitFor consumes updates until one of kinds arrives or timeout elapses.
func (s *liveSession) waitFor(ctx context.Context, timeout time.Duration, kinds ...dashboard.Kind) (dashboard.Update, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case u := <-s.dash.Updates():
			for _, k := range kinds {
				if u.Kind == k {
					return u, nil
				}
			}
		case <-timer.C:
			return dashboard.Update{}, fmt.Errorf("%w: no reply from backend after %s", shared.ErrTimeout, timeout)
		case <-ctx.Done():
			return dashboard.Update{}, ctx.Err()
		}
	}
}

// waitPath follows status updates until the bot has passed through every state in path, in order.
// Each StatusChanged update carries its own snapshot, so a transition is seen even when the next one
// has already been applied.
func (s *liveSession) waitPath(ctx context.Context, timeout time.Duration, path ...models.BotStatus) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	next := 0
	for next < len(path) {
		select {
		case u := <-s.dash.Updates():
			if u.Kind == dashboard.StatusChanged && u.Status.Bot == path[next] {
				next++
			}
		case <-timer.C:
			return fmt.Errorf("%w: bot did not reach %s after %s", shared.ErrTimeout, path[next], timeout)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// load waits for the collection of the session's mode.
//
// The connect hook asks for the bot status before the collection, and replies are routed in arrival order,
// so the status is current once the collection has loaded.
func (s *liveSession) load(ctx context.Context, timeout time.Duration) error {
	kind := dashboard.PlaylistsLoaded
	if s.dash.Store().Mode() == models.ModeAmbience {
		kind = dashboard.AmbienceLoaded
	}
	_, err := s.waitFor(ctx, timeout, kind)
	return err
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
