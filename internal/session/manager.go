package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ambiencectl/internal/shared"
)

// State is the connection lifecycle state.
type State int

const (
	StateClosed State = iota
	StateConnecting
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	default:
		return "closed"
	}
}

// Options tunes reconnection and keepalive. Zero values take defaults.
type Options struct {
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	DialTimeout    time.Duration
	WriteTimeout   time.Duration
	PingInterval   time.Duration // 0 takes the default; negative disables pings
	ReadTimeout    time.Duration // 0 takes the default; negative disables the idle timeout
	Logger         *log.Logger
}

const (
	defaultInitialBackoff = 500 * time.Millisecond
	defaultMaxBackoff     = 30 * time.Second
	defaultDialTimeout    = 15 * time.Second
	defaultWriteTimeout   = 5 * time.Second
	defaultPingInterval   = 30 * time.Second
	defaultReadTimeout    = 90 * time.Second
)

func (o Options) withDefaults() Options {
	if o.InitialBackoff <= 0 {
		o.InitialBackoff = defaultInitialBackoff
	}
	if o.MaxBackoff <= 0 {
		o.MaxBackoff = defaultMaxBackoff
	}
	if o.MaxBackoff < o.InitialBackoff {
		o.MaxBackoff = o.InitialBackoff
	}
	if o.DialTimeout <= 0 {
		o.DialTimeout = defaultDialTimeout
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = defaultWriteTimeout
	}
	if o.PingInterval == 0 {
		o.PingInterval = defaultPingInterval
	}
	if o.ReadTimeout == 0 {
		o.ReadTimeout = defaultReadTimeout
	}
	if o.Logger == nil {
		o.Logger = shared.NewLogger(nil)
	}
	return o
}

// Manager owns the connection lifecycle and feeds inbound frames to a [Dispatcher].
type Manager struct {
	dialer     Dialer
	dispatcher *Dispatcher
	opts       Options
	logger     *log.Logger

	mu         sync.Mutex
	conn       Conn
	state      State
	hooks      []func()
	stateHooks []func(State)
	cancel     context.CancelFunc
	closed     bool
}

// NewManager creates a manager and binds the dispatcher's outbound side to it.
func NewManager(dialer Dialer, dispatcher *Dispatcher, opts Options) *Manager {
	opts = opts.withDefaults()
	m := &Manager{
		dialer:     dialer,
		dispatcher: dispatcher,
		opts:       opts,
		logger:     shared.WithLogger(opts.Logger, "component", "session"),
		state:      StateClosed,
	}
	dispatcher.bind(m)
	return m
}

// OnConnect registers a hook fired once per successful (re)connection, in registration order.
// Registrations are permanent and survive reconnects.
func (m *Manager) OnConnect(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, fn)
}

// OnStateChange registers a callback for lifecycle transitions.
func (m *Manager) OnStateChange(fn func(State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stateHooks = append(m.stateHooks, fn)
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Write sends a frame on the live connection, or fails with [shared.ErrNotConnected].
func (m *Manager) Write(ctx context.Context, data []byte) error {
	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()

	if conn == nil {
		return shared.ErrNotConnected
	}

	writeCtx, cancel := context.WithTimeout(ctx, m.opts.WriteTimeout)
	defer cancel()
	return conn.Write(writeCtx, data)
}

// Connect runs the connection loop until ctx is cancelled or [Manager.Close] is called.
//
// Each iteration dials, fires the connect hooks, and reads until the connection drops. Failures back off
// exponentially from InitialBackoff up to MaxBackoff, resetting after every successful connection.
// It returns nil after Close and ctx.Err() after cancellation.
func (m *Manager) Connect(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.cancel = cancel
	m.mu.Unlock()

	backoff := m.opts.InitialBackoff
	connectedOnce := false

	for {
		if runCtx.Err() != nil {
			return m.exitErr(ctx)
		}

		m.setState(StateConnecting)

		dialCtx, dialCancel := context.WithTimeout(runCtx, m.opts.DialTimeout)
		conn, err := m.dialer.Dial(dialCtx)
		dialCancel()

		if err != nil {
			m.setState(StateClosed)
			if runCtx.Err() != nil {
				return m.exitErr(ctx)
			}
			if connectedOnce {
				m.logger.Warn("reconnect failed", "error", err, "retry_in", backoff)
			} else {
				m.logger.Warn("connect failed", "error", err, "retry_in", backoff)
			}
			if !sleep(runCtx, backoff) {
				return m.exitErr(ctx)
			}
			backoff = nextBackoff(backoff, m.opts.MaxBackoff)
			continue
		}

		connectedOnce = true
		backoff = m.opts.InitialBackoff
		logger := shared.WithLogger(m.logger, "conn_id", shared.ShortID())
		logger.Info("connected")

		m.attach(conn)
		m.setState(StateOpen)
		m.fireConnect()

		err = m.readLoop(runCtx, conn)

		m.detach()
		_ = conn.Close()
		m.setState(StateClosed)

		if runCtx.Err() != nil {
			logger.Info("connection closed")
			return m.exitErr(ctx)
		}

		logger.Warn("disconnected", "error", err, "reconnect_in", backoff)
		if !sleep(runCtx, backoff) {
			return m.exitErr(ctx)
		}
		backoff = nextBackoff(backoff, m.opts.MaxBackoff)
	}
}

// Close stops the connection loop and closes the live connection. Hooks and handlers stay registered.
func (m *Manager) Close() error {
	m.mu.Lock()
	m.closed = true
	cancel := m.cancel
	conn := m.conn
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		return conn.Close()
	}
	return nil
}

func (m *Manager) readLoop(ctx context.Context, conn Conn) error {
	pingCtx, stopPing := context.WithCancel(ctx)
	defer stopPing()
	if m.opts.PingInterval > 0 {
		go m.keepalive(pingCtx, conn)
	}

	for {
		readCtx, readCancel := ctx, context.CancelFunc(func() {})
		if m.opts.ReadTimeout > 0 {
			readCtx, readCancel = context.WithTimeout(ctx, m.opts.ReadTimeout)
		}
		data, err := conn.Read(readCtx)
		readCancel()

		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return shared.ErrTimeout
			}
			return err
		}

		m.dispatcher.Route(data)
	}
}

func (m *Manager) keepalive(ctx context.Context, conn Conn) {
	ticker := time.NewTicker(m.opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, m.opts.WriteTimeout)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				// the read loop notices the broken connection and reconnects
				m.logger.Debug("ping failed", "error", err)
				return
			}
		}
	}
}

func (m *Manager) fireConnect() {
	m.mu.Lock()
	hooks := append([]func(){}, m.hooks...)
	m.mu.Unlock()

	for _, hook := range hooks {
		m.safely("connect hook", hook)
	}
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	if m.state == s {
		m.mu.Unlock()
		return
	}
	m.state = s
	hooks := append([]func(State){}, m.stateHooks...)
	m.mu.Unlock()

	for _, hook := range hooks {
		m.safely("state hook", func() { hook(s) })
	}
}

func (m *Manager) safely(what string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error(what+" panicked", "panic", r)
		}
	}()
	fn()
}

func (m *Manager) attach(conn Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conn = conn
}

func (m *Manager) detach() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conn = nil
}

func (m *Manager) exitErr(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return nil
}

func nextBackoff(cur, max time.Duration) time.Duration {
	next := cur * 2
	if next > max {
		return max
	}
	return next
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
