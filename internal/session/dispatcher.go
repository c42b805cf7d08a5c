package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ambiencectl/internal/shared"
)

// Handler receives the raw payload of an inbound event.
type Handler func(payload json.RawMessage)

// writer is the outbound half of a live connection.
type writer interface {
	Write(ctx context.Context, data []byte) error
}

// Dispatcher sends commands and routes inbound events to handlers by name.
//
// Exactly one handler is kept per event name; registering again replaces it.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	observer func(Event)
	out      writer
	logger   *log.Logger
}

// NewDispatcher creates a dispatcher. It cannot send until bound to a [Manager].
func NewDispatcher(logger *log.Logger) *Dispatcher {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Dispatcher{
		handlers: make(map[string]Handler),
		logger:   shared.WithLogger(logger, "component", "dispatcher"),
	}
}

// On registers the handler for an event name. Last registration wins.
func (d *Dispatcher) On(name string, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.handlers[name]; ok {
		d.logger.Debug("replacing handler", "event", name)
	}
	d.handlers[name] = h
}

// OnAny registers a single observer called for every successfully parsed event, before it is routed.
func (d *Dispatcher) OnAny(fn func(Event)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.observer = fn
}

// Send serializes and transmits a command. There is no retry and no queue: if the connection is down the command is
// dropped and [shared.ErrNotConnected] is returned.
func (d *Dispatcher) Send(ctx context.Context, name string, payload map[string]any) error {
	data, err := EncodeCommand(name, payload)
	if err != nil {
		return err
	}

	d.mu.RLock()
	out := d.out
	d.mu.RUnlock()

	if out == nil {
		d.logger.Warn("command dropped", "command", name, "error", shared.ErrNotConnected)
		return fmt.Errorf("%w: %s dropped", shared.ErrNotConnected, name)
	}

	if err := out.Write(ctx, data); err != nil {
		d.logger.Warn("command failed", "command", name, "error", err)
		return err
	}

	d.logger.Debug("command sent", "command", name)
	return nil
}

// Route decodes one inbound frame and invokes the handler registered for its name.
//
// Malformed frames are logged and dropped and unknown names are dropped silently. Handler panics are recovered.
func (d *Dispatcher) Route(data []byte) {
	evt, err := DecodeEvent(data)
	if err != nil {
		d.logger.Warn("dropping inbound frame", "error", err, "bytes", len(data))
		return
	}

	d.mu.RLock()
	observer := d.observer
	h, ok := d.handlers[evt.Name]
	d.mu.RUnlock()

	if observer != nil {
		d.invoke(evt.Name, func() { observer(evt) })
	}

	if !ok {
		d.logger.Debug("no handler for event", "event", evt.Name)
		return
	}

	d.invoke(evt.Name, func() { h(evt.Payload) })
}

func (d *Dispatcher) invoke(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("event handler panicked", "event", name, "panic", r)
		}
	}()
	fn()
}

func (d *Dispatcher) bind(w writer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.out = w
}
