// Package status merges heartbeat and status events into the displayed web and bot status.
package status

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/desertthunder/ambiencectl/internal/models"
)

// Snapshot is the displayed status and the control affordances derived from it.
type Snapshot struct {
	Web       models.WebStatus
	Bot       models.BotStatus
	Controls  models.Controls
	UpdatedAt time.Time
}

// Reconciler holds the last known status. It is safe for concurrent use.
type Reconciler struct {
	mu          sync.Mutex
	web         models.WebStatus
	bot         models.BotStatus
	updated     time.Time
	now         func() time.Time
	subscribers []func(Snapshot)
}

// NewReconciler starts with both the backend and the bot offline.
func NewReconciler() *Reconciler {
	return &Reconciler{web: models.WebOffline, bot: models.BotOffline, now: time.Now}
}

// Subscribe registers fn to receive every status change.
func (r *Reconciler) Subscribe(fn func(Snapshot)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subscribers = append(r.subscribers, fn)
}

// Observe records that a well-formed event arrived, which proves the backend is reachable.
func (r *Reconciler) Observe() {
	r.update(func() {
		r.web = models.WebOnline
	})
}

// ApplyHeartbeat merges a heartbeat payload of the form {"webOK": bool, "botOK": any}.
//
// A missing or non-boolean webOK keeps the online status implied by receipt. Payloads that do not decode as an
// object still count as proof of life. It never fails.
func (r *Reconciler) ApplyHeartbeat(raw json.RawMessage) {
	var hb struct {
		WebOK any `json:"webOK"`
		BotOK any `json:"botOK"`
	}
	_ = json.Unmarshal(raw, &hb)

	r.update(func() {
		r.web = models.WebOnline
		if ok, isBool := hb.WebOK.(bool); isBool {
			r.web = models.WebStatus(ok)
		}
		r.bot = models.ParseBotStatus(hb.BotOK)
	})
}

// ApplyStatus merges a bot status reply. The payload may be a boolean or a status string.
func (r *Reconciler) ApplyStatus(raw json.RawMessage) {
	var v any
	_ = json.Unmarshal(raw, &v)

	// some backends wrap the value as {"status": ...}
	if obj, ok := v.(map[string]any); ok {
		v = obj["status"]
	}

	r.update(func() {
		r.web = models.WebOnline
		r.bot = models.ParseBotStatus(v)
	})
}

// MarkDisconnected records that the transport closed. The bot keeps its last known status.
func (r *Reconciler) MarkDisconnected() {
	r.update(func() {
		r.web = models.WebOffline
	})
}

// Snapshot returns the current status.
func (r *Reconciler) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot()
}

func (r *Reconciler) snapshot() Snapshot {
	return Snapshot{
		Web:       r.web,
		Bot:       r.bot,
		Controls:  models.ControlsFor(r.bot),
		UpdatedAt: r.updated,
	}
}

// update applies fn and notifies subscribers when the displayed status changed.
func (r *Reconciler) update(fn func()) {
	r.mu.Lock()
	beforeWeb, beforeBot := r.web, r.bot
	fn()
	r.updated = r.now()
	if r.web == beforeWeb && r.bot == beforeBot {
		r.mu.Unlock()
		return
	}
	snap := r.snapshot()
	subs := append([]func(Snapshot){}, r.subscribers...)
	r.mu.Unlock()

	for _, sub := range subs {
		sub(snap)
	}
}
