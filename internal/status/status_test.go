package status

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/desertthunder/ambiencectl/internal/models"
)

func TestReconciler(t *testing.T) {
	t.Run("starts offline", func(t *testing.T) {
		snap := NewReconciler().Snapshot()
		if snap.Web != models.WebOffline || snap.Bot != models.BotOffline {
			t.Errorf("expected offline, got %+v", snap)
		}
		if !snap.Controls.Start || snap.Controls.Stop || snap.Controls.Reboot {
			t.Errorf("expected only start enabled, got %+v", snap.Controls)
		}
	})

	t.Run("heartbeat with web down and bot booting", func(t *testing.T) {
		r := NewReconciler()
		r.Observe()
		r.ApplyHeartbeat(json.RawMessage(`{"webOK": false, "botOK": "booting"}`))

		snap := r.Snapshot()
		if snap.Web != models.WebOffline {
			t.Errorf("expected web offline, got %s", snap.Web)
		}
		if snap.Bot != models.BotBooting {
			t.Errorf("expected bot booting, got %s", snap.Bot)
		}
		if snap.Controls.Start || !snap.Controls.Stop || snap.Controls.Reboot {
			t.Errorf("expected start disabled, stop enabled, reboot disabled, got %+v", snap.Controls)
		}
	})

	t.Run("ApplyHeartbeat", func(t *testing.T) {
		tests := []struct {
			name    string
			payload string
			web     models.WebStatus
			bot     models.BotStatus
		}{
			{name: "all up", payload: `{"webOK": true, "botOK": true}`, web: models.WebOnline, bot: models.BotOnline},
			{name: "bot string online", payload: `{"webOK": true, "botOK": "ONLINE "}`, web: models.WebOnline, bot: models.BotOnline},
			{name: "bot false", payload: `{"webOK": true, "botOK": false}`, web: models.WebOnline, bot: models.BotOffline},
			{name: "missing webOK", payload: `{"botOK": "online"}`, web: models.WebOnline, bot: models.BotOnline},
			{name: "non bool webOK", payload: `{"webOK": "yes", "botOK": "booting"}`, web: models.WebOnline, bot: models.BotBooting},
			{name: "unknown bot value", payload: `{"webOK": true, "botOK": 7}`, web: models.WebOnline, bot: models.BotOffline},
			{name: "not an object", payload: `"garbage"`, web: models.WebOnline, bot: models.BotOffline},
			{name: "empty", payload: ``, web: models.WebOnline, bot: models.BotOffline},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				r := NewReconciler()
				r.ApplyHeartbeat(json.RawMessage(tt.payload))

				snap := r.Snapshot()
				if snap.Web != tt.web || snap.Bot != tt.bot {
					t.Errorf("expected web=%s bot=%s, got web=%s bot=%s", tt.web, tt.bot, snap.Web, snap.Bot)
				}
			})
		}
	})

	t.Run("ApplyStatus", func(t *testing.T) {
		tests := []struct {
			payload string
			want    models.BotStatus
		}{
			{payload: `true`, want: models.BotOnline},
			{payload: `false`, want: models.BotOffline},
			{payload: `"booting"`, want: models.BotBooting},
			{payload: `"Offline"`, want: models.BotOffline},
			{payload: `{"status": "online"}`, want: models.BotOnline},
			{payload: `null`, want: models.BotOffline},
			{payload: `[1]`, want: models.BotOffline},
		}

		for _, tt := range tests {
			t.Run(tt.payload, func(t *testing.T) {
				r := NewReconciler()
				r.ApplyStatus(json.RawMessage(tt.payload))

				snap := r.Snapshot()
				if snap.Bot != tt.want {
					t.Errorf("expected %s, got %s", tt.want, snap.Bot)
				}
				if snap.Web != models.WebOnline {
					t.Errorf("expected web online, got %s", snap.Web)
				}
			})
		}
	})

	t.Run("Observe sets web online", func(t *testing.T) {
		r := NewReconciler()
		r.Observe()
		if r.Snapshot().Web != models.WebOnline {
			t.Error("expected web online")
		}
	})

	t.Run("MarkDisconnected keeps last bot status", func(t *testing.T) {
		r := NewReconciler()
		r.ApplyStatus(json.RawMessage(`"online"`))
		r.MarkDisconnected()

		snap := r.Snapshot()
		if snap.Web != models.WebOffline {
			t.Errorf("expected web offline, got %s", snap.Web)
		}
		if snap.Bot != models.BotOnline {
			t.Errorf("expected bot to keep last status, got %s", snap.Bot)
		}
	})

	t.Run("Subscribe fires only on change", func(t *testing.T) {
		r := NewReconciler()
		now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		r.now = func() time.Time { return now }

		var got []Snapshot
		r.Subscribe(func(s Snapshot) { got = append(got, s) })

		r.Observe()
		r.Observe()
		r.ApplyHeartbeat(json.RawMessage(`{"webOK": true, "botOK": "online"}`))
		r.ApplyHeartbeat(json.RawMessage(`{"webOK": true, "botOK": "online"}`))
		r.MarkDisconnected()

		if len(got) != 3 {
			t.Fatalf("expected 3 notifications, got %d", len(got))
		}
		if got[1].Bot != models.BotOnline || !got[1].Controls.Reboot {
			t.Errorf("unexpected snapshot %+v", got[1])
		}
		if !got[2].UpdatedAt.Equal(now) {
			t.Errorf("expected UpdatedAt %v, got %v", now, got[2].UpdatedAt)
		}
	})
}
