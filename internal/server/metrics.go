package server

import (
	"net/http"

	"github.com/desertthunder/ambiencectl/internal/models"
	"github.com/desertthunder/ambiencectl/internal/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	metricClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "ambiencectl",
		Subsystem: "backend",
		Name:      "clients",
		Help:      "Connected websocket clients.",
	})
	metricCommands = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ambiencectl",
		Subsystem: "backend",
		Name:      "commands_total",
		Help:      "Commands received, by command name.",
	}, []string{"name"})
	metricBotStatus = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "ambiencectl",
		Subsystem: "backend",
		Name:      "bot_status",
		Help:      "Simulated bot status: 0 offline, 1 booting, 2 online.",
	})
)

var knownCommands = map[string]bool{
	session.CmdGetPlaylists: true,
	session.CmdGetAmbience:  true,
	session.CmdSavePlaylist: true,
	session.CmdSaveAmbience: true,
	session.CmdGetBotStatus: true,
	session.CmdStartBot:     true,
	session.CmdStopBot:      true,
	session.CmdRebootBot:    true,
	session.CmdSetupSave:    true,
}

// commandLabel keeps label cardinality bounded.
func commandLabel(name string) string {
	if knownCommands[name] {
		return name
	}
	return "unknown"
}

func botStatusValue(s models.BotStatus) float64 {
	switch s {
	case models.BotOnline:
		return 2
	case models.BotBooting:
		return 1
	default:
		return 0
	}
}

// Metrics answers GET /metrics in the Prometheus text format.
func (b *Backend) Metrics() http.Handler {
	return promhttp.Handler()
}
