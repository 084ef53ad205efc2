// Package metrics provides Prometheus instrumentation for the Courtside
// club application. It exposes gauges for connection and presence counts,
// counters for queue and game throughput, and histograms for queue build
// latency.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ConnectionsTotal tracks the current number of active WebSocket connections.
	ConnectionsTotal = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "courtside_connections_total",
		Help: "Current number of active WebSocket connections",
	})

	// CheckedInPlayers tracks the current number of checked-in players across
	// all open sessions.
	CheckedInPlayers = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "courtside_checked_in_players",
		Help: "Current number of checked-in players",
	})

	// QueuesGenerated counts the rotation queues built, labeled by outcome:
	// "ok", "empty", or "error".
	QueuesGenerated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "courtside_queues_generated_total",
		Help: "Total number of rotation queue builds",
	}, []string{"outcome"}) // outcome = "ok", "empty", "error"

	// QueueBuildDuration records how long a rotation queue build takes.
	QueueBuildDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "courtside_queue_build_seconds",
		Help:    "Rotation queue build duration in seconds",
		Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
	})

	// GamesCompleted counts recorded game results.
	GamesCompleted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "courtside_games_completed_total",
		Help: "Total number of games with a recorded result",
	})

	// SessionsCharged counts sessions the ledger has billed.
	SessionsCharged = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "courtside_sessions_charged_total",
		Help: "Total number of sessions billed by the ledger",
	})
)

func init() {
	prometheus.MustRegister(
		ConnectionsTotal,
		CheckedInPlayers,
		QueuesGenerated,
		QueueBuildDuration,
		GamesCompleted,
		SessionsCharged,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
