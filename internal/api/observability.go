package api

import (
	"log"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ChatImproVR/particle-life/internal/sim"
)

// Metrics with bounded cardinality (no per-particle labels).
var (
	stepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sim_step_duration_seconds",
		Help:    "Time spent advancing the simulation one frame",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1},
	})

	particleCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sim_particle_count",
		Help: "Current population size",
	})

	gridCells = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sim_grid_nonempty_cells",
		Help: "Non-empty spatial index cells",
	})

	gridDeepestBucket = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sim_grid_deepest_bucket",
		Help: "Largest spatial index bucket",
	})

	mcmcProposals = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sim_mcmc_proposals_total",
		Help: "Monte-Carlo proposals attempted",
	})

	mcmcAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sim_mcmc_accepted_total",
		Help: "Monte-Carlo proposals accepted",
	})

	connectionRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "connection_rejected_total",
		Help: "Connections rejected by rate limiter or connection cap",
	}, []string{"reason"}) // Bounded: "rate_limit", "ws_limit"

	wsConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "websocket_connections_active",
		Help: "Currently active WebSocket connections",
	})

	wsMessagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "websocket_messages_total",
		Help: "Total WebSocket messages sent",
	})
)

// ObserveTick records one completed engine step. Wired to sim.Engine's
// OnTick hook.
func ObserveTick(d time.Duration, stats sim.StepStats, snap *sim.Snapshot) {
	stepDuration.Observe(d.Seconds())
	particleCount.Set(float64(len(snap.Positions)))
	gridCells.Set(float64(snap.GridStats.NonEmptyCells))
	gridDeepestBucket.Set(float64(snap.GridStats.DeepestBucket))
	if stats.Proposed > 0 {
		mcmcProposals.Add(float64(stats.Proposed))
		mcmcAccepted.Add(float64(stats.Accepted))
	}
}

// RecordConnectionRejected increments the rejection counter for a
// bounded reason label.
func RecordConnectionRejected(reason string) {
	connectionRejected.WithLabelValues(reason).Inc()
}

// StartDebugServer serves /metrics and pprof on a localhost-only
// listener. Never expose this address externally.
func StartDebugServer(addr string) {
	if addr == "" {
		addr = "127.0.0.1:6060"
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	go func() {
		log.Printf("debug server on %s", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Printf("debug server: %v", err)
		}
	}()
}
