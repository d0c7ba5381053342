// Package metrics holds the Prometheus collectors shared by the Tribbler
// back-end, keeper, and HTTP front-end processes, and the registry that
// exposes them over /metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// RPCRequestsTotal counts back-end RPC calls by method and outcome
	// ("ok" or "error"), handled in internal/backend's middleware.
	RPCRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tribbler",
		Subsystem: "backend",
		Name:      "rpc_requests_total",
		Help:      "Total back-end RPC requests by method and outcome.",
	}, []string{"method", "outcome"})

	// RPCRequestDuration observes back-end RPC handling latency by method.
	RPCRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tribbler",
		Subsystem: "backend",
		Name:      "rpc_request_duration_seconds",
		Help:      "Back-end RPC handling latency by method.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method"})

	// KeeperState reports the current keeper state machine value (spec
	// §4.2) as a 1/0 gauge per state, set by internal/keeper on transition.
	KeeperState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "tribbler",
		Subsystem: "keeper",
		Name:      "state",
		Help:      "Current keeper state (1 for the active state, 0 otherwise).",
	}, []string{"state"})

	// BackendsLive reports the number of back-ends the keeper currently
	// considers live, from internal/keeper's liveness monitor.
	BackendsLive = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "tribbler",
		Subsystem: "keeper",
		Name:      "backends_live",
		Help:      "Number of back-ends currently considered live by the keeper.",
	})

	// MigrationsTotal counts replica migrations the keeper has run, by
	// outcome ("ok" or "error").
	MigrationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tribbler",
		Subsystem: "keeper",
		Name:      "migrations_total",
		Help:      "Total replica migrations run by the keeper, by outcome.",
	}, []string{"outcome"})
)

// NewRegistry builds a Prometheus registry with every collector above
// registered, ready to be served over /metrics by promhttp.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		RPCRequestsTotal,
		RPCRequestDuration,
		KeeperState,
		BackendsLive,
		MigrationsTotal,
	)
	return reg
}
