// Package metrics centralizes the hint store's Prometheus instrumentation,
// grounded on the promauto wiring idiom in
// _examples/ipiton-alert-history-service/go-app/pkg/metrics/prometheus.go
// and the namespaced singleton-registry shape of
// _examples/ipiton-alert-history-service/go-app/pkg/metrics/registry.go,
// trimmed to the metrics this store's components actually emit.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds every metric the store and RPC surface record.
type Registry struct {
	HintsTotal     *prometheus.GaugeVec
	ComponentTotal prometheus.Gauge
	SetOpsTotal    *prometheus.CounterVec
	EvictionsTotal prometheus.Counter

	RPCRequestsTotal   *prometheus.CounterVec
	RPCRequestDuration *prometheus.HistogramVec
	RPCActiveRequests  prometheus.Gauge
	RateLimitedTotal   *prometheus.CounterVec
}

// NewRegistry builds a Registry under the given namespace. Each process
// should construct exactly one; a PROXY process still constructs its own
// registry (subsystem "proxy"). The metrics are registered with the default
// Prometheus registerer; no HTTP route in this module exposes them.
func NewRegistry(namespace, subsystem string) *Registry {
	return &Registry{
		HintsTotal: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "hints_total",
				Help:      "Current number of stored hints per component.",
			},
			[]string{"component"},
		),
		ComponentTotal: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "components_total",
				Help:      "Current number of distinct components with hints.",
			},
		),
		SetOpsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "set_ops_total",
				Help:      "Total set_hint operations by outcome.",
			},
			[]string{"outcome"},
		),
		EvictionsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "ttl_evictions_total",
				Help:      "Total hints removed by TTL eviction.",
			},
		),
		RPCRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "rpc_requests_total",
				Help:      "Total JSON-RPC requests by method and error code.",
			},
			[]string{"method", "code"},
		),
		RPCRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "rpc_request_duration_seconds",
				Help:      "Duration of JSON-RPC request handling in seconds.",
				Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
			},
			[]string{"method"},
		),
		RPCActiveRequests: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "rpc_active_requests",
				Help:      "Number of JSON-RPC requests currently being handled.",
			},
		),
		RateLimitedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "rate_limited_total",
				Help:      "Total requests rejected by the rate limiter, by client.",
			},
			[]string{"client"},
		),
	}
}
