package rpcserver

import (
	"net/http"

	metricspkg "github.com/ipeerbhai/nudge/pkg/metrics"
)

// MetricsMiddleware tracks rpc_active_requests around the dispatcher; the
// per-method, per-code counter and duration histogram are recorded by
// Server.handleRPC around the Dispatch call, where the JSON-RPC method name
// and error code are actually known, unlike at the raw HTTP layer.
func MetricsMiddleware(m *metricspkg.Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m == nil {
				next.ServeHTTP(w, r)
				return
			}
			m.RPCActiveRequests.Inc()
			defer m.RPCActiveRequests.Dec()
			next.ServeHTTP(w, r)
		})
	}
}
