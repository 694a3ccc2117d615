package rpcserver

import (
	"net"
	"net/http"
	"sync"

	"golang.org/x/time/rate"

	metricspkg "github.com/ipeerbhai/nudge/pkg/metrics"
)

// clientLimiter tracks the token-bucket limiter assigned to one client.
type clientLimiter struct {
	limiter *rate.Limiter
}

// RateLimiter hands out a per-client token bucket, keyed by remote IP,
// grounded on the teacher's per-client rate limiter.
type RateLimiter struct {
	mu       sync.Mutex
	clients  map[string]*clientLimiter
	rps      rate.Limit
	burst    int
	metrics  *metricspkg.Registry
}

// NewRateLimiter builds a limiter allowing perMinute requests per client
// with the given burst capacity.
func NewRateLimiter(perMinute, burst int, metrics *metricspkg.Registry) *RateLimiter {
	if perMinute <= 0 {
		perMinute = 600
	}
	if burst <= 0 {
		burst = 50
	}
	return &RateLimiter{
		clients: make(map[string]*clientLimiter),
		rps:     rate.Limit(float64(perMinute) / 60.0),
		burst:   burst,
		metrics: metrics,
	}
}

func (rl *RateLimiter) limiterFor(client string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cl, ok := rl.clients[client]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.clients[client] = cl
	}
	return cl.limiter
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Middleware rejects requests exceeding the per-client rate with 429, and
// otherwise passes them through.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client := clientKey(r)
		if !rl.limiterFor(client).Allow() {
			if rl.metrics != nil {
				rl.metrics.RateLimitedTotal.WithLabelValues(client).Inc()
			}
			http.Error(w, `{"error":"rate limit exceeded"}`, http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
