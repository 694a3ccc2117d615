package rpcserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/ipeerbhai/nudge/internal/nudgeerr"
	"github.com/ipeerbhai/nudge/pkg/logger"
	metricspkg "github.com/ipeerbhai/nudge/pkg/metrics"
)

// methodPrefix is the HTTP JSON-RPC channel's method namespace, e.g.
// "nudge_set_hint" dispatches to the channel's "set_hint".
const methodPrefix = "nudge_"

// Dispatcher routes an unprefixed method name to its handler. Both
// toolchannel.Channel (PRIMARY) and proxy.Proxy (PROXY, forwarding over
// HTTP) satisfy this, so Server doesn't care which mode it's running in.
type Dispatcher interface {
	Dispatch(method string, params json.RawMessage) (any, error)
}

// Server is the JSON-RPC over HTTP listener shared by PRIMARY and PROXY.
type Server struct {
	Channel Dispatcher
	Metrics *metricspkg.Registry
	Logger  *slog.Logger

	RequestTimeout time.Duration

	httpServer *http.Server
	listener   net.Listener
	port       int
}

// New builds a Server. Call Start to bind and Serve to run.
func New(channel Dispatcher, metrics *metricspkg.Registry, log *slog.Logger, requestTimeout time.Duration) *Server {
	return &Server{Channel: channel, Metrics: metrics, Logger: log, RequestTimeout: requestTimeout}
}

func (s *Server) router(rl *RateLimiter) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/", s.handleRPC).Methods(http.MethodPost)

	r.Use(logger.HTTPMiddleware(s.Logger))
	r.Use(MetricsMiddleware(s.Metrics))
	if rl != nil {
		r.Use(rl.Middleware)
	}
	return r
}

// Start binds the server to localhost:requestedPort, auto-incrementing up
// to maxAttempts times if the port is already in use, mirroring
// NudgeHTTPServer.start. Returns the port actually bound.
func (s *Server) Start(requestedPort, maxAttempts int, rl *RateLimiter) (int, error) {
	port := requestedPort
	var lastErr error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		ln, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", port))
		if err == nil {
			s.listener = ln
			s.port = port
			s.httpServer = &http.Server{Handler: s.router(rl)}
			s.Logger.Info("http server bound", "port", port)
			return port, nil
		}
		if !isAddrInUse(err) {
			return 0, err
		}
		s.Logger.Debug("port in use, trying next", "port", port)
		lastErr = err
		port++
	}
	return 0, fmt.Errorf("could not bind to any port from %d to %d: %w", requestedPort, port-1, lastErr)
}

func isAddrInUse(err error) bool {
	return strings.Contains(err.Error(), "address already in use") ||
		strings.Contains(err.Error(), "bind: address already in use")
}

// Serve blocks, serving HTTP requests until ctx is canceled, at which point
// it shuts down gracefully.
func (s *Server) Serve(ctx context.Context, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.Serve(s.listener)
	}()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

// Port returns the port the server is bound to.
func (s *Server) Port() int { return s.port }

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", PID: os.Getpid()})
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{
			JSONRPC: "2.0",
			Error:   &ErrorPayload{Code: int(nudgeerr.Invalid), Message: "invalid JSON"},
		})
		return
	}

	method := strings.TrimPrefix(req.Method, methodPrefix)

	start := time.Now()
	result, err := s.Channel.Dispatch(method, req.Params)
	s.recordRPCMetrics(req.Method, err, time.Since(start))

	if err != nil {
		writeJSON(w, http.StatusOK, Response{JSONRPC: "2.0", Error: toErrorPayload(err), ID: req.ID})
		return
	}
	writeJSON(w, http.StatusOK, Response{JSONRPC: "2.0", Result: result, ID: req.ID})
}

func (s *Server) recordRPCMetrics(method string, err error, duration time.Duration) {
	if s.Metrics == nil {
		return
	}
	code := "0"
	if nerr, ok := nudgeerr.As(err); ok {
		code = strconv.Itoa(int(nerr.Code))
	} else if err != nil {
		code = "-32603"
	}
	s.Metrics.RPCRequestsTotal.WithLabelValues(method, code).Inc()
	s.Metrics.RPCRequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

func toErrorPayload(err error) *ErrorPayload {
	if nerr, ok := nudgeerr.As(err); ok {
		return &ErrorPayload{Code: int(nerr.Code), Message: nerr.Message, Data: nerr.Data}
	}
	return &ErrorPayload{Code: -32603, Message: err.Error()}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
