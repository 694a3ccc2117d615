// Package rpcserver implements the JSON-RPC 2.0 over HTTP transport that
// fronts a PRIMARY's toolchannel.Channel, grounded on
// _examples/original_source/src/nudge/http_server.py for the transport
// contract (POST / JSON-RPC, GET /health, port auto-increment) and on the
// teacher's middleware chain
// (_examples/ipiton-alert-history-service/go-app/internal/middleware/builder.go,
// internal/api/middleware/{logging,request_id,rate_limit}.go) for the Go
// shape: gorilla/mux routing, an ordered middleware chain, and a
// golang.org/x/time/rate per-client limiter.
package rpcserver

import "encoding/json"

// Request is a JSON-RPC 2.0 request envelope.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      any             `json:"id"`
}

// Response is a JSON-RPC 2.0 response envelope: exactly one of Result or
// Error is set.
type Response struct {
	JSONRPC string        `json:"jsonrpc"`
	Result  any           `json:"result,omitempty"`
	Error   *ErrorPayload `json:"error,omitempty"`
	ID      any           `json:"id"`
}

// ErrorPayload is the wire shape of a JSON-RPC error object.
type ErrorPayload struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string `json:"status"`
	PID    int    `json:"pid"`
}
