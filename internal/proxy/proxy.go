// Package proxy forwards JSON-RPC tool calls to the elected PRIMARY over
// HTTP, for a server instance that lost (or never entered) the election.
// Grounded on _examples/original_source/src/nudge/client.py's
// NudgeClient._call_rpc: same URL shape, same JSON-RPC envelope, same
// timeout default.
package proxy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ipeerbhai/nudge/internal/nudgeerr"
)

const methodPrefix = "nudge_"

// DefaultTimeout matches the original NudgeClient's 5-second default.
const DefaultTimeout = 5 * time.Second

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      int             `json:"id"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
	ID      int             `json:"id"`
}

type rpcError struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data"`
}

// Proxy forwards Dispatch calls to a PRIMARY server over HTTP.
type Proxy struct {
	primaryPort int
	client      *http.Client
}

// New builds a Proxy forwarding to localhost:primaryPort.
func New(primaryPort int) *Proxy {
	return &Proxy{primaryPort: primaryPort, client: &http.Client{Timeout: DefaultTimeout}}
}

// Dispatch forwards method/params to PRIMARY and relays its response.
// Transport failures are wrapped as PROXY_ERROR; semantic errors returned
// by PRIMARY (NOT_FOUND, CONFLICT, ...) pass through with their original
// code unchanged, per spec.md §4.7.
func (p *Proxy) Dispatch(method string, params json.RawMessage) (any, error) {
	reqBody, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  methodPrefix + method,
		Params:  params,
		ID:      1,
	})
	if err != nil {
		return nil, nudgeerr.Newf(nudgeerr.ProxyError, "encode request: %v", err)
	}

	url := fmt.Sprintf("http://localhost:%d/", p.primaryPort)
	httpReq, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, nudgeerr.Newf(nudgeerr.ProxyError, "build request: %v", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, nudgeerr.Newf(nudgeerr.ProxyError, "server not found on port %d: %v", p.primaryPort, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nudgeerr.Newf(nudgeerr.ProxyError, "HTTP error %d from PRIMARY", resp.StatusCode)
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return nil, nudgeerr.Newf(nudgeerr.ProxyError, "invalid response from PRIMARY: %v", err)
	}

	if rpcResp.Error != nil {
		return nil, (&nudgeerr.Error{
			Code:    nudgeerr.Code(rpcResp.Error.Code),
			Message: rpcResp.Error.Message,
			Data:    rpcResp.Error.Data,
		})
	}

	var result any
	if len(rpcResp.Result) > 0 {
		if err := json.Unmarshal(rpcResp.Result, &result); err != nil {
			return nil, nudgeerr.Newf(nudgeerr.ProxyError, "invalid result from PRIMARY: %v", err)
		}
	}
	return result, nil
}
