// Package nudgeerr implements the numeric error taxonomy the hint store's
// RPC surface reports, grounded on the builder-pattern typed error in
// _examples/ipiton-alert-history-service/go-app/internal/api/errors/errors.go,
// adapted from HTTP status codes to the JSON-RPC numeric codes defined by
// the original nudge store (_examples/original_source/src/nudge/core/models.py
// ErrorCode).
package nudgeerr

import (
	"errors"
	"fmt"
)

// Code is one of the fixed JSON-RPC error codes the hint store reports.
type Code int

const (
	NotFound       Code = 40401
	Invalid        Code = 40001
	Conflict       Code = 40901
	SecretRejected Code = 40002
	ScopeInvalid   Code = 40003
	Quota          Code = 42901
	ProxyError     Code = 50001
)

func (c Code) String() string {
	switch c {
	case NotFound:
		return "NOT_FOUND"
	case Invalid:
		return "INVALID"
	case Conflict:
		return "CONFLICT"
	case SecretRejected:
		return "SECRET_REJECTED"
	case ScopeInvalid:
		return "SCOPE_INVALID"
	case Quota:
		return "QUOTA"
	case ProxyError:
		return "PROXY_ERROR"
	default:
		return "UNKNOWN"
	}
}

// Error is a structured store/RPC error carrying a numeric code, a
// human-readable message, and an optional data payload (e.g. the
// {expected_version, current_version} pair on CONFLICT).
type Error struct {
	Code      Code           `json:"code"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data,omitempty"`
	RequestID string         `json:"-"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("[%d %s] %s", e.Code, e.Code, e.Message)
}

// New creates a new *Error with no data payload.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a new *Error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithData attaches a data payload and returns the error for chaining.
func (e *Error) WithData(data map[string]any) *Error {
	e.Data = data
	return e
}

// WithRequestID attaches the originating request ID and returns the error
// for chaining.
func (e *Error) WithRequestID(id string) *Error {
	e.RequestID = id
	return e
}

// As reports whether err is (or wraps) a *Error, mirroring errors.As without
// requiring callers to import the standard errors package just for this.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

func NotFoundErr(component, key string) *Error {
	return Newf(NotFound, "hint not found: %s/%s", component, key)
}

func ConflictErr(expected, current int) *Error {
	return Newf(Conflict, "version mismatch: expected %d, got %d", expected, current).
		WithData(map[string]any{"expected_version": expected, "current_version": current})
}

func QuotaErr(what string, limit int) *Error {
	return Newf(Quota, "%s (%d) exceeded", what, limit).
		WithData(map[string]any{"limit": limit})
}

func SecretRejectedErr(reason string) *Error {
	return New(SecretRejected, reason)
}

func ScopeInvalidErr(reason string) *Error {
	return New(ScopeInvalid, reason)
}

func InvalidErr(reason string) *Error {
	return New(Invalid, reason)
}
