// Package backend defines the port interface for the editor automation
// endpoint.
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// CodeMethodNotFound is the JSON-RPC code for an unknown method.
const CodeMethodNotFound = -32601

// Request is one method invocation against the backend.
type Request struct {
	Method string         `json:"method"`
	Params map[string]any `json:"params,omitempty"`
}

// RPCError is an application-level error reported by the backend in the
// response envelope.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("backend error %d: %s", e.Code, e.Message)
}

// Unsupported reports whether the backend said the method or its
// subsystem is not available.
func (e *RPCError) Unsupported() bool {
	if e.Code == CodeMethodNotFound {
		return true
	}
	msg := strings.ToLower(e.Message)
	return strings.Contains(msg, "not installed") || strings.Contains(msg, "unsupported")
}

// Client is the port interface for backend round trips. baseURL is passed
// per call because it is part of the reloadable configuration.
type Client interface {
	// Call sends req and returns the raw result payload. Connection-level
	// failures wrap domain.ErrConnection; an open circuit wraps
	// domain.ErrUnavailable; backend-reported errors are *RPCError.
	Call(ctx context.Context, baseURL string, req Request) (json.RawMessage, error)
	// Ping performs a lightweight liveness round trip.
	Ping(ctx context.Context, baseURL string) error
}
