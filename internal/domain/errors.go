// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrConnection indicates the backend could not be reached at the transport
// level (dial, refused, reset). No application response was received.
var ErrConnection = errors.New("backend connection failed")

// ErrUnavailable indicates the backend is reachable in principle but the
// requested capability is absent, or calls are being shed (open breaker).
var ErrUnavailable = errors.New("backend unavailable")
