package toolcall

import (
	"fmt"
	"strings"
)

// Kind classifies a bridge failure. Kinds are stable strings exposed to
// MCP clients.
type Kind string

const (
	KindConfirmationRequired    Kind = "ConfirmationRequired"
	KindAmbiguousTarget         Kind = "AmbiguousTarget"
	KindNotFound                Kind = "NotFound"
	KindTimeout                 Kind = "Timeout"
	KindBackendUnavailable      Kind = "BackendUnavailable"
	KindBackendError            Kind = "BackendError"
	KindInvalidArguments        Kind = "InvalidArguments"
	KindUnsafeOperationDisabled Kind = "UnsafeOperationDisabled"
)

// Candidate is one entity that matched an ambiguous target name.
type Candidate struct {
	Identifier  string `json:"identifier"`
	DisplayName string `json:"displayName"`
}

// Error is a structured bridge failure.
type Error struct {
	Kind       Kind        `json:"kind"`
	Message    string      `json:"message"`
	Candidates []Candidate `json:"candidates,omitempty"`
	// Context lists the bridge steps (normalization, resolution) that ran
	// before the failure.
	Context []string `json:"context,omitempty"`
	// Code is the backend error code for BackendError/BackendUnavailable.
	Code int `json:"code,omitempty"`
}

func (e *Error) Error() string {
	if len(e.Context) == 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s (after: %s)", e.Kind, e.Message, strings.Join(e.Context, "; "))
}

// NewError creates an Error of the given kind.
func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Errorf creates an Error of the given kind with formatting.
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WithContext returns a copy of e with the given steps prepended to its
// context.
func (e *Error) WithContext(steps ...string) *Error {
	if len(steps) == 0 {
		return e
	}
	cp := *e
	cp.Context = append(append([]string(nil), steps...), e.Context...)
	return &cp
}

// Result is the envelope returned to the caller. Exactly one of Data and
// Error is meaningful, selected by OK.
type Result struct {
	OK       bool     `json:"ok"`
	Data     any      `json:"data,omitempty"`
	Error    *Error   `json:"error,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// Success wraps a backend payload.
func Success(data any, warnings []string) Result {
	return Result{OK: true, Data: data, Warnings: warnings}
}

// Failure wraps a bridge error.
func Failure(err *Error, warnings []string) Result {
	return Result{OK: false, Error: err, Warnings: warnings}
}
