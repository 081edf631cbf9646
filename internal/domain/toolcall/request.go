// Package toolcall defines the request-scoped types of a single bridged
// tool call: the parsed request with its control flags, the normalized
// argument map and the result envelope.
package toolcall

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Reserved argument keys. They are consumed by the bridge and never
// forwarded to the backend.
const (
	KeyConfirm     = "__confirm"
	KeyConfirmNote = "__confirmNote"
)

// TimeoutKeys are the accepted spellings of the timeout override, in
// priority order. The first one present wins.
var TimeoutKeys = []string{"__timeoutMs", "__timeout_ms", "__timeout"}

// Flags are the control flags carried inside the raw arguments.
type Flags struct {
	Confirm     bool   `json:"confirm"`
	ConfirmNote string `json:"confirmNote,omitempty"`
	TimeoutMs   int    `json:"timeoutMs,omitempty"`
	HasTimeout  bool   `json:"-"`
}

// Arguments maps parameter names to values.
type Arguments map[string]any

// Clone returns a shallow copy of a.
func (a Arguments) Clone() Arguments {
	out := make(Arguments, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// String returns the value of key when it is a non-empty string.
func (a Arguments) String(key string) (string, bool) {
	s, ok := a[key].(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}

// Has reports whether key is present with a non-empty value.
func (a Arguments) Has(key string) bool {
	return !IsEmpty(a[key])
}

// IsEmpty reports whether v carries no value: nil or a blank string.
func IsEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	}
	return false
}

// Request is a tool call after control flags have been split off.
type Request struct {
	Tool  string
	Args  Arguments // raw arguments without reserved keys
	Flags Flags
}

// IsReserved reports whether key is consumed by the bridge.
func IsReserved(key string) bool {
	if key == KeyConfirm || key == KeyConfirmNote {
		return true
	}
	for _, k := range TimeoutKeys {
		if key == k {
			return true
		}
	}
	return false
}

// Parse splits raw into forwarded arguments and control flags. It fails
// with InvalidArguments only when a control flag is malformed.
func Parse(tool string, raw map[string]any) (Request, *Error) {
	req := Request{Tool: tool, Args: make(Arguments, len(raw))}
	for k, v := range raw {
		if !IsReserved(k) {
			req.Args[k] = v
		}
	}

	// Only a JSON boolean confirms. The string "true" is rejected.
	if v, ok := raw[KeyConfirm]; ok && v != nil {
		confirm, valid := v.(bool)
		if !valid {
			return req, Errorf(KindInvalidArguments, "%s must be a boolean, got %T", KeyConfirm, v)
		}
		req.Flags.Confirm = confirm
	}

	if v, ok := raw[KeyConfirmNote]; ok && v != nil {
		note, valid := v.(string)
		if !valid {
			return req, Errorf(KindInvalidArguments, "%s must be a string", KeyConfirmNote)
		}
		req.Flags.ConfirmNote = note
	}

	for _, key := range TimeoutKeys {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}
		ms, valid := parseMillis(v)
		if !valid {
			return req, Errorf(KindInvalidArguments, "%s must be a positive integer number of milliseconds, got %v", key, v)
		}
		req.Flags.TimeoutMs = ms
		req.Flags.HasTimeout = true
		break
	}

	return req, nil
}

func parseMillis(v any) (int, bool) {
	var f float64
	switch t := v.(type) {
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case float64:
		f = t
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = n
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, false
		}
		f = float64(n)
	default:
		return 0, false
	}
	if f <= 0 || f != math.Trunc(f) || f > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}
