package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Warning codes recorded on a Snapshot and surfaced by the status tool.
const (
	WarnRemoteBackend  = "remote_backend"
	WarnRemoteRejected = "remote_rejected"
	WarnInvalidURL     = "invalid_backend_url"
	WarnDefaultTimeout = "invalid_default_timeout"
	WarnMaxTimeout     = "invalid_max_timeout"
	WarnConfigFile     = "config_file"
	WarnInvalidSetting = "invalid_setting"
	WarnUnsafeInvokeOn = "unsafe_invoke_enabled"
)

// fallbackTimeoutMs replaces a non-positive default timeout.
const fallbackTimeoutMs = 30_000

// Warning is a non-fatal configuration problem.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Snapshot is the immutable backend configuration observed by a tool call.
// A Snapshot is never modified after NewSnapshot returns; reload replaces it.
type Snapshot struct {
	BackendURL          string    `json:"backendUrl"`
	ConfiguredURL       string    `json:"configuredUrl"`
	AllowRemote         bool      `json:"allowRemote"`
	StrictLocalOnly     bool      `json:"strictLocalOnly"`
	UnsafeInvokeEnabled bool      `json:"unsafeInvokeEnabled"`
	DefaultTimeoutMs    int       `json:"defaultTimeoutMs"`
	MaxTimeoutMs        int       `json:"maxTimeoutMs"`
	Warnings            []Warning `json:"-"`
	LoadedAt            time.Time `json:"loadedAt"`
}

var localHosts = map[string]bool{
	"localhost": true,
	"127.0.0.1": true,
	"::1":       true,
}

// IsLocalHost reports whether host is one of the loopback names the bridge
// trusts without a warning.
func IsLocalHost(host string) bool {
	return localHosts[strings.ToLower(host)]
}

// NewSnapshot validates b and returns the snapshot derived from it. Extra
// warnings (for example from the config file) are carried through first.
func NewSnapshot(b Backend, extra ...Warning) *Snapshot {
	s := &Snapshot{
		ConfiguredURL:       b.URL,
		AllowRemote:         b.AllowRemote,
		StrictLocalOnly:     b.StrictLocalOnly,
		UnsafeInvokeEnabled: b.UnsafeInvoke,
		DefaultTimeoutMs:    b.DefaultTimeoutMs,
		MaxTimeoutMs:        b.MaxTimeoutMs,
		Warnings:            append([]Warning(nil), extra...),
		LoadedAt:            time.Now(),
	}

	s.BackendURL, s.Warnings = resolveBackendURL(b, s.Warnings)

	if s.DefaultTimeoutMs <= 0 {
		s.Warnings = append(s.Warnings, Warning{
			Code:    WarnDefaultTimeout,
			Message: fmt.Sprintf("default timeout %dms is not positive; using %dms", s.DefaultTimeoutMs, fallbackTimeoutMs),
		})
		s.DefaultTimeoutMs = fallbackTimeoutMs
	}
	if s.MaxTimeoutMs < s.DefaultTimeoutMs {
		s.Warnings = append(s.Warnings, Warning{
			Code:    WarnMaxTimeout,
			Message: fmt.Sprintf("max timeout %dms is below the default; raised to %dms", s.MaxTimeoutMs, s.DefaultTimeoutMs),
		})
		s.MaxTimeoutMs = s.DefaultTimeoutMs
	}
	if s.UnsafeInvokeEnabled {
		s.Warnings = append(s.Warnings, Warning{
			Code:    WarnUnsafeInvokeOn,
			Message: "raw method invocation (editor.invoke) is ENABLED",
		})
	}
	return s
}

// resolveBackendURL applies the host trust rules and returns the effective URL.
func resolveBackendURL(b Backend, warnings []Warning) (string, []Warning) {
	raw := strings.TrimRight(strings.TrimSpace(b.URL), "/")
	if raw == "" {
		return DefaultBackendURL, warnings
	}

	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Hostname() == "" {
		return DefaultBackendURL, append(warnings, Warning{
			Code:    WarnInvalidURL,
			Message: fmt.Sprintf("backend url %q is not a valid http(s) url; falling back to %s", b.URL, DefaultBackendURL),
		})
	}

	host := u.Hostname()
	switch {
	case IsLocalHost(host):
		return raw, warnings
	case b.StrictLocalOnly:
		return DefaultBackendURL, append(warnings, Warning{
			Code:    WarnRemoteRejected,
			Message: fmt.Sprintf("backend host %q rejected by strict-local-only; falling back to %s", host, DefaultBackendURL),
		})
	case b.AllowRemote:
		return raw, warnings
	default:
		return raw, append(warnings, Warning{
			Code:    WarnRemoteBackend,
			Message: fmt.Sprintf("backend host %q is not local; set allow-remote to acknowledge", host),
		})
	}
}

// EffectiveTimeout returns the timeout for one call. An override is capped
// at MaxTimeoutMs; without one the default applies.
func (s *Snapshot) EffectiveTimeout(overrideMs int, hasOverride bool) time.Duration {
	ms := s.DefaultTimeoutMs
	if hasOverride {
		ms = min(overrideMs, s.MaxTimeoutMs)
	}
	return time.Duration(ms) * time.Millisecond
}

// HasWarning reports whether a warning with the given code was recorded.
func (s *Snapshot) HasWarning(code string) bool {
	for _, w := range s.Warnings {
		if w.Code == code {
			return true
		}
	}
	return false
}

// Change is one field difference between two snapshots.
type Change struct {
	Field string `json:"field"`
	Old   any    `json:"old"`
	New   any    `json:"new"`
}

// Diff lists the fields that differ between old and s. LoadedAt and the
// warning list are derived data and are not compared.
func (s *Snapshot) Diff(old *Snapshot) []Change {
	if old == nil {
		old = &Snapshot{}
	}
	var changes []Change
	add := func(field string, o, n any) {
		if o != n {
			changes = append(changes, Change{Field: field, Old: o, New: n})
		}
	}
	add("backendUrl", old.BackendURL, s.BackendURL)
	add("configuredUrl", old.ConfiguredURL, s.ConfiguredURL)
	add("allowRemote", old.AllowRemote, s.AllowRemote)
	add("strictLocalOnly", old.StrictLocalOnly, s.StrictLocalOnly)
	add("unsafeInvokeEnabled", old.UnsafeInvokeEnabled, s.UnsafeInvokeEnabled)
	add("defaultTimeoutMs", old.DefaultTimeoutMs, s.DefaultTimeoutMs)
	add("maxTimeoutMs", old.MaxTimeoutMs, s.MaxTimeoutMs)
	return changes
}
