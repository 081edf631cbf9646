package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/Strob0t/editorbridge/internal/config"
	"github.com/Strob0t/editorbridge/internal/domain/catalog"
	"github.com/Strob0t/editorbridge/internal/port/backend"
)

// PingTimeout is the fixed timeout of the ping utility.
const PingTimeout = 2 * time.Second

// UnsafeInvokeBanner is reported by status while raw invoke is enabled.
const UnsafeInvokeBanner = "UNSAFE INVOKE ENABLED: editor.invoke can call any backend method (confirmation still required)"

// BreakerControl exposes the circuit breaker of a backend client.
type BreakerControl interface {
	BreakerState() string
	ResetBreaker()
}

// ToolInfo is one row of the verbose status tool table.
type ToolInfo struct {
	Name           string                 `json:"name"`
	Method         string                 `json:"method"`
	Classification catalog.Classification `json:"classification"`
}

// StatusReport is returned by the status utility.
type StatusReport struct {
	Config       *config.Snapshot `json:"config"`
	Warnings     []config.Warning `json:"warnings"`
	UnsafeInvoke string           `json:"unsafeInvoke,omitempty"`
	Backend      Reachability     `json:"backend"`
	Breaker      string           `json:"breaker"`
	Tools        []ToolInfo       `json:"tools,omitempty"`
	Rules        []catalog.Rule   `json:"classificationRules,omitempty"`
}

// PingReport is returned by the ping utility.
type PingReport struct {
	BackendURL string `json:"backendUrl"`
	Reachable  bool   `json:"reachable"`
	LatencyMs  int64  `json:"latencyMs"`
	Error      string `json:"error,omitempty"`
}

// ReloadReport is returned by the reloadConfig utility.
type ReloadReport struct {
	Changes  []config.Change  `json:"changes"`
	Config   *config.Snapshot `json:"config"`
	Warnings []config.Warning `json:"warnings"`
}

// Utility implements the status, ping and reloadConfig tools.
type Utility struct {
	store      *config.Store
	registry   *catalog.Registry
	client     backend.Client
	dispatcher *Dispatcher
	breaker    BreakerControl
}

// NewUtility creates a Utility. If client also implements BreakerControl
// its breaker is reported by status and reset when the backend URL changes.
func NewUtility(store *config.Store, registry *catalog.Registry, client backend.Client, dispatcher *Dispatcher) *Utility {
	u := &Utility{store: store, registry: registry, client: client, dispatcher: dispatcher}
	if bc, ok := client.(BreakerControl); ok {
		u.breaker = bc
	}
	return u
}

// Status reports the current configuration, its warnings and the last
// known reachability. verbose adds the tool classification table.
func (u *Utility) Status(verbose bool) StatusReport {
	snap := u.store.Current()
	r := StatusReport{
		Config:   snap,
		Warnings: nonNil(snap.Warnings),
		Backend:  u.dispatcher.Reachability().Load(),
		Breaker:  "disabled",
	}
	if snap.UnsafeInvokeEnabled {
		r.UnsafeInvoke = UnsafeInvokeBanner
	}
	if u.breaker != nil {
		r.Breaker = u.breaker.BreakerState()
	}
	if verbose {
		for _, e := range u.registry.Entries() {
			r.Tools = append(r.Tools, ToolInfo{
				Name:           e.Tool.Name,
				Method:         e.Tool.BackendMethod(),
				Classification: e.Classification,
			})
		}
		r.Rules = catalog.Rules
	}
	return r
}

// Ping performs one liveness round trip with PingTimeout and records the
// outcome as the latest reachability.
func (u *Utility) Ping(ctx context.Context) PingReport {
	snap := u.store.Current()
	ctx, cancel := context.WithTimeout(ctx, PingTimeout)
	defer cancel()

	start := time.Now()
	err := u.client.Ping(ctx, snap.BackendURL)
	elapsed := time.Since(start)

	r := PingReport{BackendURL: snap.BackendURL, Reachable: err == nil, LatencyMs: elapsed.Milliseconds()}
	if err != nil {
		r.Error = err.Error()
	}
	u.dispatcher.Reachability().Observe("ping", r.Reachable, elapsed, err)
	slog.InfoContext(ctx, "backend ping", "url", snap.BackendURL, "reachable", r.Reachable, "latency_ms", r.LatencyMs)
	return r
}

// Reload re-reads the configuration and swaps the snapshot. Calls already
// in flight keep the snapshot they started with.
func (u *Utility) Reload(ctx context.Context) ReloadReport {
	prev, next, changes := u.store.Reload()

	if prev.BackendURL != next.BackendURL {
		if u.breaker != nil {
			u.breaker.ResetBreaker()
		}
		u.dispatcher.Reachability().Forget()
	}
	if err := u.dispatcher.ForgetCapabilities(ctx); err != nil {
		slog.WarnContext(ctx, "capability cache purge failed", "error", err)
	}

	for _, c := range changes {
		slog.InfoContext(ctx, "config changed", "field", c.Field, "old", c.Old, "new", c.New)
	}
	for _, w := range next.Warnings {
		slog.WarnContext(ctx, "config warning", "code", w.Code, "message", w.Message)
	}

	if changes == nil {
		changes = []config.Change{}
	}
	return ReloadReport{Changes: changes, Config: next, Warnings: nonNil(next.Warnings)}
}

func nonNil(w []config.Warning) []config.Warning {
	if w == nil {
		return []config.Warning{}
	}
	return w
}
