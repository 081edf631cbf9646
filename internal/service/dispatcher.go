package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/codes"

	cfotel "github.com/Strob0t/editorbridge/internal/adapter/otel"
	"github.com/Strob0t/editorbridge/internal/config"
	"github.com/Strob0t/editorbridge/internal/domain"
	"github.com/Strob0t/editorbridge/internal/domain/toolcall"
	"github.com/Strob0t/editorbridge/internal/port/backend"
	"github.com/Strob0t/editorbridge/internal/port/cache"
)

const capabilityKeyPrefix = "unsupported:"

// Call is one backend invocation prepared by the bridge.
type Call struct {
	Method      string
	Params      toolcall.Arguments
	Destructive bool
	Flags       toolcall.Flags
	// Steps are the bridge steps that ran before dispatch; they are
	// attached to any failure.
	Steps []string
}

// Dispatcher sends calls to the backend and maps every outcome onto the
// bridge error taxonomy.
type Dispatcher struct {
	client        backend.Client
	capabilities  cache.Cache
	capabilityTTL time.Duration
	reach         *ReachabilityTracker
	metrics       *cfotel.Metrics
}

// NewDispatcher creates a Dispatcher. capabilities may be nil to disable
// remembering unsupported methods.
func NewDispatcher(client backend.Client, capabilities cache.Cache, capabilityTTL time.Duration, metrics *cfotel.Metrics) *Dispatcher {
	return &Dispatcher{
		client:        client,
		capabilities:  capabilities,
		capabilityTTL: capabilityTTL,
		reach:         NewReachabilityTracker(),
		metrics:       metrics,
	}
}

// Reachability returns the tracker updated by dispatch outcomes.
func (d *Dispatcher) Reachability() *ReachabilityTracker {
	return d.reach
}

// ForgetCapabilities drops every remembered unsupported method.
func (d *Dispatcher) ForgetCapabilities(ctx context.Context) error {
	if d.capabilities == nil {
		return nil
	}
	return d.capabilities.Clear(ctx)
}

// Dispatch performs call against the backend of snap. The timeout covers
// both attempts of a retried call.
func (d *Dispatcher) Dispatch(ctx context.Context, snap *config.Snapshot, call Call) (json.RawMessage, *toolcall.Error) {
	key := capabilityKeyPrefix + snap.BackendURL + "|" + call.Method
	if msg, known := d.unsupported(ctx, key); known {
		return nil, toolcall.Errorf(toolcall.KindBackendUnavailable,
			"%s is not available on the backend: %s", call.Method, msg).WithContext(call.Steps...)
	}

	timeout := snap.EffectiveTimeout(call.Flags.TimeoutMs, call.Flags.HasTimeout)
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req := backend.Request{Method: call.Method, Params: call.Params}
	raw, err := d.attempt(callCtx, snap.BackendURL, req, 1)
	if err != nil && errors.Is(err, domain.ErrConnection) && !call.Destructive && callCtx.Err() == nil {
		d.metrics.RecordRetry(ctx, call.Method)
		slog.DebugContext(ctx, "retrying after connection failure", "method", call.Method, "error", err)
		raw, err = d.attempt(callCtx, snap.BackendURL, req, 2)
	}
	if err == nil {
		return raw, nil
	}

	terr := d.mapError(ctx, key, call.Method, timeout, err)
	return nil, terr.WithContext(call.Steps...)
}

func (d *Dispatcher) attempt(ctx context.Context, baseURL string, req backend.Request, n int) (json.RawMessage, error) {
	ctx, span := cfotel.StartDispatchSpan(ctx, req.Method, n)
	defer span.End()

	start := time.Now()
	raw, err := d.client.Call(ctx, baseURL, req)
	elapsed := time.Since(start)

	outcome := "ok"
	switch {
	case err == nil:
		d.reach.Observe("dispatch", true, elapsed, nil)
	case errors.Is(err, domain.ErrConnection):
		outcome = "connection_error"
		d.reach.Observe("dispatch", false, elapsed, err)
	default:
		var rpcErr *backend.RPCError
		if errors.As(err, &rpcErr) {
			outcome = "backend_error"
			d.reach.Observe("dispatch", true, elapsed, nil)
		} else {
			outcome = "error"
		}
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	}
	d.metrics.RecordDispatch(ctx, req.Method, outcome, float64(elapsed.Microseconds())/1000)
	return raw, err
}

func (d *Dispatcher) mapError(ctx context.Context, key, method string, timeout time.Duration, err error) *toolcall.Error {
	var rpcErr *backend.RPCError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return toolcall.Errorf(toolcall.KindTimeout, "%s did not complete within %s", method, timeout)
	case errors.Is(err, context.Canceled):
		return toolcall.Errorf(toolcall.KindTimeout, "%s was cancelled before the backend answered", method)
	case errors.As(err, &rpcErr) && rpcErr.Unsupported():
		d.remember(ctx, key, rpcErr.Message)
		e := toolcall.Errorf(toolcall.KindBackendUnavailable, "%s is not available on the backend: %s", method, rpcErr.Message)
		e.Code = rpcErr.Code
		return e
	case errors.As(err, &rpcErr):
		e := toolcall.NewError(toolcall.KindBackendError, rpcErr.Message)
		e.Code = rpcErr.Code
		return e
	case errors.Is(err, domain.ErrConnection):
		return toolcall.Errorf(toolcall.KindBackendUnavailable, "backend unreachable: %v", err)
	case errors.Is(err, domain.ErrUnavailable):
		return toolcall.Errorf(toolcall.KindBackendUnavailable, "backend unavailable: %v", err)
	default:
		return toolcall.Errorf(toolcall.KindBackendError, "%v", err)
	}
}

func (d *Dispatcher) unsupported(ctx context.Context, key string) (string, bool) {
	if d.capabilities == nil {
		return "", false
	}
	msg, found, err := d.capabilities.Get(ctx, key)
	if err != nil || !found {
		return "", false
	}
	return string(msg), true
}

func (d *Dispatcher) remember(ctx context.Context, key, msg string) {
	if d.capabilities == nil || d.capabilityTTL <= 0 {
		return
	}
	if err := d.capabilities.Set(ctx, key, []byte(msg), d.capabilityTTL); err != nil {
		slog.WarnContext(ctx, "capability cache set failed", "key", key, "error", fmt.Errorf("set: %w", err))
	}
}
