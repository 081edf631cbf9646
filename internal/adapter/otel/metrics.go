package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "editorbridge"

// Metrics holds all bridge metric instruments. A nil *Metrics records
// nothing.
type Metrics struct {
	ToolCalls        metric.Int64Counter
	GateBlocks       metric.Int64Counter
	Resolutions      metric.Int64Counter
	Retries          metric.Int64Counter
	DispatchDuration metric.Float64Histogram
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.ToolCalls, err = meter.Int64Counter("editorbridge.toolcalls",
		metric.WithDescription("Number of tool calls by tool and outcome"))
	if err != nil {
		return nil, err
	}

	m.GateBlocks, err = meter.Int64Counter("editorbridge.gate.blocked",
		metric.WithDescription("Number of calls refused by the safety gate"))
	if err != nil {
		return nil, err
	}

	m.Resolutions, err = meter.Int64Counter("editorbridge.resolutions",
		metric.WithDescription("Number of target name resolutions by outcome"))
	if err != nil {
		return nil, err
	}

	m.Retries, err = meter.Int64Counter("editorbridge.dispatch.retries",
		metric.WithDescription("Number of dispatch retries after connection failures"))
	if err != nil {
		return nil, err
	}

	m.DispatchDuration, err = meter.Float64Histogram("editorbridge.dispatch.duration_ms",
		metric.WithDescription("Backend round-trip duration in milliseconds"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordToolCall counts one finished tool call.
func (m *Metrics) RecordToolCall(ctx context.Context, tool, outcome string) {
	if m == nil {
		return
	}
	m.ToolCalls.Add(ctx, 1, metric.WithAttributes(
		attribute.String("tool", tool),
		attribute.String("outcome", outcome),
	))
}

// RecordGateBlock counts one call refused before dispatch.
func (m *Metrics) RecordGateBlock(ctx context.Context, tool, kind string) {
	if m == nil {
		return
	}
	m.GateBlocks.Add(ctx, 1, metric.WithAttributes(
		attribute.String("tool", tool),
		attribute.String("kind", kind),
	))
}

// RecordResolution counts one name resolution.
func (m *Metrics) RecordResolution(ctx context.Context, targetKind, outcome string) {
	if m == nil {
		return
	}
	m.Resolutions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("target_kind", targetKind),
		attribute.String("outcome", outcome),
	))
}

// RecordRetry counts one dispatch retry.
func (m *Metrics) RecordRetry(ctx context.Context, method string) {
	if m == nil {
		return
	}
	m.Retries.Add(ctx, 1, metric.WithAttributes(attribute.String("method", method)))
}

// RecordDispatch records a backend round-trip duration.
func (m *Metrics) RecordDispatch(ctx context.Context, method, outcome string, ms float64) {
	if m == nil {
		return
	}
	m.DispatchDuration.Record(ctx, ms, metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("outcome", outcome),
	))
}
