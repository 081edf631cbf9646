package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "editorbridge"

// StartToolCallSpan starts a span covering one tool call end to end.
func StartToolCallSpan(ctx context.Context, callID, tool string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "toolcall",
		trace.WithAttributes(
			attribute.String("toolcall.id", callID),
			attribute.String("toolcall.tool", tool),
		),
	)
}

// StartResolveSpan starts a span for a target name lookup.
func StartResolveSpan(ctx context.Context, targetKind, name string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "resolve",
		trace.WithAttributes(
			attribute.String("target.kind", targetKind),
			attribute.String("target.name", name),
		),
	)
}

// StartDispatchSpan starts a span for one backend round trip.
func StartDispatchSpan(ctx context.Context, method string, attempt int) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "dispatch",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("backend.method", method),
			attribute.Int("dispatch.attempt", attempt),
		),
	)
}
