// Package service implements the bridge pipeline: argument normalization,
// the safety gate, target resolution and dispatch to the editor backend,
// plus the status, ping and reload utilities.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	cfotel "github.com/Strob0t/editorbridge/internal/adapter/otel"
	"github.com/Strob0t/editorbridge/internal/config"
	"github.com/Strob0t/editorbridge/internal/domain/catalog"
	"github.com/Strob0t/editorbridge/internal/domain/schema"
	"github.com/Strob0t/editorbridge/internal/domain/toolcall"
	"github.com/Strob0t/editorbridge/internal/logger"
)

// Bridge handles editor tool calls end to end.
type Bridge struct {
	registry   *catalog.Registry
	store      *config.Store
	gate       *Gate
	dispatcher *Dispatcher
	metrics    *cfotel.Metrics
}

// NewBridge creates a Bridge.
func NewBridge(registry *catalog.Registry, store *config.Store, gate *Gate, dispatcher *Dispatcher, metrics *cfotel.Metrics) *Bridge {
	return &Bridge{
		registry:   registry,
		store:      store,
		gate:       gate,
		dispatcher: dispatcher,
		metrics:    metrics,
	}
}

// Handle runs one tool call. The config snapshot is loaded once and used
// for every step of the call.
func (b *Bridge) Handle(ctx context.Context, tool string, raw map[string]any) toolcall.Result {
	callID := uuid.NewString()
	ctx = logger.WithCallID(ctx, callID)
	ctx, span := cfotel.StartToolCallSpan(ctx, callID, tool)
	defer span.End()

	start := time.Now()
	res := b.handle(ctx, b.store.Current(), tool, raw)

	outcome := "ok"
	if !res.OK {
		outcome = string(res.Error.Kind)
		span.SetStatus(codes.Error, outcome)
	}
	span.SetAttributes(attribute.String("toolcall.outcome", outcome))
	b.metrics.RecordToolCall(ctx, tool, outcome)

	level := slog.LevelInfo
	if !res.OK && res.Error.Kind != toolcall.KindConfirmationRequired {
		level = slog.LevelWarn
	}
	slog.Log(ctx, level, "tool call",
		"tool", tool,
		"outcome", outcome,
		"warnings", len(res.Warnings),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res
}

func (b *Bridge) handle(ctx context.Context, snap *config.Snapshot, tool string, raw map[string]any) toolcall.Result {
	req, perr := toolcall.Parse(tool, raw)
	if perr != nil {
		return toolcall.Failure(perr, nil)
	}

	norm := schema.Normalize(b.registry, tool, req.Args)
	req.Args = norm.Args
	steps := schema.Describe(norm.Mappings)
	for _, s := range steps {
		slog.DebugContext(ctx, s, "tool", tool)
	}

	class := b.registry.Classify(tool)
	verdict, gerr := b.gate.Check(ctx, snap, req, class)
	if gerr != nil {
		return toolcall.Failure(gerr.WithContext(steps...), norm.Warnings)
	}
	steps = append(steps, verdict.Steps...)

	method, params, ierr := b.target(tool, verdict.Args)
	if ierr != nil {
		return toolcall.Failure(ierr.WithContext(steps...), norm.Warnings)
	}

	data, derr := b.dispatcher.Dispatch(ctx, snap, Call{
		Method:      method,
		Params:      params,
		Destructive: class.Destructive,
		Flags:       req.Flags,
		Steps:       steps,
	})
	if derr != nil {
		return toolcall.Failure(derr, norm.Warnings)
	}
	return toolcall.Success(data, norm.Warnings)
}

// target picks the backend method and params for a gated call. The raw
// invoke tool names its method in the arguments.
func (b *Bridge) target(tool string, args toolcall.Arguments) (string, toolcall.Arguments, *toolcall.Error) {
	if tool != InvokeTool {
		method := tool
		if e, ok := b.registry.Lookup(tool); ok {
			method = e.Tool.BackendMethod()
		}
		return method, args, nil
	}

	method, ok := args.String("method")
	if !ok {
		return "", nil, toolcall.NewError(toolcall.KindInvalidArguments, "method is required")
	}
	var params toolcall.Arguments
	switch p := args["params"].(type) {
	case nil:
	case map[string]any:
		params = p
	default:
		return "", nil, toolcall.Errorf(toolcall.KindInvalidArguments, "params must be an object, got %T", p)
	}
	return method, params, nil
}
