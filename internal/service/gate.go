package service

import (
	"context"
	"fmt"

	cfotel "github.com/Strob0t/editorbridge/internal/adapter/otel"
	"github.com/Strob0t/editorbridge/internal/config"
	"github.com/Strob0t/editorbridge/internal/domain/catalog"
	"github.com/Strob0t/editorbridge/internal/domain/toolcall"
)

// InvokeTool is the raw method invocation tool guarded by the unsafe
// invoke switch.
const InvokeTool = "editor.invoke"

// TargetResolver resolves a target name to one backend identifier.
// *Resolver satisfies it.
type TargetResolver interface {
	Resolve(ctx context.Context, snap *config.Snapshot, kind catalog.TargetKind, name string, flags toolcall.Flags) (toolcall.Candidate, *toolcall.Error)
}

// Gate decides whether a normalized call may reach the backend. Checks run
// in a fixed order: classification, the unsafe invoke switch, confirmation,
// then target resolution. Only resolution talks to the backend, and only
// for confirmed destructive calls.
type Gate struct {
	resolver TargetResolver
	metrics  *cfotel.Metrics
}

// NewGate creates a Gate.
func NewGate(resolver TargetResolver, metrics *cfotel.Metrics) *Gate {
	return &Gate{resolver: resolver, metrics: metrics}
}

// Verdict is a passed gate check: the arguments to dispatch and the steps
// taken to get there.
type Verdict struct {
	Args  toolcall.Arguments
	Steps []string
}

// Check runs the gate for one call.
func (g *Gate) Check(ctx context.Context, snap *config.Snapshot, req toolcall.Request, class catalog.Classification) (Verdict, *toolcall.Error) {
	v := Verdict{Args: req.Args}
	if !class.Destructive {
		return v, nil
	}

	if req.Tool == InvokeTool && !snap.UnsafeInvokeEnabled {
		return v, g.block(ctx, req.Tool, toolcall.Errorf(toolcall.KindUnsafeOperationDisabled,
			"%s is disabled; enable unsafe invoke in the bridge configuration to use it", req.Tool))
	}

	if !req.Flags.Confirm {
		return v, g.block(ctx, req.Tool, toolcall.Errorf(toolcall.KindConfirmationRequired,
			"%s is destructive and was not executed; repeat the call with %s: true (and optionally %s) to proceed",
			req.Tool, toolcall.KeyConfirm, toolcall.KeyConfirmNote))
	}

	if class.Target == catalog.TargetNone {
		return v, nil
	}

	if req.Args.Has(catalog.FieldTargetID) {
		// The identifier is definite; a name sent alongside it is dropped.
		if _, named := req.Args[catalog.FieldTarget]; named {
			args := req.Args.Clone()
			delete(args, catalog.FieldTarget)
			v.Args = args
		}
		return v, nil
	}
	name, ok := req.Args.String(catalog.FieldTarget)
	if !ok {
		return v, g.block(ctx, req.Tool, toolcall.Errorf(toolcall.KindInvalidArguments,
			"%s needs a %s to act on: pass %s or %s",
			req.Tool, class.Target, catalog.FieldTargetID, catalog.FieldTarget))
	}

	match, terr := g.resolver.Resolve(ctx, snap, class.Target, name, req.Flags)
	if terr != nil {
		return v, g.block(ctx, req.Tool, terr)
	}

	args := req.Args.Clone()
	delete(args, catalog.FieldTarget)
	args[catalog.FieldTargetID] = match.Identifier
	v.Args = args
	v.Steps = []string{fmt.Sprintf("resolved %s %q to %s", class.Target, name, match.Identifier)}
	return v, nil
}

func (g *Gate) block(ctx context.Context, tool string, err *toolcall.Error) *toolcall.Error {
	g.metrics.RecordGateBlock(ctx, tool, string(err.Kind))
	return err
}
