package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	cfotel "github.com/Strob0t/editorbridge/internal/adapter/otel"
	"github.com/Strob0t/editorbridge/internal/config"
	"github.com/Strob0t/editorbridge/internal/domain/catalog"
	"github.com/Strob0t/editorbridge/internal/domain/toolcall"
)

// Resolver turns a possibly ambiguous target name into exactly one backend
// identifier. It only ever issues the read-only search method.
type Resolver struct {
	dispatcher *Dispatcher
	group      singleflight.Group
	metrics    *cfotel.Metrics
}

// NewResolver creates a Resolver that searches through dispatcher.
func NewResolver(dispatcher *Dispatcher, metrics *cfotel.Metrics) *Resolver {
	return &Resolver{dispatcher: dispatcher, metrics: metrics}
}

type resolveOutcome struct {
	candidates []toolcall.Candidate
	err        *toolcall.Error
}

// Resolve looks up name among entities of kind. Identical concurrent
// lookups with the same effective timeout share one search. The shared
// search is detached from any single caller's cancellation and bounded by
// that timeout; each caller still stops waiting at its own deadline.
func (r *Resolver) Resolve(ctx context.Context, snap *config.Snapshot, kind catalog.TargetKind, name string, flags toolcall.Flags) (toolcall.Candidate, *toolcall.Error) {
	ctx, span := cfotel.StartResolveSpan(ctx, string(kind), name)
	defer span.End()

	timeout := snap.EffectiveTimeout(flags.TimeoutMs, flags.HasTimeout)
	key := strings.Join([]string{snap.BackendURL, string(kind), name, timeout.String()}, "\x00")
	searchCtx := context.WithoutCancel(ctx)
	ch := r.group.DoChan(key, func() (any, error) {
		return r.search(searchCtx, snap, kind, name, flags), nil
	})

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var out resolveOutcome
	select {
	case res := <-ch:
		out, _ = res.Val.(resolveOutcome)
	case <-waitCtx.Done():
		r.metrics.RecordResolution(ctx, string(kind), "error")
		return toolcall.Candidate{}, abandoned(waitCtx, timeout).WithContext(fmt.Sprintf("resolving %s %q", kind, name))
	}

	if out.err != nil {
		r.metrics.RecordResolution(ctx, string(kind), "error")
		return toolcall.Candidate{}, out.err
	}

	switch len(out.candidates) {
	case 0:
		r.metrics.RecordResolution(ctx, string(kind), "not_found")
		return toolcall.Candidate{}, toolcall.Errorf(toolcall.KindNotFound,
			"no %s matches %q", kind, name)
	case 1:
		r.metrics.RecordResolution(ctx, string(kind), "resolved")
		return out.candidates[0], nil
	default:
		r.metrics.RecordResolution(ctx, string(kind), "ambiguous")
		e := toolcall.Errorf(toolcall.KindAmbiguousTarget,
			"%d %s entities match %q; retry with targetId set to one of the candidates",
			len(out.candidates), kind, name)
		e.Candidates = out.candidates
		return toolcall.Candidate{}, e
	}
}

// abandoned maps a caller's own expired or cancelled context while it
// waits on a shared search.
func abandoned(ctx context.Context, timeout time.Duration) *toolcall.Error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return toolcall.Errorf(toolcall.KindTimeout, "%s did not complete within %s", catalog.SearchMethod, timeout)
	}
	return toolcall.Errorf(toolcall.KindTimeout, "%s was cancelled before the backend answered", catalog.SearchMethod)
}

func (r *Resolver) search(ctx context.Context, snap *config.Snapshot, kind catalog.TargetKind, name string, flags toolcall.Flags) resolveOutcome {
	raw, terr := r.dispatcher.Dispatch(ctx, snap, Call{
		Method: catalog.SearchMethod,
		Params: toolcall.Arguments{
			"kind":       string(kind),
			"query":      name,
			"exactMatch": true,
		},
		Flags: toolcall.Flags{TimeoutMs: flags.TimeoutMs, HasTimeout: flags.HasTimeout},
	})
	if terr != nil {
		return resolveOutcome{err: terr.WithContext(fmt.Sprintf("resolving %s %q", kind, name))}
	}

	var candidates []toolcall.Candidate
	if err := json.Unmarshal(raw, &candidates); err != nil {
		return resolveOutcome{err: toolcall.Errorf(toolcall.KindBackendError,
			"unexpected %s result: %v", catalog.SearchMethod, err)}
	}
	return resolveOutcome{candidates: candidates}
}
