package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Strob0t/editorbridge/internal/config"
	"github.com/Strob0t/editorbridge/internal/domain/catalog"
	"github.com/Strob0t/editorbridge/internal/domain/toolcall"
	"github.com/Strob0t/editorbridge/internal/port/backend"
)

func searchBackend(matches ...toolcall.Candidate) *fakeBackend {
	return &fakeBackend{handle: func(context.Context, int, backend.Request) (json.RawMessage, error) {
		return result(matches), nil
	}}
}

func TestResolve(t *testing.T) {
	one := toolcall.Candidate{Identifier: "/Level/Player", DisplayName: "Player"}
	two := toolcall.Candidate{Identifier: "/UI/Player", DisplayName: "Player"}

	tests := []struct {
		name     string
		matches  []toolcall.Candidate
		wantKind toolcall.Kind
		wantID   string
	}{
		{"none", nil, toolcall.KindNotFound, ""},
		{"exactly one", []toolcall.Candidate{one}, "", "/Level/Player"},
		{"several", []toolcall.Candidate{one, two}, toolcall.KindAmbiguousTarget, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb := searchBackend(tt.matches...)
			r := NewResolver(NewDispatcher(fb, nil, 0, nil), nil)

			got, terr := r.Resolve(context.Background(), testSnapshot(), catalog.TargetGameObject, "Player", toolcall.Flags{})
			if tt.wantKind == "" {
				if terr != nil {
					t.Fatalf("unexpected error: %v", terr)
				}
				if got.Identifier != tt.wantID {
					t.Errorf("expected %s, got %s", tt.wantID, got.Identifier)
				}
				return
			}
			if terr == nil || terr.Kind != tt.wantKind {
				t.Fatalf("expected %s, got %v", tt.wantKind, terr)
			}
			if tt.wantKind == toolcall.KindAmbiguousTarget && len(terr.Candidates) != len(tt.matches) {
				t.Errorf("expected every candidate, got %v", terr.Candidates)
			}
		})
	}
}

func TestResolveSendsReadOnlySearch(t *testing.T) {
	fb := searchBackend(toolcall.Candidate{Identifier: "Assets/A.mat"})
	r := NewResolver(NewDispatcher(fb, nil, 0, nil), nil)

	if _, terr := r.Resolve(context.Background(), testSnapshot(), catalog.TargetAsset, "A.mat", toolcall.Flags{}); terr != nil {
		t.Fatal(terr)
	}
	req := fb.last()
	if req.Method != catalog.SearchMethod {
		t.Errorf("expected %s, got %s", catalog.SearchMethod, req.Method)
	}
	if req.Params["kind"] != "asset" || req.Params["query"] != "A.mat" || req.Params["exactMatch"] != true {
		t.Errorf("unexpected search params %v", req.Params)
	}
}

func TestResolveBackendFailureKeepsContext(t *testing.T) {
	fb := &fakeBackend{handle: func(context.Context, int, backend.Request) (json.RawMessage, error) {
		return nil, &backend.RPCError{Code: -32000, Message: "scene not loaded"}
	}}
	r := NewResolver(NewDispatcher(fb, nil, 0, nil), nil)

	_, terr := r.Resolve(context.Background(), testSnapshot(), catalog.TargetScene, "Main", toolcall.Flags{})
	if terr == nil || terr.Kind != toolcall.KindBackendError {
		t.Fatalf("expected BackendError, got %v", terr)
	}
	if len(terr.Context) == 0 || !strings.Contains(terr.Context[0], "Main") {
		t.Errorf("expected resolution step in context, got %v", terr.Context)
	}
}

func TestResolveMalformedResult(t *testing.T) {
	fb := &fakeBackend{handle: func(context.Context, int, backend.Request) (json.RawMessage, error) {
		return json.RawMessage(`{"matches":"nope"}`), nil
	}}
	r := NewResolver(NewDispatcher(fb, nil, 0, nil), nil)

	_, terr := r.Resolve(context.Background(), testSnapshot(), catalog.TargetScene, "Main", toolcall.Flags{})
	if terr == nil || terr.Kind != toolcall.KindBackendError {
		t.Fatalf("expected BackendError, got %v", terr)
	}
}

func TestResolveCollapsesConcurrentLookups(t *testing.T) {
	release := make(chan struct{})
	fb := &fakeBackend{handle: func(context.Context, int, backend.Request) (json.RawMessage, error) {
		<-release
		return result([]toolcall.Candidate{{Identifier: "obj:7"}}), nil
	}}
	r := NewResolver(NewDispatcher(fb, nil, 0, nil), nil)
	snap := testSnapshot()

	const n = 8
	var wg sync.WaitGroup
	ids := make([]string, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, _ := r.Resolve(context.Background(), snap, catalog.TargetGameObject, "Crate", toolcall.Flags{})
			ids[i] = c.Identifier
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for i, id := range ids {
		if id != "obj:7" {
			t.Errorf("caller %d got %q", i, id)
		}
	}
	if calls := len(fb.methods()); calls >= n {
		t.Errorf("expected concurrent lookups to share searches, got %d calls", calls)
	}
}

// slowSearchBackend answers every search after delay unless the request
// context ends first.
func slowSearchBackend(delay time.Duration, matches ...toolcall.Candidate) *fakeBackend {
	return &fakeBackend{handle: func(ctx context.Context, _ int, req backend.Request) (json.RawMessage, error) {
		select {
		case <-time.After(delay):
			return result(matches), nil
		case <-ctx.Done():
			return nil, fmt.Errorf("%s: %w", req.Method, ctx.Err())
		}
	}}
}

func TestResolveOverlappingCallsKeepOwnTimeouts(t *testing.T) {
	fb := slowSearchBackend(300*time.Millisecond, toolcall.Candidate{Identifier: "/Level/Player"})
	r := NewResolver(NewDispatcher(fb, nil, 0, nil), nil)
	b := testBackend()
	b.MaxTimeoutMs = 10_000
	snap := config.NewSnapshot(b)

	var wg sync.WaitGroup
	var short, long *toolcall.Error
	var longMatch toolcall.Candidate
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, short = r.Resolve(context.Background(), snap, catalog.TargetGameObject, "Player",
			toolcall.Flags{TimeoutMs: 50, HasTimeout: true})
	}()
	go func() {
		defer wg.Done()
		longMatch, long = r.Resolve(context.Background(), snap, catalog.TargetGameObject, "Player",
			toolcall.Flags{TimeoutMs: 4000, HasTimeout: true})
	}()
	wg.Wait()

	if short == nil || short.Kind != toolcall.KindTimeout {
		t.Errorf("expected the 50ms caller to time out, got %v", short)
	}
	if long != nil {
		t.Fatalf("the 4s caller must not inherit another call's timeout, got %v", long)
	}
	if longMatch.Identifier != "/Level/Player" {
		t.Errorf("unexpected match %+v", longMatch)
	}
}

func TestResolveCallerCancellationDoesNotFailSharedSearch(t *testing.T) {
	fb := slowSearchBackend(100*time.Millisecond, toolcall.Candidate{Identifier: "obj:7"})
	r := NewResolver(NewDispatcher(fb, nil, 0, nil), nil)
	snap := testSnapshot()

	cancelled, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	var first, second *toolcall.Error
	var match toolcall.Candidate
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, first = r.Resolve(cancelled, snap, catalog.TargetGameObject, "Crate", toolcall.Flags{})
	}()
	time.Sleep(10 * time.Millisecond)
	go func() {
		defer wg.Done()
		match, second = r.Resolve(context.Background(), snap, catalog.TargetGameObject, "Crate", toolcall.Flags{})
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()
	wg.Wait()

	if first == nil || first.Kind != toolcall.KindTimeout {
		t.Errorf("expected the cancelled caller to stop with Timeout, got %v", first)
	}
	if second != nil || match.Identifier != "obj:7" {
		t.Errorf("the other caller must still resolve, got %+v / %v", match, second)
	}
	if calls := len(fb.methods()); calls != 1 {
		t.Errorf("expected one shared search, got %d", calls)
	}
}
