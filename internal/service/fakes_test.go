package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/Strob0t/editorbridge/internal/config"
	"github.com/Strob0t/editorbridge/internal/port/backend"
)

// --- Mocks ---

type fakeBackend struct {
	mu      sync.Mutex
	calls   []backend.Request
	urls    []string
	pings   int
	handle  func(ctx context.Context, n int, req backend.Request) (json.RawMessage, error)
	pingErr error
	state   string
	resets  int
}

func (f *fakeBackend) Call(ctx context.Context, baseURL string, req backend.Request) (json.RawMessage, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.urls = append(f.urls, baseURL)
	n := len(f.calls)
	f.mu.Unlock()
	if f.handle == nil {
		return json.RawMessage(`{}`), nil
	}
	return f.handle(ctx, n, req)
}

func (f *fakeBackend) Ping(context.Context, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pings++
	return f.pingErr
}

func (f *fakeBackend) BreakerState() string {
	if f.state == "" {
		return "closed"
	}
	return f.state
}

func (f *fakeBackend) ResetBreaker() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
}

func (f *fakeBackend) methods() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.Method
	}
	return out
}

func (f *fakeBackend) last() backend.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

type mapCache struct {
	mu sync.Mutex
	m  map[string][]byte
}

func newMapCache() *mapCache { return &mapCache{m: map[string][]byte{}} }

func (c *mapCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.m[key]
	return v, ok, nil
}

func (c *mapCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = value
	return nil
}

func (c *mapCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.m, key)
	return nil
}

func (c *mapCache) Clear(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m = map[string][]byte{}
	return nil
}

func testBackend() config.Backend {
	return config.Backend{
		URL:              "http://127.0.0.1:7400",
		DefaultTimeoutMs: 1000,
		MaxTimeoutMs:     5000,
	}
}

func testSnapshot() *config.Snapshot {
	return config.NewSnapshot(testBackend())
}

func result(v any) json.RawMessage {
	data, _ := json.Marshal(v)
	return data
}
