package logger

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Closer allows flushing and stopping the async handler.
type Closer interface {
	Close()
}

// nopCloser is a no-op Closer for synchronous mode.
type nopCloser struct{}

func (nopCloser) Close() {}

// asyncState is shared by an AsyncHandler and every handler derived from it
// through WithAttrs/WithGroup.
type asyncState struct {
	mu      sync.RWMutex // guards closed and sends on ch
	closed  bool
	ch      chan queued
	wg      sync.WaitGroup
	dropped atomic.Int64
	once    sync.Once
}

type queued struct {
	inner slog.Handler
	rec   slog.Record
}

// AsyncHandler wraps an slog.Handler with a buffered channel and worker pool.
// Records below Warn are dropped when the queue is full; Warn and above
// (gate refusals, backend failures) wait for room instead.
type AsyncHandler struct {
	inner slog.Handler
	state *asyncState
}

// NewAsyncHandler creates an AsyncHandler with the given channel capacity and worker count.
func NewAsyncHandler(inner slog.Handler, chanSize, workers int) *AsyncHandler {
	st := &asyncState{ch: make(chan queued, chanSize)}
	for range workers {
		st.wg.Add(1)
		go st.drain()
	}
	return &AsyncHandler{inner: inner, state: st}
}

func (st *asyncState) drain() {
	defer st.wg.Done()
	for q := range st.ch {
		_ = q.inner.Handle(context.Background(), q.rec)
	}
}

// Enabled delegates to the inner handler.
func (h *AsyncHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle enqueues the record. After Close it writes synchronously.
func (h *AsyncHandler) Handle(ctx context.Context, rec slog.Record) error { //nolint:gocritic // slog.Handler interface requires value receiver
	st := h.state
	st.mu.RLock()
	defer st.mu.RUnlock()

	if st.closed {
		return h.inner.Handle(ctx, rec)
	}

	q := queued{inner: h.inner, rec: rec}
	if rec.Level >= slog.LevelWarn {
		st.ch <- q
		return nil
	}
	select {
	case st.ch <- q:
	default:
		st.dropped.Add(1)
	}
	return nil
}

// WithAttrs returns a handler sharing the same queue with a new inner handler.
func (h *AsyncHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &AsyncHandler{inner: h.inner.WithAttrs(attrs), state: h.state}
}

// WithGroup returns a handler sharing the same queue with a new inner handler.
func (h *AsyncHandler) WithGroup(name string) slog.Handler {
	return &AsyncHandler{inner: h.inner.WithGroup(name), state: h.state}
}

// DroppedCount returns the number of dropped records.
func (h *AsyncHandler) DroppedCount() int64 {
	return h.state.dropped.Load()
}

// Close drains the queue and stops the workers. If records were dropped, a
// final warning with the count is written directly. Close is idempotent.
func (h *AsyncHandler) Close() {
	st := h.state
	st.once.Do(func() {
		st.mu.Lock()
		st.closed = true
		close(st.ch)
		st.mu.Unlock()
		st.wg.Wait()

		if n := st.dropped.Load(); n > 0 {
			rec := slog.NewRecord(time.Now(), slog.LevelWarn, "async logger dropped records", 0)
			rec.AddAttrs(slog.Int64("dropped", n))
			_ = h.inner.Handle(context.Background(), rec)
		}
	})
}
