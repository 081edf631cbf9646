package config

import "sync/atomic"

// Source produces a fresh Config plus any load warnings.
type Source func() (*Config, []Warning)

// Store holds the current Snapshot. Readers never block: Current is a
// single atomic load, and Reload publishes a fully built Snapshot with one
// atomic swap.
type Store struct {
	current atomic.Pointer[Snapshot]
	source  Source
}

// NewStore builds the initial Snapshot from source.
func NewStore(source Source) *Store {
	s := &Store{source: source}
	s.current.Store(s.build())
	return s
}

// NewStaticStore returns a Store whose reloads always yield b. Used by tests
// and embedders that do not read the environment.
func NewStaticStore(b Backend) *Store {
	return NewStore(func() (*Config, []Warning) {
		cfg := Defaults()
		cfg.Backend = b
		return &cfg, nil
	})
}

// Current returns the snapshot in effect right now.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Reload re-reads the source, swaps in the new snapshot and returns the
// previous one together with the field diff.
func (s *Store) Reload() (prev, next *Snapshot, changes []Change) {
	next = s.build()
	prev = s.current.Swap(next)
	return prev, next, next.Diff(prev)
}

func (s *Store) build() *Snapshot {
	cfg, warnings := s.source()
	return NewSnapshot(cfg.Backend, warnings...)
}
