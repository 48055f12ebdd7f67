package progress

import (
	"context"
	"sync"
)

// Source is a refreshable view of the pipeline's progress.
//
// Refresh asks the producer to recompute its counters. Snapshot returns
// the latest counters; after a failed Refresh it keeps returning the last
// good reading.
type Source interface {
	Refresh(ctx context.Context) error
	Snapshot() Snapshot
}

// Notifier is implemented by sources that can signal a change between
// refreshes.
type Notifier interface {
	Changes() <-chan struct{}
}

// MemorySource is a Source whose snapshot is set directly.
type MemorySource struct {
	mu        sync.Mutex
	snap      Snapshot
	refreshes int
	err       error
}

// NewMemorySource creates a MemorySource holding snap.
func NewMemorySource(snap Snapshot) *MemorySource {
	return &MemorySource{snap: snap}
}

// Set replaces the current snapshot.
func (m *MemorySource) Set(snap Snapshot) {
	m.mu.Lock()
	m.snap = snap
	m.mu.Unlock()
}

// SetError makes subsequent refreshes fail with err (nil clears it).
func (m *MemorySource) SetError(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}

// Refresh counts the call and returns the configured error, if any.
func (m *MemorySource) Refresh(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshes++
	return m.err
}

// Snapshot returns the current snapshot.
func (m *MemorySource) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap
}

// Refreshes returns how many times Refresh has been called.
func (m *MemorySource) Refreshes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refreshes
}
