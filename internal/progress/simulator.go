package progress

import (
	"context"
	"sync"
)

// Simulator is a Source that walks a fake pipeline through every stage,
// advancing one step per Refresh. It stands in for the real pipeline in
// demos and tests.
type Simulator struct {
	Registrants int // registrants found before reclaiming starts
	Reclaimable int // reclaimable transactions found before distribution
	Rows        int // snapshot rows written during distribution
	Rejected    int // registry entries rejected during distribution
	Step        int // counter increment per refresh

	mu      sync.Mutex
	started bool
	snap    Snapshot
}

// NewSimulator creates a Simulator with small default sizes.
func NewSimulator() *Simulator {
	return &Simulator{
		Registrants: 40,
		Reclaimable: 12,
		Rows:        40,
		Rejected:    3,
		Step:        2,
	}
}

// Start begins the simulated run. Until Start is called the simulator
// stays at the welcome stage.
func (s *Simulator) Start() {
	s.mu.Lock()
	s.started = true
	s.mu.Unlock()
}

// Fire implements the init trigger for the simulated pipeline.
func (s *Simulator) Fire(ctx context.Context) error {
	s.Start()
	return nil
}

// Refresh advances the simulated pipeline by one step.
func (s *Simulator) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	step := s.Step
	if step <= 0 {
		step = 1
	}
	snap := &s.snap

	switch {
	case snap.RegistrantsCount < s.Registrants:
		snap.RegistrantsCount = min(snap.RegistrantsCount+step, s.Registrants)
		snap.RegistryTotal = snap.RegistrantsCount
	case snap.ReclaimableCount < s.Reclaimable:
		snap.ReclaimableCount = min(snap.ReclaimableCount+step, s.Reclaimable)
	case snap.SnapshotRowCount < s.Rows:
		snap.SnapshotRowCount = min(snap.SnapshotRowCount+step, s.Rows)
		processed := snap.SnapshotRowCount * snap.RegistryTotal / max(s.Rows, 1)
		snap.RegistryRejected = min(processed, s.Rejected)
		snap.RegistryAccepted = processed - snap.RegistryRejected
		snap.PercentComplete = float64(snap.SnapshotRowCount*100/max(s.Rows, 1))
	default:
		snap.RegistryAccepted = snap.RegistryTotal - snap.RegistryRejected
		snap.PercentComplete = 100
	}
	return nil
}

// Snapshot returns the simulated counters.
func (s *Simulator) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}
