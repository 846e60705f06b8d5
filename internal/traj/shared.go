package traj

import (
	"sync"
	"sync/atomic"
)

// Shared publishes a computed trajectory to concurrent samplers. Recompute
// works on a private copy and swaps it in only on success, so readers never
// see a half-computed segment table.
type Shared struct {
	mu  sync.Mutex // serialises writers
	cur atomic.Pointer[Trajectory]
}

// NewShared wraps t. t must not be mutated by the caller afterwards.
func NewShared(t *Trajectory) *Shared {
	s := &Shared{}
	s.cur.Store(t)
	return s
}

// Load returns the current trajectory. Treat it as read-only.
func (s *Shared) Load() *Trajectory {
	return s.cur.Load()
}

// Store replaces the published trajectory.
func (s *Shared) Store(t *Trajectory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur.Store(t)
}

// Recompute re-times a copy of the current trajectory and publishes it.
// On failure the previous trajectory stays published.
func (s *Shared) Recompute(provider LimitProvider, opts ComputeOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.cur.Load().Clone()
	if err := next.Compute(provider, opts); err != nil {
		return err
	}
	s.cur.Store(next)
	return nil
}

// SampleAt samples the currently published trajectory.
func (s *Shared) SampleAt(time float64) (Waypoint, error) {
	return s.cur.Load().SampleAt(time)
}
