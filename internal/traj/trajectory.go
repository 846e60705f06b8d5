// Package traj turns an ordered sequence of robot configurations into a
// time-parameterised curve that respects joint velocity and acceleration
// limits and can be sampled at arbitrary times.
//
// The lifecycle is load, Compute, then sample. Compute is synchronous and
// must finish before SampleAt is called. Once computed a Trajectory is only
// read, so concurrent SampleAt calls are safe as long as nobody recomputes
// underneath them; Shared provides copy-on-recompute publication for that.
package traj

import (
	"fmt"

	"github.com/banshee-data/trajectory/internal/geom"
)

// Trajectory owns its waypoints and the parallel segment table. Insertion
// order is temporal order.
type Trajectory struct {
	dof      int
	method   Interpolation
	points   []Waypoint
	segments []Segment
	limits   *Limits
	computed bool
}

// New returns an empty trajectory with the given degrees of freedom.
func New(dof int) *Trajectory {
	return &Trajectory{dof: dof}
}

// Reset clears all waypoints, segments and cached limits and sets the DOF.
func (t *Trajectory) Reset(dof int) {
	t.dof = dof
	t.method = Linear
	t.points = nil
	t.segments = nil
	t.limits = nil
	t.computed = false
}

// LoadRaw replaces the waypoints with count configurations read from the flat
// buffer buf, DOF values per configuration. No timing or derivative
// information is computed.
func (t *Trajectory) LoadRaw(buf []float64, count int) error {
	if buf == nil {
		return fmt.Errorf("%w: nil path buffer", ErrInvalidInput)
	}
	if t.dof <= 0 {
		return fmt.Errorf("%w: DOF must be positive, got %d", ErrInvalidInput, t.dof)
	}
	if count < 0 || count > len(buf)/t.dof {
		return fmt.Errorf("%w: buffer holds %d values, too few for %d points of %d DOF", ErrInvalidInput, len(buf), count, t.dof)
	}
	if !allFinite(buf[:count*t.dof]) {
		return fmt.Errorf("%w: path buffer holds a non-finite value", ErrInvalidInput)
	}

	points := make([]Waypoint, count)
	for i := range points {
		points[i] = Waypoint{
			Q:    cloneFloats(buf[i*t.dof : (i+1)*t.dof]),
			Pose: geom.Identity(),
		}
	}
	t.points = points
	t.segments = nil
	t.computed = false
	return nil
}

// AppendWaypoint adds a copy of w at the end of the trajectory. A zero pose is
// replaced by the identity. The trajectory must be recomputed afterwards.
func (t *Trajectory) AppendWaypoint(w Waypoint) error {
	if t.dof <= 0 {
		return fmt.Errorf("%w: DOF must be positive, got %d", ErrInvalidInput, t.dof)
	}
	if len(w.Q) != t.dof {
		return fmt.Errorf("%w: waypoint has %d values, trajectory has %d DOF", ErrDimensionMismatch, len(w.Q), t.dof)
	}
	if w.Qdot != nil && len(w.Qdot) != t.dof {
		return fmt.Errorf("%w: waypoint velocity has %d values, trajectory has %d DOF", ErrDimensionMismatch, len(w.Qdot), t.dof)
	}
	if w.Qddot != nil && len(w.Qddot) != t.dof {
		return fmt.Errorf("%w: waypoint acceleration has %d values, trajectory has %d DOF", ErrDimensionMismatch, len(w.Qddot), t.dof)
	}
	if !w.finite() {
		return fmt.Errorf("%w: waypoint holds a non-finite value", ErrInvalidInput)
	}
	c := w.Clone()
	if c.Pose.IsZero() {
		c.Pose = geom.Identity()
	}
	t.points = append(t.points, c)
	t.computed = false
	return nil
}

// DOF returns the configuration dimension.
func (t *Trajectory) DOF() int { return t.dof }

// Len returns the number of waypoints.
func (t *Trajectory) Len() int { return len(t.points) }

// Method returns the interpolation used by the last Compute.
func (t *Trajectory) Method() Interpolation { return t.method }

// Computed reports whether timing and coefficients are current.
func (t *Trajectory) Computed() bool { return t.computed }

// Waypoint returns a copy of waypoint i.
func (t *Trajectory) Waypoint(i int) Waypoint { return t.points[i].Clone() }

// Waypoints returns deep copies of all waypoints.
func (t *Trajectory) Waypoints() []Waypoint {
	out := make([]Waypoint, len(t.points))
	for i, p := range t.points {
		out[i] = p.Clone()
	}
	return out
}

// Segments returns deep copies of the segment table.
func (t *Trajectory) Segments() []Segment {
	out := make([]Segment, len(t.segments))
	for i, s := range t.segments {
		out[i] = s.clone()
	}
	return out
}

// Limits returns the cached limits and whether any are set.
func (t *Trajectory) Limits() (Limits, bool) {
	if t.limits == nil {
		return Limits{}, false
	}
	return t.limits.clone(), true
}

// SetLimits caches limits for Validate without recomputing timing.
func (t *Trajectory) SetLimits(l Limits) error {
	if err := l.check(t.dof); err != nil {
		return err
	}
	c := l.clone()
	t.limits = &c
	return nil
}

// TotalDuration is the arrival time of the last waypoint.
func (t *Trajectory) TotalDuration() float64 {
	if len(t.points) == 0 {
		return 0
	}
	return t.points[len(t.points)-1].Time
}

// Clone returns a deep copy of t.
func (t *Trajectory) Clone() *Trajectory {
	c := &Trajectory{
		dof:      t.dof,
		method:   t.method,
		computed: t.computed,
		points:   t.Waypoints(),
		segments: t.Segments(),
	}
	if t.limits != nil {
		l := t.limits.clone()
		c.limits = &l
	}
	return c
}
