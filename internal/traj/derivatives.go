package traj

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// viaVelocity applies the direction-reversal rule: keep moving at the mean
// slope when both neighbouring segments head the same way, otherwise stop.
func viaVelocity(prevSlope, nextSlope float64) float64 {
	if (prevSlope > 0 && nextSlope > 0) || (prevSlope < 0 && nextSlope < 0) {
		return 0.5 * (prevSlope + nextSlope)
	}
	return 0
}

// reconcileDerivatives assigns interior via-point velocities (and, with
// accels set, accelerations) from the segment durations. Endpoint values are
// left as supplied, defaulting to zero.
func (t *Trajectory) reconcileDerivatives(accels bool) {
	for i := range t.points {
		p := &t.points[i]
		p.Qdot = ensureLen(p.Qdot, t.dof)
		if accels {
			p.Qddot = ensureLen(p.Qddot, t.dof)
		}
	}

	last := len(t.points) - 1
	for i := 1; i < last; i++ {
		prev, next := &t.segments[i-1], &t.segments[i]
		p0, p, p1 := &t.points[i-1], &t.points[i], &t.points[i+1]
		for d := 0; d < t.dof; d++ {
			p.Qdot[d] = viaVelocity((p.Q[d]-p0.Q[d])/prev.Duration, (p1.Q[d]-p.Q[d])/next.Duration)
		}
		p.LinearVel = r3.Scale(0.5, r3.Add(prev.LinearVel, next.LinearVel))
		p.AngularVel = r3.Scale(0.5, r3.Add(prev.AngularVel, next.AngularVel))
	}

	if !accels {
		return
	}
	// Central difference of the reconciled velocities. Any value gives C2
	// continuity because both adjacent quintics share it.
	for i := 1; i < last; i++ {
		p0, p, p1 := &t.points[i-1], &t.points[i], &t.points[i+1]
		span := t.segments[i-1].Duration + t.segments[i].Duration
		for d := 0; d < t.dof; d++ {
			p.Qddot[d] = (p1.Qdot[d] - p0.Qdot[d]) / span
		}
	}
}
