package traj

import (
	"fmt"
	"math"
	"sort"

	"github.com/banshee-data/trajectory/internal/geom"
)

// SampleAt evaluates the trajectory at time. Times at or before zero return
// the first waypoint and times at or after the total duration return the
// last; there is no extrapolation. A single-waypoint trajectory always
// returns that waypoint.
func (t *Trajectory) SampleAt(time float64) (Waypoint, error) {
	n := len(t.points)
	if n == 0 {
		return Waypoint{}, fmt.Errorf("%w: cannot sample", ErrEmptyTrajectory)
	}
	if n == 1 {
		return t.points[0].Clone(), nil
	}
	if !t.computed {
		return Waypoint{}, fmt.Errorf("%w: trajectory must be computed before sampling", ErrInvalidInput)
	}
	if math.IsNaN(time) {
		return Waypoint{}, fmt.Errorf("%w: non-finite sample time", ErrInvalidInput)
	}
	if time <= 0 {
		return t.points[0].Clone(), nil
	}
	if time >= t.TotalDuration() {
		return t.points[n-1].Clone(), nil
	}

	i := t.activeInterval(time)
	p0, p1, seg := &t.points[i], &t.points[i+1], &t.segments[i]
	invariant(time >= p0.Time && time <= p1.Time, "time %f outside interval %d [%f, %f]", time, i, p0.Time, p1.Time)
	invariant(seg.Duration > 0, "segment %d has non-positive duration", i)

	local := time - p0.Time
	s := Waypoint{
		Time:       time,
		Q:          make([]float64, t.dof),
		Qdot:       make([]float64, t.dof),
		Qddot:      make([]float64, t.dof),
		Pose:       geom.Interpolate(p0.Pose, p1.Pose, local/seg.Duration),
		LinearVel:  seg.LinearVel,
		AngularVel: seg.AngularVel,
	}
	seg.Eval(local, s.Q, s.Qdot, s.Qddot)
	return s, nil
}

// activeInterval returns the index of the segment covering time, i.e. the
// first i with points[i+1].Time >= time. Callers guarantee 0 < time < total.
func (t *Trajectory) activeInterval(time float64) int {
	last := len(t.points) - 1
	i := sort.Search(last, func(i int) bool {
		return time <= t.points[i+1].Time
	})
	invariant(i < last, "no interval covers time %f", time)
	return i
}
