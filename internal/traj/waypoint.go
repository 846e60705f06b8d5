package traj

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/trajectory/internal/geom"
)

// Waypoint is one via-point of a trajectory. Samples returned by SampleAt use
// the same type.
type Waypoint struct {
	Time float64   // arrival time, seconds from the first waypoint
	Q    []float64 // configuration, len == DOF
	Qdot []float64 // velocity, nil until supplied or computed
	// Qddot is only populated for quintic trajectories and for samples.
	Qddot []float64

	Pose       geom.Pose // movable base pose
	LinearVel  r3.Vec    // base translation rate
	AngularVel r3.Vec    // base rotation rate (axis * rad/s)
}

// Clone returns a deep copy of w.
func (w Waypoint) Clone() Waypoint {
	c := w
	c.Q = cloneFloats(w.Q)
	c.Qdot = cloneFloats(w.Qdot)
	c.Qddot = cloneFloats(w.Qddot)
	return c
}

// finite reports whether every field of w is a real number.
func (w Waypoint) finite() bool {
	scalars := []float64{
		w.Time,
		w.Pose.Trans.X, w.Pose.Trans.Y, w.Pose.Trans.Z,
		w.Pose.Rot.Real, w.Pose.Rot.Imag, w.Pose.Rot.Jmag, w.Pose.Rot.Kmag,
		w.LinearVel.X, w.LinearVel.Y, w.LinearVel.Z,
		w.AngularVel.X, w.AngularVel.Y, w.AngularVel.Z,
	}
	return allFinite(scalars) && allFinite(w.Q) && allFinite(w.Qdot) && allFinite(w.Qddot)
}

func allFinite(s []float64) bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func cloneFloats(s []float64) []float64 {
	if s == nil {
		return nil
	}
	return append([]float64(nil), s...)
}

// ensureLen returns s if it already has n entries, otherwise a zeroed slice.
func ensureLen(s []float64, n int) []float64 {
	if len(s) == n {
		return s
	}
	return make([]float64, n)
}
