package traj

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
)

// Limits is a snapshot of kinematic bounds. A non-positive velocity or
// acceleration entry means that DOF (or base axis) is unconstrained. Empty
// slices skip the corresponding check.
type Limits struct {
	Lower    []float64
	Upper    []float64
	MaxVel   []float64
	MaxAccel []float64

	AffineTranslationVel r3.Vec  // per-axis base translation limit
	AffineRotationVel    float64 // base rotation limit (quaternion distance per second)
}

// LimitProvider supplies kinematic limits, typically from a robot model.
// active selects the active-DOF subset instead of the full joint set.
type LimitProvider interface {
	DOF(active bool) int
	Limits(active bool) Limits
}

func (l Limits) clone() Limits {
	c := l
	c.Lower = cloneFloats(l.Lower)
	c.Upper = cloneFloats(l.Upper)
	c.MaxVel = cloneFloats(l.MaxVel)
	c.MaxAccel = cloneFloats(l.MaxAccel)
	return c
}

// scaleVelocities multiplies every velocity bound, joint and affine, by m.
func (l *Limits) scaleVelocities(m float64) {
	floats.Scale(m, l.MaxVel)
	l.AffineTranslationVel = r3.Scale(m, l.AffineTranslationVel)
	l.AffineRotationVel *= m
}

func (l Limits) check(dof int) error {
	checks := []struct {
		name string
		s    []float64
	}{
		{"lower", l.Lower},
		{"upper", l.Upper},
		{"max velocity", l.MaxVel},
		{"max acceleration", l.MaxAccel},
	}
	for _, c := range checks {
		if len(c.s) != 0 && len(c.s) != dof {
			return fmt.Errorf("%w: %s limits have %d entries, trajectory has %d DOF", ErrDimensionMismatch, c.name, len(c.s), dof)
		}
	}
	return nil
}

// at returns s[d] or 0 (unconstrained) when s is empty.
func at(s []float64, d int) float64 {
	if len(s) == 0 {
		return 0
	}
	return s[d]
}
