// Package geom provides the rigid-body pose used for a robot's movable base
// and the interpolation shared by every trajectory scheme.
package geom

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// slerpLinearThreshold is the cosine above which slerp falls back to a
// normalised lerp to avoid dividing by a vanishing sine.
const slerpLinearThreshold = 0.9995

// Pose is a translation plus a unit quaternion rotation.
type Pose struct {
	Trans r3.Vec
	Rot   quat.Number
}

// Identity returns the pose with zero translation and no rotation.
func Identity() Pose {
	return Pose{Rot: quat.Number{Real: 1}}
}

func (p Pose) String() string {
	return fmt.Sprintf("Pose{t=(%+.4f %+.4f %+.4f) q=(%+.4f %+.4f %+.4f %+.4f)}",
		p.Trans.X, p.Trans.Y, p.Trans.Z, p.Rot.Real, p.Rot.Imag, p.Rot.Jmag, p.Rot.Kmag)
}

// IsZero reports whether p is the zero value (which is not a valid rotation).
func (p Pose) IsZero() bool {
	return p == Pose{}
}

// Normalize returns q scaled to unit length. A zero quaternion maps to identity.
func Normalize(q quat.Number) quat.Number {
	n := quat.Abs(q)
	if n == 0 {
		return quat.Number{Real: 1}
	}
	return quat.Scale(1/n, q)
}

func dot(a, b quat.Number) float64 {
	return a.Real*b.Real + a.Imag*b.Imag + a.Jmag*b.Jmag + a.Kmag*b.Kmag
}

// Slerp spherically interpolates between two rotations along the shortest arc.
// frac is clamped to [0, 1].
func Slerp(q0, q1 quat.Number, frac float64) quat.Number {
	frac = math.Max(0, math.Min(1, frac))
	if frac == 0 {
		return q0
	}
	if frac == 1 {
		return q1
	}

	c := dot(q0, q1)
	if c < 0 {
		q1 = quat.Scale(-1, q1)
		c = -c
	}
	if c > slerpLinearThreshold {
		return Normalize(quat.Add(q0, quat.Scale(frac, quat.Sub(q1, q0))))
	}

	theta := math.Acos(c)
	s := math.Sin(theta)
	w0 := math.Sin((1-frac)*theta) / s
	w1 := math.Sin(frac*theta) / s
	return quat.Add(quat.Scale(w0, q0), quat.Scale(w1, q1))
}

// Lerp linearly interpolates between two translations.
func Lerp(a, b r3.Vec, frac float64) r3.Vec {
	return r3.Add(a, r3.Scale(frac, r3.Sub(b, a)))
}

// Interpolate blends two poses at frac in [0, 1]: translation is linear and
// rotation is spherical.
func Interpolate(p0, p1 Pose, frac float64) Pose {
	if frac <= 0 {
		return p0
	}
	if frac >= 1 {
		return p1
	}
	return Pose{
		Trans: Lerp(p0.Trans, p1.Trans, frac),
		Rot:   Slerp(p0.Rot, p1.Rot, frac),
	}
}

// QuatDistance is the antipodal-aware chordal distance between two rotations,
// min(|q1-q0|, |q1+q0|).
func QuatDistance(q0, q1 quat.Number) float64 {
	return math.Min(quat.Abs(quat.Sub(q1, q0)), quat.Abs(quat.Add(q1, q0)))
}

// AngularVelocity returns the constant body rate that rotates q0 into q1 over
// dt, expressed as axis * angle / dt.
func AngularVelocity(q0, q1 quat.Number, dt float64) r3.Vec {
	if dt <= 0 {
		return r3.Vec{}
	}
	d := quat.Mul(q1, quat.Conj(q0))
	if d.Real < 0 {
		d = quat.Scale(-1, d)
	}
	axis := r3.Vec{X: d.Imag, Y: d.Jmag, Z: d.Kmag}
	s := r3.Norm(axis)
	if s < 1e-12 {
		return r3.Vec{}
	}
	angle := 2 * math.Atan2(s, d.Real)
	return r3.Scale(angle/(s*dt), axis)
}
