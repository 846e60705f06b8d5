package traj

import (
	"fmt"
	"math"
)

// scheme is one member of the interpolator family: it bounds the duration of
// a single-DOF move and fills segment coefficients from boundary values.
type scheme interface {
	order() int
	// minimumTime is the shortest duration moving dist (>= 0) within the
	// given limits. A non-positive limit does not constrain.
	minimumTime(dist, maxVel, maxAccel float64) float64
	// smooth reports whether via-point derivatives must be reconciled
	// before coefficients are computed.
	smooth() bool
	coefficients(seg *Segment, p0, p1 *Waypoint)
}

func schemeFor(m Interpolation) (scheme, error) {
	switch m {
	case Linear:
		return linearScheme{}, nil
	case Cubic:
		return cubicScheme{}, nil
	case Quintic:
		return quinticScheme{}, nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedInterpolation, m)
	}
}

type linearScheme struct{}

func (linearScheme) order() int   { return 1 }
func (linearScheme) smooth() bool { return false }

func (linearScheme) minimumTime(dist, maxVel, _ float64) float64 {
	if maxVel <= 0 {
		return 0
	}
	return dist / maxVel
}

func (linearScheme) coefficients(seg *Segment, p0, p1 *Waypoint) {
	for d := range p0.Q {
		seg.Coeffs.Set(0, d, p0.Q[d])
		seg.Coeffs.Set(1, d, (p1.Q[d]-p0.Q[d])/seg.Duration)
	}
}

// Peak velocity and acceleration of a rest-to-rest cubic over distance D in
// time T are 1.5 D/T and 6 D/T^2.
const (
	cubicVelFactor   = 1.5
	cubicAccelFactor = 6.0
)

type cubicScheme struct{}

func (cubicScheme) order() int   { return 3 }
func (cubicScheme) smooth() bool { return true }

func (cubicScheme) minimumTime(dist, maxVel, maxAccel float64) float64 {
	return peakBoundTime(dist, maxVel, maxAccel, cubicVelFactor, cubicAccelFactor)
}

func (cubicScheme) coefficients(seg *Segment, p0, p1 *Waypoint) {
	t := seg.Duration
	t2 := t * t
	t3 := t2 * t
	for d := range p0.Q {
		v0, v1 := p0.Qdot[d], p1.Qdot[d]
		dq := p1.Q[d] - p0.Q[d]
		seg.Coeffs.Set(0, d, p0.Q[d])
		seg.Coeffs.Set(1, d, v0)
		seg.Coeffs.Set(2, d, (3/t2)*dq-(2/t)*v0-(1/t)*v1)
		seg.Coeffs.Set(3, d, (-2/t3)*dq+(1/t2)*(v1+v0))
	}
}

// Rest-to-rest minimum-jerk quintic: peak velocity 15/8 D/T, peak
// acceleration 10/sqrt(3) D/T^2. Exact only for zero boundary derivatives.
var (
	quinticVelFactor   = 15.0 / 8.0
	quinticAccelFactor = 10 / math.Sqrt(3)
)

type quinticScheme struct{}

func (quinticScheme) order() int   { return 5 }
func (quinticScheme) smooth() bool { return true }

func (quinticScheme) minimumTime(dist, maxVel, maxAccel float64) float64 {
	return peakBoundTime(dist, maxVel, maxAccel, quinticVelFactor, quinticAccelFactor)
}

func (quinticScheme) coefficients(seg *Segment, p0, p1 *Waypoint) {
	t := seg.Duration
	t2 := t * t
	t3 := t2 * t
	t4 := t3 * t
	t5 := t4 * t
	for d := range p0.Q {
		v0, v1 := p0.Qdot[d], p1.Qdot[d]
		a0, a1 := p0.Qddot[d], p1.Qddot[d]
		dq := p1.Q[d] - p0.Q[d]
		seg.Coeffs.Set(0, d, p0.Q[d])
		seg.Coeffs.Set(1, d, v0)
		seg.Coeffs.Set(2, d, 0.5*a0)
		seg.Coeffs.Set(3, d, (20*dq-(8*v1+12*v0)*t-(3*a0-a1)*t2)/(2*t3))
		seg.Coeffs.Set(4, d, (-30*dq+(14*v1+16*v0)*t+(3*a0-2*a1)*t2)/(2*t4))
		seg.Coeffs.Set(5, d, (12*dq-6*(v1+v0)*t-(a0-a1)*t2)/(2*t5))
	}
}

func peakBoundTime(dist, maxVel, maxAccel, velFactor, accelFactor float64) float64 {
	var tv, ta float64
	if maxVel > 0 {
		tv = velFactor * dist / maxVel
	}
	if maxAccel > 0 {
		ta = math.Sqrt(accelFactor * dist / maxAccel)
	}
	return math.Max(tv, ta)
}
