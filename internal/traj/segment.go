package traj

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Segment is the polynomial piece between waypoint i and i+1. Coeffs row k
// holds the t^k coefficient for every DOF, with t local to the segment.
type Segment struct {
	Duration float64
	Coeffs   *mat.Dense

	// Base rates over the segment, used for via-point base velocities and
	// for samples.
	LinearVel  r3.Vec
	AngularVel r3.Vec
}

func newSegment(order, dof int, duration float64) Segment {
	return Segment{
		Duration: duration,
		Coeffs:   mat.NewDense(order+1, dof, nil),
	}
}

// Order is the polynomial degree of the segment.
func (s *Segment) Order() int {
	r, _ := s.Coeffs.Dims()
	return r - 1
}

// Eval writes position, velocity and acceleration at local time t. Any
// destination may be nil.
func (s *Segment) Eval(t float64, q, qdot, qddot []float64) {
	rows, dof := s.Coeffs.Dims()
	for d := 0; d < dof; d++ {
		var p, v, a float64
		// Horner from the highest order down.
		for k := rows - 1; k >= 0; k-- {
			c := s.Coeffs.At(k, d)
			p = p*t + c
			if k >= 1 {
				v = v*t + float64(k)*c
			}
			if k >= 2 {
				a = a*t + float64(k*(k-1))*c
			}
		}
		if q != nil {
			q[d] = p
		}
		if qdot != nil {
			qdot[d] = v
		}
		if qddot != nil {
			qddot[d] = a
		}
	}
}

func (s Segment) clone() Segment {
	c := s
	if s.Coeffs != nil {
		c.Coeffs = mat.DenseCopyOf(s.Coeffs)
	}
	return c
}
