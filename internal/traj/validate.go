package traj

import (
	"fmt"
	"math"

	"github.com/banshee-data/trajectory/internal/monitoring"
)

// ViolationKind names the limit a waypoint broke.
type ViolationKind int

const (
	BelowLower ViolationKind = iota
	AboveUpper
	OverVelocity
)

func (k ViolationKind) String() string {
	switch k {
	case BelowLower:
		return "lower position limit"
	case AboveUpper:
		return "upper position limit"
	case OverVelocity:
		return "max velocity"
	default:
		return fmt.Sprintf("violation(%d)", int(k))
	}
}

// Violation is one limit breach at one waypoint and DOF.
type Violation struct {
	Waypoint int
	DOF      int
	Kind     ViolationKind
	Value    float64
	Limit    float64
}

func (v Violation) String() string {
	return fmt.Sprintf("waypoint %d dof %d exceeds %s (%f): value = %f", v.Waypoint, v.DOF, v.Kind, v.Limit, v.Value)
}

// Validate checks every waypoint against the cached position and velocity
// limits. It never fails: every violation is logged and returned, and ok is
// false if there was at least one. Without cached limits there is nothing to
// check.
func (t *Trajectory) Validate() (ok bool, violations []Violation) {
	if t.limits == nil {
		monitoring.Debugf("trajectory: no limits cached, skipping validation")
		return true, nil
	}
	lim := t.limits
	report := func(v Violation) {
		monitoring.Logf("trajectory: WARNING %s", v)
		violations = append(violations, v)
	}

	for i, p := range t.points {
		for d := 0; d < t.dof; d++ {
			q := p.Q[d]
			if len(lim.Lower) != 0 && q < lim.Lower[d] {
				report(Violation{Waypoint: i, DOF: d, Kind: BelowLower, Value: q, Limit: lim.Lower[d]})
			}
			if len(lim.Upper) != 0 && q > lim.Upper[d] {
				report(Violation{Waypoint: i, DOF: d, Kind: AboveUpper, Value: q, Limit: lim.Upper[d]})
			}
			if len(p.Qdot) == t.dof {
				if vmax := at(lim.MaxVel, d); vmax > 0 && math.Abs(p.Qdot[d]) > vmax {
					report(Violation{Waypoint: i, DOF: d, Kind: OverVelocity, Value: p.Qdot[d], Limit: vmax})
				}
			}
		}
	}
	return len(violations) == 0, violations
}
