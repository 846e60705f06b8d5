package traj

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/trajectory/internal/geom"
	"github.com/banshee-data/trajectory/internal/monitoring"
)

// MinSegmentDuration is the shortest segment the timing engine will produce.
const MinSegmentDuration = 1e-4

// ComputeOptions selects how Compute times and interpolates the waypoints.
type ComputeOptions struct {
	Method Interpolation

	// AutoTiming derives segment durations from the limits. When false the
	// stored waypoint times are used (rebased to start at zero).
	AutoTiming bool

	// ActiveDOFs reads limits for the provider's active subset and also
	// bounds each segment by the base transform limits.
	ActiveDOFs bool

	// VelocityMultiplier scales every velocity limit, joint and affine.
	// Non-positive values are logged and ignored.
	VelocityMultiplier *float64
}

// Compute assigns segment durations, reconciles via-point derivatives and
// fills the coefficient table. provider may be nil when AutoTiming is off.
func (t *Trajectory) Compute(provider LimitProvider, opts ComputeOptions) error {
	if len(t.points) == 0 {
		return fmt.Errorf("%w: nothing to compute", ErrEmptyTrajectory)
	}
	sch, err := schemeFor(opts.Method)
	if err != nil {
		monitoring.Logf("trajectory: bad interpolation method %d", int(opts.Method))
		return err
	}
	if opts.AutoTiming && provider == nil {
		return fmt.Errorf("%w: auto-timing requires limits", ErrMissingLimitProvider)
	}

	var lim Limits
	if provider != nil {
		if got := provider.DOF(opts.ActiveDOFs); got != t.dof {
			return fmt.Errorf("%w: limit provider has %d DOF, trajectory has %d", ErrDimensionMismatch, got, t.dof)
		}
		lim = provider.Limits(opts.ActiveDOFs).clone()
		if err := lim.check(t.dof); err != nil {
			return err
		}
		if m := opts.VelocityMultiplier; m != nil {
			if *m > 0 {
				lim.scaleVelocities(*m)
			} else {
				monitoring.Logf("trajectory: bad velocity multiplier %f, ignoring", *m)
			}
		}
		t.limits = &lim
	}

	t.computed = false
	if opts.AutoTiming {
		t.resetDerivatives(sch)
		t.autoTime(sch, lim, opts.ActiveDOFs)
	} else {
		t.fixedTime()
	}

	t.buildSegments(sch)
	if sch.smooth() || opts.AutoTiming {
		t.reconcileDerivatives(opts.Method == Quintic)
	}
	for i := range t.segments {
		sch.coefficients(&t.segments[i], &t.points[i], &t.points[i+1])
	}

	t.method = opts.Method
	t.computed = true
	monitoring.Debugf("trajectory: %s over %d points, total duration = %f", opts.Method, len(t.points), t.TotalDuration())
	return nil
}

// resetDerivatives zeroes interior derivatives ahead of auto-timing. Endpoint
// values are kept when supplied so callers can start or end in motion.
func (t *Trajectory) resetDerivatives(sch scheme) {
	last := len(t.points) - 1
	for i := range t.points {
		p := &t.points[i]
		endpoint := i == 0 || i == last
		if !endpoint || len(p.Qdot) != t.dof {
			p.Qdot = make([]float64, t.dof)
		}
		if sch.order() == 5 && (!endpoint || len(p.Qddot) != t.dof) {
			p.Qddot = make([]float64, t.dof)
		}
		if !endpoint {
			p.LinearVel = r3.Vec{}
			p.AngularVel = r3.Vec{}
		}
	}
}

func (t *Trajectory) autoTime(sch scheme, lim Limits, withTransform bool) {
	t.points[0].Time = 0
	for i := 1; i < len(t.points); i++ {
		dt := t.minimumTime(sch, lim, &t.points[i-1], &t.points[i], withTransform)
		if dt < MinSegmentDuration {
			dt = MinSegmentDuration
		}
		t.points[i].Time = t.points[i-1].Time + dt
	}
}

// minimumTime is the slowest DOF's minimum duration for the move p0 -> p1,
// optionally also bounded by the base transform.
func (t *Trajectory) minimumTime(sch scheme, lim Limits, p0, p1 *Waypoint, withTransform bool) float64 {
	var longest float64
	for d := 0; d < t.dof; d++ {
		dist := math.Abs(p1.Q[d] - p0.Q[d])
		longest = math.Max(longest, sch.minimumTime(dist, at(lim.MaxVel, d), at(lim.MaxAccel, d)))
	}
	if withTransform {
		longest = math.Max(longest, transformTime(lim, p0.Pose, p1.Pose))
	}
	invariant(!math.IsNaN(longest), "NaN minimum time between t=%f and t=%f", p0.Time, p1.Time)
	return longest
}

// transformTime is the slowest of the per-axis translation times and the
// quaternion-distance rotation time.
func transformTime(lim Limits, p0, p1 geom.Pose) float64 {
	axis := func(delta, limit float64) float64 {
		if limit <= 0 {
			return 0
		}
		return math.Abs(delta) / limit
	}
	d := r3.Sub(p1.Trans, p0.Trans)
	longest := math.Max(axis(d.X, lim.AffineTranslationVel.X), axis(d.Y, lim.AffineTranslationVel.Y))
	longest = math.Max(longest, axis(d.Z, lim.AffineTranslationVel.Z))
	return math.Max(longest, axis(geom.QuatDistance(p0.Rot, p1.Rot), lim.AffineRotationVel))
}

// fixedTime rebases stored times to start at zero and raises any interval
// below MinSegmentDuration to the floor, shifting later points.
func (t *Trajectory) fixedTime() {
	origin := t.points[0].Time
	shift := -origin
	t.points[0].Time = 0
	for i := 1; i < len(t.points); i++ {
		raw := t.points[i].Time + shift
		prev := t.points[i-1].Time
		if raw-prev < MinSegmentDuration {
			monitoring.Logf("trajectory: interval %d (%f) below floor, using %g", i-1, raw-prev, MinSegmentDuration)
			shift += prev + MinSegmentDuration - raw
			raw = prev + MinSegmentDuration
		}
		t.points[i].Time = raw
	}
}

func (t *Trajectory) buildSegments(sch scheme) {
	n := len(t.points)
	if n < 2 {
		t.segments = nil
		return
	}
	segs := make([]Segment, n-1)
	for i := range segs {
		p0, p1 := &t.points[i], &t.points[i+1]
		dur := p1.Time - p0.Time
		invariant(dur > 0, "segment %d has non-positive duration %g", i, dur)
		segs[i] = newSegment(sch.order(), t.dof, dur)
		segs[i].LinearVel = r3.Scale(1/dur, r3.Sub(p1.Pose.Trans, p0.Pose.Trans))
		segs[i].AngularVel = geom.AngularVelocity(p0.Pose.Rot, p1.Pose.Rot, dur)
	}
	t.segments = segs
}
