package traj

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/trajectory/internal/monitoring"
)

// fixedLimits is a LimitProvider returning the same limits for both the full
// and the active DOF set.
type fixedLimits struct {
	lim Limits
}

func (f fixedLimits) DOF(bool) int       { return len(f.lim.MaxVel) }
func (f fixedLimits) Limits(bool) Limits { return f.lim }

func jointLimits(maxVel, maxAccel []float64) fixedLimits {
	lower := make([]float64, len(maxVel))
	upper := make([]float64, len(maxVel))
	for i := range lower {
		lower[i] = -10
		upper[i] = 10
	}
	return fixedLimits{lim: Limits{
		Lower:                lower,
		Upper:                upper,
		MaxVel:               maxVel,
		MaxAccel:             maxAccel,
		AffineTranslationVel: r3.Vec{X: 1, Y: 1, Z: 1},
		AffineRotationVel:    1,
	}}
}

func loadRaw(t *testing.T, dof int, values ...float64) *Trajectory {
	t.Helper()
	tr := New(dof)
	if err := tr.LoadRaw(values, len(values)/dof); err != nil {
		t.Fatalf("LoadRaw: %v", err)
	}
	return tr
}

// captureLogs mutes the package logger for the test and returns the
// formats it received.
func captureLogs(t *testing.T) *[]string {
	t.Helper()
	original := monitoring.Logf
	t.Cleanup(func() { monitoring.SetLogger(original) })
	var got []string
	monitoring.SetLogger(func(format string, v ...interface{}) {
		got = append(got, format)
	})
	return &got
}

func ptr(v float64) *float64 { return &v }
