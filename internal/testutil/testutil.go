// Package testutil provides shared test helpers and fixtures.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/floats"
)

// RobotLimitsJSON is a two-joint robot with a one-joint active subset and a
// planar base.
const RobotLimitsJSON = `{
  "max_velocity": [1.0, 0.5],
  "max_acceleration": [2.0, 1.0],
  "lower": [-3.0, -1.5],
  "upper": [3.0, 1.5],
  "active_indices": [0],
  "affine_translation_max_vel": [0.5, 0.5, 0],
  "affine_rotation_max_vel": 1.0
}`

// WriteTempFile writes body to name inside a per-test temporary directory and
// returns the path.
func WriteTempFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// AssertFloatsNear fails the test unless got matches want element-wise
// within tol (absolute or relative).
func AssertFloatsNear(t *testing.T, want, got []float64, tol float64) {
	t.Helper()
	if len(want) != len(got) {
		t.Errorf("length = %d, want %d (%v vs %v)", len(got), len(want), got, want)
		return
	}
	if !floats.EqualApprox(want, got, tol) {
		t.Errorf("got %v, want %v (tol %g)", got, want, tol)
	}
}
