package testutil

import (
	"os"
	"testing"
)

func TestWriteTempFile(t *testing.T) {
	path := WriteTempFile(t, "limits.json", RobotLimitsJSON)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != RobotLimitsJSON {
		t.Errorf("content mismatch: %q", data)
	}
}

func TestAssertFloatsNear(t *testing.T) {
	AssertFloatsNear(t, []float64{1, 2}, []float64{1 + 1e-12, 2}, 1e-9)
	AssertFloatsNear(t, []float64{1000}, []float64{1000.0000001}, 1e-9)
}
