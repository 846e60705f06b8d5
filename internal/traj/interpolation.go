package traj

import (
	"fmt"
	"strings"
)

// Interpolation selects the polynomial family used between waypoints.
type Interpolation int

const (
	Linear Interpolation = iota
	Cubic
	// Quintic is best-effort: its timing bound assumes zero boundary
	// derivatives and is approximate once via-point velocities are non-zero.
	Quintic
)

func (m Interpolation) String() string {
	switch m {
	case Linear:
		return "linear"
	case Cubic:
		return "cubic"
	case Quintic:
		return "quintic"
	default:
		return fmt.Sprintf("interpolation(%d)", int(m))
	}
}

// ParseInterpolation maps a case-insensitive name to an Interpolation.
func ParseInterpolation(s string) (Interpolation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "linear":
		return Linear, nil
	case "cubic":
		return Cubic, nil
	case "quintic":
		return Quintic, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedInterpolation, s)
	}
}
