package config

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/trajectory/internal/traj"
)

// RobotLimits is the kinematic description of a robot loaded from JSON. It
// implements traj.LimitProvider. The active subset is every per-DOF array
// projected onto ActiveIndices; without indices it is the full set.
type RobotLimits struct {
	MaxVelocity     []float64 `json:"max_velocity"`
	MaxAcceleration []float64 `json:"max_acceleration,omitempty"`
	Lower           []float64 `json:"lower,omitempty"`
	Upper           []float64 `json:"upper,omitempty"`
	ActiveIndices   []int     `json:"active_indices,omitempty"`

	AffineTranslationMaxVel []float64 `json:"affine_translation_max_vel,omitempty"` // x, y, z
	AffineRotationMaxVel    float64   `json:"affine_rotation_max_vel,omitempty"`
}

// LoadRobotLimits loads and validates a robot limits file.
func LoadRobotLimits(path string) (*RobotLimits, error) {
	var rl RobotLimits
	if err := readJSON(path, &rl); err != nil {
		return nil, err
	}
	if err := rl.Validate(); err != nil {
		return nil, fmt.Errorf("invalid robot limits: %w", err)
	}
	return &rl, nil
}

// Validate checks array lengths and active indices.
func (r *RobotLimits) Validate() error {
	dof := len(r.MaxVelocity)
	if dof == 0 {
		return fmt.Errorf("max_velocity must list at least one DOF")
	}
	for name, s := range map[string][]float64{
		"max_acceleration": r.MaxAcceleration,
		"lower":            r.Lower,
		"upper":            r.Upper,
	} {
		if len(s) != 0 && len(s) != dof {
			return fmt.Errorf("%s has %d entries, max_velocity has %d", name, len(s), dof)
		}
	}
	if len(r.Lower) != 0 && len(r.Upper) != 0 {
		for i := range r.Lower {
			if r.Lower[i] > r.Upper[i] {
				return fmt.Errorf("dof %d: lower %f above upper %f", i, r.Lower[i], r.Upper[i])
			}
		}
	}
	seen := make(map[int]bool, len(r.ActiveIndices))
	for _, idx := range r.ActiveIndices {
		if idx < 0 || idx >= dof {
			return fmt.Errorf("active index %d out of range [0, %d)", idx, dof)
		}
		if seen[idx] {
			return fmt.Errorf("active index %d listed twice", idx)
		}
		seen[idx] = true
	}
	if n := len(r.AffineTranslationMaxVel); n != 0 && n != 3 {
		return fmt.Errorf("affine_translation_max_vel needs 3 components, got %d", n)
	}
	return nil
}

// DOF returns the size of the full or active joint set.
func (r *RobotLimits) DOF(active bool) int {
	if active && len(r.ActiveIndices) > 0 {
		return len(r.ActiveIndices)
	}
	return len(r.MaxVelocity)
}

// Limits returns a copy of the limits for the full or active joint set.
func (r *RobotLimits) Limits(active bool) traj.Limits {
	pick := r.project
	if !active || len(r.ActiveIndices) == 0 {
		pick = func(s []float64) []float64 { return append([]float64(nil), s...) }
	}
	lim := traj.Limits{
		Lower:             pick(r.Lower),
		Upper:             pick(r.Upper),
		MaxVel:            pick(r.MaxVelocity),
		MaxAccel:          pick(r.MaxAcceleration),
		AffineRotationVel: r.AffineRotationMaxVel,
	}
	if len(r.AffineTranslationMaxVel) == 3 {
		lim.AffineTranslationVel = r3.Vec{
			X: r.AffineTranslationMaxVel[0],
			Y: r.AffineTranslationMaxVel[1],
			Z: r.AffineTranslationMaxVel[2],
		}
	}
	return lim
}

func (r *RobotLimits) project(s []float64) []float64 {
	if len(s) == 0 {
		return nil
	}
	out := make([]float64, len(r.ActiveIndices))
	for i, idx := range r.ActiveIndices {
		out[i] = s[idx]
	}
	return out
}

var _ traj.LimitProvider = (*RobotLimits)(nil)
