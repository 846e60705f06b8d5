package traj

import (
	"errors"
	"fmt"
)

// Recoverable failures reported to callers. Operations wrap these with
// context, so test with errors.Is.
var (
	ErrEmptyTrajectory          = errors.New("empty trajectory")
	ErrInvalidInput             = errors.New("invalid input")
	ErrMissingLimitProvider     = errors.New("missing limit provider")
	ErrDimensionMismatch        = errors.New("dimension mismatch")
	ErrUnsupportedInterpolation = errors.New("unsupported interpolation")
	ErrIOFailure                = errors.New("i/o failure")
)

// InvariantError is the panic value raised when the engine's own numeric
// bookkeeping is inconsistent (a non-positive segment duration, times out of
// order). It signals a bug in the engine, never bad caller input.
type InvariantError struct {
	Msg string
}

func (e *InvariantError) Error() string {
	return "trajectory invariant violated: " + e.Msg
}

func invariant(ok bool, format string, args ...interface{}) {
	if !ok {
		panic(&InvariantError{Msg: fmt.Sprintf(format, args...)})
	}
}
