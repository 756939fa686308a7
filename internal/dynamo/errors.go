package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation runs.
var (
	// ErrInvalidRange indicates a non-positive step size or an empty
	// time interval. Caller configuration error, never retried.
	ErrInvalidRange = errors.New("dynamo: invalid time range or step size")

	// ErrDegenerateState indicates the total share collapsed to
	// (numerically) zero, so normalization would divide by zero.
	ErrDegenerateState = errors.New("dynamo: total share collapsed to zero")

	// ErrInvalidState indicates a state vector containing NaN or Inf.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")
)

// SimError wraps a domain error with the step and simulation time at
// which it occurred. It unwraps to the sentinel.
type SimError struct {
	Step int
	Time float64
	Err  error
}

func (e *SimError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Err)
}

func (e *SimError) Unwrap() error {
	return e.Err
}
