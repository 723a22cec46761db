package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrConfiguration indicates an invalid parameter set, initial state,
	// or integration setting, detected before integration starts.
	ErrConfiguration = errors.New("dynamo: invalid configuration")

	// ErrInvalidState indicates a state vector with NaN or Inf entries.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrUnstable indicates a non-finite derivative or an adaptive step
	// that could not satisfy the error tolerance within the retry budget.
	ErrUnstable = errors.New("dynamo: numerical instability")

	// ErrStepTooSmall indicates the adaptive timestep fell below minimum.
	ErrStepTooSmall = errors.New("dynamo: adaptive timestep below minimum")

	// ErrStepRejected indicates a single adaptive step exceeded the local
	// error tolerance and should be retried with a smaller dt.
	ErrStepRejected = errors.New("dynamo: step rejected by error control")

	// ErrDimensionMismatch indicates mismatched state/system dimensions.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and system")
)

// SimulationError wraps an error with the simulated time, step index, and
// the last valid state, so a failed run can be diagnosed from its prefix.
type SimulationError struct {
	Step    int
	Time    float64
	State   State
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d at t=%.4g min: %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
