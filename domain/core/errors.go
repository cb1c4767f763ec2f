package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Input errors
	ErrInvalidInput     = errors.New("invalid input data")
	ErrInsufficientData = errors.New("insufficient data for estimation")
	ErrCensoredInput    = fmt.Errorf("%w: censored observations not accepted by this estimator", ErrInvalidInput)
	ErrNoFailures       = fmt.Errorf("%w: sample contains no failures", ErrInvalidInput)

	// Numerical estimation errors
	ErrSingularFit  = errors.New("degenerate regression geometry")
	ErrConvergence  = errors.New("numerical search failed to converge")
	ErrNoBracket    = fmt.Errorf("%w: could not bracket a root", ErrConvergence)
	ErrProfileEdge  = fmt.Errorf("%w: profile maximum stuck at search boundary", ErrConvergence)
	ErrMaxIteration = fmt.Errorf("%w: iteration limit reached", ErrConvergence)

	// Capability errors
	ErrUnsupportedOperation = errors.New("operation not supported")

	// Lookup errors
	ErrNotFound         = errors.New("resource not found")
	ErrAnalysisNotFound = fmt.Errorf("%w: analysis", ErrNotFound)
)

// Error constructors with context
func NewValidationError(field string, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidInput, field, reason)
}

func NewUnsupportedError(operation string, reason string) error {
	return fmt.Errorf("%w: %s (%s)", ErrUnsupportedOperation, operation, reason)
}

func NewConvergenceError(stage string, err error) error {
	if err == nil {
		return fmt.Errorf("%w during %s", ErrConvergence, stage)
	}
	return fmt.Errorf("%w during %s: %v", ErrConvergence, stage, err)
}

// Error checking helpers
func IsInvalidInputError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

func IsInsufficientDataError(err error) bool {
	return errors.Is(err, ErrInsufficientData)
}

func IsSingularFitError(err error) bool {
	return errors.Is(err, ErrSingularFit)
}

func IsConvergenceError(err error) bool {
	return errors.Is(err, ErrConvergence)
}

func IsUnsupportedOperationError(err error) bool {
	return errors.Is(err, ErrUnsupportedOperation)
}

func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}
