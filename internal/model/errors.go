package model

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors for model operations.
var (
	// ErrInvalidInput indicates an empty or dimensionally inconsistent
	// observation set.
	ErrInvalidInput = errors.New("model: invalid observation set")

	// ErrNotFitted indicates a query or accessor before any successful Learn.
	ErrNotFitted = errors.New("model: model has not been fitted")

	// ErrFitFailure indicates an optimizer or regressor fit that did not
	// converge or produced a non-finite result.
	ErrFitFailure = errors.New("model: fit failed")

	// ErrDimensionMismatch indicates a query vector of the wrong length.
	ErrDimensionMismatch = errors.New("model: input dimension mismatch")
)

// DimError wraps a failure of one output dimension with its index.
type DimError struct {
	Dim     int
	Wrapped error
}

func (e *DimError) Error() string {
	return fmt.Sprintf("output dimension %d: %v", e.Dim, e.Wrapped)
}

func (e *DimError) Unwrap() error {
	return e.Wrapped
}

// FitError aggregates per-dimension fit failures from one Learn call.
// The remaining dimensions were fitted successfully; the caller decides
// whether to keep using the partially fitted model or train again.
type FitError []*DimError

func (e FitError) Error() string {
	msgs := make([]string, len(e))
	for i, d := range e {
		msgs[i] = d.Error()
	}
	return fmt.Sprintf("model: %d dimension(s) failed to fit: %s", len(e), strings.Join(msgs, "; "))
}

// Is reports ErrFitFailure so callers can match the aggregate with
// errors.Is without unpacking dimensions.
func (e FitError) Is(target error) bool {
	return target == ErrFitFailure
}

// Dims returns the indices of the failed output dimensions.
func (e FitError) Dims() []int {
	dims := make([]int, len(e))
	for i, d := range e {
		dims[i] = d.Dim
	}
	return dims
}
