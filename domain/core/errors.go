package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound        = errors.New("resource not found")
	ErrDatasetNotFound = fmt.Errorf("%w: dataset", ErrNotFound)
	ErrResultNotFound  = fmt.Errorf("%w: analysis result", ErrNotFound)

	// Analysis errors
	ErrInsufficientData = errors.New("insufficient data for analysis")
	ErrFitFailed        = errors.New("psychometric fit failed")
	ErrUnknownModel     = errors.New("unknown psychometric model")

	// Loading errors
	ErrInvalidTrial   = errors.New("invalid trial record")
	ErrNoSessionFiles = errors.New("no session files found")
)

// Error constructors with context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

func NewValidationError(field string, reason string) error {
	return fmt.Errorf("validation failed for %s: %s", field, reason)
}

func NewInsufficientDataError(have, need int, what string) error {
	return fmt.Errorf("%w: %d %s, need at least %d", ErrInsufficientData, have, what, need)
}

func NewFitError(reason string, err error) error {
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrFitFailed, reason, err)
	}
	return fmt.Errorf("%w: %s", ErrFitFailed, reason)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsInsufficientDataError(err error) bool {
	return errors.Is(err, ErrInsufficientData)
}

func IsFitError(err error) bool {
	return errors.Is(err, ErrFitFailed)
}

// IsRecoverable reports whether a per-dataset analysis error should be
// absorbed (fit omitted, interpolation kept) rather than abort a
// multi-dataset run.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrInsufficientData) || errors.Is(err, ErrFitFailed)
}
