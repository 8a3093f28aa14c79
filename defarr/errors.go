package defarr

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPartition is returned when the worker count does not evenly
	// divide the y resolution of the grid.
	ErrInvalidPartition = errors.New("defarr: invalid partition")
	// ErrUnsupportedScheme is returned for refinement schemes other than
	// 1, 2 and 3.
	ErrUnsupportedScheme = errors.New("defarr: unsupported refinement scheme")
	// ErrInsufficientSamples is returned when an axis has too few samples
	// for a cubic spline fit.
	ErrInsufficientSamples = errors.New("defarr: insufficient samples for cubic fit")
	// ErrWorkerFailure is matched by every *WorkerError.
	ErrWorkerFailure = errors.New("defarr: worker failed")
	// ErrInvalidGrid is returned for empty ranges and non-positive
	// resolutions.
	ErrInvalidGrid = errors.New("defarr: invalid grid")
)

// WorkerError reports the failure of the worker evaluating a single strip.
// Strip is -1 if the whole dispatch was cancelled before any worker
// reported.
type WorkerError struct {
	Strip int
	Err   error
}

func (e *WorkerError) Error() string {
	if e.Strip < 0 {
		return fmt.Sprintf("defarr: dispatch stopped: %v", e.Err)
	}
	return fmt.Sprintf("defarr: worker for strip %d failed: %v", e.Strip, e.Err)
}

// Unwrap lets errors.Is match both ErrWorkerFailure and the underlying cause.
func (e *WorkerError) Unwrap() []error { return []error{ErrWorkerFailure, e.Err} }
