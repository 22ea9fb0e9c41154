// Package workflow implements the solve → critique → correct state machine
// for ARC puzzles. A Machine owns one ExecutionContext and advances through
// format → predict → evaluate → reflect, then either stops on a passing
// prediction or suspends awaiting an external critique.
package workflow

import (
	"errors"
	"net/http"
)

// Sentinel errors for workflow operations.
var (
	ErrResumeWithoutContext = errors.New("resume requires a prior execution context")
	ErrCapExceeded          = errors.New("attempt cap reached")
	ErrInvalidTask          = errors.New("invalid task")
	ErrCycleComplete        = errors.New("cycle already complete")
)

// MapHTTPStatus maps workflow errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidTask), errors.Is(err, ErrResumeWithoutContext):
		return http.StatusBadRequest
	case errors.Is(err, ErrCapExceeded), errors.Is(err, ErrCycleComplete):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
