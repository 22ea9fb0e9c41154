package evaluations

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound  = errors.New("evaluation not found")
	ErrDuplicate = errors.New("evaluation already recorded")
	ErrInvalidID = errors.New("invalid evaluation id")
	ErrEmpty     = errors.New("evaluation has no results")
)

// MapHTTPStatus maps evaluation domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidID), errors.Is(err, ErrEmpty):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
