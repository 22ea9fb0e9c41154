// Package finetune turns solver attempt histories into chat transcripts for
// fine-tuning, stores them, and submits fine-tuning jobs.
package finetune

import (
	"errors"
	"net/http"
)

var (
	ErrNoAttempts   = errors.New("no attempts to export")
	ErrNoExamples   = errors.New("no saved fine-tuning examples")
	ErrNoJobs       = errors.New("no fine-tuning jobs submitted")
	ErrNotFound     = errors.New("fine-tuning example not found")
	ErrInvalidName  = errors.New("invalid example name")
	ErrMissingInput = errors.New("job id and model required")
)

// MapHTTPStatus maps finetune errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrNoJobs):
		return http.StatusNotFound
	case errors.Is(err, ErrNoAttempts), errors.Is(err, ErrInvalidName), errors.Is(err, ErrMissingInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrNoExamples):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
