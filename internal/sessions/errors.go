// Package sessions hosts interactive solver runs that suspend after each
// cycle and resume when an analyst supplies (or accepts) a critique.
package sessions

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/arcsolve/internal/finetune"
	"github.com/JaimeStill/arcsolve/internal/llm"
	"github.com/JaimeStill/arcsolve/internal/tasks"
	"github.com/JaimeStill/arcsolve/internal/workflow"
)

var (
	ErrNotFound = errors.New("session not found")
	ErrBusy     = errors.New("session is running a cycle")
	ErrTerminal = errors.New("session already solved")
)

// MapHTTPStatus maps session errors, and the workflow, task and fine-tuning
// errors sessions surface, to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrBusy), errors.Is(err, ErrTerminal):
		return http.StatusConflict
	case errors.Is(err, llm.ErrCapability):
		return http.StatusBadGateway
	case errors.Is(err, tasks.ErrNotFound), errors.Is(err, tasks.ErrInvalidName):
		return tasks.MapHTTPStatus(err)
	case errors.Is(err, finetune.ErrNoAttempts), errors.Is(err, finetune.ErrInvalidName):
		return finetune.MapHTTPStatus(err)
	default:
		return workflow.MapHTTPStatus(err)
	}
}
