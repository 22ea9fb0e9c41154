package llm

import (
	"errors"
	"fmt"

	"github.com/JaimeStill/arcsolve/internal/prompts"
)

var (
	// ErrCapability is matched by every CapabilityError.
	ErrCapability = errors.New("llm capability failed")
	// ErrSchemaViolation indicates output that does not satisfy the requested Schema.
	ErrSchemaViolation = errors.New("output does not match schema")
	// ErrMissingToken indicates a hosted provider was configured without credentials.
	ErrMissingToken = errors.New("llm token required")
)

// CapabilityError reports a structured completion that failed after the
// provider's retry policy was exhausted.
type CapabilityError struct {
	Stage    prompts.Stage
	Attempts int
	Err      error
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("%s: %s after %d attempt(s): %v", ErrCapability, e.Stage, e.Attempts, e.Err)
}

func (e *CapabilityError) Unwrap() []error {
	return []error{ErrCapability, e.Err}
}
