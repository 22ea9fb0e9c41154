package sessions

import (
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/arcsolve/internal/workflow"
)

// Status is the lifecycle state of a session between requests.
type Status string

const (
	// StatusAwaiting means the last cycle failed and the session waits for a critique.
	StatusAwaiting Status = "awaiting_critique"
	StatusSolved   Status = "solved"
	// StatusExhausted means the attempt cap was reached without a pass.
	StatusExhausted Status = "exhausted"
)

// Session is a persisted solver run. Context is the suspended execution
// context that the next cycle resumes from.
type Session struct {
	ID        uuid.UUID                  `json:"id"`
	Task      string                     `json:"task"`
	Status    Status                     `json:"status"`
	Passing   bool                       `json:"passing"`
	Context   *workflow.ExecutionContext `json:"context"`
	CreatedAt time.Time                  `json:"created_at"`
	UpdatedAt time.Time                  `json:"updated_at"`
}

// Summary is the list view of a session.
type Summary struct {
	ID        uuid.UUID `json:"id"`
	Task      string    `json:"task"`
	Status    Status    `json:"status"`
	Passing   bool      `json:"passing"`
	Attempts  int       `json:"attempts"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Summary condenses s for listing.
func (s *Session) Summary() Summary {
	n := 0
	if s.Context != nil {
		n = len(s.Context.Attempts)
	}
	return Summary{
		ID:        s.ID,
		Task:      s.Task,
		Status:    s.Status,
		Passing:   s.Passing,
		Attempts:  n,
		UpdatedAt: s.UpdatedAt,
	}
}

// History returns the attempts newest first, with their passing flags.
func (s *Session) History() []workflow.Attempt {
	if s.Context == nil {
		return []workflow.Attempt{}
	}
	out := make([]workflow.Attempt, len(s.Context.Attempts))
	for i, a := range s.Context.Attempts {
		out[len(out)-1-i] = a
	}
	return out
}

func statusFor(passing bool, attempts, maxAttempts int) Status {
	switch {
	case passing:
		return StatusSolved
	case attempts >= maxAttempts:
		return StatusExhausted
	default:
		return StatusAwaiting
	}
}
