package workflow

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/JaimeStill/arcsolve/internal/llm"
	"github.com/JaimeStill/arcsolve/pkg/grid"
)

// SuccessCritique is attached to an attempt whose prediction matches the
// ground truth.
const SuccessCritique = "This predicted output is correct."

// Prompt variable keys held in ExecutionContext.PromptVars.
const (
	VarExamples     = "examples"
	VarTestInput    = "test_input"
	VarPastAttempts = "past_attempts"
)

// Schemas requested from the LLM capability.
var (
	PredictionSchema = llm.Schema{
		Name: "prediction",
		Fields: []llm.Field{
			{Name: "rationale", Description: "brief explanation of the pattern applied, no more than 250 words"},
			{Name: "prediction", Description: "the predicted output grid, comma-separated integers per row with rows separated by newlines"},
		},
	}

	CritiqueSchema = llm.Schema{
		Name: "critique",
		Fields: []llm.Field{
			{Name: "critique", Description: "why the latest prediction may not fit the pattern, no more than 250 words"},
		},
	}
)

// Pair is one input/output example.
type Pair struct {
	Input  grid.Grid `json:"input"`
	Output grid.Grid `json:"output"`
}

// Task is an ARC puzzle. Test outputs are ground truth and never rendered
// into prompts.
type Task struct {
	Name  string `json:"name,omitempty"`
	Train []Pair `json:"train"`
	Test  []Pair `json:"test"`
}

// Validate checks that the task has training and test pairs with valid grids.
func (t *Task) Validate() error {
	if len(t.Train) == 0 {
		return fmt.Errorf("%w: no training pairs", ErrInvalidTask)
	}
	if len(t.Test) == 0 {
		return fmt.Errorf("%w: no test pairs", ErrInvalidTask)
	}

	check := func(kind string, pairs []Pair) error {
		for i, p := range pairs {
			if err := p.Input.Validate(); err != nil {
				return fmt.Errorf("%w: %s[%d].input: %w", ErrInvalidTask, kind, i, err)
			}
			if err := p.Output.Validate(); err != nil {
				return fmt.Errorf("%w: %s[%d].output: %w", ErrInvalidTask, kind, i, err)
			}
		}
		return nil
	}

	if err := check("train", t.Train); err != nil {
		return err
	}
	return check("test", t.Test)
}

// Prediction is the structured output of the prediction and correction calls.
type Prediction struct {
	Rationale  string `json:"rationale"`
	Prediction string `json:"prediction"`
}

// Critique is the structured output of the reflection call.
type Critique struct {
	Critique string `json:"critique"`
}

// Attempt is one prediction and its eventual critique and outcome.
// Prediction is never modified after the attempt is appended.
type Attempt struct {
	ID         uuid.UUID  `json:"id"`
	Prediction Prediction `json:"prediction"`
	Critique   *Critique  `json:"critique,omitempty"`
	Passing    bool       `json:"passing"`
}

// CritiqueText returns the critique or an empty string when absent.
func (a *Attempt) CritiqueText() string {
	if a.Critique == nil {
		return ""
	}
	return a.Critique.Critique
}

// WorkflowOutput is emitted when a cycle stops or suspends.
type WorkflowOutput struct {
	Passing  bool      `json:"passing"`
	Attempts []Attempt `json:"attempts"`
}
