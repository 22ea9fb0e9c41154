package workflow

import (
	"maps"
	"slices"

	"github.com/JaimeStill/arcsolve/pkg/grid"
)

// ExecutionContext is the suspendable state of one solver run. It is
// JSON-serializable so hosts can persist it between a suspend and a resume.
type ExecutionContext struct {
	Task       Task              `json:"task"`
	Attempts   []Attempt         `json:"attempts"`
	PromptVars map[string]string `json:"prompt_vars"`
}

// Clone returns a deep copy.
func (ec *ExecutionContext) Clone() *ExecutionContext {
	if ec == nil {
		return nil
	}

	c := &ExecutionContext{
		Task:       cloneTask(ec.Task),
		Attempts:   make([]Attempt, len(ec.Attempts)),
		PromptVars: maps.Clone(ec.PromptVars),
	}

	for i, a := range ec.Attempts {
		if a.Critique != nil {
			cr := *a.Critique
			a.Critique = &cr
		}
		c.Attempts[i] = a
	}

	return c
}

// Latest returns the most recent attempt, or nil when none exist.
func (ec *ExecutionContext) Latest() *Attempt {
	if len(ec.Attempts) == 0 {
		return nil
	}
	return &ec.Attempts[len(ec.Attempts)-1]
}

// Output reports the latest passing flag with a copy of the attempts.
func (ec *ExecutionContext) Output() *WorkflowOutput {
	out := &WorkflowOutput{Attempts: ec.Clone().Attempts}
	if a := ec.Latest(); a != nil {
		out.Passing = a.Passing
	}
	return out
}

func (ec *ExecutionContext) resumable() bool {
	if len(ec.Attempts) == 0 {
		return false
	}
	_, hasExamples := ec.PromptVars[VarExamples]
	_, hasInput := ec.PromptVars[VarTestInput]
	return hasExamples && hasInput
}

func cloneTask(t Task) Task {
	return Task{
		Name:  t.Name,
		Train: clonePairs(t.Train),
		Test:  clonePairs(t.Test),
	}
}

func clonePairs(pairs []Pair) []Pair {
	if pairs == nil {
		return nil
	}
	out := make([]Pair, len(pairs))
	for i, p := range pairs {
		out[i] = Pair{Input: cloneGrid(p.Input), Output: cloneGrid(p.Output)}
	}
	return out
}

func cloneGrid(g grid.Grid) grid.Grid {
	if g == nil {
		return nil
	}
	out := make(grid.Grid, len(g))
	for i, row := range g {
		out[i] = slices.Clone(row)
	}
	return out
}
