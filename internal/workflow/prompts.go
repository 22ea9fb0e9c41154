package workflow

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/JaimeStill/arcsolve/internal/prompts"
	"github.com/JaimeStill/arcsolve/pkg/grid"
)

// RenderTrainingExamples renders one example block per training pair.
func RenderTrainingExamples(set prompts.Set, task Task) (string, error) {
	tmpl, err := set.Template(prompts.StageExample)
	if err != nil {
		return "", err
	}

	blocks := make([]string, 0, len(task.Train))
	for _, p := range task.Train {
		block, err := tmpl.Render(map[string]string{
			"input":  grid.Encode(p.Input),
			"output": grid.Encode(p.Output),
		})
		if err != nil {
			return "", err
		}
		blocks = append(blocks, block)
	}

	return strings.Join(blocks, "\n"), nil
}

// RenderTestInput encodes the first test pair's input.
func RenderTestInput(task Task) (string, error) {
	if len(task.Test) == 0 {
		return "", fmt.Errorf("%w: no test pairs", ErrInvalidTask)
	}
	return grid.Encode(task.Test[0].Input), nil
}

// RenderPastAttempts renders a 1-indexed block per attempt. Absent critiques
// render as empty strings.
func RenderPastAttempts(set prompts.Set, attempts []Attempt) (string, error) {
	tmpl, err := set.Template(prompts.StagePastAttempt)
	if err != nil {
		return "", err
	}

	blocks := make([]string, 0, len(attempts))
	for i, a := range attempts {
		block, err := tmpl.Render(map[string]string{
			"number":           strconv.Itoa(i + 1),
			"predicted_output": a.Prediction.Prediction,
			"critique":         a.CritiqueText(),
		})
		if err != nil {
			return "", err
		}
		blocks = append(blocks, block)
	}

	return strings.Join(blocks, "\n"), nil
}
