package workflow

import (
	"context"
	"fmt"
	"maps"

	"github.com/google/uuid"

	"github.com/JaimeStill/arcsolve/internal/prompts"
	"github.com/JaimeStill/arcsolve/pkg/grid"
)

// format sets the examples and test input once on a fresh run and refreshes
// past attempts on a resumed one.
func (m *Machine) format(ctx context.Context) (Stage, error) {
	vars := m.ec.PromptVars

	_, hasExamples := vars[VarExamples]
	_, hasInput := vars[VarTestInput]

	if !hasExamples || !hasInput {
		examples, err := RenderTrainingExamples(m.rt.Prompts, m.ec.Task)
		if err != nil {
			return "", fmt.Errorf("format: %w", err)
		}

		testInput, err := RenderTestInput(m.ec.Task)
		if err != nil {
			return "", fmt.Errorf("format: %w", err)
		}

		vars[VarExamples] = examples
		vars[VarTestInput] = testInput
	}

	if len(m.ec.Attempts) > 0 {
		if err := m.refreshPastAttempts(); err != nil {
			return "", fmt.Errorf("format: %w", err)
		}
	}

	m.rt.logger().InfoContext(
		ctx, "format stage complete",
		"task", m.ec.Task.Name,
		"attempts", len(m.ec.Attempts),
	)

	return StagePredict, nil
}

// predict asks for a first prediction, or a correction when attempts exist,
// and appends exactly one attempt.
func (m *Machine) predict(ctx context.Context) (Stage, error) {
	stage := prompts.StagePrediction
	if len(m.ec.Attempts) > 0 {
		stage = prompts.StageCorrection
		if err := m.refreshPastAttempts(); err != nil {
			return "", fmt.Errorf("predict: %w", err)
		}
	}

	tmpl, err := m.rt.Prompts.Template(stage)
	if err != nil {
		return "", fmt.Errorf("predict: %w", err)
	}

	var p Prediction
	if err := m.rt.LLM.StructuredComplete(ctx, PredictionSchema, tmpl, maps.Clone(m.ec.PromptVars), &p); err != nil {
		return "", fmt.Errorf("predict: %w", err)
	}

	m.ec.Attempts = append(m.ec.Attempts, Attempt{
		ID:         uuid.New(),
		Prediction: p,
	})
	m.passing = false

	m.rt.logger().InfoContext(
		ctx, "predict stage complete",
		"task", m.ec.Task.Name,
		"template", stage,
		"attempt", len(m.ec.Attempts),
	)

	return StageEvaluate, nil
}

// evaluate compares the latest prediction against the first test output.
// An unparseable prediction is a mismatch.
func (m *Machine) evaluate(ctx context.Context) (Stage, error) {
	latest := m.ec.Latest()
	if latest == nil {
		return "", fmt.Errorf("evaluate: no attempt to evaluate")
	}

	predicted, err := grid.Decode(latest.Prediction.Prediction)
	if err != nil {
		m.rt.logger().WarnContext(
			ctx, "prediction is not a valid grid",
			"task", m.ec.Task.Name,
			"attempt", len(m.ec.Attempts),
			"error", err,
		)
		m.passing = false
	} else {
		m.passing = grid.Equal(predicted, m.ec.Task.Test[0].Output)
	}

	m.rt.logger().InfoContext(
		ctx, "evaluate stage complete",
		"task", m.ec.Task.Name,
		"attempt", len(m.ec.Attempts),
		"passing", m.passing,
	)

	return StageReflect, nil
}

// reflect closes the attempt: a pass receives the success critique and stops,
// a failure is critiqued by the LLM and suspends.
func (m *Machine) reflect(ctx context.Context) (Stage, error) {
	latest := m.ec.Latest()
	if latest == nil {
		return "", fmt.Errorf("reflect: no attempt to critique")
	}

	if m.passing {
		latest.Critique = &Critique{Critique: SuccessCritique}
		latest.Passing = true

		m.rt.logger().InfoContext(
			ctx, "reflect stage complete",
			"task", m.ec.Task.Name,
			"attempt", len(m.ec.Attempts),
			"passing", true,
		)
		return StageStop, nil
	}

	if err := m.refreshPastAttempts(); err != nil {
		return "", fmt.Errorf("reflect: %w", err)
	}

	tmpl, err := m.rt.Prompts.Template(prompts.StageReflection)
	if err != nil {
		return "", fmt.Errorf("reflect: %w", err)
	}

	var c Critique
	if err := m.rt.LLM.StructuredComplete(ctx, CritiqueSchema, tmpl, maps.Clone(m.ec.PromptVars), &c); err != nil {
		return "", fmt.Errorf("reflect: %w", err)
	}

	latest.Critique = &c
	latest.Passing = false

	m.rt.logger().InfoContext(
		ctx, "reflect stage complete",
		"task", m.ec.Task.Name,
		"attempt", len(m.ec.Attempts),
		"passing", false,
	)

	return StageContinue, nil
}

func (m *Machine) refreshPastAttempts() error {
	past, err := RenderPastAttempts(m.rt.Prompts, m.ec.Attempts)
	if err != nil {
		return err
	}
	m.ec.PromptVars[VarPastAttempts] = past
	return nil
}
