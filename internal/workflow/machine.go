package workflow

import (
	"context"
	"fmt"
)

// Stage is a state of the solver machine.
type Stage string

const (
	StageFormat   Stage = "format"
	StagePredict  Stage = "predict"
	StageEvaluate Stage = "evaluate"
	StageReflect  Stage = "reflect"

	// StageContinue suspends the machine awaiting an external critique.
	StageContinue Stage = "continue"
	// StageStop is reached once an attempt passes.
	StageStop Stage = "stop"
)

// Terminal reports whether the current cycle has ended.
func (s Stage) Terminal() bool {
	return s == StageContinue || s == StageStop
}

// Machine is a resumable solver run. It is not safe for concurrent use;
// hosts serialize access to a single machine.
type Machine struct {
	rt      *Runtime
	ec      *ExecutionContext
	stage   Stage
	passing bool
	events  *notifier
}

// New starts a fresh run for task.
func New(rt *Runtime, task Task) (*Machine, error) {
	if err := task.Validate(); err != nil {
		return nil, err
	}

	return &Machine{
		rt: rt,
		ec: &ExecutionContext{
			Task:       cloneTask(task),
			Attempts:   []Attempt{},
			PromptVars: map[string]string{},
		},
		stage:  StageFormat,
		events: newNotifier(rt),
	}, nil
}

// Resume continues a previously suspended run. A non-empty critique replaces
// the latest attempt's critique before any prompt reads past attempts; an
// empty critique keeps the one already recorded.
func Resume(rt *Runtime, task Task, ec *ExecutionContext, critique string) (*Machine, error) {
	if ec == nil || !ec.resumable() {
		return nil, ErrResumeWithoutContext
	}
	if err := task.Validate(); err != nil {
		return nil, err
	}

	c := ec.Clone()
	c.Task = cloneTask(task)

	m := &Machine{rt: rt, ec: c, stage: StageFormat, events: newNotifier(rt)}
	m.overwriteCritique(critique)

	return m, nil
}

// Continue re-enters a suspended machine for another cycle, applying
// critique the same way Resume does.
func (m *Machine) Continue(critique string) error {
	if m.stage != StageContinue {
		return fmt.Errorf("%w: machine is at %s", ErrCycleComplete, m.stage)
	}

	m.overwriteCritique(critique)
	m.stage = StageFormat
	m.passing = false

	return nil
}

// Step executes the current stage and returns the next one. On error the
// stage does not advance, so the same step may be retried.
func (m *Machine) Step(ctx context.Context) (Stage, error) {
	if err := ctx.Err(); err != nil {
		return m.stage, err
	}

	var (
		next Stage
		err  error
	)

	switch m.stage {
	case StageFormat:
		next, err = m.format(ctx)
	case StagePredict:
		next, err = m.predict(ctx)
	case StageEvaluate:
		next, err = m.evaluate(ctx)
	case StageReflect:
		next, err = m.reflect(ctx)
	default:
		return m.stage, ErrCycleComplete
	}

	if err != nil {
		return m.stage, err
	}

	completed := m.stage
	m.stage = next

	m.events.notify(ctx, StageEvent{
		Task:    m.ec.Task.Name,
		Stage:   completed,
		Attempt: len(m.ec.Attempts),
		Passing: m.passing,
	})

	return next, nil
}

// Run steps until the cycle stops or suspends.
func (m *Machine) Run(ctx context.Context) (*WorkflowOutput, error) {
	for !m.stage.Terminal() {
		if _, err := m.Step(ctx); err != nil {
			return nil, err
		}
	}
	return m.Output(), nil
}

// Flush waits until the observer has received every event sent so far, or
// until ctx is done.
func (m *Machine) Flush(ctx context.Context) error {
	return m.events.flush(ctx)
}

// Output reports the current passing result and a copy of the attempts.
func (m *Machine) Output() *WorkflowOutput {
	return &WorkflowOutput{
		Passing:  m.passing,
		Attempts: m.ec.Clone().Attempts,
	}
}

// Context returns a deep copy of the execution context for persistence.
func (m *Machine) Context() *ExecutionContext {
	return m.ec.Clone()
}

func (m *Machine) Stage() Stage {
	return m.stage
}

func (m *Machine) Passing() bool {
	return m.passing
}

func (m *Machine) overwriteCritique(critique string) {
	if critique == "" {
		return
	}
	if latest := m.ec.Latest(); latest != nil {
		latest.Critique = &Critique{Critique: critique}
	}
}
