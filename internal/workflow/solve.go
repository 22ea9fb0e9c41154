package workflow

import "context"

// Solve drives cycles headlessly, resuming with the model's own critique,
// until an attempt passes or maxAttempts cycles have run. Reaching the cap
// is reported through the output, not as an error.
func Solve(ctx context.Context, rt *Runtime, task Task, maxAttempts int) (*WorkflowOutput, error) {
	maxAttempts = max(maxAttempts, 1)

	m, err := New(rt, task)
	if err != nil {
		return nil, err
	}

	for {
		out, err := m.Run(ctx)
		if err != nil {
			return nil, err
		}

		if out.Passing || len(out.Attempts) >= maxAttempts {
			return out, nil
		}

		if err := m.Continue(""); err != nil {
			return nil, err
		}
	}
}
