package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/arcsolve/internal/config"
	"github.com/JaimeStill/arcsolve/internal/finetune"
	"github.com/JaimeStill/arcsolve/internal/humanloop"
	"github.com/JaimeStill/arcsolve/internal/tasks"
	"github.com/JaimeStill/arcsolve/internal/workflow"
)

type solveOptions struct {
	set         string
	maxAttempts int
	timeout     time.Duration
	save        bool
	verbose     bool
}

func newSolveCmd(a *app) *cobra.Command {
	var opts solveOptions

	cmd := &cobra.Command{
		Use:   "solve TASK",
		Short: "Solve one task interactively, critiquing each prediction",
		Long: `Runs solver cycles on TASK. After each unsuccessful cycle the model's
critique is shown; type a replacement critique or press enter to keep it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.solve(cmd.Context(), args[0], opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.set, "set", config.TaskSetTraining, "task set containing TASK")
	f.IntVar(&opts.maxAttempts, "max-attempts", 0, "attempt cap; defaults to solver.max_attempts")
	f.DurationVar(&opts.timeout, "timeout", 0, "how long to wait for a critique before keeping the model's; 0 waits indefinitely")
	f.BoolVar(&opts.save, "save", false, "save the transcript as a fine-tuning example")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "print each completed stage")

	return cmd
}

func (a *app) solve(ctx context.Context, name string, opts solveOptions) error {
	if err := a.start(); err != nil {
		return err
	}

	maxAttempts := opts.maxAttempts
	if maxAttempts <= 0 {
		maxAttempts = a.cfg.Solver.MaxAttempts
	}

	fsys, err := a.cfg.Tasks.FS(opts.set)
	if err != nil {
		return err
	}
	task, err := tasks.Load(fsys, name)
	if err != nil {
		return err
	}

	rt := a.infra.Runtime()
	if opts.verbose {
		rt = rt.WithObserver(workflow.ObserverFunc(func(_ context.Context, e workflow.StageEvent) {
			a.printf("  [%s] attempt %d\n", e.Stage, e.Attempt)
		}))
	}

	m, err := workflow.New(rt, task)
	if err != nil {
		return err
	}

	reader := humanloop.NewLineReader(a.in, a.out)

	for {
		if _, err := m.Run(ctx); err != nil {
			return err
		}
		if err := m.Flush(ctx); err != nil {
			return err
		}

		attempts := m.Context().Attempts
		printAttempt(a, len(attempts), m.Context().Latest())

		if m.Passing() {
			a.printf("Solved in %d attempt(s).\n", len(attempts))
			break
		}
		if len(attempts) >= maxAttempts {
			a.printf("Stopped after %d attempt(s) without a solution.\n", len(attempts))
			break
		}

		critique := humanloop.Ask(ctx, reader, "Critique (enter keeps the model's): ", opts.timeout, "")
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := m.Continue(critique); err != nil {
			return err
		}
	}

	if !opts.save {
		return nil
	}

	ex, err := finetune.FromContext(task.Name, m.Context(), a.infra.Prompts)
	if err != nil {
		return err
	}
	if err := a.infra.Examples().Save(ctx, ex); err != nil {
		return err
	}
	a.printf("Saved fine-tuning example for %s.\n", task.Name)
	return nil
}

func printAttempt(a *app, n int, at *workflow.Attempt) {
	if at == nil {
		return
	}
	a.printf("\nAttempt %d\nRationale: %s\nPrediction:\n%s\n", n, at.Prediction.Rationale, at.Prediction.Prediction)
	if at.Critique != nil {
		a.printf("Critique: %s\n", at.Critique.Critique)
	}
}
