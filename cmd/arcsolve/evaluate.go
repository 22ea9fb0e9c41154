package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/arcsolve/internal/batch"
	"github.com/JaimeStill/arcsolve/internal/config"
	"github.com/JaimeStill/arcsolve/internal/evaluations"
	"github.com/JaimeStill/arcsolve/internal/tasks"
)

type evaluateOptions struct {
	model       string
	batchSize   int
	workers     int
	verbose     bool
	sleep       int
	limit       int
	maxAttempts int
	set         string
	record      bool
}

func newEvaluateCmd(a *app) *cobra.Command {
	var opts evaluateOptions

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate ARC task predictions over a task set",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.evaluate(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.model, "llm", "m", "gpt-4o", "model used by the solver")
	f.IntVarP(&opts.batchSize, "batch-size", "b", 5, "tasks per chunk")
	f.IntVarP(&opts.workers, "num-workers", "w", 3, "maximum concurrent solver runs")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "print each task's outcome")
	f.IntVarP(&opts.sleep, "sleep", "s", 10, "seconds to pause between chunks")
	f.IntVar(&opts.limit, "limit", 10, "number of tasks to run; 0 runs the whole set")
	f.IntVar(&opts.maxAttempts, "max-attempts", 1, "solve cycles per task")
	f.StringVar(&opts.set, "set", config.TaskSetEvaluation, "task set to evaluate")
	f.BoolVar(&opts.record, "record", false, "record the run in the database")

	return cmd
}

// apply overlays flags the user set onto the loaded configuration.
func (o evaluateOptions) apply(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()
	for _, check := range []struct {
		flag  string
		value int
		min   int
	}{
		{"batch-size", o.batchSize, 1},
		{"num-workers", o.workers, 1},
		{"max-attempts", o.maxAttempts, 1},
		{"sleep", o.sleep, 0},
	} {
		if f.Changed(check.flag) && check.value < check.min {
			return fmt.Errorf("--%s must be at least %d, got %d", check.flag, check.min, check.value)
		}
	}

	if f.Changed("llm") || cfg.LLM.Model == "" {
		cfg.LLM.Model = o.model
	}
	if f.Changed("batch-size") {
		cfg.Batch.BatchSize = o.batchSize
	}
	if f.Changed("num-workers") {
		cfg.Batch.Workers = o.workers
	}
	if f.Changed("sleep") {
		cfg.Batch.Sleep = strconv.Itoa(o.sleep) + "s"
	}
	if f.Changed("max-attempts") {
		cfg.Batch.Cycles = o.maxAttempts
	}
	return cfg.Batch.Finalize(nil)
}

func (a *app) evaluate(cmd *cobra.Command, opts evaluateOptions) error {
	ctx := cmd.Context()

	if err := opts.apply(cmd, a.cfg); err != nil {
		return err
	}
	if err := a.start(); err != nil {
		return err
	}
	if opts.record && a.infra.Database == nil {
		return fmt.Errorf("--record requires a configured database")
	}

	fsys, err := a.cfg.Tasks.FS(opts.set)
	if err != nil {
		return err
	}
	names, err := tasks.List(fsys)
	if err != nil {
		return err
	}
	if opts.limit > 0 && len(names) > opts.limit {
		names = names[:opts.limit]
	}
	if len(names) == 0 {
		return fmt.Errorf("no tasks found in %s set", opts.set)
	}

	loaded, err := tasks.LoadAll(fsys, names)
	if err != nil {
		return err
	}

	runner := batch.New(a.infra.Runtime(), a.cfg.Batch, a.infra.Logger).
		WithProgress(func(p batch.Progress) {
			a.printf("progress: %d/%d\n", p.Completed, p.Total)
		})

	started := time.Now()
	results, runErr := runner.Run(ctx, loaded)
	completed := time.Now()

	if opts.verbose {
		printResults(a.out, results)
	}
	printSummary(a.out, batch.Summarize(results))

	if runErr != nil {
		return runErr
	}

	if opts.record {
		sys := evaluations.New(a.infra.Database.Connection(), a.infra.Logger, a.cfg.API.Pagination)
		e, err := sys.Record(ctx, evaluations.RecordCommand{
			Model:       a.cfg.LLM.Model,
			Config:      a.cfg.Batch,
			StartedAt:   started,
			CompletedAt: completed,
			Results:     results,
		})
		if err != nil {
			return err
		}
		a.printf("Recorded evaluation %s\n", e.ID)
	}

	return nil
}

func printResults(w io.Writer, results []batch.Result) {
	for _, r := range results {
		switch {
		case r.Err != nil:
			fmt.Fprintf(w, "%s: error: %v\n", r.Task, r.Err)
		case r.Passing():
			fmt.Fprintf(w, "%s: solved in %d attempt(s)\n", r.Task, r.Attempts())
		default:
			fmt.Fprintf(w, "%s: unsolved after %d attempt(s)\n", r.Task, r.Attempts())
		}
	}
}

func printSummary(w io.Writer, s batch.Summary) {
	fmt.Fprintf(w, "Solved: %d\nTotal Tasks:%d\nAverage Solve Rate: %v\n", s.Solved, s.Total, s.Rate)
}
