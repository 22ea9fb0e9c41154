// Package batch drives many independent solver runs over a task set with
// bounded parallelism, chunked pacing, and progress reporting.
package batch

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/JaimeStill/arcsolve/internal/workflow"
)

// Result is the outcome of one task. Exactly one of Output or Err is set.
type Result struct {
	Task   string                   `json:"task"`
	Output *workflow.WorkflowOutput `json:"output,omitempty"`
	Err    error                    `json:"-"`
}

// Passing reports whether the task solved without error.
func (r Result) Passing() bool {
	return r.Err == nil && r.Output != nil && r.Output.Passing
}

// Attempts returns the number of attempts recorded for the task.
func (r Result) Attempts() int {
	if r.Output == nil {
		return 0
	}
	return len(r.Output.Attempts)
}

// Progress is reported after each chunk drains.
type Progress struct {
	Completed int
	Total     int
}

// Runner executes solver runs with at most cfg.Workers in flight. The
// admission budget is shared by every Run on the same Runner.
type Runner struct {
	rt       *workflow.Runtime
	cfg      Config
	sem      *semaphore.Weighted
	sleep    time.Duration
	logger   *slog.Logger
	progress func(Progress)
}

// New creates a Runner from a finalized Config. Sizes below one are raised
// to one so an unfinalized Config cannot stall admission or chunking.
func New(rt *workflow.Runtime, cfg Config, logger *slog.Logger) *Runner {
	cfg.BatchSize = max(cfg.BatchSize, 1)
	cfg.Workers = max(cfg.Workers, 1)
	cfg.Cycles = max(cfg.Cycles, 1)

	return &Runner{
		rt:     rt,
		cfg:    cfg,
		sem:    semaphore.NewWeighted(int64(cfg.Workers)),
		sleep:  cfg.SleepDuration(),
		logger: logger.With("system", "batch"),
	}
}

// WithProgress registers a callback invoked after each chunk.
func (r *Runner) WithProgress(fn func(Progress)) *Runner {
	r.progress = fn
	return r
}

// Run solves tasks in input-ordered chunks of cfg.BatchSize, pausing between
// chunks. Results are index-aligned with tasks. A task's failure is recorded
// in its Result and never affects siblings. On cancellation no further tasks
// are admitted, unadmitted tasks report ctx.Err(), and Run returns ctx.Err()
// with the partial results.
func (r *Runner) Run(ctx context.Context, tasks []workflow.Task) ([]Result, error) {
	results := make([]Result, len(tasks))
	for i, t := range tasks {
		results[i].Task = t.Name
	}

	total := len(tasks)

	for start := 0; start < total; start += r.cfg.BatchSize {
		end := min(start+r.cfg.BatchSize, total)

		if err := r.runChunk(ctx, tasks[start:end], results[start:end]); err != nil {
			failRemaining(results[end:], err)
			return results, err
		}

		r.logger.InfoContext(
			ctx, "chunk complete",
			"completed", end,
			"total", total,
			"solved", countPassing(results[:end]),
		)

		if r.progress != nil {
			r.progress(Progress{Completed: end, Total: total})
		}

		if end < total {
			if err := r.pause(ctx); err != nil {
				failRemaining(results[end:], err)
				return results, err
			}
		}
	}

	return results, nil
}

func (r *Runner) runChunk(ctx context.Context, tasks []workflow.Task, results []Result) error {
	var g errgroup.Group

	for i, task := range tasks {
		if err := r.sem.Acquire(ctx, 1); err != nil {
			failRemaining(results[i:], err)
			g.Wait()
			return err
		}

		g.Go(func() error {
			defer r.sem.Release(1)

			out, err := r.solve(ctx, task)
			if err != nil {
				r.logger.WarnContext(ctx, "task failed", "task", task.Name, "error", err)
				results[i].Err = err
				return nil
			}

			results[i].Output = out
			return nil
		})
	}

	g.Wait()
	return ctx.Err()
}

func (r *Runner) solve(ctx context.Context, task workflow.Task) (*workflow.WorkflowOutput, error) {
	if r.cfg.Cycles > 1 {
		return workflow.Solve(ctx, r.rt, task, r.cfg.Cycles)
	}

	m, err := workflow.New(r.rt, task)
	if err != nil {
		return nil, err
	}
	return m.Run(ctx)
}

func (r *Runner) pause(ctx context.Context) error {
	if r.sleep <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(r.sleep)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func failRemaining(results []Result, err error) {
	for i := range results {
		if results[i].Output == nil && results[i].Err == nil {
			results[i].Err = err
		}
	}
}

func countPassing(results []Result) int {
	n := 0
	for _, r := range results {
		if r.Passing() {
			n++
		}
	}
	return n
}
