package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/JaimeStill/arcsolve/internal/batch"
	"github.com/JaimeStill/arcsolve/internal/config"
	"github.com/JaimeStill/arcsolve/internal/finetune"
)

type fakeJobLog struct {
	rec finetune.JobRecord
	err error
}

func (f fakeJobLog) Latest(context.Context) (finetune.JobRecord, error) {
	return f.rec, f.err
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	printSummary(&buf, batch.Summary{Solved: 3, Total: 10, Rate: 0.3})

	want := "Solved: 3\nTotal Tasks:10\nAverage Solve Rate: 0.3\n"
	if buf.String() != want {
		t.Errorf("summary = %q, want %q", buf.String(), want)
	}
}

func TestResolveSubmit(t *testing.T) {
	ctx := context.Background()
	opts := finetune.SubmitOptions{Model: finetune.DefaultModel}
	logged := fakeJobLog{rec: finetune.JobRecord{Model: "ft:gpt-4o:org::x", StartJobID: "ftjob-1"}}

	t.Run("explicit options pass through", func(t *testing.T) {
		got, err := resolveSubmit(ctx, logged, opts, false)
		if err != nil || got != opts {
			t.Errorf("got %+v, %v", got, err)
		}
	})

	t.Run("continue latest", func(t *testing.T) {
		got, err := resolveSubmit(ctx, logged, opts, true)
		if err != nil {
			t.Fatalf("error: %v", err)
		}
		if got.Model != "ft:gpt-4o:org::x" || got.StartJobID != "ftjob-1" {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("continue latest without log", func(t *testing.T) {
		_, err := resolveSubmit(ctx, fakeJobLog{err: finetune.ErrNoJobs}, opts, true)
		if !errors.Is(err, errNoPriorJob) {
			t.Errorf("error = %v, want errNoPriorJob", err)
		}
	})
}

func TestResolveStatus(t *testing.T) {
	ctx := context.Background()
	logged := fakeJobLog{rec: finetune.JobRecord{Model: "gpt-4o-2024-08-06", StartJobID: "ftjob-2"}}

	tests := []struct {
		name   string
		log    jobLog
		jobID  string
		model  string
		latest bool
		wantID string
		err    error
	}{
		{"latest", logged, "", "", true, "ftjob-2", nil},
		{"latest without log", fakeJobLog{err: finetune.ErrNoJobs}, "", "", true, "", errNoJobLog},
		{"explicit", logged, "ftjob-9", "gpt-4o", false, "ftjob-9", nil},
		{"missing job id", logged, "", "gpt-4o", false, "", errJobRequired},
		{"missing model", logged, "ftjob-9", "", false, "", errJobRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, _, err := resolveStatus(ctx, tt.log, tt.jobID, tt.model, tt.latest)
			if !errors.Is(err, tt.err) {
				t.Fatalf("error = %v, want %v", err, tt.err)
			}
			if id != tt.wantID {
				t.Errorf("id = %s, want %s", id, tt.wantID)
			}
		})
	}
}

func TestEvaluateFlags(t *testing.T) {
	a := &app{}
	cmd := newEvaluateCmd(a)
	if err := cmd.ParseFlags([]string{"-m", "gpt-4o-mini", "-b", "2", "-w", "4", "-s", "0", "--max-attempts", "3"}); err != nil {
		t.Fatalf("ParseFlags error: %v", err)
	}

	var opts evaluateOptions
	opts.model, _ = cmd.Flags().GetString("llm")
	opts.batchSize, _ = cmd.Flags().GetInt("batch-size")
	opts.workers, _ = cmd.Flags().GetInt("num-workers")
	opts.sleep, _ = cmd.Flags().GetInt("sleep")
	opts.maxAttempts, _ = cmd.Flags().GetInt("max-attempts")

	cfg := &config.Config{Batch: batch.Config{BatchSize: 5, Workers: 3, Sleep: "10s", Cycles: 1}}
	if err := opts.apply(cmd, cfg); err != nil {
		t.Fatalf("apply error: %v", err)
	}

	if cfg.LLM.Model != "gpt-4o-mini" {
		t.Errorf("model = %s", cfg.LLM.Model)
	}
	if cfg.Batch.BatchSize != 2 || cfg.Batch.Workers != 4 || cfg.Batch.Sleep != "0s" || cfg.Batch.Cycles != 3 {
		t.Errorf("batch = %+v", cfg.Batch)
	}
}

func TestEvaluateFlagsRejectNonPositive(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"zero batch size", []string{"-b", "0"}},
		{"negative workers", []string{"-w", "-1"}},
		{"zero attempts", []string{"--max-attempts", "0"}},
		{"negative sleep", []string{"-s", "-5"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newEvaluateCmd(&app{})
			if err := cmd.ParseFlags(tt.args); err != nil {
				t.Fatalf("ParseFlags error: %v", err)
			}

			var opts evaluateOptions
			opts.batchSize, _ = cmd.Flags().GetInt("batch-size")
			opts.workers, _ = cmd.Flags().GetInt("num-workers")
			opts.sleep, _ = cmd.Flags().GetInt("sleep")
			opts.maxAttempts, _ = cmd.Flags().GetInt("max-attempts")

			cfg := &config.Config{Batch: batch.Config{BatchSize: 5, Workers: 3, Sleep: "10s", Cycles: 1}}
			if err := opts.apply(cmd, cfg); err == nil {
				t.Errorf("apply(%v) = nil, want error", tt.args)
			}
		})
	}
}
