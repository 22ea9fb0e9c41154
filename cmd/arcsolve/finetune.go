package main

import (
	"context"
	"errors"

	"github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"

	"github.com/JaimeStill/arcsolve/internal/finetune"
)

var (
	errNoPriorJob  = errors.New("missing finetuning_jobs.jsonl file; have you submitted a prior job?")
	errNoJobLog    = errors.New("no finetuning_jobs.jsonl file exists; you likely haven't submitted a job yet")
	errJobRequired = errors.New("without --latest, --start-job-id and --llm are required")
)

// jobLog is the part of finetune.Jobs the job commands read.
type jobLog interface {
	Latest(ctx context.Context) (finetune.JobRecord, error)
}

func newFinetuneCmd(a *app) *cobra.Command {
	var (
		opts           finetune.SubmitOptions
		continueLatest bool
	)

	cmd := &cobra.Command{
		Use:   "finetune",
		Short: "Submit a fine-tuning job built from saved examples",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := a.start(); err != nil {
				return err
			}
			jobs := a.infra.Jobs()

			resolved, err := resolveSubmit(ctx, jobs, opts, continueLatest)
			if err != nil {
				return err
			}

			job, err := jobs.Submit(ctx, resolved)
			if err != nil {
				return err
			}
			printJob(a, job)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.Model, "llm", "m", finetune.DefaultModel, "model to fine-tune")
	f.StringVarP(&opts.StartJobID, "start-job-id", "j", "", "previous job whose fine-tuned model training continues from")
	f.BoolVar(&continueLatest, "continue-latest", false, "continue from the most recently submitted job")

	return cmd
}

func newJobStatusCmd(a *app) *cobra.Command {
	var (
		jobID  string
		model  string
		latest bool
	)

	cmd := &cobra.Command{
		Use:   "job-status",
		Short: "Check the status of a fine-tuning job",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := a.start(); err != nil {
				return err
			}
			jobs := a.infra.Jobs()

			id, forModel, err := resolveStatus(ctx, jobs, jobID, model, latest)
			if err != nil {
				return err
			}
			a.printf("Checking job %s (%s)\n", id, forModel)

			job, err := jobs.Status(ctx, id)
			if err != nil {
				return err
			}
			printJob(a, job)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&jobID, "start-job-id", "j", "", "job to check")
	f.StringVarP(&model, "llm", "m", finetune.DefaultModel, "model the job was submitted for")
	f.BoolVar(&latest, "latest", false, "check the most recently submitted job")

	return cmd
}

// resolveSubmit replaces the model and start job with the latest logged job
// when continueLatest is set.
func resolveSubmit(ctx context.Context, log jobLog, opts finetune.SubmitOptions, continueLatest bool) (finetune.SubmitOptions, error) {
	if !continueLatest {
		return opts, nil
	}

	rec, err := log.Latest(ctx)
	if errors.Is(err, finetune.ErrNoJobs) {
		return opts, errNoPriorJob
	}
	if err != nil {
		return opts, err
	}

	return finetune.SubmitOptions{Model: rec.Model, StartJobID: rec.StartJobID}, nil
}

// resolveStatus picks the job to check: the latest logged job, or the
// explicit job and model.
func resolveStatus(ctx context.Context, log jobLog, jobID, model string, latest bool) (string, string, error) {
	if latest {
		rec, err := log.Latest(ctx)
		if errors.Is(err, finetune.ErrNoJobs) {
			return "", "", errNoJobLog
		}
		if err != nil {
			return "", "", err
		}
		return rec.StartJobID, rec.Model, nil
	}

	if jobID == "" || model == "" {
		return "", "", errJobRequired
	}
	return jobID, model, nil
}

func printJob(a *app, job openai.FineTuningJob) {
	a.printf("Job: %s\nModel: %s\nStatus: %s\n", job.ID, job.Model, job.Status)
	if job.FineTunedModel != "" {
		a.printf("Fine-tuned model: %s\n", job.FineTunedModel)
	}
	if job.TrainingFile != "" {
		a.printf("Training file: %s\n", job.TrainingFile)
	}
}
