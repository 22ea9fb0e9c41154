package finetune

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sashabaranov/go-openai"

	"github.com/JaimeStill/arcsolve/pkg/storage"
)

// DefaultModel is the base model fine-tuned when none is given.
const DefaultModel = "gpt-4o-2024-08-06"

// API is the subset of the OpenAI client used for fine-tuning.
// *openai.Client satisfies it.
type API interface {
	CreateFileBytes(ctx context.Context, request openai.FileBytesRequest) (openai.File, error)
	CreateFineTuningJob(ctx context.Context, request openai.FineTuningJobRequest) (openai.FineTuningJob, error)
	RetrieveFineTuningJob(ctx context.Context, fineTuningJobID string) (openai.FineTuningJob, error)
}

// JobRecord is one line of the job log.
type JobRecord struct {
	Model      string `json:"model"`
	StartJobID string `json:"start_job_id"`
}

// SubmitOptions selects the base model and, optionally, a previous job to
// continue from.
type SubmitOptions struct {
	Model      string `json:"model,omitempty"`
	StartJobID string `json:"start_job_id,omitempty"`
}

// Jobs submits fine-tuning jobs built from the store's training file and
// keeps a log of submitted jobs.
type Jobs struct {
	api    API
	store  *Store
	logger *slog.Logger
}

// NewJobs creates a Jobs over the OpenAI API and example store.
func NewJobs(api API, store *Store, logger *slog.Logger) *Jobs {
	return &Jobs{
		api:    api,
		store:  store,
		logger: logger.With("system", "finetune-jobs"),
	}
}

// Submit prepares the training file, uploads it, and creates a job. When a
// start job is given and has produced a fine-tuned model, training continues
// from that model.
func (j *Jobs) Submit(ctx context.Context, opts SubmitOptions) (openai.FineTuningJob, error) {
	model := opts.Model
	if model == "" {
		model = DefaultModel
	}

	if opts.StartJobID != "" {
		prev, err := j.api.RetrieveFineTuningJob(ctx, opts.StartJobID)
		if err != nil {
			return openai.FineTuningJob{}, fmt.Errorf("retrieve start job %s: %w", opts.StartJobID, err)
		}
		if prev.FineTunedModel != "" {
			model = prev.FineTunedModel
		}
	}

	if _, err := j.store.PrepareJSONL(ctx); err != nil {
		return openai.FineTuningJob{}, err
	}
	data, err := j.store.TrainingFile(ctx)
	if err != nil {
		return openai.FineTuningJob{}, err
	}

	file, err := j.api.CreateFileBytes(ctx, openai.FileBytesRequest{
		Name:    "finetuning.jsonl",
		Bytes:   data,
		Purpose: openai.PurposeFineTune,
	})
	if err != nil {
		return openai.FineTuningJob{}, fmt.Errorf("upload training file: %w", err)
	}

	job, err := j.api.CreateFineTuningJob(ctx, openai.FineTuningJobRequest{
		TrainingFile: file.ID,
		Model:        model,
	})
	if err != nil {
		return openai.FineTuningJob{}, fmt.Errorf("create fine-tuning job: %w", err)
	}

	if err := j.appendRecord(ctx, JobRecord{Model: model, StartJobID: job.ID}); err != nil {
		return job, err
	}

	j.logger.InfoContext(ctx, "fine-tuning job submitted", "job", job.ID, "model", model, "file", file.ID)
	return job, nil
}

// Status retrieves the current state of a job.
func (j *Jobs) Status(ctx context.Context, jobID string) (openai.FineTuningJob, error) {
	if jobID == "" {
		return openai.FineTuningJob{}, ErrMissingInput
	}
	job, err := j.api.RetrieveFineTuningJob(ctx, jobID)
	if err != nil {
		return openai.FineTuningJob{}, fmt.Errorf("retrieve job %s: %w", jobID, err)
	}
	return job, nil
}

// Latest returns the most recently logged job.
func (j *Jobs) Latest(ctx context.Context) (JobRecord, error) {
	records, err := j.records(ctx)
	if err != nil {
		return JobRecord{}, err
	}
	if len(records) == 0 {
		return JobRecord{}, ErrNoJobs
	}
	return records[len(records)-1], nil
}

func (j *Jobs) records(ctx context.Context) ([]JobRecord, error) {
	data, err := j.store.read(ctx, JobsKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var records []JobRecord
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var rec JobRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("decode job log: %w", err)
		}
		records = append(records, rec)
	}
	return records, sc.Err()
}

func (j *Jobs) appendRecord(ctx context.Context, rec JobRecord) error {
	records, err := j.records(ctx)
	if err != nil {
		return err
	}
	records = append(records, rec)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("encode job log: %w", err)
		}
	}

	if err := j.storage().Upload(ctx, JobsKey, &buf, "application/jsonl"); err != nil {
		return fmt.Errorf("write job log: %w", err)
	}
	return nil
}

func (j *Jobs) storage() storage.System {
	return j.store.storage
}
