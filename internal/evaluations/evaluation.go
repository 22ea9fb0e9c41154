// Package evaluations records batch solver runs in PostgreSQL so solve rates
// can be compared across models and settings.
package evaluations

import (
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/arcsolve/internal/batch"
)

// Evaluation is one recorded batch run. Results is only populated by Find.
type Evaluation struct {
	ID          uuid.UUID `json:"id"`
	Model       string    `json:"model"`
	BatchSize   int       `json:"batch_size"`
	Workers     int       `json:"workers"`
	Cycles      int       `json:"cycles"`
	Total       int       `json:"total"`
	Solved      int       `json:"solved"`
	Failed      int       `json:"failed"`
	Rate        float64   `json:"rate"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	Results     []Result  `json:"results,omitempty"`
}

// Result is the recorded outcome of one task in an evaluation.
type Result struct {
	Task     string `json:"task"`
	Passing  bool   `json:"passing"`
	Attempts int    `json:"attempts"`
	Error    string `json:"error,omitempty"`
}

// RecordCommand describes a completed batch run.
type RecordCommand struct {
	Model       string
	Config      batch.Config
	StartedAt   time.Time
	CompletedAt time.Time
	Results     []batch.Result
}

// Evaluation builds the record for cmd, including per-task results and the
// batch summary.
func (cmd RecordCommand) Evaluation() Evaluation {
	summary := batch.Summarize(cmd.Results)

	e := Evaluation{
		ID:          uuid.New(),
		Model:       cmd.Model,
		BatchSize:   cmd.Config.BatchSize,
		Workers:     cmd.Config.Workers,
		Cycles:      cmd.Config.Cycles,
		Total:       summary.Total,
		Solved:      summary.Solved,
		Failed:      summary.Failed,
		Rate:        summary.Rate,
		StartedAt:   cmd.StartedAt.UTC(),
		CompletedAt: cmd.CompletedAt.UTC(),
		Results:     make([]Result, len(cmd.Results)),
	}

	for i, r := range cmd.Results {
		e.Results[i] = Result{
			Task:     r.Task,
			Passing:  r.Passing(),
			Attempts: r.Attempts(),
		}
		if r.Err != nil {
			e.Results[i].Error = r.Err.Error()
		}
	}

	return e
}
