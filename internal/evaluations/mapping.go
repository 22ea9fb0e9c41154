package evaluations

import (
	"database/sql"
	"net/url"

	"github.com/JaimeStill/arcsolve/pkg/query"
	"github.com/JaimeStill/arcsolve/pkg/repository"
)

var projection = query.
	NewProjection("evaluations", "e").
	Project("id", "id").
	Project("model", "model").
	Project("batch_size", "batch_size").
	Project("workers", "workers").
	Project("cycles", "cycles").
	Project("total", "total").
	Project("solved", "solved").
	Project("failed", "failed").
	Project("rate", "rate").
	Project("started_at", "started_at").
	Project("completed_at", "completed_at")

var defaultSort = query.SortField{Field: "started_at", Descending: true}

var repoErrors = repository.Errors{
	NotFound:  ErrNotFound,
	Duplicate: ErrDuplicate,
}

// Filters narrows an evaluation listing. Empty fields are ignored.
type Filters struct {
	Model string `json:"model,omitempty"`
}

// Apply adds filter conditions to b.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.WhereEquals("model", f.Model)
}

// FiltersFromQuery reads filters from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	return Filters{Model: values.Get("model")}
}

func scanEvaluation(s repository.Scanner) (Evaluation, error) {
	var e Evaluation
	err := s.Scan(
		&e.ID,
		&e.Model,
		&e.BatchSize,
		&e.Workers,
		&e.Cycles,
		&e.Total,
		&e.Solved,
		&e.Failed,
		&e.Rate,
		&e.StartedAt,
		&e.CompletedAt,
	)
	return e, err
}

func scanResult(s repository.Scanner) (Result, error) {
	var (
		r   Result
		msg sql.NullString
	)
	err := s.Scan(&r.Task, &r.Passing, &r.Attempts, &msg)
	r.Error = msg.String
	return r, err
}

func resultRows(e Evaluation) [][]any {
	rows := make([][]any, len(e.Results))
	for i, r := range e.Results {
		msg := sql.NullString{String: r.Error, Valid: r.Error != ""}
		rows[i] = []any{e.ID, i, r.Task, r.Passing, r.Attempts, msg}
	}
	return rows
}
