package evaluations

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JaimeStill/arcsolve/pkg/pagination"
	"github.com/JaimeStill/arcsolve/pkg/query"
	"github.com/JaimeStill/arcsolve/pkg/repository"
)

const (
	insertEvaluation = `
		INSERT INTO evaluations(id, model, batch_size, workers, cycles, total, solved, failed, rate, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	insertResult = `
		INSERT INTO evaluation_results(evaluation_id, position, task, passing, attempts, error)
		VALUES ($1, $2, $3, $4, $5, $6)`

	selectResults = `
		SELECT task, passing, attempts, error
		FROM evaluation_results
		WHERE evaluation_id = $1
		ORDER BY position`
)

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates an evaluation repository implementing System.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "evaluations"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

// Record stores the run and its per-task results in one transaction.
func (r *repo) Record(ctx context.Context, cmd RecordCommand) (*Evaluation, error) {
	if len(cmd.Results) == 0 {
		return nil, ErrEmpty
	}

	e := cmd.Evaluation()

	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		if _, err := tx.ExecContext(
			ctx, insertEvaluation,
			e.ID, e.Model, e.BatchSize, e.Workers, e.Cycles,
			e.Total, e.Solved, e.Failed, e.Rate, e.StartedAt, e.CompletedAt,
		); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, repository.ExecEach(ctx, tx, insertResult, resultRows(e))
	})
	if err != nil {
		return nil, fmt.Errorf("record evaluation: %w", repoErrors.Map(err))
	}

	r.logger.InfoContext(ctx, "evaluation recorded", "id", e.ID, "model", e.Model, "solved", e.Solved, "total", e.Total)
	return &e, nil
}

func (r *repo) List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Evaluation], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "model").
		OrderBy(page.Sort)

	filters.Apply(qb)

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count evaluations: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.PageSize, page.Offset())
	evals, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanEvaluation)
	if err != nil {
		return nil, fmt.Errorf("query evaluations: %w", err)
	}

	result := pagination.NewPageResult(evals, total, page)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Evaluation, error) {
	q, args := query.NewBuilder(projection).WhereEquals("id", id).Build()

	e, err := repository.QueryOne(ctx, r.db, q, args, scanEvaluation)
	if err != nil {
		return nil, repoErrors.Map(err)
	}

	e.Results, err = repository.QueryMany(ctx, r.db, selectResults, []any{id}, scanResult)
	if err != nil {
		return nil, fmt.Errorf("query evaluation results: %w", err)
	}

	return &e, nil
}

// Delete removes an evaluation; its results cascade.
func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		return struct{}{}, repository.ExecExpectOne(ctx, tx, "DELETE FROM evaluations WHERE id = $1", id)
	})
	if err != nil {
		return repoErrors.Map(err)
	}

	r.logger.InfoContext(ctx, "evaluation deleted", "id", id)
	return nil
}
