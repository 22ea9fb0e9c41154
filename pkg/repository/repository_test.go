package repository_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JaimeStill/arcsolve/pkg/repository"
)

var (
	errNotFound  = errors.New("evaluation not found")
	errDuplicate = errors.New("evaluation exists")
	errReference = errors.New("unknown evaluation")
)

func TestErrorsMap(t *testing.T) {
	full := repository.Errors{NotFound: errNotFound, Duplicate: errDuplicate, Reference: errReference}
	other := errors.New("connection reset")
	checkViolation := &pgconn.PgError{Code: "23514"}

	tests := []struct {
		name   string
		m      repository.Errors
		err    error
		expect error
	}{
		{"nil", full, nil, nil},
		{"no rows", full, sql.ErrNoRows, errNotFound},
		{"wrapped no rows", full, fmt.Errorf("scan: %w", sql.ErrNoRows), errNotFound},
		{"unique violation", full, &pgconn.PgError{Code: "23505"}, errDuplicate},
		{"foreign key violation", full, &pgconn.PgError{Code: "23503"}, errReference},
		{"other pg error", full, checkViolation, checkViolation},
		{"passthrough", full, other, other},
		{"unmapped not found", repository.Errors{}, sql.ErrNoRows, sql.ErrNoRows},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.m.Map(tt.err)
			if got != tt.expect {
				t.Errorf("Map(%v) = %v, want %v", tt.err, got, tt.expect)
			}
		})
	}
}

type rowScanner struct {
	values []any
	err    error
}

func (r rowScanner) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		*(d.(*string)) = r.values[i].(string)
	}
	return nil
}

func TestScanFunc(t *testing.T) {
	scan := repository.ScanFunc[string](func(s repository.Scanner) (string, error) {
		var name string
		err := s.Scan(&name)
		return name, err
	})

	got, err := scan(rowScanner{values: []any{"007bbfb7"}})
	if err != nil || got != "007bbfb7" {
		t.Errorf("scan = %q, %v", got, err)
	}

	if _, err := scan(rowScanner{err: sql.ErrNoRows}); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("scan error = %v, want ErrNoRows", err)
	}
}

func TestExecEachEmpty(t *testing.T) {
	if err := repository.ExecEach(context.Background(), nil, "INSERT", nil); err != nil {
		t.Errorf("ExecEach with no rows = %v, want nil", err)
	}
}

type affected int64

func (a affected) LastInsertId() (int64, error) { return 0, nil }
func (a affected) RowsAffected() (int64, error) { return int64(a), nil }

type execFunc func(query string, args ...any) (sql.Result, error)

func (f execFunc) ExecContext(_ context.Context, query string, args ...any) (sql.Result, error) {
	return f(query, args...)
}

func TestExecExpectOne(t *testing.T) {
	failure := errors.New("connection reset")

	tests := []struct {
		name string
		exec execFunc
		want error
	}{
		{"one row", func(string, ...any) (sql.Result, error) { return affected(1), nil }, nil},
		{"no rows", func(string, ...any) (sql.Result, error) { return affected(0), nil }, sql.ErrNoRows},
		{"exec error", func(string, ...any) (sql.Result, error) { return nil, failure }, failure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repository.ExecExpectOne(context.Background(), tt.exec, "DELETE FROM evaluations WHERE id = $1", "id")
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}
