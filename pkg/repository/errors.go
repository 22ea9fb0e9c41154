package repository

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// Errors names the domain errors a repository reports in place of driver
// errors. Nil fields leave the corresponding driver error untouched.
type Errors struct {
	NotFound  error
	Duplicate error
	// Reference replaces foreign key violations, such as a result row
	// pointing at an evaluation that does not exist.
	Reference error
}

// Map translates err into the configured domain error.
func (m Errors) Map(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) && m.NotFound != nil {
		return m.NotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgUniqueViolation && m.Duplicate != nil:
			return m.Duplicate
		case pgErr.Code == pgForeignKeyViolation && m.Reference != nil:
			return m.Reference
		}
	}

	return err
}
