package database

import "errors"

var (
	// ErrNotReady indicates the database connection could not be established.
	ErrNotReady = errors.New("database not ready")
	// ErrDisabled indicates no database name is configured.
	ErrDisabled = errors.New("database disabled")
)
