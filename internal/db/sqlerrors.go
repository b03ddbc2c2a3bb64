package db

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"
)

// MapSQLError attempts to interpret a given error as a database agnostic SQL
// error.
func MapSQLError(err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return parseSqliteError(sqliteErr)
	}
	return err
}

func parseSqliteError(sqliteErr sqlite3.Error) error {
	switch sqliteErr.Code {
	case sqlite3.ErrConstraint:
		if sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey {

			return &ErrSQLUniqueConstraintViolation{DBError: sqliteErr}
		}
		return fmt.Errorf("sqlite constraint error: %w", sqliteErr)

	// Database is currently busy, so we'll need to try again.
	case sqlite3.ErrBusy, sqlite3.ErrLocked:
		return &ErrBusyError{DBError: sqliteErr}

	case sqlite3.ErrError:
		if strings.Contains(sqliteErr.Error(), "no such table") {
			return &ErrSchemaError{DBError: sqliteErr}
		}
		return fmt.Errorf("unknown sqlite error: %w", sqliteErr)

	default:
		return fmt.Errorf("unknown sqlite error: %w", sqliteErr)
	}
}

// ErrSQLUniqueConstraintViolation represents a unique constraint violation.
type ErrSQLUniqueConstraintViolation struct {
	DBError error
}

func (e ErrSQLUniqueConstraintViolation) Unwrap() error { return e.DBError }

func (e ErrSQLUniqueConstraintViolation) Error() string {
	return fmt.Sprintf("sql unique constraint violation: %v", e.DBError)
}

// ErrBusyError means the database was busy or locked; the operation may
// succeed if tried again. Its message is phrased so that retry policies
// classifying by message treat it as a temporary failure.
type ErrBusyError struct {
	DBError error
}

func (e ErrBusyError) Unwrap() error { return e.DBError }

func (e ErrBusyError) Error() string {
	return fmt.Sprintf("temporary failure: %v", e.DBError)
}

// ErrSchemaError means the schema does not match the query, typically
// because migrations were not applied.
type ErrSchemaError struct {
	DBError error
}

func (e ErrSchemaError) Unwrap() error { return e.DBError }

func (e ErrSchemaError) Error() string { return e.DBError.Error() }

// IsBusyError returns true if the given error is a busy or locked error.
func IsBusyError(err error) bool {
	var busy *ErrBusyError
	return errors.As(err, &busy)
}

// IsSchemaError returns true if the given error is a schema error.
func IsSchemaError(err error) bool {
	var schemaError *ErrSchemaError
	return errors.As(err, &schemaError)
}
