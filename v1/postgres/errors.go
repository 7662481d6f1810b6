package postgres

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Common database error types that can be used by consumers of this package.
// These provide a standardized set of errors that abstract away the
// underlying database-specific error details.
var (
	// ErrRecordNotFound is returned when a query doesn't find any matching records
	ErrRecordNotFound = errors.New("record not found")

	// ErrDuplicateKey is returned when an insert or update violates a unique constraint
	ErrDuplicateKey = errors.New("duplicate key violation")

	// ErrForeignKey is returned when an operation violates a foreign key constraint
	ErrForeignKey = errors.New("foreign key violation")

	// ErrInvalidData is returned when a value is rejected by the server,
	// e.g. a vector of the wrong dimension
	ErrInvalidData = errors.New("invalid data")

	// ErrUndefinedTable is returned when a statement references a missing table
	ErrUndefinedTable = errors.New("undefined table")

	// ErrConnection is returned when the server cannot be reached or dropped the connection
	ErrConnection = errors.New("connection failure")
)

// SQLSTATE codes used for classification.
const (
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeNotNullViolation     = "23502"
	codeCheckViolation       = "23514"
	codeUndefinedTable       = "42P01"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeTooManyConnections   = "53300"
	codeAdminShutdown        = "57P01"
	codeCannotConnectNow     = "57P03"
)

// TranslateError converts GORM and PostgreSQL errors into the sentinels above.
//
// The returned error wraps both the sentinel and the original error.
// Unknown errors are returned unchanged.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}

	if sentinel := classify(err); sentinel != nil {
		if errors.Is(err, sentinel) {
			return err
		}
		return fmt.Errorf("%w: %w", sentinel, err)
	}
	return err
}

func classify(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrRecordNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicateKey
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return ErrForeignKey
	case errors.Is(err, gorm.ErrInvalidData), errors.Is(err, gorm.ErrCheckConstraintViolated):
		return ErrInvalidData
	case errors.Is(err, driver.ErrBadConn):
		return ErrConnection
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == codeUniqueViolation:
			return ErrDuplicateKey
		case pgErr.Code == codeForeignKeyViolation:
			return ErrForeignKey
		case pgErr.Code == codeUndefinedTable:
			return ErrUndefinedTable
		case pgErr.Code == codeNotNullViolation, pgErr.Code == codeCheckViolation,
			strings.HasPrefix(pgErr.Code, "22"):
			return ErrInvalidData
		case strings.HasPrefix(pgErr.Code, "08"),
			pgErr.Code == codeAdminShutdown, pgErr.Code == codeCannotConnectNow:
			return ErrConnection
		}
		return nil
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return ErrConnection
	}
	return nil
}

// IsRetryable reports whether retrying the same statement may succeed:
// connection failures, serialization failures, deadlocks and connection
// exhaustion. vecdocs never retries on its own; this is for callers that
// own a retry policy.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrConnection) || errors.Is(err, driver.ErrBadConn) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeSerializationFailure, codeDeadlockDetected, codeTooManyConnections,
			codeAdminShutdown, codeCannotConnectNow:
			return true
		}
		return strings.HasPrefix(pgErr.Code, "08")
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	return pgconn.SafeToRetry(err)
}
