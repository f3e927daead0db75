package postgres

import (
	"errors"

	"commuto/internal/domain/fault"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes that mean another writer got there first.
const (
	codeLockNotAvailable     = "55P03" // FOR UPDATE NOWAIT lost the race
	codeDeadlockDetected     = "40P01"
	codeSerializationFailure = "40001"
	codeUniqueViolation      = "23505"
)

// classify maps low-level pgx errors onto the domain error taxonomy.
// notFound names the entity for ErrNoRows; lock contention and transaction
// aborts become retryable conflicts.
func classify(err error, notFound string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fault.NotFound("%s", notFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeLockNotAvailable, codeDeadlockDetected, codeSerializationFailure:
			return fault.Conflict("resource is being modified by another request, please retry")
		case codeUniqueViolation:
			return fault.Conflict("duplicate record: %s", pgErr.ConstraintName)
		}
	}
	return fault.Internal("database error", err)
}
