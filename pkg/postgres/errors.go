package postgres

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jakechorley/timeshift/pkg/db"
)

const uniqueViolation = "23505"

// mapError wraps err with msg, translating no-rows and unique violations
// into the db sentinels
func mapError(err error, msg string) error {
	var pgErr *pgconn.PgError
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return fmt.Errorf("%s: %w", msg, db.ErrNotFound)
	case errors.As(err, &pgErr) && pgErr.Code == uniqueViolation:
		return fmt.Errorf("%s: %s: %w", msg, pgErr.ConstraintName, db.ErrConflict)
	default:
		return fmt.Errorf("%s: %w", msg, err)
	}
}

// validID reports whether id can name a row. Every key column is a UUID, so
// anything else cannot match and is reported as not found instead of a cast error.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, db.ErrNotFound)
}
