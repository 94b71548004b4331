package db

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"tenant-control-plane/backend/internal/platform/domainerr"
)

// uniqueViolation is the Postgres error code for a unique constraint hit.
const uniqueViolation = "23505"

// MapUnique translates a unique-constraint violation into a domain
// ConflictError for the given entity and field, so a concurrent
// check-then-insert race surfaces as a distinguishable conflict instead of a
// raw driver error. Other errors pass through unchanged.
func MapUnique(err error, entity, field string) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return &domainerr.Error{
			Kind:   domainerr.KindConflict,
			Entity: entity,
			Field:  field,
			Msg:    "already exists",
		}
	}
	return err
}
