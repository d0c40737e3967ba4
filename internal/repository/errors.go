package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrVersionConflict is returned by compare-and-swap writes when the stored version moved.
	ErrVersionConflict = errors.New("version conflict")
	// ErrNotFound is returned by writes that matched no row.
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate key")
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
