package dbx

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// pgUniqueViolation is SQLSTATE 23505.
const pgUniqueViolation = "23505"

// UniqueViolation reports whether err is a Postgres unique-constraint
// violation and, if so, which constraint (index) was hit.
func UniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return pgErr.ConstraintName, true
	}
	return "", false
}
