package repository

import (
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when no row matches.
	ErrNotFound = errors.New("repository: not found")
	// ErrSubjectTaken is returned when a user with the same subject already exists.
	ErrSubjectTaken = errors.New("repository: subject already exists")
	// ErrDuplicate is returned for other unique-constraint violations.
	ErrDuplicate = errors.New("repository: duplicate value")
	// ErrReferenced is returned when a row cannot be removed or linked because of a
	// foreign-key constraint.
	ErrReferenced = errors.New("repository: referenced row")
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"

	usersSubjectConstraint = "users_subject_key"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgUniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation
}

// translate maps driver errors onto the repository sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return ErrNotFound
	case isUniqueViolation(err, ""):
		return ErrDuplicate
	case isForeignKeyViolation(err):
		return ErrReferenced
	default:
		return err
	}
}

// validID reports whether id can be compared against a uuid column.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
