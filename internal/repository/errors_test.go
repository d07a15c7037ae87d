package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestSubjectUniqueViolationIsRecognised(t *testing.T) {
	err := fmt.Errorf("insert user: %w", &pgconn.PgError{Code: pgUniqueViolation, ConstraintName: usersSubjectConstraint})

	assert.True(t, isUniqueViolation(err, usersSubjectConstraint))
	assert.False(t, isUniqueViolation(err, "products_sku_key"))
	assert.ErrorIs(t, translate(err), ErrDuplicate)
}

func TestOtherUniqueViolationIsNotSubjectTaken(t *testing.T) {
	err := &pgconn.PgError{Code: pgUniqueViolation, ConstraintName: "products_sku_lower_key"}

	assert.False(t, isUniqueViolation(err, usersSubjectConstraint))
	assert.ErrorIs(t, translate(err), ErrDuplicate)
}

func TestTranslate(t *testing.T) {
	boom := errors.New("connection reset")
	cases := map[string]struct {
		in   error
		want error
	}{
		"no rows":     {in: fmt.Errorf("scan: %w", pgx.ErrNoRows), want: ErrNotFound},
		"foreign key": {in: &pgconn.PgError{Code: pgForeignKeyViolation, ConstraintName: "purchases_supplier_id_fkey"}, want: ErrReferenced},
		"unique":      {in: &pgconn.PgError{Code: pgUniqueViolation}, want: ErrDuplicate},
		"other":       {in: boom, want: boom},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, translate(tc.in), tc.want)
		})
	}
	assert.NoError(t, translate(nil))
}

func TestCreateErrorMapsSubjectConflict(t *testing.T) {
	err := fmt.Errorf("insert user: %w", &pgconn.PgError{Code: pgUniqueViolation, ConstraintName: usersSubjectConstraint})
	assert.ErrorIs(t, userCreateError(err), ErrSubjectTaken)

	other := &pgconn.PgError{Code: pgUniqueViolation, ConstraintName: "users_pkey"}
	assert.ErrorIs(t, userCreateError(other), ErrDuplicate)
}
