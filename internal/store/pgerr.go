// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sheetshelf Contributors

package store

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// Violation describes a failed integrity constraint.
type Violation struct {
	Code       string
	Constraint string
}

// IsUnique reports a unique or primary key violation.
func (v Violation) IsUnique() bool { return v.Code == pgerrcode.UniqueViolation }

// IsForeignKey reports a foreign key violation.
func (v Violation) IsForeignKey() bool { return v.Code == pgerrcode.ForeignKeyViolation }

// ConstraintViolation extracts the violated constraint from err, if err is an
// integrity constraint error raised by PostgreSQL.
func ConstraintViolation(err error) (Violation, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return Violation{}, false
	}
	if !pgerrcode.IsIntegrityConstraintViolation(pgErr.Code) {
		return Violation{}, false
	}
	return Violation{Code: pgErr.Code, Constraint: pgErr.ConstraintName}, true
}
