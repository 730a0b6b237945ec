// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sheetshelf Contributors

// Package postgres implements the library repositories on PostgreSQL.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/sheetshelf/sheetshelf/internal/library"
	"github.com/sheetshelf/sheetshelf/internal/store"
	"github.com/sheetshelf/sheetshelf/pkg/errutil"
)

// WorkRepository implements library.WorkRepository using PostgreSQL.
type WorkRepository struct {
	pool store.Querier
}

var _ library.WorkRepository = (*WorkRepository)(nil)

// NewWorkRepository creates a new WorkRepository.
func NewWorkRepository(pool store.Querier) *WorkRepository {
	return &WorkRepository{pool: pool}
}

// Create stores a new work.
func (r *WorkRepository) Create(ctx context.Context, w *library.Work) error {
	err := store.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO works (external_id, title, composer)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, w.ExternalID, w.Title, w.Composer).Scan(&w.ID, &w.CreatedAt)
	if err != nil {
		if v, ok := store.ConstraintViolation(err); ok && v.IsUnique() {
			return oops.Code("WORK_EXTERNAL_ID_TAKEN").
				With("external_id", deref(w.ExternalID)).
				Wrapf(errutil.ErrConflict, "a work with this externalId already exists")
		}
		return oops.Code("WORK_CREATE_FAILED").
			With("operation", "insert work").
			Wrap(err)
	}
	return nil
}

// Get retrieves a work by ID.
func (r *WorkRepository) Get(ctx context.Context, id int64) (*library.Work, error) {
	var w library.Work
	err := store.Conn(ctx, r.pool).QueryRow(ctx, `
		SELECT id, external_id, title, composer, created_at
		FROM works
		WHERE id = $1
	`, id).Scan(&w.ID, &w.ExternalID, &w.Title, &w.Composer, &w.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("WORK_NOT_FOUND").
			With("work_id", id).
			Wrapf(errutil.ErrNotFound, "work not found")
	}
	if err != nil {
		return nil, oops.Code("WORK_GET_FAILED").
			With("operation", "get work").
			With("work_id", id).
			Wrap(err)
	}
	return &w, nil
}

// Delete removes a work.
func (r *WorkRepository) Delete(ctx context.Context, id int64) error {
	result, err := store.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM works WHERE id = $1`, id)
	if err != nil {
		return oops.Code("WORK_DELETE_FAILED").
			With("operation", "delete work").
			With("work_id", id).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("WORK_NOT_FOUND").
			With("work_id", id).
			Wrapf(errutil.ErrNotFound, "work not found")
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
