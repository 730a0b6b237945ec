// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sheetshelf Contributors

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

const entryColumns = `
	e.username, e.work_id, w.external_id, w.title, w.composer,
	e.owned, e.played, e.digital, e.physical, e.notes, e.loaned_out, e.borrower,
	e.added_at, e.updated_at`

// EntryRepository implements library.EntryRepository using PostgreSQL.
type EntryRepository struct {
	pool store.Querier
}

var _ library.EntryRepository = (*EntryRepository)(nil)

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(pool store.Querier) *EntryRepository {
	return &EntryRepository{pool: pool}
}

// Create stores a new entry.
func (r *EntryRepository) Create(ctx context.Context, e *library.Entry) error {
	err := store.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO library_entries (
			username, work_id, owned, played, digital, physical,
			notes, loaned_out, borrower
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING added_at, updated_at
	`,
		e.Username,
		e.WorkID,
		e.Owned,
		e.Played,
		e.Digital,
		e.Physical,
		e.Notes,
		e.LoanedOut,
		e.Borrower,
	).Scan(&e.AddedAt, &e.UpdatedAt)
	if err != nil {
		if v, ok := store.ConstraintViolation(err); ok {
			switch {
			case v.IsUnique():
				return oops.Code("LIBRARY_ENTRY_EXISTS").
					With("username", e.Username).
					With("work_id", e.WorkID).
					Wrapf(errutil.ErrConflict, "work is already in the library")
			case v.IsForeignKey():
				return oops.Code("LIBRARY_REFERENCE_MISSING").
					With("username", e.Username).
					With("work_id", e.WorkID).
					With("constraint", v.Constraint).
					Wrapf(errutil.ErrNotFound, "user or work not found")
			}
		}
		return oops.Code("LIBRARY_ENTRY_CREATE_FAILED").
			With("operation", "insert entry").
			With("username", e.Username).
			Wrap(err)
	}
	return nil
}

// Get retrieves one entry with its work fields.
func (r *EntryRepository) Get(ctx context.Context, username string, workID int64) (*library.Entry, error) {
	row := store.Conn(ctx, r.pool).QueryRow(ctx, `
		SELECT `+entryColumns+`
		FROM library_entries e
		JOIN works w ON w.id = e.work_id
		WHERE e.username = $1 AND e.work_id = $2
	`, username, workID)

	entry, err := scanEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, entryNotFound(username, workID)
	}
	if err != nil {
		return nil, oops.Code("LIBRARY_ENTRY_GET_FAILED").
			With("operation", "get entry").
			With("username", username).
			With("work_id", workID).
			Wrap(err)
	}
	return entry, nil
}

// Update writes the entry's annotations.
func (r *EntryRepository) Update(ctx context.Context, e *library.Entry) error {
	err := store.Conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE library_entries SET
			owned = $3,
			played = $4,
			digital = $5,
			physical = $6,
			notes = $7,
			loaned_out = $8,
			borrower = $9,
			updated_at = now()
		WHERE username = $1 AND work_id = $2
		RETURNING updated_at
	`,
		e.Username,
		e.WorkID,
		e.Owned,
		e.Played,
		e.Digital,
		e.Physical,
		e.Notes,
		e.LoanedOut,
		e.Borrower,
	).Scan(&e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return entryNotFound(e.Username, e.WorkID)
	}
	if err != nil {
		return oops.Code("LIBRARY_ENTRY_UPDATE_FAILED").
			With("operation", "update entry").
			With("username", e.Username).
			With("work_id", e.WorkID).
			Wrap(err)
	}
	return nil
}

// Delete removes one entry.
func (r *EntryRepository) Delete(ctx context.Context, username string, workID int64) error {
	result, err := store.Conn(ctx, r.pool).Exec(ctx,
		`DELETE FROM library_entries WHERE username = $1 AND work_id = $2`, username, workID)
	if err != nil {
		return oops.Code("LIBRARY_ENTRY_DELETE_FAILED").
			With("operation", "delete entry").
			With("username", username).
			With("work_id", workID).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return entryNotFound(username, workID)
	}
	return nil
}

// ListByUser returns the user's entries, oldest first.
func (r *EntryRepository) ListByUser(ctx context.Context, username string) ([]library.Entry, error) {
	rows, err := store.Conn(ctx, r.pool).Query(ctx, `
		SELECT `+entryColumns+`
		FROM library_entries e
		JOIN works w ON w.id = e.work_id
		WHERE e.username = $1
		ORDER BY e.added_at, e.work_id
	`, username)
	if err != nil {
		return nil, oops.Code("LIBRARY_LIST_FAILED").
			With("operation", "list entries").
			With("username", username).
			Wrap(err)
	}
	defer rows.Close()

	entries := []library.Entry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, oops.Code("LIBRARY_LIST_FAILED").
				With("operation", "scan entry row").
				Wrap(err)
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("LIBRARY_LIST_FAILED").
			With("operation", "iterate entries").
			Wrap(err)
	}
	return entries, nil
}

// DeleteByUser removes every entry of a user and reports how many went.
func (r *EntryRepository) DeleteByUser(ctx context.Context, username string) (int64, error) {
	result, err := store.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM library_entries WHERE username = $1`, username)
	if err != nil {
		return 0, oops.Code("LIBRARY_PURGE_FAILED").
			With("operation", "delete entries by user").
			With("username", username).
			Wrap(err)
	}
	return result.RowsAffected(), nil
}

// DeleteByWork removes every entry referencing a work.
func (r *EntryRepository) DeleteByWork(ctx context.Context, workID int64) (int64, error) {
	result, err := store.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM library_entries WHERE work_id = $1`, workID)
	if err != nil {
		return 0, oops.Code("LIBRARY_PURGE_FAILED").
			With("operation", "delete entries by work").
			With("work_id", workID).
			Wrap(err)
	}
	return result.RowsAffected(), nil
}

func scanEntry(row pgx.Row) (*library.Entry, error) {
	var e library.Entry
	err := row.Scan(
		&e.Username,
		&e.WorkID,
		&e.ExternalID,
		&e.Title,
		&e.Composer,
		&e.Owned,
		&e.Played,
		&e.Digital,
		&e.Physical,
		&e.Notes,
		&e.LoanedOut,
		&e.Borrower,
		&e.AddedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func entryNotFound(username string, workID int64) error {
	return oops.Code("LIBRARY_ENTRY_NOT_FOUND").
		With("username", username).
		With("work_id", workID).
		Wrapf(errutil.ErrNotFound, "work is not in the library")
}
