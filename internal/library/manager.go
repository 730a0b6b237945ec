// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sheetshelf Contributors

package library

import (
	"context"
	"log/slog"
	"strings"

	"github.com/samber/oops"

	"github.com/sheetshelf/sheetshelf/pkg/errutil"
)

// Deps are the collaborators of a Manager.
type Deps struct {
	Works      WorkRepository
	Entries    EntryRepository
	Users      UserChecker
	Transactor Transactor
	Enricher   *Enricher // optional
	Logger     *slog.Logger
}

// Manager implements the library operations. Authorization is the caller's
// concern.
type Manager struct {
	works    WorkRepository
	entries  EntryRepository
	users    UserChecker
	tx       Transactor
	enricher *Enricher
	logger   *slog.Logger
}

// NewManager creates a Manager.
func NewManager(d Deps) (*Manager, error) {
	if d.Works == nil {
		return nil, oops.Errorf("works repository is required")
	}
	if d.Entries == nil {
		return nil, oops.Errorf("entries repository is required")
	}
	if d.Users == nil {
		return nil, oops.Errorf("user checker is required")
	}
	if d.Transactor == nil {
		return nil, oops.Errorf("transactor is required")
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Enricher == nil {
		d.Enricher = NewEnricher(nil, 0, d.Logger)
	}
	return &Manager{
		works:    d.Works,
		entries:  d.Entries,
		users:    d.Users,
		tx:       d.Transactor,
		enricher: d.Enricher,
		logger:   d.Logger,
	}, nil
}

// AddToLibrary adds the work to the user's library with default annotations.
// Adding a work that is already present is a Conflict.
func (m *Manager) AddToLibrary(ctx context.Context, username string, workID int64) (*Entry, error) {
	if err := m.requireUser(ctx, username); err != nil {
		return nil, err
	}
	if _, err := m.works.Get(ctx, workID); err != nil {
		return nil, err
	}

	entry := &Entry{Username: username, WorkID: workID}
	if err := m.entries.Create(ctx, entry); err != nil {
		return nil, err
	}

	m.logger.InfoContext(ctx, "work added to library", "username", username, "work_id", workID)
	return entry, nil
}

// RemoveFromLibrary removes the work from the user's library.
func (m *Manager) RemoveFromLibrary(ctx context.Context, username string, workID int64) error {
	if err := m.entries.Delete(ctx, username, workID); err != nil {
		return err
	}
	m.logger.InfoContext(ctx, "work removed from library", "username", username, "work_id", workID)
	return nil
}

// UpdateEntry changes the annotations of an existing entry.
func (m *Manager) UpdateEntry(ctx context.Context, username string, workID int64, patch EntryPatch) (*Entry, error) {
	entry, err := m.entries.Get(ctx, username, workID)
	if err != nil {
		return nil, err
	}

	updated := *entry
	if err := patch.Apply(&updated.Annotations); err != nil {
		return nil, oops.With("username", username).With("work_id", workID).Wrap(err)
	}
	if err := m.entries.Update(ctx, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Entries returns the user's library with catalog enrichment applied.
func (m *Manager) Entries(ctx context.Context, username string) ([]Entry, error) {
	entries, err := m.entries.ListByUser(ctx, username)
	if err != nil {
		return nil, err
	}
	return m.enricher.Entries(ctx, entries), nil
}

// CreateWork adds a work to the shared catalog.
func (m *Manager) CreateWork(ctx context.Context, in NewWork) (*Work, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	w := &Work{
		ExternalID: nonBlank(in.ExternalID),
		Title:      nonBlank(in.Title),
		Composer:   nonBlank(in.Composer),
	}
	if err := m.works.Create(ctx, w); err != nil {
		return nil, err
	}

	m.logger.InfoContext(ctx, "work created", "work_id", w.ID)
	return w, nil
}

// GetWork returns a work with catalog enrichment applied.
func (m *Manager) GetWork(ctx context.Context, id int64) (*Work, error) {
	w, err := m.works.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return m.enricher.Work(ctx, w), nil
}

// DeleteWork deletes a work and every library entry referencing it in one
// transaction.
func (m *Manager) DeleteWork(ctx context.Context, id int64) error {
	var removed int64
	err := m.tx.InTransaction(ctx, func(ctx context.Context) error {
		n, err := m.entries.DeleteByWork(ctx, id)
		if err != nil {
			return err
		}
		removed = n
		return m.works.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	m.logger.InfoContext(ctx, "work deleted", "work_id", id, "entries_removed", removed)
	return nil
}

func (m *Manager) requireUser(ctx context.Context, username string) error {
	ok, err := m.users.Exists(ctx, username)
	if err != nil {
		return oops.Code("LIBRARY_USER_LOOKUP_FAILED").With("username", username).Wrap(err)
	}
	if !ok {
		return oops.Code("USER_NOT_FOUND").With("username", username).Wrap(errutil.ErrNotFound)
	}
	return nil
}

func nonBlank(s *string) *string {
	if blank(s) {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
