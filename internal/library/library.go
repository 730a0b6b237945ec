// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sheetshelf Contributors

// Package library manages the shared catalog of works and each user's
// library of entries referencing them.
package library

import (
	"context"
	"strings"
	"time"

	"github.com/samber/oops"

	"github.com/sheetshelf/sheetshelf/internal/catalog"
	"github.com/sheetshelf/sheetshelf/pkg/errutil"
)

// MaxNotesLength bounds an entry's free-text notes.
const MaxNotesLength = 4000

// Work is a canonical musical work. Title and Composer may be absent locally
// when ExternalID is set; they are then resolved from the catalog on read.
type Work struct {
	ID         int64     `json:"id"`
	ExternalID *string   `json:"externalId,omitempty"`
	Title      *string   `json:"title,omitempty"`
	Composer   *string   `json:"composer,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// NewWork is the input for creating a work.
type NewWork struct {
	ExternalID *string
	Title      *string
	Composer   *string
}

// Validate checks that the work is identifiable by an external id or a title.
func (n NewWork) Validate() error {
	if blank(n.ExternalID) && blank(n.Title) {
		return oops.Code("WORK_INVALID").Wrapf(errutil.ErrValidation, "a work needs an externalId or a title")
	}
	return nil
}

// Annotations are the user-specific attributes of a library entry.
type Annotations struct {
	Owned     bool    `json:"owned"`
	Played    bool    `json:"played"`
	Digital   bool    `json:"digital"`
	Physical  bool    `json:"physical"`
	Notes     string  `json:"notes"`
	LoanedOut bool    `json:"loanedOut"`
	Borrower  *string `json:"borrower,omitempty"`
}

// Entry relates one user to one work. Work fields are joined in on read.
type Entry struct {
	Username   string  `json:"-"`
	WorkID     int64   `json:"workId"`
	ExternalID *string `json:"externalId,omitempty"`
	Title      *string `json:"title,omitempty"`
	Composer   *string `json:"composer,omitempty"`
	Annotations
	AddedAt   time.Time `json:"addedAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// EntryPatch changes some annotations. Nil fields are left alone.
type EntryPatch struct {
	Owned     *bool
	Played    *bool
	Digital   *bool
	Physical  *bool
	Notes     *string
	LoanedOut *bool
	Borrower  *string
}

// Apply updates a with the patch. Clearing LoanedOut also clears Borrower.
func (p EntryPatch) Apply(a *Annotations) error {
	if p.Notes != nil && len(*p.Notes) > MaxNotesLength {
		return oops.Code("ENTRY_INVALID").
			With("max", MaxNotesLength).
			Wrapf(errutil.ErrValidation, "notes must be at most %d bytes", MaxNotesLength)
	}

	setBool(&a.Owned, p.Owned)
	setBool(&a.Played, p.Played)
	setBool(&a.Digital, p.Digital)
	setBool(&a.Physical, p.Physical)
	setBool(&a.LoanedOut, p.LoanedOut)
	if p.Notes != nil {
		a.Notes = *p.Notes
	}
	if p.Borrower != nil {
		if b := strings.TrimSpace(*p.Borrower); b != "" {
			a.Borrower = &b
		} else {
			a.Borrower = nil
		}
	}

	if !a.LoanedOut {
		if p.Borrower != nil && a.Borrower != nil {
			return oops.Code("ENTRY_INVALID").Wrapf(errutil.ErrValidation, "borrower requires loanedOut")
		}
		a.Borrower = nil
	}
	return nil
}

// WorkRepository persists works.
type WorkRepository interface {
	// Create inserts w and fills in its ID and CreatedAt.
	Create(ctx context.Context, w *Work) error
	Get(ctx context.Context, id int64) (*Work, error)
	Delete(ctx context.Context, id int64) error
}

// EntryRepository persists library entries.
type EntryRepository interface {
	// Create inserts e and fills in its timestamps. A duplicate (user, work)
	// pair is a Conflict.
	Create(ctx context.Context, e *Entry) error
	Get(ctx context.Context, username string, workID int64) (*Entry, error)
	Update(ctx context.Context, e *Entry) error
	Delete(ctx context.Context, username string, workID int64) error
	// ListByUser returns the user's entries, oldest first, with work fields joined.
	ListByUser(ctx context.Context, username string) ([]Entry, error)
	DeleteByUser(ctx context.Context, username string) (int64, error)
	DeleteByWork(ctx context.Context, workID int64) (int64, error)
}

// UserChecker reports whether a user exists.
type UserChecker interface {
	Exists(ctx context.Context, username string) (bool, error)
}

// Transactor runs fn inside a transaction carried by ctx.
type Transactor interface {
	InTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Catalog resolves works by external id.
type Catalog interface {
	Lookup(ctx context.Context, externalID string) (*catalog.Work, error)
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func blank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}
