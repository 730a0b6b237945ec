// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sheetshelf Contributors

package library

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/sheetshelf/sheetshelf/internal/catalog"
)

// DefaultEnrichConcurrency bounds concurrent catalog lookups per read.
const DefaultEnrichConcurrency = 8

// Enricher fills in title and composer from the catalog. Lookups are
// independent and best-effort: a failed lookup leaves that item as stored.
type Enricher struct {
	catalog Catalog
	limit   int
	logger  *slog.Logger
}

// NewEnricher creates an Enricher. A nil catalog disables enrichment.
func NewEnricher(c Catalog, limit int, logger *slog.Logger) *Enricher {
	if limit <= 0 {
		limit = DefaultEnrichConcurrency
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Enricher{catalog: c, limit: limit, logger: logger}
}

// Entries returns a copy of entries, in the same order, with every entry
// that has an external id enriched. It never fails; cancelling ctx only
// leaves the remaining entries unresolved.
func (e *Enricher) Entries(ctx context.Context, entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	if e == nil || e.catalog == nil {
		return out
	}

	var g errgroup.Group
	g.SetLimit(e.limit)
	for i := range out {
		if blank(out[i].ExternalID) {
			continue
		}
		g.Go(func() error {
			if w, ok := e.lookup(ctx, *out[i].ExternalID); ok {
				merge(&out[i].Title, w.Title)
				merge(&out[i].Composer, w.Composer)
			}
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // lookups never return errors

	return out
}

// Work returns a copy of w enriched from the catalog.
func (e *Enricher) Work(ctx context.Context, w *Work) *Work {
	out := *w
	if e == nil || e.catalog == nil || blank(w.ExternalID) {
		return &out
	}
	if cw, ok := e.lookup(ctx, *w.ExternalID); ok {
		merge(&out.Title, cw.Title)
		merge(&out.Composer, cw.Composer)
	}
	return &out
}

func (e *Enricher) lookup(ctx context.Context, externalID string) (*catalog.Work, bool) {
	if ctx.Err() != nil {
		return nil, false
	}
	w, err := e.catalog.Lookup(ctx, externalID)
	if err != nil {
		e.logger.WarnContext(ctx, "catalog lookup failed, leaving work unresolved",
			"external_id", externalID,
			"error", err)
		return nil, false
	}
	if w == nil {
		return nil, false
	}
	return w, true
}

// merge overwrites *dst with a non-empty catalog value. Empty catalog fields
// keep whatever is stored.
func merge(dst **string, v string) {
	if v == "" {
		return
	}
	*dst = &v
}
