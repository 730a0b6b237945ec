// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sheetshelf Contributors

package web

import (
	"net/http"
	"strconv"

	"github.com/samber/oops"

	"github.com/sheetshelf/sheetshelf/internal/access"
	"github.com/sheetshelf/sheetshelf/internal/auth"
	"github.com/sheetshelf/sheetshelf/internal/library"
	"github.com/sheetshelf/sheetshelf/pkg/errutil"
)

// pathID parses a positive integer path parameter.
func pathID(r *http.Request, name string) (int64, error) {
	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, oops.Code("PATH_PARAM_INVALID").
			With("param", name).
			With("value", raw).
			Wrapf(errutil.ErrValidation, "%s must be a positive integer", name)
	}
	return id, nil
}

// libraryTarget authorizes access to the route user's library and parses
// the work id.
func (s *Server) libraryTarget(r *http.Request) (string, int64, error) {
	username := r.PathValue("username")
	id := auth.IdentityFromContext(r.Context())
	if err := s.guard.Check(id, access.ActionManage, access.LibraryResource(username)); err != nil {
		return "", 0, err
	}
	workID, err := pathID(r, "workId")
	if err != nil {
		return "", 0, err
	}
	return username, workID, nil
}

func (s *Server) handleAddToLibrary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	username, workID, err := s.libraryTarget(r)
	if err != nil {
		writeError(ctx, s.logger, w, err)
		return
	}

	if _, err := s.library.AddToLibrary(ctx, username, workID); err != nil {
		writeError(ctx, s.logger, w, err)
		return
	}
	writeJSON(ctx, s.logger, w, http.StatusOK, map[string]any{"added": workID})
}

func (s *Server) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	username, workID, err := s.libraryTarget(r)
	if err != nil {
		writeError(ctx, s.logger, w, err)
		return
	}

	var req UpdateEntryRequest
	if err := s.validator.Decode(w, r, SchemaUpdateEntry, &req); err != nil {
		writeError(ctx, s.logger, w, err)
		return
	}

	entry, err := s.library.UpdateEntry(ctx, username, workID, library.EntryPatch{
		Owned:     req.Owned,
		Played:    req.Played,
		Digital:   req.Digital,
		Physical:  req.Physical,
		Notes:     req.Notes,
		LoanedOut: req.LoanedOut,
		Borrower:  req.Borrower,
	})
	if err != nil {
		writeError(ctx, s.logger, w, err)
		return
	}
	writeJSON(ctx, s.logger, w, http.StatusOK, map[string]any{"entry": entry})
}

func (s *Server) handleRemoveFromLibrary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	username, workID, err := s.libraryTarget(r)
	if err != nil {
		writeError(ctx, s.logger, w, err)
		return
	}

	if err := s.library.RemoveFromLibrary(ctx, username, workID); err != nil {
		writeError(ctx, s.logger, w, err)
		return
	}
	writeJSON(ctx, s.logger, w, http.StatusOK, map[string]any{"removed": workID})
}

func (s *Server) handleCreateWork(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := s.guard.Check(auth.IdentityFromContext(ctx), access.ActionCreate, access.ResourceNewWork); err != nil {
		writeError(ctx, s.logger, w, err)
		return
	}

	var req NewWorkRequest
	if err := s.validator.Decode(w, r, SchemaNewWork, &req); err != nil {
		writeError(ctx, s.logger, w, err)
		return
	}

	work, err := s.library.CreateWork(ctx, library.NewWork{
		ExternalID: req.ExternalID,
		Title:      req.Title,
		Composer:   req.Composer,
	})
	if err != nil {
		writeError(ctx, s.logger, w, err)
		return
	}
	writeJSON(ctx, s.logger, w, http.StatusCreated, map[string]any{"work": work})
}

func (s *Server) handleGetWork(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r, "id")
	if err != nil {
		writeError(ctx, s.logger, w, err)
		return
	}
	if err := s.guard.Check(auth.IdentityFromContext(ctx), access.ActionRead, access.WorkResource(id)); err != nil {
		writeError(ctx, s.logger, w, err)
		return
	}

	work, err := s.library.GetWork(ctx, id)
	if err != nil {
		writeError(ctx, s.logger, w, err)
		return
	}
	writeJSON(ctx, s.logger, w, http.StatusOK, map[string]any{"work": work})
}

func (s *Server) handleDeleteWork(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r, "id")
	if err != nil {
		writeError(ctx, s.logger, w, err)
		return
	}
	if err := s.guard.Check(auth.IdentityFromContext(ctx), access.ActionDelete, access.WorkResource(id)); err != nil {
		writeError(ctx, s.logger, w, err)
		return
	}

	if err := s.library.DeleteWork(ctx, id); err != nil {
		writeError(ctx, s.logger, w, err)
		return
	}
	writeJSON(ctx, s.logger, w, http.StatusOK, map[string]any{"deleted": id})
}
