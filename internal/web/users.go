// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sheetshelf Contributors

package web

import (
	"net/http"

	"github.com/sheetshelf/sheetshelf/internal/auth"
	"github.com/sheetshelf/sheetshelf/internal/user"
)

type sessionResponse struct {
	User  *user.User `json:"user"`
	Token string     `json:"token"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req RegistrationRequest
	if err := s.validator.Decode(w, r, SchemaRegistration, &req); err != nil {
		writeError(ctx, s.logger, w, err)
		return
	}

	u, token, err := s.users.Register(ctx, user.NewUser{
		Username: req.Username,
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(ctx, s.logger, w, err)
		return
	}
	writeJSON(ctx, s.logger, w, http.StatusCreated, sessionResponse{User: u, Token: token})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req LoginRequest
	if err := s.validator.Decode(w, r, SchemaLogin, &req); err != nil {
		writeError(ctx, s.logger, w, err)
		return
	}

	u, token, err := s.users.Login(ctx, req.Username, req.Password)
	if err != nil {
		writeError(ctx, s.logger, w, err)
		return
	}
	writeJSON(ctx, s.logger, w, http.StatusOK, sessionResponse{User: u, Token: token})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), s.logger, w, http.StatusOK, map[string]any{
		"identity": auth.IdentityFromContext(r.Context()),
	})
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := s.guard.AdminOnly(auth.IdentityFromContext(ctx)); err != nil {
		writeError(ctx, s.logger, w, err)
		return
	}

	var req NewUserRequest
	if err := s.validator.Decode(w, r, SchemaNewUser, &req); err != nil {
		writeError(ctx, s.logger, w, err)
		return
	}

	u, token, err := s.users.Register(ctx, user.NewUser{
		Username: req.Username,
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		IsAdmin:  req.IsAdmin,
	})
	if err != nil {
		writeError(ctx, s.logger, w, err)
		return
	}
	writeJSON(ctx, s.logger, w, http.StatusCreated, sessionResponse{User: u, Token: token})
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := s.guard.AdminOnly(auth.IdentityFromContext(ctx)); err != nil {
		writeError(ctx, s.logger, w, err)
		return
	}

	users, err := s.users.List(ctx)
	if err != nil {
		writeError(ctx, s.logger, w, err)
		return
	}
	writeJSON(ctx, s.logger, w, http.StatusOK, map[string]any{"users": users})
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	username := r.PathValue("username")
	if err := s.guard.SelfOrAdmin(auth.IdentityFromContext(ctx), username); err != nil {
		writeError(ctx, s.logger, w, err)
		return
	}

	profile, err := s.users.Get(ctx, username)
	if err != nil {
		writeError(ctx, s.logger, w, err)
		return
	}
	writeJSON(ctx, s.logger, w, http.StatusOK, map[string]any{"user": profile})
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	username := r.PathValue("username")
	if err := s.guard.SelfOrAdmin(auth.IdentityFromContext(ctx), username); err != nil {
		writeError(ctx, s.logger, w, err)
		return
	}

	var req UpdateUserRequest
	if err := s.validator.Decode(w, r, SchemaUpdateUser, &req); err != nil {
		writeError(ctx, s.logger, w, err)
		return
	}

	u, err := s.users.Update(ctx, username, user.Changes{
		Password: req.Password,
		Name:     req.Name,
		Email:    req.Email,
	})
	if err != nil {
		writeError(ctx, s.logger, w, err)
		return
	}
	writeJSON(ctx, s.logger, w, http.StatusOK, map[string]any{"user": u})
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	username := r.PathValue("username")
	if err := s.guard.SelfOrAdmin(auth.IdentityFromContext(ctx), username); err != nil {
		writeError(ctx, s.logger, w, err)
		return
	}

	if err := s.users.Remove(ctx, username); err != nil {
		writeError(ctx, s.logger, w, err)
		return
	}
	writeJSON(ctx, s.logger, w, http.StatusOK, map[string]any{"deleted": username})
}
