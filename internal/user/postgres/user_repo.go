// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sheetshelf Contributors

// Package postgres implements the user repository on PostgreSQL.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/sheetshelf/sheetshelf/internal/library"
	"github.com/sheetshelf/sheetshelf/internal/store"
	"github.com/sheetshelf/sheetshelf/internal/user"
	"github.com/sheetshelf/sheetshelf/pkg/errutil"
)

// Constraint names from the users migration.
const (
	usernameConstraint = "users_pkey"
	emailConstraint    = "users_email_key"
)

// UserRepository implements user.Repository using PostgreSQL.
type UserRepository struct {
	pool store.Querier
}

var (
	_ user.Repository     = (*UserRepository)(nil)
	_ library.UserChecker = (*UserRepository)(nil)
)

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool store.Querier) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create stores a new user.
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	err := store.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO users (username, name, email, password_hash, is_admin)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`, u.Username, u.Name, u.Email, u.PasswordHash, u.IsAdmin).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if conflict := uniqueConflict(err, u); conflict != nil {
			return conflict
		}
		return oops.Code("USER_CREATE_FAILED").
			With("operation", "insert user").
			With("username", u.Username).
			Wrap(err)
	}
	return nil
}

// GetByUsername retrieves a user by username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	var u user.User
	err := store.Conn(ctx, r.pool).QueryRow(ctx, `
		SELECT username, name, email, password_hash, is_admin, created_at, updated_at
		FROM users
		WHERE username = $1
	`, username).Scan(&u.Username, &u.Name, &u.Email, &u.PasswordHash, &u.IsAdmin, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound(username)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_FAILED").
			With("operation", "get user").
			With("username", username).
			Wrap(err)
	}
	return &u, nil
}

// List returns all users ordered by username.
func (r *UserRepository) List(ctx context.Context) ([]user.User, error) {
	rows, err := store.Conn(ctx, r.pool).Query(ctx, `
		SELECT username, name, email, password_hash, is_admin, created_at, updated_at
		FROM users
		ORDER BY username
	`)
	if err != nil {
		return nil, oops.Code("USER_LIST_FAILED").
			With("operation", "list users").
			Wrap(err)
	}
	defer rows.Close()

	users := []user.User{}
	for rows.Next() {
		var u user.User
		if err := rows.Scan(&u.Username, &u.Name, &u.Email, &u.PasswordHash, &u.IsAdmin, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, oops.Code("USER_LIST_FAILED").
				With("operation", "scan user row").
				Wrap(err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("USER_LIST_FAILED").
			With("operation", "iterate users").
			Wrap(err)
	}
	return users, nil
}

// Update writes name, email and password hash.
func (r *UserRepository) Update(ctx context.Context, u *user.User) error {
	err := store.Conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE users SET
			name = $2,
			email = $3,
			password_hash = $4,
			updated_at = now()
		WHERE username = $1
		RETURNING updated_at
	`, u.Username, u.Name, u.Email, u.PasswordHash).Scan(&u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return notFound(u.Username)
	}
	if err != nil {
		if conflict := uniqueConflict(err, u); conflict != nil {
			return conflict
		}
		return oops.Code("USER_UPDATE_FAILED").
			With("operation", "update user").
			With("username", u.Username).
			Wrap(err)
	}
	return nil
}

// Delete removes a user.
func (r *UserRepository) Delete(ctx context.Context, username string) error {
	result, err := store.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM users WHERE username = $1`, username)
	if err != nil {
		return oops.Code("USER_DELETE_FAILED").
			With("operation", "delete user").
			With("username", username).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return notFound(username)
	}
	return nil
}

// Exists reports whether a user exists.
func (r *UserRepository) Exists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := store.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`, username).Scan(&exists)
	if err != nil {
		return false, oops.Code("USER_EXISTS_CHECK_FAILED").
			With("username", username).
			Wrap(err)
	}
	return exists, nil
}

func uniqueConflict(err error, u *user.User) error {
	v, ok := store.ConstraintViolation(err)
	if !ok || !v.IsUnique() {
		return nil
	}
	switch v.Constraint {
	case usernameConstraint:
		return oops.Code("USER_USERNAME_TAKEN").
			With("username", u.Username).
			Wrapf(errutil.ErrConflict, "username is already taken")
	case emailConstraint:
		return oops.Code("USER_EMAIL_TAKEN").
			With("username", u.Username).
			Wrapf(errutil.ErrConflict, "email is already registered")
	default:
		return oops.Code("USER_CONFLICT").
			With("constraint", v.Constraint).
			Wrapf(errutil.ErrConflict, "user conflicts with an existing record")
	}
}

func notFound(username string) error {
	return oops.Code("USER_NOT_FOUND").
		With("username", username).
		Wrapf(errutil.ErrNotFound, "user not found")
}
