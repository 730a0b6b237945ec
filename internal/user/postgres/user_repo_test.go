// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sheetshelf Contributors

package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheetshelf/sheetshelf/internal/user"
	"github.com/sheetshelf/sheetshelf/internal/user/postgres"
	"github.com/sheetshelf/sheetshelf/pkg/errutil"
)

var userCols = []string{"username", "name", "email", "password_hash", "is_admin", "created_at", "updated_at"}

func TestUserRepository_Create(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		err      error
		wantCode string
		wantKind errutil.Kind
	}{
		{name: "created"},
		{
			name:     "username taken",
			err:      &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_pkey"},
			wantCode: "USER_USERNAME_TAKEN",
			wantKind: errutil.KindConflict,
		},
		{
			name:     "email taken",
			err:      &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_email_key"},
			wantCode: "USER_EMAIL_TAKEN",
			wantKind: errutil.KindConflict,
		},
		{
			name:     "database error",
			err:      errors.New("connection refused"),
			wantCode: "USER_CREATE_FAILED",
			wantKind: errutil.KindInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			exp := mock.ExpectQuery(`INSERT INTO users`).
				WithArgs("bob", "Bob", "b@x.com", "hash", false)
			if tt.err != nil {
				exp.WillReturnError(tt.err)
			} else {
				exp.WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
			}

			u := &user.User{Username: "bob", Name: "Bob", Email: "b@x.com", PasswordHash: "hash"}
			err = postgres.NewUserRepository(mock).Create(context.Background(), u)
			if tt.wantCode != "" {
				errutil.AssertErrorCode(t, err, tt.wantCode)
				errutil.AssertKind(t, err, tt.wantKind)
			} else {
				require.NoError(t, err)
				assert.Equal(t, now, u.CreatedAt)
			}
			assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
		})
	}
}

func TestUserRepository_GetByUsername(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`FROM users\s+WHERE username = \$1`).
			WithArgs("alice").
			WillReturnRows(pgxmock.NewRows(userCols).AddRow("alice", "Alice", "a@x.com", "h", true, now, now))

		u, err := postgres.NewUserRepository(mock).GetByUsername(context.Background(), "alice")
		require.NoError(t, err)
		assert.Equal(t, "Alice", u.Name)
		assert.True(t, u.IsAdmin)
		assert.Equal(t, "h", u.PasswordHash)
	})

	t.Run("not found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`FROM users`).WithArgs("ghost").WillReturnError(pgx.ErrNoRows)

		_, err = postgres.NewUserRepository(mock).GetByUsername(context.Background(), "ghost")
		errutil.AssertErrorCode(t, err, "USER_NOT_FOUND")
		errutil.AssertKind(t, err, errutil.KindNotFound)
	})
}

func TestUserRepository_List(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`ORDER BY username`).
		WillReturnRows(pgxmock.NewRows(userCols).
			AddRow("alice", "Alice", "a@x.com", "h1", true, now, now).
			AddRow("bob", "Bob", "b@x.com", "h2", false, now, now))

	users, err := postgres.NewUserRepository(mock).List(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].Username)
	assert.Equal(t, "bob", users[1].Username)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Update(t *testing.T) {
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		setup    func(exp *pgxmock.ExpectedQuery)
		wantCode string
	}{
		{
			name: "updated",
			setup: func(exp *pgxmock.ExpectedQuery) {
				exp.WillReturnRows(pgxmock.NewRows([]string{"updated_at"}).AddRow(now))
			},
		},
		{
			name:     "missing",
			setup:    func(exp *pgxmock.ExpectedQuery) { exp.WillReturnError(pgx.ErrNoRows) },
			wantCode: "USER_NOT_FOUND",
		},
		{
			name: "email collision",
			setup: func(exp *pgxmock.ExpectedQuery) {
				exp.WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_email_key"})
			},
			wantCode: "USER_EMAIL_TAKEN",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			tt.setup(mock.ExpectQuery(`UPDATE users SET`).WithArgs("bob", "Robert", "r@x.com", "hash"))

			u := &user.User{Username: "bob", Name: "Robert", Email: "r@x.com", PasswordHash: "hash"}
			err = postgres.NewUserRepository(mock).Update(context.Background(), u)
			if tt.wantCode != "" {
				errutil.AssertErrorCode(t, err, tt.wantCode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, now, u.UpdatedAt)
		})
	}
}

func TestUserRepository_Delete(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`DELETE FROM users WHERE username = \$1`).WithArgs("bob").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(`DELETE FROM users WHERE username = \$1`).WithArgs("bob").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	repo := postgres.NewUserRepository(mock)
	require.NoError(t, repo.Delete(context.Background(), "bob"))
	err = repo.Delete(context.Background(), "bob")
	errutil.AssertKind(t, err, errutil.KindNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Exists(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT EXISTS`).WithArgs("bob").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`SELECT EXISTS`).WithArgs("ghost").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

	repo := postgres.NewUserRepository(mock)
	ok, err := repo.Exists(context.Background(), "bob")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Exists(context.Background(), "ghost")
	require.NoError(t, err)
	assert.False(t, ok)
}
