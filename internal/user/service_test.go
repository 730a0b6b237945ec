// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sheetshelf Contributors

package user_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sheetshelf/sheetshelf/internal/auth"
	authmocks "github.com/sheetshelf/sheetshelf/internal/auth/mocks"
	"github.com/sheetshelf/sheetshelf/internal/library"
	librarymocks "github.com/sheetshelf/sheetshelf/internal/library/mocks"
	"github.com/sheetshelf/sheetshelf/internal/user"
	"github.com/sheetshelf/sheetshelf/internal/user/mocks"
	"github.com/sheetshelf/sheetshelf/pkg/errutil"
)

type serviceFixture struct {
	users   *mocks.MockRepository
	entries *mocks.MockEntryPurger
	library *mocks.MockLibraryReader
	tx      *librarymocks.PassthroughTransactor
	hasher  *authmocks.MockPasswordHasher
	tokens  *authmocks.MockTokenIssuer
	svc     *user.Service
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	f := &serviceFixture{
		users:   mocks.NewMockRepository(t),
		entries: mocks.NewMockEntryPurger(t),
		library: mocks.NewMockLibraryReader(t),
		tx:      &librarymocks.PassthroughTransactor{},
		hasher:  authmocks.NewMockPasswordHasher(t),
		tokens:  authmocks.NewMockTokenIssuer(t),
	}
	svc, err := user.NewService(user.Deps{
		Users:      f.users,
		Entries:    f.entries,
		Library:    f.library,
		Transactor: f.tx,
		Hasher:     f.hasher,
		Tokens:     f.tokens,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func stored() *user.User {
	return &user.User{Username: "bob", Name: "Bob", Email: "b@x.com", PasswordHash: "stored-hash"}
}

func TestNewService_RequiresDeps(t *testing.T) {
	_, err := user.NewService(user.Deps{})
	assert.ErrorContains(t, err, "user repository is required")
}

func TestService_Register(t *testing.T) {
	ctx := context.Background()
	in := user.NewUser{Username: "bob", Name: " Bob ", Email: "b@x.com", Password: "pw123"}

	t.Run("creates user and issues token", func(t *testing.T) {
		f := newServiceFixture(t)
		f.hasher.On("Hash", "pw123").Return("hashed", nil)
		f.users.On("Create", ctx, mock.MatchedBy(func(u *user.User) bool {
			return u.Username == "bob" && u.Name == "Bob" && u.PasswordHash == "hashed" && !u.IsAdmin
		})).Return(nil)
		f.tokens.On("Issue", auth.Identity{Username: "bob"}).Return("signed-token", nil)

		u, token, err := f.svc.Register(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, "bob", u.Username)
		assert.Equal(t, "signed-token", token)
	})

	t.Run("duplicate username is a conflict", func(t *testing.T) {
		f := newServiceFixture(t)
		f.hasher.On("Hash", "pw123").Return("hashed", nil)
		f.users.On("Create", ctx, mock.Anything).
			Return(oops.Code("USER_USERNAME_TAKEN").Wrap(errutil.ErrConflict))

		_, _, err := f.svc.Register(ctx, in)
		errutil.AssertKind(t, err, errutil.KindConflict)
		f.tokens.AssertNotCalled(t, "Issue", mock.Anything)
	})

	t.Run("invalid input never hashes", func(t *testing.T) {
		f := newServiceFixture(t)
		bad := in
		bad.Username = "x"

		_, _, err := f.svc.Register(ctx, bad)
		errutil.AssertKind(t, err, errutil.KindValidation)
		f.hasher.AssertNotCalled(t, "Hash", mock.Anything)
	})

	t.Run("imported hash is stored without hashing", func(t *testing.T) {
		f := newServiceFixture(t)
		imported := in
		imported.Password = ""
		imported.PasswordHash = auth.DummyPasswordHash
		f.users.On("Create", ctx, mock.MatchedBy(func(u *user.User) bool {
			return u.PasswordHash == auth.DummyPasswordHash
		})).Return(nil)
		f.tokens.On("Issue", auth.Identity{Username: "bob"}).Return("t", nil)

		_, _, err := f.svc.Register(ctx, imported)
		require.NoError(t, err)
		f.hasher.AssertNotCalled(t, "Hash", mock.Anything)
	})

	t.Run("admin flag is carried into the token", func(t *testing.T) {
		f := newServiceFixture(t)
		admin := in
		admin.IsAdmin = true
		f.hasher.On("Hash", "pw123").Return("hashed", nil)
		f.users.On("Create", ctx, mock.Anything).Return(nil)
		f.tokens.On("Issue", auth.Identity{Username: "bob", IsAdmin: true}).Return("t", nil)

		u, _, err := f.svc.Register(ctx, admin)
		require.NoError(t, err)
		assert.True(t, u.IsAdmin)
	})
}

func TestService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("valid credentials", func(t *testing.T) {
		f := newServiceFixture(t)
		f.users.On("GetByUsername", ctx, "bob").Return(stored(), nil)
		f.hasher.On("Verify", "pw123", "stored-hash").Return(true)
		f.hasher.On("NeedsUpgrade", "stored-hash").Return(false)
		f.tokens.On("Issue", auth.Identity{Username: "bob"}).Return("tok", nil)

		u, token, err := f.svc.Login(ctx, "bob", "pw123")
		require.NoError(t, err)
		assert.Equal(t, "bob", u.Username)
		assert.Equal(t, "tok", token)
	})

	t.Run("unknown user verifies against the dummy hash", func(t *testing.T) {
		f := newServiceFixture(t)
		f.users.On("GetByUsername", ctx, "ghost").
			Return(nil, oops.Code("USER_NOT_FOUND").Wrap(errutil.ErrNotFound))
		f.hasher.On("Verify", "pw", auth.DummyPasswordHash).Return(false)

		_, _, err := f.svc.Login(ctx, "ghost", "pw")
		errutil.AssertErrorCode(t, err, "AUTH_INVALID_CREDENTIALS")
		errutil.AssertKind(t, err, errutil.KindUnauthorized)
	})

	t.Run("wrong password", func(t *testing.T) {
		f := newServiceFixture(t)
		f.users.On("GetByUsername", ctx, "bob").Return(stored(), nil)
		f.hasher.On("Verify", "nope", "stored-hash").Return(false)

		_, _, err := f.svc.Login(ctx, "bob", "nope")
		errutil.AssertErrorCode(t, err, "AUTH_INVALID_CREDENTIALS")
	})

	t.Run("legacy hash is upgraded", func(t *testing.T) {
		f := newServiceFixture(t)
		f.users.On("GetByUsername", ctx, "bob").Return(stored(), nil)
		f.hasher.On("Verify", "pw123", "stored-hash").Return(true)
		f.hasher.On("NeedsUpgrade", "stored-hash").Return(true)
		f.hasher.On("Hash", "pw123").Return("new-hash", nil)
		f.users.On("Update", ctx, mock.MatchedBy(func(u *user.User) bool {
			return u.PasswordHash == "new-hash"
		})).Return(nil)
		f.tokens.On("Issue", auth.Identity{Username: "bob"}).Return("tok", nil)

		u, _, err := f.svc.Login(ctx, "bob", "pw123")
		require.NoError(t, err)
		assert.Equal(t, "new-hash", u.PasswordHash)
	})

	t.Run("failed upgrade still logs in", func(t *testing.T) {
		f := newServiceFixture(t)
		f.users.On("GetByUsername", ctx, "bob").Return(stored(), nil)
		f.hasher.On("Verify", "pw123", "stored-hash").Return(true)
		f.hasher.On("NeedsUpgrade", "stored-hash").Return(true)
		f.hasher.On("Hash", "pw123").Return("new-hash", nil)
		f.users.On("Update", ctx, mock.Anything).Return(errors.New("db down"))
		f.tokens.On("Issue", auth.Identity{Username: "bob"}).Return("tok", nil)

		u, _, err := f.svc.Login(ctx, "bob", "pw123")
		require.NoError(t, err)
		assert.Equal(t, "stored-hash", u.PasswordHash)
	})
}

func TestService_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("user with works", func(t *testing.T) {
		f := newServiceFixture(t)
		f.users.On("GetByUsername", ctx, "bob").Return(stored(), nil)
		f.library.On("Entries", ctx, "bob").Return([]library.Entry{{WorkID: 42}}, nil)

		p, err := f.svc.Get(ctx, "bob")
		require.NoError(t, err)
		assert.Equal(t, "bob", p.Username)
		require.Len(t, p.Works, 1)
		assert.Equal(t, int64(42), p.Works[0].WorkID)
	})

	t.Run("missing user", func(t *testing.T) {
		f := newServiceFixture(t)
		f.users.On("GetByUsername", ctx, "ghost").
			Return(nil, oops.Code("USER_NOT_FOUND").Wrap(errutil.ErrNotFound))

		_, err := f.svc.Get(ctx, "ghost")
		errutil.AssertKind(t, err, errutil.KindNotFound)
		f.library.AssertNotCalled(t, "Entries", mock.Anything, mock.Anything)
	})
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()
	newName := "Robert"
	newEmail := "robert@x.com"

	t.Run("verified password applies changes", func(t *testing.T) {
		f := newServiceFixture(t)
		f.users.On("GetByUsername", ctx, "bob").Return(stored(), nil)
		f.hasher.On("Verify", "pw123", "stored-hash").Return(true)
		f.users.On("Update", ctx, mock.MatchedBy(func(u *user.User) bool {
			return u.Name == "Robert" && u.Email == "robert@x.com" && u.PasswordHash == "stored-hash"
		})).Return(nil)

		u, err := f.svc.Update(ctx, "bob", user.Changes{Password: "pw123", Name: &newName, Email: &newEmail})
		require.NoError(t, err)
		assert.Equal(t, "Robert", u.Name)
	})

	t.Run("bad password never mutates", func(t *testing.T) {
		f := newServiceFixture(t)
		original := stored()
		f.users.On("GetByUsername", ctx, "bob").Return(original, nil)
		f.hasher.On("Verify", "wrong", "stored-hash").Return(false)

		_, err := f.svc.Update(ctx, "bob", user.Changes{Password: "wrong", Name: &newName})
		errutil.AssertErrorCode(t, err, "AUTH_BAD_PASSWORD")
		errutil.AssertKind(t, err, errutil.KindUnauthorized)
		f.users.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
		assert.Equal(t, "Bob", original.Name)
	})

	t.Run("email collision", func(t *testing.T) {
		f := newServiceFixture(t)
		f.users.On("GetByUsername", ctx, "bob").Return(stored(), nil)
		f.hasher.On("Verify", "pw123", "stored-hash").Return(true)
		f.users.On("Update", ctx, mock.Anything).Return(oops.Code("USER_EMAIL_TAKEN").Wrap(errutil.ErrConflict))

		_, err := f.svc.Update(ctx, "bob", user.Changes{Password: "pw123", Email: &newEmail})
		errutil.AssertKind(t, err, errutil.KindConflict)
	})

	t.Run("missing password is a validation error", func(t *testing.T) {
		f := newServiceFixture(t)
		_, err := f.svc.Update(ctx, "bob", user.Changes{Name: &newName})
		errutil.AssertKind(t, err, errutil.KindValidation)
	})

	t.Run("missing user", func(t *testing.T) {
		f := newServiceFixture(t)
		f.users.On("GetByUsername", ctx, "ghost").
			Return(nil, oops.Code("USER_NOT_FOUND").Wrap(errutil.ErrNotFound))

		_, err := f.svc.Update(ctx, "ghost", user.Changes{Password: "pw"})
		errutil.AssertKind(t, err, errutil.KindNotFound)
	})
}

func TestService_Remove(t *testing.T) {
	ctx := context.Background()

	t.Run("entries are purged before the user", func(t *testing.T) {
		f := newServiceFixture(t)
		var order []string
		f.entries.On("DeleteByUser", ctx, "bob").
			Run(func(mock.Arguments) { order = append(order, "entries") }).
			Return(int64(3), nil)
		f.users.On("Delete", ctx, "bob").
			Run(func(mock.Arguments) { order = append(order, "user") }).
			Return(nil)

		require.NoError(t, f.svc.Remove(ctx, "bob"))
		assert.Equal(t, []string{"entries", "user"}, order)
		assert.Equal(t, 1, f.tx.Calls)
	})

	t.Run("missing user", func(t *testing.T) {
		f := newServiceFixture(t)
		f.entries.On("DeleteByUser", ctx, "ghost").Return(int64(0), nil)
		f.users.On("Delete", ctx, "ghost").Return(oops.Code("USER_NOT_FOUND").Wrap(errutil.ErrNotFound))

		errutil.AssertKind(t, f.svc.Remove(ctx, "ghost"), errutil.KindNotFound)
	})

	t.Run("purge failure aborts", func(t *testing.T) {
		f := newServiceFixture(t)
		f.entries.On("DeleteByUser", ctx, "bob").Return(int64(0), errors.New("db down"))

		assert.Error(t, f.svc.Remove(ctx, "bob"))
		f.users.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}

func TestService_List(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)
	f.users.On("List", ctx).Return([]user.User{*stored()}, nil)

	users, err := f.svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}
