// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sheetshelf Contributors

package user

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/samber/oops"

	"github.com/sheetshelf/sheetshelf/internal/auth"
	"github.com/sheetshelf/sheetshelf/pkg/errutil"
)

// Deps are the collaborators of a Service.
type Deps struct {
	Users      Repository
	Entries    EntryPurger
	Library    LibraryReader
	Transactor Transactor
	Hasher     auth.PasswordHasher
	Tokens     TokenIssuer
	Logger     *slog.Logger
}

// Service implements the user directory operations. Route-level
// authorization is the caller's concern; Update additionally re-verifies the
// password itself.
type Service struct {
	users   Repository
	entries EntryPurger
	library LibraryReader
	tx      Transactor
	hasher  auth.PasswordHasher
	tokens  TokenIssuer
	logger  *slog.Logger
}

// NewService creates a Service.
func NewService(d Deps) (*Service, error) {
	switch {
	case d.Users == nil:
		return nil, oops.Errorf("user repository is required")
	case d.Entries == nil:
		return nil, oops.Errorf("entry purger is required")
	case d.Library == nil:
		return nil, oops.Errorf("library reader is required")
	case d.Transactor == nil:
		return nil, oops.Errorf("transactor is required")
	case d.Hasher == nil:
		return nil, oops.Errorf("password hasher is required")
	case d.Tokens == nil:
		return nil, oops.Errorf("token issuer is required")
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return &Service{
		users:   d.Users,
		entries: d.Entries,
		library: d.Library,
		tx:      d.Transactor,
		hasher:  d.Hasher,
		tokens:  d.Tokens,
		logger:  d.Logger,
	}, nil
}

// Register creates an account and issues its token. An imported
// PasswordHash is stored as is; it is upgraded on the first login.
func (s *Service) Register(ctx context.Context, in NewUser) (*User, string, error) {
	if err := in.Validate(); err != nil {
		return nil, "", err
	}

	hash := in.PasswordHash
	if hash == "" {
		var err error
		hash, err = s.hasher.Hash(in.Password)
		if err != nil {
			return nil, "", oops.Code("USER_REGISTER_FAILED").With("username", in.Username).Wrap(err)
		}
	}

	u := &User{
		Username:     in.Username,
		Name:         strings.TrimSpace(in.Name),
		Email:        strings.TrimSpace(in.Email),
		PasswordHash: hash,
		IsAdmin:      in.IsAdmin,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, "", err
	}

	token, err := s.tokens.Issue(u.Identity())
	if err != nil {
		return nil, "", err
	}

	s.logger.InfoContext(ctx, "user registered", "username", u.Username, "is_admin", u.IsAdmin)
	return u, token, nil
}

// Login verifies a username and password and issues a token. Unknown users
// and wrong passwords fail identically.
func (s *Service) Login(ctx context.Context, username, password string) (*User, string, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, errutil.ErrNotFound) {
			return nil, "", err
		}
		// Burn the same time as a real verification.
		s.hasher.Verify(password, auth.DummyPasswordHash)
		return nil, "", invalidCredentials(username)
	}
	if !s.hasher.Verify(password, u.PasswordHash) {
		return nil, "", invalidCredentials(username)
	}

	if s.hasher.NeedsUpgrade(u.PasswordHash) {
		s.upgradeHash(ctx, u, password)
	}

	token, err := s.tokens.Issue(u.Identity())
	if err != nil {
		return nil, "", err
	}
	s.logger.InfoContext(ctx, "user logged in", "username", u.Username)
	return u, token, nil
}

func (s *Service) upgradeHash(ctx context.Context, u *User, password string) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		errutil.LogErrorContext(ctx, s.logger, "password rehash failed", err)
		return
	}
	upgraded := *u
	upgraded.PasswordHash = hash
	if err := s.users.Update(ctx, &upgraded); err != nil {
		errutil.LogErrorContext(ctx, s.logger, "password hash upgrade not saved", err)
		return
	}
	*u = upgraded
	s.logger.InfoContext(ctx, "password hash upgraded", "username", u.Username)
}

// List returns every user.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.users.List(ctx)
}

// Get returns the user with their enriched library.
func (s *Service) Get(ctx context.Context, username string) (*Profile, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	works, err := s.library.Entries(ctx, username)
	if err != nil {
		return nil, err
	}
	return &Profile{User: *u, Works: works}, nil
}

// Update applies name and email changes after the current password verifies.
// A wrong password fails with Unauthorized and changes nothing.
func (s *Service) Update(ctx context.Context, username string, c Changes) (*User, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if !s.hasher.Verify(c.Password, u.PasswordHash) {
		s.logger.WarnContext(ctx, "profile update rejected", "username", username, "reason", "bad password")
		return nil, oops.Code("AUTH_BAD_PASSWORD").
			With("username", username).
			Wrapf(errutil.ErrUnauthorized, "bad password")
	}

	updated := *u
	if c.Name != nil {
		updated.Name = strings.TrimSpace(*c.Name)
	}
	if c.Email != nil {
		updated.Email = strings.TrimSpace(*c.Email)
	}
	if err := s.users.Update(ctx, &updated); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user updated", "username", username)
	return &updated, nil
}

// Remove deletes the user and all of their library entries in one
// transaction, entries first.
func (s *Service) Remove(ctx context.Context, username string) error {
	var removed int64
	err := s.tx.InTransaction(ctx, func(ctx context.Context) error {
		n, err := s.entries.DeleteByUser(ctx, username)
		if err != nil {
			return err
		}
		removed = n
		return s.users.Delete(ctx, username)
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "user removed", "username", username, "entries_removed", removed)
	return nil
}

func invalidCredentials(username string) error {
	return oops.Code("AUTH_INVALID_CREDENTIALS").
		With("username", username).
		Wrapf(errutil.ErrUnauthorized, "invalid username or password")
}
