// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sheetshelf Contributors

// Package user is the user directory: registration, profile reads, updates
// gated by password re-verification, and cascading removal.
package user

import (
	"context"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/samber/oops"

	"github.com/sheetshelf/sheetshelf/internal/auth"
	"github.com/sheetshelf/sheetshelf/internal/library"
	"github.com/sheetshelf/sheetshelf/pkg/errutil"
)

// Username validation constraints.
const (
	MinUsernameLength = 3
	MaxUsernameLength = 30
	MaxNameLength     = 100
)

// usernameRegex matches usernames that:
// - Start with a letter (a-z, A-Z)
// - Contain only letters, numbers, and underscores
var usernameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// User is a registered account. PasswordHash never leaves the process.
type User struct {
	Username     string    `json:"username"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	IsAdmin      bool      `json:"isAdmin"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Identity returns the claims a token for u carries.
func (u *User) Identity() auth.Identity {
	return auth.Identity{Username: u.Username, IsAdmin: u.IsAdmin}
}

// Profile is a user together with their library.
type Profile struct {
	User
	Works []library.Entry `json:"works"`
}

// NewUser is the input for creating an account.
type NewUser struct {
	Username string
	Name     string
	Email    string
	Password string
	IsAdmin  bool

	// PasswordHash, when set, is stored instead of hashing Password. It
	// carries accounts imported from other systems.
	PasswordHash string
}

// Validate checks the shape of a new account.
func (n NewUser) Validate() error {
	if err := ValidateUsername(n.Username); err != nil {
		return err
	}
	if err := validateName(n.Name); err != nil {
		return err
	}
	if err := validateEmail(n.Email); err != nil {
		return err
	}
	if n.PasswordHash != "" {
		if !auth.RecognizedHash(n.PasswordHash) {
			return oops.Code("USER_INVALID").
				With("field", "passwordHash").
				Wrapf(errutil.ErrValidation, "password hash is not a supported argon2id or bcrypt hash")
		}
		return nil
	}
	if n.Password == "" {
		return oops.Code("USER_INVALID").
			With("field", "password").
			Wrapf(errutil.ErrValidation, "password is required")
	}
	return nil
}

// Changes is a profile update. Password is the caller's current password and
// must verify before anything else is applied.
type Changes struct {
	Password string
	Name     *string
	Email    *string
}

// Validate checks the shape of the changed fields.
func (c Changes) Validate() error {
	if c.Password == "" {
		return oops.Code("USER_INVALID").
			With("field", "password").
			Wrapf(errutil.ErrValidation, "password is required")
	}
	if c.Name != nil {
		if err := validateName(*c.Name); err != nil {
			return err
		}
	}
	if c.Email != nil {
		if err := validateEmail(*c.Email); err != nil {
			return err
		}
	}
	return nil
}

// ValidateUsername validates a username against rules.
// Username requirements:
// - Length: MinUsernameLength to MaxUsernameLength characters
// - Must start with a letter
// - Can contain only letters (a-z, A-Z), numbers (0-9), and underscores (_)
func ValidateUsername(username string) error {
	if username == "" {
		return oops.Code("USER_INVALID_USERNAME").Wrapf(errutil.ErrValidation, "username cannot be empty")
	}
	if len(username) < MinUsernameLength {
		return oops.Code("USER_INVALID_USERNAME").
			With("min", MinUsernameLength).
			Wrapf(errutil.ErrValidation, "username must be at least %d characters", MinUsernameLength)
	}
	if len(username) > MaxUsernameLength {
		return oops.Code("USER_INVALID_USERNAME").
			With("max", MaxUsernameLength).
			Wrapf(errutil.ErrValidation, "username must be at most %d characters", MaxUsernameLength)
	}
	if !usernameRegex.MatchString(username) {
		return oops.Code("USER_INVALID_USERNAME").
			Wrapf(errutil.ErrValidation, "username must start with a letter and contain only letters, numbers, and underscores")
	}
	return nil
}

func validateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return oops.Code("USER_INVALID").
			With("field", "name").
			Wrapf(errutil.ErrValidation, "name is required")
	}
	if len(name) > MaxNameLength {
		return oops.Code("USER_INVALID").
			With("field", "name").
			With("max", MaxNameLength).
			Wrapf(errutil.ErrValidation, "name must be at most %d characters", MaxNameLength)
	}
	return nil
}

func validateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != strings.TrimSpace(email) {
		return oops.Code("USER_INVALID").
			With("field", "email").
			Wrapf(errutil.ErrValidation, "email is not a valid address")
	}
	return nil
}

// Repository manages user persistence.
type Repository interface {
	// Create stores a new user and fills in its timestamps. A taken username
	// or email is a Conflict.
	Create(ctx context.Context, u *User) error

	// GetByUsername retrieves a user by username.
	GetByUsername(ctx context.Context, username string) (*User, error)

	// List returns all users ordered by username.
	List(ctx context.Context) ([]User, error)

	// Update writes name, email and password hash.
	Update(ctx context.Context, u *User) error

	// Delete removes a user.
	Delete(ctx context.Context, username string) error
}

// EntryPurger removes every library entry of a user.
type EntryPurger interface {
	DeleteByUser(ctx context.Context, username string) (int64, error)
}

// LibraryReader returns a user's enriched library.
type LibraryReader interface {
	Entries(ctx context.Context, username string) ([]library.Entry, error)
}

// TokenIssuer signs identity tokens.
type TokenIssuer interface {
	Issue(id auth.Identity) (string, error)
}

// Transactor runs fn inside a transaction carried by ctx.
type Transactor interface {
	InTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
