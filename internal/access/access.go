// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sheetshelf Contributors

// Package access decides whether an authenticated identity may act on a
// resource.
//
// Permissions are "action:resource" strings matched against glob patterns
// compiled per role, with ':' as the separator:
//   - action: "manage", "administer", "read", "create", "delete"
//   - resource: "user:bob", "library:bob", "work:42", "directory"
//
// The role of an identity is derived from its admin flag, never stored.
// Anything not granted by a role is denied.
package access

import (
	"strconv"

	"github.com/sheetshelf/sheetshelf/internal/auth"
)

// Actions.
const (
	ActionManage     = "manage"
	ActionAdminister = "administer"
	ActionRead       = "read"
	ActionCreate     = "create"
	ActionDelete     = "delete"
)

// Role names.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// ResourceDirectory is the whole user directory.
const ResourceDirectory = "directory"

// UserResource names a user's account.
func UserResource(username string) string { return "user:" + username }

// LibraryResource names a user's library.
func LibraryResource(username string) string { return "library:" + username }

// ResourceNewWork names a work that does not exist yet.
const ResourceNewWork = "work:new"

// WorkResource names a catalog work.
func WorkResource(id int64) string { return "work:" + strconv.FormatInt(id, 10) }

// RoleOf returns the role an identity acts under.
func RoleOf(id *auth.Identity) string {
	if id != nil && id.IsAdmin {
		return RoleAdmin
	}
	return RoleUser
}
