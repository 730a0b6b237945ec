// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sheetshelf Contributors

package access

import (
	"strings"

	"github.com/gobwas/glob"
	"github.com/samber/oops"

	"github.com/sheetshelf/sheetshelf/internal/auth"
	"github.com/sheetshelf/sheetshelf/pkg/errutil"
)

// Guard evaluates identities against compiled role permissions.
// It holds no mutable state, performs no I/O and is safe for concurrent use.
// Callers log denials.
type Guard struct {
	roles map[string][]compiledPermission // roleName → compiled permission patterns
}

// compiledPermission holds a permission pattern and its compiled glob.
type compiledPermission struct {
	pattern string
	glob    glob.Glob
}

// NewGuard creates a guard with DefaultRoles.
//
// Panics if default roles contain invalid permission patterns (configuration bug).
func NewGuard() *Guard {
	g, err := NewGuardWithRoles(DefaultRoles())
	if err != nil {
		panic("invalid permission pattern in DefaultRoles: " + err.Error())
	}
	return g
}

// NewGuardWithRoles creates a guard with custom roles.
// Returns error if any permission pattern fails to compile.
func NewGuardWithRoles(roles map[string][]string) (*Guard, error) {
	compiledRoles := make(map[string][]compiledPermission, len(roles))
	for role, perms := range roles {
		compiled := make([]compiledPermission, 0, len(perms))
		for _, p := range perms {
			g, err := glob.Compile(p, ':')
			if err != nil {
				return nil, oops.In("access").
					Code("INVALID_PERMISSION_PATTERN").
					With("role", role).
					With("pattern", p).
					Wrap(err)
			}
			compiled = append(compiled, compiledPermission{pattern: p, glob: g})
		}
		compiledRoles[role] = compiled
	}
	return &Guard{roles: compiledRoles}, nil
}

// Allowed reports whether id may perform action on resource.
// A nil or nameless identity is never allowed.
func (g *Guard) Allowed(id *auth.Identity, action, resource string) bool {
	if id == nil || id.Username == "" {
		return false
	}

	requested := action + ":" + resource
	for _, perm := range g.roles[RoleOf(id)] {
		if !strings.Contains(perm.pattern, "$self") {
			if perm.glob.Match(requested) {
				return true
			}
			continue
		}

		// Quote the username so it can only ever match itself.
		resolved := strings.ReplaceAll(perm.pattern, "$self", glob.QuoteMeta(id.Username))
		compiled, err := glob.Compile(resolved, ':')
		if err != nil {
			continue
		}
		if compiled.Match(requested) {
			return true
		}
	}
	return false
}

// Check is Allowed as an error: Unauthorized without an identity, Forbidden
// when the identity's role does not grant the permission.
func (g *Guard) Check(id *auth.Identity, action, resource string) error {
	if id == nil || id.Username == "" {
		return oops.In("access").
			Code("ACCESS_UNAUTHENTICATED").
			With("action", action).
			With("resource", resource).
			Wrapf(errutil.ErrUnauthorized, "authentication required")
	}
	if !g.Allowed(id, action, resource) {
		return oops.In("access").
			Code("ACCESS_DENIED").
			With("username", id.Username).
			With("action", action).
			With("resource", resource).
			Wrapf(errutil.ErrForbidden, "not permitted to %s %s", action, resource)
	}
	return nil
}

// SelfOrAdmin allows the named user themselves or any admin.
func (g *Guard) SelfOrAdmin(id *auth.Identity, username string) error {
	return g.Check(id, ActionManage, UserResource(username))
}

// AdminOnly allows admins only.
func (g *Guard) AdminOnly(id *auth.Identity) error {
	return g.Check(id, ActionAdminister, ResourceDirectory)
}
