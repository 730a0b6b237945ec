// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sheetshelf Contributors

package access

// Permission groups define reusable sets of permissions.
// Roles compose these groups rather than inheriting.

var userPowers = []string{
	// Own account and library
	"manage:user:$self",
	"manage:library:$self",

	// Shared catalog
	"read:work:*",
	"create:work:*",
}

var adminPowers = []string{
	"manage:**",
	"administer:**",
	"read:**",
	"create:**",
	"delete:**",
}

// DefaultRoles returns the default role definitions.
func DefaultRoles() map[string][]string {
	return map[string][]string{
		RoleUser:  userPowers,
		RoleAdmin: compose(userPowers, adminPowers),
	}
}

// compose merges multiple permission slices into one.
func compose(groups ...[]string) []string {
	total := 0
	for _, g := range groups {
		total += len(g)
	}
	result := make([]string, 0, total)
	for _, g := range groups {
		result = append(result, g...)
	}
	return result
}
