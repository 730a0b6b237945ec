// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sheetshelf Contributors

// Package auth provides the credential and token primitives: salted password
// hashing, signed identity tokens, and the authenticated Identity carried on
// request contexts.
//
// Nothing in this package touches storage. The user directory decides when to
// hash or verify, and the HTTP layer decides when to decode a token.
package auth
