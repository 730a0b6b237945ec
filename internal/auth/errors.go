// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sheetshelf Contributors

package auth

import (
	"github.com/samber/oops"

	"github.com/sheetshelf/sheetshelf/pkg/errutil"
)

// ErrEmptyPassword is returned when attempting to hash an empty password.
var ErrEmptyPassword = oops.Code("AUTH_EMPTY_PASSWORD").Wrapf(errutil.ErrValidation, "password cannot be empty")

// ErrEmptySecret is returned when a token service is built without a signing secret.
var ErrEmptySecret = oops.Code("AUTH_SECRET_MISSING").Errorf("token signing secret is required")
