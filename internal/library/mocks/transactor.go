// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sheetshelf Contributors

package mocks

import (
	"context"
)

// PassthroughTransactor runs fn directly, without a database.
type PassthroughTransactor struct {
	Calls int
}

// InTransaction calls fn with ctx.
func (p *PassthroughTransactor) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	p.Calls++
	return fn(ctx)
}
