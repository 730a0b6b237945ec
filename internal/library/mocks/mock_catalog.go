// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sheetshelf Contributors

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sheetshelf/sheetshelf/internal/catalog"
)

// MockCatalog is a mock type for the Catalog type
type MockCatalog struct {
	mock.Mock
}

// Lookup provides a mock function with given fields: ctx, externalID
func (_m *MockCatalog) Lookup(ctx context.Context, externalID string) (*catalog.Work, error) {
	ret := _m.Called(ctx, externalID)
	var w *catalog.Work
	if v := ret.Get(0); v != nil {
		w = v.(*catalog.Work)
	}
	return w, ret.Error(1)
}

// NewMockCatalog creates a new instance of MockCatalog. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockCatalog(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockCatalog {
	m := &MockCatalog{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
