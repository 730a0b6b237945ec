// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sheetshelf Contributors

// Package mocks holds testify mocks of the library interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sheetshelf/sheetshelf/internal/library"
)

// MockWorkRepository is a mock type for the WorkRepository type
type MockWorkRepository struct {
	mock.Mock
}

// Create provides a mock function with given fields: ctx, w
func (_m *MockWorkRepository) Create(ctx context.Context, w *library.Work) error {
	ret := _m.Called(ctx, w)
	if rf, ok := ret.Get(0).(func(context.Context, *library.Work) error); ok {
		return rf(ctx, w)
	}
	return ret.Error(0)
}

// Get provides a mock function with given fields: ctx, id
func (_m *MockWorkRepository) Get(ctx context.Context, id int64) (*library.Work, error) {
	ret := _m.Called(ctx, id)
	var w *library.Work
	if v := ret.Get(0); v != nil {
		w = v.(*library.Work)
	}
	return w, ret.Error(1)
}

// Delete provides a mock function with given fields: ctx, id
func (_m *MockWorkRepository) Delete(ctx context.Context, id int64) error {
	ret := _m.Called(ctx, id)
	return ret.Error(0)
}

// NewMockWorkRepository creates a new instance of MockWorkRepository. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockWorkRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockWorkRepository {
	m := &MockWorkRepository{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
