// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sheetshelf Contributors

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sheetshelf/sheetshelf/internal/library"
)

// MockEntryRepository is a mock type for the EntryRepository type
type MockEntryRepository struct {
	mock.Mock
}

// Create provides a mock function with given fields: ctx, e
func (_m *MockEntryRepository) Create(ctx context.Context, e *library.Entry) error {
	ret := _m.Called(ctx, e)
	if rf, ok := ret.Get(0).(func(context.Context, *library.Entry) error); ok {
		return rf(ctx, e)
	}
	return ret.Error(0)
}

// Get provides a mock function with given fields: ctx, username, workID
func (_m *MockEntryRepository) Get(ctx context.Context, username string, workID int64) (*library.Entry, error) {
	ret := _m.Called(ctx, username, workID)
	var e *library.Entry
	if v := ret.Get(0); v != nil {
		e = v.(*library.Entry)
	}
	return e, ret.Error(1)
}

// Update provides a mock function with given fields: ctx, e
func (_m *MockEntryRepository) Update(ctx context.Context, e *library.Entry) error {
	ret := _m.Called(ctx, e)
	return ret.Error(0)
}

// Delete provides a mock function with given fields: ctx, username, workID
func (_m *MockEntryRepository) Delete(ctx context.Context, username string, workID int64) error {
	ret := _m.Called(ctx, username, workID)
	return ret.Error(0)
}

// ListByUser provides a mock function with given fields: ctx, username
func (_m *MockEntryRepository) ListByUser(ctx context.Context, username string) ([]library.Entry, error) {
	ret := _m.Called(ctx, username)
	var entries []library.Entry
	if v := ret.Get(0); v != nil {
		entries = v.([]library.Entry)
	}
	return entries, ret.Error(1)
}

// DeleteByUser provides a mock function with given fields: ctx, username
func (_m *MockEntryRepository) DeleteByUser(ctx context.Context, username string) (int64, error) {
	ret := _m.Called(ctx, username)
	return ret.Get(0).(int64), ret.Error(1)
}

// DeleteByWork provides a mock function with given fields: ctx, workID
func (_m *MockEntryRepository) DeleteByWork(ctx context.Context, workID int64) (int64, error) {
	ret := _m.Called(ctx, workID)
	return ret.Get(0).(int64), ret.Error(1)
}

// NewMockEntryRepository creates a new instance of MockEntryRepository. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockEntryRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockEntryRepository {
	m := &MockEntryRepository{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
