// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sheetshelf Contributors

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sheetshelf/sheetshelf/internal/library"
)

// MockEntryPurger is a mock type for the EntryPurger type
type MockEntryPurger struct {
	mock.Mock
}

// DeleteByUser provides a mock function with given fields: ctx, username
func (_m *MockEntryPurger) DeleteByUser(ctx context.Context, username string) (int64, error) {
	ret := _m.Called(ctx, username)
	return ret.Get(0).(int64), ret.Error(1)
}

// NewMockEntryPurger creates a new instance of MockEntryPurger. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockEntryPurger(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockEntryPurger {
	m := &MockEntryPurger{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

// MockLibraryReader is a mock type for the LibraryReader type
type MockLibraryReader struct {
	mock.Mock
}

// Entries provides a mock function with given fields: ctx, username
func (_m *MockLibraryReader) Entries(ctx context.Context, username string) ([]library.Entry, error) {
	ret := _m.Called(ctx, username)
	var entries []library.Entry
	if v := ret.Get(0); v != nil {
		entries = v.([]library.Entry)
	}
	return entries, ret.Error(1)
}

// NewMockLibraryReader creates a new instance of MockLibraryReader. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockLibraryReader(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockLibraryReader {
	m := &MockLibraryReader{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
