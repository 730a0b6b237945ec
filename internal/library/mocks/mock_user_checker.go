// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sheetshelf Contributors

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockUserChecker is a mock type for the UserChecker type
type MockUserChecker struct {
	mock.Mock
}

// Exists provides a mock function with given fields: ctx, username
func (_m *MockUserChecker) Exists(ctx context.Context, username string) (bool, error) {
	ret := _m.Called(ctx, username)
	return ret.Bool(0), ret.Error(1)
}

// NewMockUserChecker creates a new instance of MockUserChecker. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockUserChecker(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockUserChecker {
	m := &MockUserChecker{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
