// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sheetshelf Contributors

// Package mocks holds testify mocks of the user interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sheetshelf/sheetshelf/internal/user"
)

// MockRepository is a mock type for the Repository type
type MockRepository struct {
	mock.Mock
}

// Create provides a mock function with given fields: ctx, u
func (_m *MockRepository) Create(ctx context.Context, u *user.User) error {
	ret := _m.Called(ctx, u)
	return ret.Error(0)
}

// GetByUsername provides a mock function with given fields: ctx, username
func (_m *MockRepository) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	ret := _m.Called(ctx, username)
	var u *user.User
	if v := ret.Get(0); v != nil {
		u = v.(*user.User)
	}
	return u, ret.Error(1)
}

// List provides a mock function with given fields: ctx
func (_m *MockRepository) List(ctx context.Context) ([]user.User, error) {
	ret := _m.Called(ctx)
	var users []user.User
	if v := ret.Get(0); v != nil {
		users = v.([]user.User)
	}
	return users, ret.Error(1)
}

// Update provides a mock function with given fields: ctx, u
func (_m *MockRepository) Update(ctx context.Context, u *user.User) error {
	ret := _m.Called(ctx, u)
	return ret.Error(0)
}

// Delete provides a mock function with given fields: ctx, username
func (_m *MockRepository) Delete(ctx context.Context, username string) error {
	ret := _m.Called(ctx, username)
	return ret.Error(0)
}

// NewMockRepository creates a new instance of MockRepository. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockRepository {
	m := &MockRepository{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
