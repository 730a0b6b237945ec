// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sheetshelf Contributors

package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/sheetshelf/sheetshelf/internal/auth"
)

// MockTokenIssuer is a testify mock of a token issuer.
type MockTokenIssuer struct {
	mock.Mock
}

// Issue provides a mock function with given fields: id
func (_m *MockTokenIssuer) Issue(id auth.Identity) (string, error) {
	ret := _m.Called(id)
	return ret.String(0), ret.Error(1)
}

// NewMockTokenIssuer creates a new instance of MockTokenIssuer. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockTokenIssuer(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockTokenIssuer {
	m := &MockTokenIssuer{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
