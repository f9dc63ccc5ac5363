// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keygate Contributors

// Package mocks provides testify mocks for the auth package interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/keygate/keygate/internal/auth"
)

// MockRepository is a mock implementation of auth.Repository.
type MockRepository struct {
	mock.Mock
}

// NewMockRepository creates a MockRepository that asserts its
// expectations during test cleanup.
func NewMockRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockRepository {
	m := &MockRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockRepository) Create(ctx context.Context, account *auth.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockRepository) GetByEmail(ctx context.Context, email string) (*auth.Account, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Account), args.Error(1)
}

// MockPasswordHasher is a mock implementation of auth.PasswordHasher.
type MockPasswordHasher struct {
	mock.Mock
}

// NewMockPasswordHasher creates a MockPasswordHasher that asserts its
// expectations during test cleanup.
func NewMockPasswordHasher(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockPasswordHasher {
	m := &MockPasswordHasher{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockPasswordHasher) Hash(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

func (m *MockPasswordHasher) Verify(password, digest string) (bool, error) {
	args := m.Called(password, digest)
	return args.Bool(0), args.Error(1)
}

// Compile-time interface checks.
var (
	_ auth.Repository     = (*MockRepository)(nil)
	_ auth.PasswordHasher = (*MockPasswordHasher)(nil)
)
