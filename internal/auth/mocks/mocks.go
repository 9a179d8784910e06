// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Stoneforge Contributors

// Package mocks provides testify mocks for the auth package interfaces.
package mocks

import (
	"context"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/mock"

	"github.com/stoneforge/stoneforge/internal/auth"
)

// MockPlayerRepository is a mock implementation of auth.PlayerRepository.
type MockPlayerRepository struct {
	mock.Mock
}

// NewMockPlayerRepository creates a MockPlayerRepository with expectations
// asserted at test cleanup.
func NewMockPlayerRepository(t *testing.T) *MockPlayerRepository {
	m := &MockPlayerRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockPlayerRepository) Create(ctx context.Context, player *auth.Player) error {
	args := m.Called(ctx, player)
	return args.Error(0)
}

func (m *MockPlayerRepository) GetByID(ctx context.Context, id ulid.ULID) (*auth.Player, error) {
	args := m.Called(ctx, id)
	if p, ok := args.Get(0).(*auth.Player); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPlayerRepository) GetByUsername(ctx context.Context, username string) (*auth.Player, error) {
	args := m.Called(ctx, username)
	if p, ok := args.Get(0).(*auth.Player); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPlayerRepository) Update(ctx context.Context, player *auth.Player) error {
	args := m.Called(ctx, player)
	return args.Error(0)
}

var _ auth.PlayerRepository = (*MockPlayerRepository)(nil)

// MockRefreshStore is a mock implementation of auth.RefreshStore.
type MockRefreshStore struct {
	mock.Mock
}

// NewMockRefreshStore creates a MockRefreshStore with expectations
// asserted at test cleanup.
func NewMockRefreshStore(t *testing.T) *MockRefreshStore {
	m := &MockRefreshStore{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockRefreshStore) Put(ctx context.Context, record *auth.RefreshRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockRefreshStore) Get(ctx context.Context, tokenHash string) (*auth.RefreshRecord, error) {
	args := m.Called(ctx, tokenHash)
	if r, ok := args.Get(0).(*auth.RefreshRecord); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRefreshStore) DeleteByHash(ctx context.Context, tokenHash string) (bool, error) {
	args := m.Called(ctx, tokenHash)
	return args.Bool(0), args.Error(1)
}

func (m *MockRefreshStore) Rotate(ctx context.Context, oldHash string, newRecord *auth.RefreshRecord) error {
	args := m.Called(ctx, oldHash, newRecord)
	return args.Error(0)
}

func (m *MockRefreshStore) DeleteAllForUser(ctx context.Context, userID ulid.ULID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRefreshStore) DeleteAllForDevice(ctx context.Context, userID ulid.ULID, deviceID string) (int64, error) {
	args := m.Called(ctx, userID, deviceID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRefreshStore) ListActive(ctx context.Context, userID ulid.ULID, now time.Time) ([]*auth.RefreshRecord, error) {
	args := m.Called(ctx, userID, now)
	if r, ok := args.Get(0).([]*auth.RefreshRecord); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRefreshStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

var _ auth.RefreshStore = (*MockRefreshStore)(nil)

// MockPasswordHasher is a mock implementation of auth.PasswordHasher.
type MockPasswordHasher struct {
	mock.Mock
}

// NewMockPasswordHasher creates a MockPasswordHasher with expectations
// asserted at test cleanup.
func NewMockPasswordHasher(t *testing.T) *MockPasswordHasher {
	m := &MockPasswordHasher{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockPasswordHasher) Hash(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

func (m *MockPasswordHasher) Verify(password, hash string) (bool, error) {
	args := m.Called(password, hash)
	return args.Bool(0), args.Error(1)
}

func (m *MockPasswordHasher) NeedsUpgrade(hash string) bool {
	args := m.Called(hash)
	return args.Bool(0)
}

var _ auth.PasswordHasher = (*MockPasswordHasher)(nil)
