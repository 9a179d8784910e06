// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Stoneforge Contributors

package auth_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/stoneforge/stoneforge/internal/auth"
)

// memStore is an in-memory RefreshStore for tests. Its Rotate holds the
// lock across the insert-then-delete so it has the same exactly-once
// behavior as the transactional Postgres implementation.
type memStore struct {
	mu      sync.Mutex
	records map[string]*auth.RefreshRecord
}

func newMemStore() *memStore {
	return &memStore{records: make(map[string]*auth.RefreshRecord)}
}

func (s *memStore) Put(_ context.Context, record *auth.RefreshRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[record.TokenHash]; exists {
		return oops.Errorf("duplicate token hash")
	}
	cp := *record
	s.records[record.TokenHash] = &cp
	return nil
}

func (s *memStore) Get(_ context.Context, tokenHash string) (*auth.RefreshRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[tokenHash]
	if !ok {
		return nil, auth.ErrNotFound
	}
	cp := *record
	return &cp, nil
}

func (s *memStore) DeleteByHash(_ context.Context, tokenHash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[tokenHash]; !ok {
		return false, nil
	}
	delete(s.records, tokenHash)
	return true, nil
}

func (s *memStore) Rotate(_ context.Context, oldHash string, newRecord *auth.RefreshRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[oldHash]; !ok {
		return auth.ErrTokenNotFound
	}
	cp := *newRecord
	s.records[newRecord.TokenHash] = &cp
	delete(s.records, oldHash)
	return nil
}

func (s *memStore) DeleteAllForUser(_ context.Context, userID ulid.ULID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for hash, record := range s.records {
		if record.UserID.Compare(userID) == 0 {
			delete(s.records, hash)
			count++
		}
	}
	return count, nil
}

func (s *memStore) DeleteAllForDevice(_ context.Context, userID ulid.ULID, deviceID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for hash, record := range s.records {
		if record.UserID.Compare(userID) == 0 && record.DeviceID == deviceID {
			delete(s.records, hash)
			count++
		}
	}
	return count, nil
}

func (s *memStore) ListActive(_ context.Context, userID ulid.ULID, now time.Time) ([]*auth.RefreshRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*auth.RefreshRecord
	for _, record := range s.records {
		if record.UserID.Compare(userID) == 0 && record.ExpiresAt.After(now) {
			cp := *record
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *memStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for hash, record := range s.records {
		if !record.ExpiresAt.After(now) {
			delete(s.records, hash)
			count++
		}
	}
	return count, nil
}

func (s *memStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

var _ auth.RefreshStore = (*memStore)(nil)
