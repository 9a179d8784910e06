// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Stoneforge Contributors

package auth

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// RevocationService deletes refresh records by token, by device, or by
// user. Every operation is idempotent: revoking something already gone
// is a no-op, not an error. Admin-forced logout reuses RevokeAllForUser
// behind separately authorized routes.
type RevocationService struct {
	store RefreshStore
}

// NewRevocationService creates a RevocationService.
func NewRevocationService(store RefreshStore) (*RevocationService, error) {
	if store == nil {
		return nil, oops.Errorf("refresh store is required")
	}
	return &RevocationService{store: store}, nil
}

// RevokeToken removes the record for a single raw refresh token.
// Used for single-device logout.
func (s *RevocationService) RevokeToken(ctx context.Context, rawToken string) error {
	if rawToken == "" {
		return nil
	}
	_, err := s.store.DeleteByHash(ctx, HashRefreshSecret(rawToken))
	if err != nil {
		return oops.Code("TOKEN_REVOKE_FAILED").
			With("operation", "delete refresh record").
			Wrap(err)
	}
	return nil
}

// RevokeDevice removes every record for one of the user's devices and
// returns the count. Used from the device-list UI.
func (s *RevocationService) RevokeDevice(ctx context.Context, userID ulid.ULID, deviceID string) (int64, error) {
	count, err := s.store.DeleteAllForDevice(ctx, userID, deviceID)
	if err != nil {
		return 0, oops.Code("TOKEN_REVOKE_DEVICE_FAILED").
			With("operation", "delete device refresh records").
			With("user_id", userID.String()).
			With("device_id", deviceID).
			Wrap(err)
	}
	return count, nil
}

// RevokeAllForUser removes every record the user owns and returns the
// count. Used for "log out everywhere", password changes, and
// admin-forced logout.
func (s *RevocationService) RevokeAllForUser(ctx context.Context, userID ulid.ULID) (int64, error) {
	count, err := s.store.DeleteAllForUser(ctx, userID)
	if err != nil {
		return 0, oops.Code("TOKEN_REVOKE_ALL_FAILED").
			With("operation", "delete user refresh records").
			With("user_id", userID.String()).
			Wrap(err)
	}
	return count, nil
}

// ListDevices returns the user's active, non-expired sessions for the
// device-list UI.
func (s *RevocationService) ListDevices(ctx context.Context, userID ulid.ULID) ([]*RefreshRecord, error) {
	records, err := s.store.ListActive(ctx, userID, time.Now())
	if err != nil {
		return nil, oops.Code("TOKEN_LIST_DEVICES_FAILED").
			With("operation", "list active refresh records").
			With("user_id", userID.String()).
			Wrap(err)
	}
	return records, nil
}
