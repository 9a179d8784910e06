// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Stoneforge Contributors

package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// RefreshRecord is the persistent trace of one refresh token. The raw
// token never touches storage; only its one-way hash is kept. A record
// is immutable once created: rotation, revocation, and expiry all
// delete it (rotation writes a brand-new record with a new hash).
type RefreshRecord struct {
	TokenHash  string
	UserID     ulid.ULID
	DeviceID   string
	DeviceName string
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

// NewRefreshRecord creates a validated RefreshRecord.
// DeviceName is optional and may be empty.
func NewRefreshRecord(tokenHash string, userID ulid.ULID, deviceID, deviceName string, expiresAt time.Time) (*RefreshRecord, error) {
	if tokenHash == "" {
		return nil, oops.Code("TOKEN_INVALID_HASH").Errorf("token hash cannot be empty")
	}
	if userID.Compare(ulid.ULID{}) == 0 {
		return nil, oops.Code("TOKEN_INVALID_USER").Errorf("user ID cannot be zero")
	}
	if deviceID == "" {
		return nil, oops.Code("TOKEN_INVALID_DEVICE").Errorf("device ID cannot be empty")
	}

	now := time.Now()
	if !expiresAt.After(now) {
		return nil, oops.Code("TOKEN_INVALID_EXPIRY").
			With("expires_at", expiresAt).
			Errorf("expiry must be in the future")
	}

	return &RefreshRecord{
		TokenHash:  tokenHash,
		UserID:     userID,
		DeviceID:   deviceID,
		DeviceName: deviceName,
		CreatedAt:  now,
		ExpiresAt:  expiresAt,
	}, nil
}

// IsExpiredAt returns true if the record would be expired at the given time.
func (r *RefreshRecord) IsExpiredAt(t time.Time) bool {
	return t.After(r.ExpiresAt)
}

// HashRefreshSecret computes the SHA256 hash of a raw refresh token.
// This is the storage key; a store compromise yields hashes that cannot
// be replayed as tokens.
func HashRefreshSecret(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// GenerateDeviceID returns a fresh opaque device identifier for clients
// that did not supply one at login.
func GenerateDeviceID() string {
	return uuid.NewString()
}

// RefreshStore manages refresh-record persistence. All mutating
// operations are atomic at the storage layer; Rotate in particular must
// insert the replacement record and delete the old one in a single
// transaction, failing with ErrTokenNotFound when the old record is
// already gone.
type RefreshStore interface {
	// Put stores a new refresh record.
	Put(ctx context.Context, record *RefreshRecord) error

	// Get retrieves a record by token hash. Returns ErrNotFound if absent.
	Get(ctx context.Context, tokenHash string) (*RefreshRecord, error)

	// DeleteByHash removes a record by token hash. The boolean reports
	// whether a row was actually removed; concurrent rotations use it as
	// the win/lose signal.
	DeleteByHash(ctx context.Context, tokenHash string) (bool, error)

	// Rotate atomically inserts newRecord and deletes the record with
	// oldHash. The insert happens first so a crash mid-rotation leaves at
	// least one valid token. Returns ErrTokenNotFound if oldHash had no
	// live record (already rotated, revoked, or unknown).
	Rotate(ctx context.Context, oldHash string, newRecord *RefreshRecord) error

	// DeleteAllForUser removes every record owned by the user and
	// returns the count of deleted records.
	DeleteAllForUser(ctx context.Context, userID ulid.ULID) (int64, error)

	// DeleteAllForDevice removes every record for one of the user's
	// devices and returns the count.
	DeleteAllForDevice(ctx context.Context, userID ulid.ULID, deviceID string) (int64, error)

	// ListActive returns the user's records with expires_at after now,
	// newest first.
	ListActive(ctx context.Context, userID ulid.ULID, now time.Time) ([]*RefreshRecord, error)

	// DeleteExpired removes all records with expires_at at or before now
	// and returns the count.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
