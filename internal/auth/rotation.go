// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Stoneforge Contributors

package auth

import (
	"context"
	"errors"
	"time"

	"github.com/samber/oops"
)

// RotationEngine exchanges a presented refresh token for a fresh bound
// pair. Rotation is exactly-once: of N concurrent calls with the same
// token, one wins and the rest fail with ErrTokenNotFound. The store's
// Rotate guarantees the new record exists before the old is deleted, so
// a crash mid-rotation briefly leaves two valid tokens rather than none.
type RotationEngine struct {
	store RefreshStore
	codec *TokenCodec
}

// NewRotationEngine creates a RotationEngine.
func NewRotationEngine(store RefreshStore, codec *TokenCodec) (*RotationEngine, error) {
	if store == nil {
		return nil, oops.Errorf("refresh store is required")
	}
	if codec == nil {
		return nil, oops.Errorf("token codec is required")
	}
	return &RotationEngine{store: store, codec: codec}, nil
}

// Rotate validates oldRefresh, atomically replaces its store record,
// and returns the new pair. Device binding carries over from the old
// record. Unknown, already-rotated, and revoked tokens all fail with
// ErrTokenNotFound; the caller cannot tell which.
func (e *RotationEngine) Rotate(ctx context.Context, oldRefresh string) (*TokenPair, error) {
	claims, err := e.codec.VerifyRefresh(oldRefresh)
	if err != nil {
		return nil, err
	}

	userID, err := claims.UserID()
	if err != nil {
		return nil, err
	}

	oldHash := HashRefreshSecret(oldRefresh)
	old, err := e.store.Get(ctx, oldHash)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("TOKEN_NOT_FOUND").Wrap(ErrTokenNotFound)
		}
		return nil, oops.Code("TOKEN_ROTATE_FAILED").
			With("operation", "get refresh record").
			Wrap(err)
	}

	// The signature already binds the token to its subject; a mismatch
	// here means a different user's token collided on hash, which cannot
	// happen short of store corruption.
	if old.UserID.Compare(userID) != 0 {
		return nil, oops.Code("TOKEN_NOT_FOUND").Wrap(ErrTokenNotFound)
	}

	access, err := e.codec.IssueAccess(userID)
	if err != nil {
		return nil, oops.Code("TOKEN_ROTATE_FAILED").
			With("operation", "issue access token").
			Wrap(err)
	}

	refresh, err := e.codec.IssueRefresh(userID)
	if err != nil {
		return nil, oops.Code("TOKEN_ROTATE_FAILED").
			With("operation", "issue refresh token").
			Wrap(err)
	}

	newRecord, err := NewRefreshRecord(
		HashRefreshSecret(refresh),
		userID,
		old.DeviceID,
		old.DeviceName,
		time.Now().Add(e.codec.RefreshTTL()),
	)
	if err != nil {
		return nil, oops.Code("TOKEN_ROTATE_FAILED").
			With("operation", "create replacement record").
			Wrap(err)
	}

	if err := e.store.Rotate(ctx, oldHash, newRecord); err != nil {
		if errors.Is(err, ErrTokenNotFound) || errors.Is(err, ErrNotFound) {
			// Lost the race: another rotation or a revocation removed the
			// old record between Get and Rotate.
			return nil, oops.Code("TOKEN_NOT_FOUND").Wrap(ErrTokenNotFound)
		}
		return nil, oops.Code("TOKEN_ROTATE_FAILED").
			With("operation", "swap refresh records").
			Wrap(err)
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		DeviceID:     old.DeviceID,
		DeviceName:   old.DeviceName,
	}, nil
}
