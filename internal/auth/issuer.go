// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Stoneforge Contributors

package auth

import (
	"context"
	"errors"
	"time"

	"github.com/samber/oops"
)

// dummyPasswordHash is used when a user doesn't exist to prevent timing attacks.
// We still run password verification to make response time consistent.
// This is NOT a real credential - it's a fake hash that will never match any password.
//
//nolint:gosec // G101: This is an intentionally fake hash for timing attack prevention, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// TokenPair is the result of a successful login or rotation.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	DeviceID     string
	DeviceName   string
}

// TokenIssuer authenticates players and issues bound access/refresh
// pairs, persisting one refresh record per login.
type TokenIssuer struct {
	players PlayerRepository
	store   RefreshStore
	codec   *TokenCodec
	hasher  PasswordHasher
}

// NewTokenIssuer creates a TokenIssuer.
func NewTokenIssuer(players PlayerRepository, store RefreshStore, codec *TokenCodec, hasher PasswordHasher) (*TokenIssuer, error) {
	if players == nil {
		return nil, oops.Errorf("players repository is required")
	}
	if store == nil {
		return nil, oops.Errorf("refresh store is required")
	}
	if codec == nil {
		return nil, oops.Errorf("token codec is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}
	return &TokenIssuer{players: players, store: store, codec: codec, hasher: hasher}, nil
}

// Login authenticates a player and issues a token pair bound to the
// given device. An empty deviceID gets a generated one. Unknown
// usernames and wrong passwords both fail with ErrInvalidCredentials;
// the lookup path runs a dummy verification so response time does not
// reveal which.
func (s *TokenIssuer) Login(ctx context.Context, username, password, deviceID, deviceName string) (*TokenPair, *Player, error) {
	if username == "" || password == "" {
		return nil, nil, oops.Code("AUTH_MISSING_CREDENTIALS").Wrap(ErrMissingCredentials)
	}

	player, lookupErr := s.players.GetByUsername(ctx, username)

	var targetHash string
	var playerExists bool

	if lookupErr != nil {
		if errors.Is(lookupErr, ErrNotFound) {
			// Use dummy hash - still perform verification to maintain constant time
			targetHash = dummyPasswordHash
			playerExists = false
		} else {
			return nil, nil, oops.Code("AUTH_LOGIN_FAILED").
				With("operation", "get player by username").
				Wrap(lookupErr)
		}
	} else {
		targetHash = player.PasswordHash
		playerExists = true
	}

	valid, verifyErr := s.hasher.Verify(password, targetHash)
	if verifyErr != nil {
		if !playerExists {
			return nil, nil, oops.Code("AUTH_INVALID_CREDENTIALS").Wrap(ErrInvalidCredentials)
		}
		return nil, nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "verify password").
			Wrap(verifyErr)
	}

	if !playerExists || !valid {
		if playerExists {
			// Record failure only for existing players
			player.RecordFailure()
			_ = s.players.Update(ctx, player) //nolint:errcheck // Best effort
		}
		return nil, nil, oops.Code("AUTH_INVALID_CREDENTIALS").Wrap(ErrInvalidCredentials)
	}

	// Check lockout AFTER password verification to maintain constant time
	if player.IsLocked() {
		return nil, nil, oops.Code("AUTH_ACCOUNT_LOCKED").
			With("locked_until", player.LockedUntil).
			Wrap(ErrAccountLocked)
	}

	player.RecordSuccess()

	// Upgrade legacy PBKDF2 hashes to argon2id on successful login
	if s.hasher.NeedsUpgrade(player.PasswordHash) {
		newHash, hashErr := s.hasher.Hash(password)
		if hashErr == nil {
			player.PasswordHash = newHash
		}
	}

	// Ignore errors - login should succeed even if update fails
	_ = s.players.Update(ctx, player) //nolint:errcheck // Best effort, login succeeds regardless

	if deviceID == "" {
		deviceID = GenerateDeviceID()
	}

	pair, err := s.issue(ctx, player, deviceID, deviceName)
	if err != nil {
		return nil, nil, err
	}
	return pair, player, nil
}

// issue mints a bound pair and persists the refresh record.
func (s *TokenIssuer) issue(ctx context.Context, player *Player, deviceID, deviceName string) (*TokenPair, error) {
	access, err := s.codec.IssueAccess(player.ID)
	if err != nil {
		return nil, oops.Code("AUTH_ISSUE_FAILED").
			With("operation", "issue access token").
			Wrap(err)
	}

	refresh, err := s.codec.IssueRefresh(player.ID)
	if err != nil {
		return nil, oops.Code("AUTH_ISSUE_FAILED").
			With("operation", "issue refresh token").
			Wrap(err)
	}

	record, err := NewRefreshRecord(
		HashRefreshSecret(refresh),
		player.ID,
		deviceID,
		deviceName,
		time.Now().Add(s.codec.RefreshTTL()),
	)
	if err != nil {
		return nil, oops.Code("AUTH_ISSUE_FAILED").
			With("operation", "create refresh record").
			Wrap(err)
	}

	if err := s.store.Put(ctx, record); err != nil {
		return nil, oops.Code("AUTH_RECORD_CREATE_FAILED").
			With("operation", "persist refresh record").
			Wrap(err)
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		DeviceID:     deviceID,
		DeviceName:   deviceName,
	}, nil
}
