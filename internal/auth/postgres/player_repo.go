// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Stoneforge Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/stoneforge/stoneforge/internal/auth"
)

// PlayerRepository implements auth.PlayerRepository using PostgreSQL.
type PlayerRepository struct {
	db DB
}

// NewPlayerRepository creates a new PlayerRepository.
func NewPlayerRepository(db DB) *PlayerRepository {
	return &PlayerRepository{db: db}
}

// Create stores a new player.
func (r *PlayerRepository) Create(ctx context.Context, player *auth.Player) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO players (id, username, password_hash, role, failed_attempts, locked_until, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		player.ID.String(),
		player.Username,
		player.PasswordHash,
		string(player.Role),
		player.FailedAttempts,
		player.LockedUntil,
		player.CreatedAt,
		player.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return oops.Code("PLAYER_DUPLICATE").
				With("username", player.Username).
				Wrap(err)
		}
		return oops.Code("PLAYER_CREATE_FAILED").
			With("operation", "insert player").
			With("username", player.Username).
			Wrap(err)
	}
	return nil
}

// GetByID retrieves a player by ID.
func (r *PlayerRepository) GetByID(ctx context.Context, id ulid.ULID) (*auth.Player, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, username, password_hash, role, failed_attempts, locked_until, created_at, updated_at
		FROM players
		WHERE id = $1
	`, id.String())

	player, err := scanPlayer(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("PLAYER_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("PLAYER_GET_FAILED").
			With("operation", "get player by id").
			With("id", id.String()).
			Wrap(err)
	}
	return player, nil
}

// GetByUsername retrieves a player by username (case-insensitive).
func (r *PlayerRepository) GetByUsername(ctx context.Context, username string) (*auth.Player, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, username, password_hash, role, failed_attempts, locked_until, created_at, updated_at
		FROM players
		WHERE LOWER(username) = LOWER($1)
	`, username)

	player, err := scanPlayer(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("PLAYER_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("PLAYER_GET_FAILED").
			With("operation", "get player by username").
			Wrap(err)
	}
	return player, nil
}

// Update updates an existing player.
func (r *PlayerRepository) Update(ctx context.Context, player *auth.Player) error {
	result, err := r.db.Exec(ctx, `
		UPDATE players
		SET password_hash = $2, role = $3, failed_attempts = $4, locked_until = $5, updated_at = $6
		WHERE id = $1
	`,
		player.ID.String(),
		player.PasswordHash,
		string(player.Role),
		player.FailedAttempts,
		player.LockedUntil,
		player.UpdatedAt,
	)
	if err != nil {
		return oops.Code("PLAYER_UPDATE_FAILED").
			With("operation", "update player").
			With("id", player.ID.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("PLAYER_NOT_FOUND").
			With("id", player.ID.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// scanPlayer scans a single row into a Player.
// Callers are responsible for handling pgx.ErrNoRows.
func scanPlayer(row pgx.Row) (*auth.Player, error) {
	var (
		idStr          string
		username       string
		passwordHash   string
		role           string
		failedAttempts int
		lockedUntil    *time.Time
		createdAt      time.Time
		updatedAt      time.Time
	)

	err := row.Scan(&idStr, &username, &passwordHash, &role, &failedAttempts, &lockedUntil, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
		}
		return nil, oops.Code("PLAYER_SCAN_FAILED").
			With("operation", "scan player").
			Wrap(err)
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("PLAYER_INVALID_ID").
			With("operation", "parse player id").
			With("id", idStr).
			Wrap(err)
	}

	return &auth.Player{
		ID:             id,
		Username:       username,
		PasswordHash:   passwordHash,
		Role:           auth.Role(role),
		FailedAttempts: failedAttempts,
		LockedUntil:    lockedUntil,
		CreatedAt:      createdAt,
		UpdatedAt:      updatedAt,
	}, nil
}

// Compile-time interface check.
var _ auth.PlayerRepository = (*PlayerRepository)(nil)
