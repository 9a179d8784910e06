// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Stoneforge Contributors

// Package postgres implements the auth repositories using PostgreSQL.
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

// DB is the subset of pgxpool.Pool the repositories need. pgxmock's
// pool satisfies it too, which keeps the unit tests off a real server.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// RefreshRepository implements auth.RefreshStore using PostgreSQL.
type RefreshRepository struct {
	db DB
}

// NewRefreshRepository creates a new RefreshRepository.
func NewRefreshRepository(db DB) *RefreshRepository {
	return &RefreshRepository{db: db}
}

// Put stores a new refresh record.
func (r *RefreshRepository) Put(ctx context.Context, record *auth.RefreshRecord) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO refresh_tokens (token_hash, user_id, device_id, device_name, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		record.TokenHash,
		record.UserID.String(),
		record.DeviceID,
		record.DeviceName,
		record.CreatedAt,
		record.ExpiresAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return oops.Code("TOKEN_HASH_DUPLICATE").
				With("operation", "insert refresh_token").
				Wrap(err)
		}
		return oops.Code("TOKEN_CREATE_FAILED").
			With("operation", "insert refresh_token").
			With("user_id", record.UserID.String()).
			Wrap(err)
	}
	return nil
}

// Get retrieves a record by token hash.
func (r *RefreshRepository) Get(ctx context.Context, tokenHash string) (*auth.RefreshRecord, error) {
	row := r.db.QueryRow(ctx, `
		SELECT token_hash, user_id, device_id, device_name, created_at, expires_at
		FROM refresh_tokens
		WHERE token_hash = $1
	`, tokenHash)

	record, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("TOKEN_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("TOKEN_GET_FAILED").
			With("operation", "get refresh_token by hash").
			Wrap(err)
	}
	return record, nil
}

// DeleteByHash removes a record by token hash. Returns true iff a row
// was removed; zero rows is a valid state, not an error.
func (r *RefreshRepository) DeleteByHash(ctx context.Context, tokenHash string) (bool, error) {
	result, err := r.db.Exec(ctx, `
		DELETE FROM refresh_tokens WHERE token_hash = $1
	`, tokenHash)
	if err != nil {
		return false, oops.Code("TOKEN_DELETE_FAILED").
			With("operation", "delete refresh_token").
			Wrap(err)
	}
	return result.RowsAffected() > 0, nil
}

// Rotate atomically replaces the record with oldHash by newRecord. The
// insert runs before the delete inside one transaction: a crash between
// the two degrades to two briefly valid tokens, never zero. The delete's
// affected-row count decides concurrent races; the loser rolls back its
// insert and gets auth.ErrTokenNotFound.
func (r *RefreshRepository) Rotate(ctx context.Context, oldHash string, newRecord *auth.RefreshRecord) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return oops.Code("TOKEN_ROTATE_FAILED").
			With("operation", "begin rotation transaction").
			Wrap(err)
	}
	defer func() {
		_ = tx.Rollback(ctx) //nolint:errcheck // No-op after commit
	}()

	_, err = tx.Exec(ctx, `
		INSERT INTO refresh_tokens (token_hash, user_id, device_id, device_name, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		newRecord.TokenHash,
		newRecord.UserID.String(),
		newRecord.DeviceID,
		newRecord.DeviceName,
		newRecord.CreatedAt,
		newRecord.ExpiresAt,
	)
	if err != nil {
		return oops.Code("TOKEN_ROTATE_FAILED").
			With("operation", "insert replacement refresh_token").
			With("user_id", newRecord.UserID.String()).
			Wrap(err)
	}

	result, err := tx.Exec(ctx, `
		DELETE FROM refresh_tokens WHERE token_hash = $1
	`, oldHash)
	if err != nil {
		return oops.Code("TOKEN_ROTATE_FAILED").
			With("operation", "delete rotated refresh_token").
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		// Someone else rotated or revoked this token first. Rolling back
		// discards the replacement insert.
		return oops.Code("TOKEN_NOT_FOUND").Wrap(auth.ErrTokenNotFound)
	}

	if err := tx.Commit(ctx); err != nil {
		return oops.Code("TOKEN_ROTATE_FAILED").
			With("operation", "commit rotation transaction").
			Wrap(err)
	}
	return nil
}

// DeleteAllForUser removes all records owned by the user.
func (r *RefreshRepository) DeleteAllForUser(ctx context.Context, userID ulid.ULID) (int64, error) {
	result, err := r.db.Exec(ctx, `
		DELETE FROM refresh_tokens WHERE user_id = $1
	`, userID.String())
	if err != nil {
		return 0, oops.Code("TOKEN_DELETE_ALL_FAILED").
			With("operation", "delete refresh_tokens by user").
			With("user_id", userID.String()).
			Wrap(err)
	}
	return result.RowsAffected(), nil
}

// DeleteAllForDevice removes all records for one of the user's devices.
func (r *RefreshRepository) DeleteAllForDevice(ctx context.Context, userID ulid.ULID, deviceID string) (int64, error) {
	result, err := r.db.Exec(ctx, `
		DELETE FROM refresh_tokens WHERE user_id = $1 AND device_id = $2
	`, userID.String(), deviceID)
	if err != nil {
		return 0, oops.Code("TOKEN_DELETE_DEVICE_FAILED").
			With("operation", "delete refresh_tokens by device").
			With("user_id", userID.String()).
			With("device_id", deviceID).
			Wrap(err)
	}
	return result.RowsAffected(), nil
}

// ListActive returns the user's non-expired records, newest first.
func (r *RefreshRepository) ListActive(ctx context.Context, userID ulid.ULID, now time.Time) ([]*auth.RefreshRecord, error) {
	rows, err := r.db.Query(ctx, `
		SELECT token_hash, user_id, device_id, device_name, created_at, expires_at
		FROM refresh_tokens
		WHERE user_id = $1 AND expires_at > $2
		ORDER BY created_at DESC
	`, userID.String(), now)
	if err != nil {
		return nil, oops.Code("TOKEN_LIST_FAILED").
			With("operation", "list active refresh_tokens").
			With("user_id", userID.String()).
			Wrap(err)
	}
	defer rows.Close()

	var records []*auth.RefreshRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, oops.Code("TOKEN_SCAN_FAILED").
				With("operation", "scan refresh_token row").
				Wrap(err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, oops.Code("TOKEN_ROWS_ERROR").
			With("operation", "iterate refresh_token rows").
			Wrap(err)
	}

	return records, nil
}

// DeleteExpired removes all records expired at now and returns the count.
func (r *RefreshRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.Exec(ctx, `
		DELETE FROM refresh_tokens WHERE expires_at <= $1
	`, now)
	if err != nil {
		return 0, oops.Code("TOKEN_DELETE_EXPIRED_FAILED").
			With("operation", "delete expired refresh_tokens").
			Wrap(err)
	}
	return result.RowsAffected(), nil
}

// scanRecord scans a single row into a RefreshRecord.
// Callers are responsible for handling pgx.ErrNoRows.
func scanRecord(row pgx.Row) (*auth.RefreshRecord, error) {
	var (
		tokenHash  string
		userIDStr  string
		deviceID   string
		deviceName string
		createdAt  time.Time
		expiresAt  time.Time
	)

	err := row.Scan(&tokenHash, &userIDStr, &deviceID, &deviceName, &createdAt, &expiresAt)
	if err != nil {
		// Propagate pgx.ErrNoRows unchanged for callers to handle with context.
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
		}
		return nil, oops.Code("TOKEN_SCAN_FAILED").
			With("operation", "scan refresh_token").
			Wrap(err)
	}

	userID, err := ulid.Parse(userIDStr)
	if err != nil {
		return nil, oops.Code("TOKEN_INVALID_USER_ID").
			With("operation", "parse user id").
			With("user_id", userIDStr).
			Wrap(err)
	}

	return &auth.RefreshRecord{
		TokenHash:  tokenHash,
		UserID:     userID,
		DeviceID:   deviceID,
		DeviceName: deviceName,
		CreatedAt:  createdAt,
		ExpiresAt:  expiresAt,
	}, nil
}

// Compile-time interface check.
var _ auth.RefreshStore = (*RefreshRepository)(nil)
