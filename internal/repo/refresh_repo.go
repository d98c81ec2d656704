package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/filekeep/server/internal/model"
)

// RefreshTokenRepo defines the interface for refresh token repository operations
type RefreshTokenRepo interface {
	Create(ctx context.Context, userID, token, deviceID string, expiresAt time.Time) (model.RefreshToken, error)
	FindByToken(ctx context.Context, token string) (model.RefreshToken, error)
	DeleteByUserAndDevice(ctx context.Context, userID, deviceID string) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type refreshTokenRepo struct {
	db *sql.DB
}

// NewRefreshTokenRepo creates a new RefreshTokenRepo instance
func NewRefreshTokenRepo(db *sql.DB) RefreshTokenRepo {
	return &refreshTokenRepo{db: db}
}

// Create inserts a new refresh token row. Every successful signup/signin
// adds a row; rows are never updated in place.
func (r *refreshTokenRepo) Create(ctx context.Context, userID, token, deviceID string, expiresAt time.Time) (model.RefreshToken, error) {
	var rt model.RefreshToken
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO refresh_tokens (user_id, token, device_id, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, user_id, token, device_id, expires_at, created_at
	`, userID, token, deviceID, expiresAt).Scan(
		&rt.ID,
		&rt.UserID,
		&rt.Token,
		&rt.DeviceID,
		&rt.ExpiresAt,
		&rt.CreatedAt,
	)
	if err != nil {
		return model.RefreshToken{}, fmt.Errorf("insert refresh token: %w", err)
	}
	return rt, nil
}

// FindByToken returns the row with the exact token string, expired or not.
// Expiry policy is the caller's concern.
func (r *refreshTokenRepo) FindByToken(ctx context.Context, token string) (model.RefreshToken, error) {
	var rt model.RefreshToken
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, token, device_id, expires_at, created_at
		FROM refresh_tokens
		WHERE token = $1
	`, token).Scan(
		&rt.ID,
		&rt.UserID,
		&rt.Token,
		&rt.DeviceID,
		&rt.ExpiresAt,
		&rt.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.RefreshToken{}, ErrNotFound
		}
		return model.RefreshToken{}, fmt.Errorf("find refresh token: %w", err)
	}
	return rt, nil
}

// DeleteByUserAndDevice removes every session the device has accumulated
// for the user. Returns the number of rows deleted.
func (r *refreshTokenRepo) DeleteByUserAndDevice(ctx context.Context, userID, deviceID string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM refresh_tokens WHERE user_id = $1 AND device_id = $2
	`, userID, deviceID)
	if err != nil {
		return 0, fmt.Errorf("delete refresh tokens: %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}

// DeleteExpired removes all rows whose expiry is before now.
func (r *refreshTokenRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM refresh_tokens WHERE expires_at < $1
	`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired refresh tokens: %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}
