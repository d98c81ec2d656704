package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/filekeep/server/internal/model"
)

// BlacklistRepo defines the interface for revoked access token operations
type BlacklistRepo interface {
	Create(ctx context.Context, token string, expiresAt time.Time) (model.BlacklistedToken, error)
	FindByToken(ctx context.Context, token string) (model.BlacklistedToken, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type blacklistRepo struct {
	db *sql.DB
}

// NewBlacklistRepo creates a new BlacklistRepo instance
func NewBlacklistRepo(db *sql.DB) BlacklistRepo {
	return &blacklistRepo{db: db}
}

// Create inserts a revocation row. The expiry is copied from the token's
// own exp claim so the row can be swept once the token is dead anyway.
// Blacklisting the same token twice is treated as success.
func (r *blacklistRepo) Create(ctx context.Context, token string, expiresAt time.Time) (model.BlacklistedToken, error) {
	var bt model.BlacklistedToken
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO blacklisted_tokens (token, expires_at)
		VALUES ($1, $2)
		RETURNING id, token, expires_at, created_at
	`, token, expiresAt).Scan(
		&bt.ID,
		&bt.Token,
		&bt.ExpiresAt,
		&bt.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return r.FindByToken(ctx, token)
		}
		return model.BlacklistedToken{}, fmt.Errorf("insert blacklisted token: %w", err)
	}
	return bt, nil
}

// FindByToken returns the revocation row for the exact token string.
func (r *blacklistRepo) FindByToken(ctx context.Context, token string) (model.BlacklistedToken, error) {
	var bt model.BlacklistedToken
	err := r.db.QueryRowContext(ctx, `
		SELECT id, token, expires_at, created_at
		FROM blacklisted_tokens
		WHERE token = $1
	`, token).Scan(
		&bt.ID,
		&bt.Token,
		&bt.ExpiresAt,
		&bt.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.BlacklistedToken{}, ErrNotFound
		}
		return model.BlacklistedToken{}, fmt.Errorf("find blacklisted token: %w", err)
	}
	return bt, nil
}

// DeleteExpired removes all rows whose expiry is before now.
func (r *blacklistRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM blacklisted_tokens WHERE expires_at < $1
	`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired blacklisted tokens: %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}
