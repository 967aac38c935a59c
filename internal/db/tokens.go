package db

import (
	"context"
	"time"

	"github.com/ikiraha/backend/internal/model"
)

func (db *Postgres) InsertRefreshToken(ctx context.Context, userID int64, token string, expiresAt time.Time) error {
	query := `
		INSERT INTO refresh_tokens (user_id, token, expires_at)
		VALUES ($1, $2, $3)
	`
	_, err := db.Pool.Exec(ctx, query, userID, token, expiresAt)
	return err
}

// GetLiveRefreshToken returns the ledger row for a token that has not yet
// expired. ErrNoRows means revoked, expired, or never issued here.
func (db *Postgres) GetLiveRefreshToken(ctx context.Context, token string) (*model.RefreshToken, error) {
	query := `
		SELECT id, user_id, token, expires_at, created_at
		FROM refresh_tokens
		WHERE token = $1 AND expires_at > NOW()
	`
	var rt model.RefreshToken
	err := db.Pool.QueryRow(ctx, query, token).Scan(
		&rt.ID,
		&rt.UserID,
		&rt.Token,
		&rt.ExpiresAt,
		&rt.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rt, nil
}

// DeleteRefreshToken revokes a token. Deleting an absent row is not an error.
func (db *Postgres) DeleteRefreshToken(ctx context.Context, token string) error {
	_, err := db.Pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE token = $1`, token)
	return err
}

// DeleteExpiredRefreshTokens sweeps rows whose expiry has passed and reports
// how many were removed. Invocation is caller-driven.
func (db *Postgres) DeleteExpiredRefreshTokens(ctx context.Context) (int64, error) {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
