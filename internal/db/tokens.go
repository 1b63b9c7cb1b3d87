package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TokenRepository handles Spotify OAuth token database operations.
type TokenRepository struct {
	pool *pgxpool.Pool
}

// Upsert saves a user's provider tokens, replacing existing ones.
func (r *TokenRepository) Upsert(ctx context.Context, t *SpotifyToken) error {
	query := `
		INSERT INTO spotify_tokens (user_id, access_token, refresh_token, expires_at, spotify_user_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			expires_at = EXCLUDED.expires_at,
			spotify_user_id = COALESCE(EXCLUDED.spotify_user_id, spotify_tokens.spotify_user_id)
	`
	_, err := r.pool.Exec(ctx, query,
		t.UserID, t.AccessToken, t.RefreshToken, t.ExpiresAt, t.SpotifyUserID)
	if err != nil {
		return fmt.Errorf("upserting spotify tokens: %w", err)
	}
	return nil
}

// Get retrieves a user's provider tokens.
func (r *TokenRepository) Get(ctx context.Context, userID uuid.UUID) (*SpotifyToken, error) {
	query := `
		SELECT user_id, access_token, refresh_token, expires_at, spotify_user_id
		FROM spotify_tokens WHERE user_id = $1
	`
	var t SpotifyToken
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&t.UserID, &t.AccessToken, &t.RefreshToken, &t.ExpiresAt, &t.SpotifyUserID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying spotify tokens: %w", err)
	}
	return &t, nil
}

// Delete removes a user's provider tokens.
func (r *TokenRepository) Delete(ctx context.Context, userID uuid.UUID) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM spotify_tokens WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("deleting spotify tokens: %w", err)
	}
	return nil
}
