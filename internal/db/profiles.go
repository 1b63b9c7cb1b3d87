package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProfileRepository handles music profile database operations.
type ProfileRepository struct {
	pool *pgxpool.Pool
}

// Upsert saves a user's profile, replacing any previous contents
// wholesale. Previous data is never merged.
func (r *ProfileRepository) Upsert(ctx context.Context, p *MusicProfile) error {
	query := `
		INSERT INTO music_profiles (user_id, profile, last_synced)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET
			profile = EXCLUDED.profile,
			last_synced = EXCLUDED.last_synced
	`
	if p.LastSynced.IsZero() {
		p.LastSynced = time.Now()
	}
	if _, err := r.pool.Exec(ctx, query, p.UserID, p.Profile, p.LastSynced); err != nil {
		return fmt.Errorf("upserting music profile: %w", err)
	}
	return nil
}

// Get retrieves a user's music profile. Returns ErrNotFound when the
// user has never synced.
func (r *ProfileRepository) Get(ctx context.Context, userID uuid.UUID) (*MusicProfile, error) {
	query := `SELECT user_id, profile, last_synced FROM music_profiles WHERE user_id = $1`
	var p MusicProfile
	err := r.pool.QueryRow(ctx, query, userID).Scan(&p.UserID, &p.Profile, &p.LastSynced)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying music profile: %w", err)
	}
	return &p, nil
}

// Delete removes a user's music profile. Deleting a missing profile is
// a no-op.
func (r *ProfileRepository) Delete(ctx context.Context, userID uuid.UUID) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM music_profiles WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("deleting music profile: %w", err)
	}
	return nil
}
