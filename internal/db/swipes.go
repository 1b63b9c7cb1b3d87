package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SwipeRepository handles swipe database operations.
type SwipeRepository struct {
	pool *pgxpool.Pool
}

// Create inserts a swipe. The (user, target) pair is unique; a second
// insert for the same ordered pair returns ErrConflict, which is the
// atomic insert-or-reject guarantee the match state machine relies on.
func (r *SwipeRepository) Create(ctx context.Context, s *Swipe) error {
	query := `
		INSERT INTO swipes (id, user_id, target_user_id, action, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING created_at
	`
	err := r.pool.QueryRow(ctx, query, s.ID, s.UserID, s.TargetUserID, s.Action).Scan(&s.CreatedAt)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("inserting swipe: %w", err)
	}
	return nil
}

// Get retrieves the swipe from userID toward targetID, if any.
func (r *SwipeRepository) Get(ctx context.Context, userID, targetID uuid.UUID) (*Swipe, error) {
	query := `
		SELECT id, user_id, target_user_id, action, created_at
		FROM swipes WHERE user_id = $1 AND target_user_id = $2
	`
	var s Swipe
	err := r.pool.QueryRow(ctx, query, userID, targetID).Scan(
		&s.ID, &s.UserID, &s.TargetUserID, &s.Action, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying swipe: %w", err)
	}
	return &s, nil
}
