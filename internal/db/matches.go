package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MatchRepository handles match database operations.
type MatchRepository struct {
	pool *pgxpool.Pool
}

const matchColumns = `id, user1_id, user2_id, compatibility_score, breakdown, created_at`

func scanMatch(row pgx.Row) (*Match, error) {
	var m Match
	err := row.Scan(&m.ID, &m.User1ID, &m.User2ID, &m.CompatibilityScore, &m.Breakdown, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning match: %w", err)
	}
	return &m, nil
}

// Create inserts a match. The unordered user pair is unique; inserting
// a second match for the same pair returns ErrConflict regardless of
// user order, making match creation one-shot.
func (r *MatchRepository) Create(ctx context.Context, m *Match) error {
	query := `
		INSERT INTO matches (id, user1_id, user2_id, compatibility_score, breakdown, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING created_at
	`
	err := r.pool.QueryRow(ctx, query,
		m.ID, m.User1ID, m.User2ID, m.CompatibilityScore, m.Breakdown).Scan(&m.CreatedAt)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("inserting match: %w", err)
	}
	return nil
}

// Get retrieves a match by ID.
func (r *MatchRepository) Get(ctx context.Context, id uuid.UUID) (*Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`
	return scanMatch(r.pool.QueryRow(ctx, query, id))
}

// GetForPair retrieves the match between two users in either order.
func (r *MatchRepository) GetForPair(ctx context.Context, a, b uuid.UUID) (*Match, error) {
	query := `
		SELECT ` + matchColumns + ` FROM matches
		WHERE (user1_id = $1 AND user2_id = $2) OR (user1_id = $2 AND user2_id = $1)
	`
	return scanMatch(r.pool.QueryRow(ctx, query, a, b))
}

// ListForUser retrieves all matches involving userID, newest first.
func (r *MatchRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]Match, error) {
	query := `
		SELECT ` + matchColumns + ` FROM matches
		WHERE user1_id = $1 OR user2_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying matches: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, *m)
	}
	return matches, rows.Err()
}
