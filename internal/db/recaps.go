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

// RecapRepository handles weekly recap database operations.
type RecapRepository struct {
	pool *pgxpool.Pool
}

// Create inserts a recap. Each (playlist, week start) pair is unique;
// a duplicate insert returns ErrConflict.
func (r *RecapRepository) Create(ctx context.Context, recap *WeeklyRecap) error {
	query := `
		INSERT INTO weekly_recaps (id, playlist_id, week_start, recap_data, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING created_at
	`
	err := r.pool.QueryRow(ctx, query,
		recap.ID, recap.PlaylistID, recap.WeekStart, recap.Data).Scan(&recap.CreatedAt)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("inserting weekly recap: %w", err)
	}
	return nil
}

// GetForWeek retrieves the recap for a playlist and week start date.
func (r *RecapRepository) GetForWeek(ctx context.Context, playlistID uuid.UUID, weekStart time.Time) (*WeeklyRecap, error) {
	query := `
		SELECT id, playlist_id, week_start, recap_data, created_at
		FROM weekly_recaps WHERE playlist_id = $1 AND week_start = $2
	`
	var recap WeeklyRecap
	err := r.pool.QueryRow(ctx, query, playlistID, weekStart).Scan(
		&recap.ID, &recap.PlaylistID, &recap.WeekStart, &recap.Data, &recap.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying weekly recap: %w", err)
	}
	return &recap, nil
}
