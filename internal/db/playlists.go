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

// PlaylistRepository handles shared playlist and membership operations.
type PlaylistRepository struct {
	pool *pgxpool.Pool
}

const playlistColumns = `id, match_id, name, description, spotify_playlist_id, created_by,
	playlist_type, tracks, is_active, created_at, updated_at`

func scanPlaylist(row pgx.Row) (*SharedPlaylist, error) {
	var p SharedPlaylist
	err := row.Scan(
		&p.ID,
		&p.MatchID,
		&p.Name,
		&p.Description,
		&p.SpotifyPlaylistID,
		&p.CreatedBy,
		&p.Type,
		&p.Tracks,
		&p.Active,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning playlist: %w", err)
	}
	return &p, nil
}

// Create inserts a playlist with its initial track list. For match
// playlists a second insert for the same match returns ErrConflict.
func (r *PlaylistRepository) Create(ctx context.Context, p *SharedPlaylist) error {
	query := `
		INSERT INTO shared_playlists (id, match_id, name, description, spotify_playlist_id,
			created_by, playlist_type, tracks, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, TRUE, NOW(), NOW())
		RETURNING is_active, created_at, updated_at
	`
	if p.Tracks == nil {
		p.Tracks = []PlaylistTrack{}
	}
	err := r.pool.QueryRow(ctx, query,
		p.ID, p.MatchID, p.Name, p.Description, p.SpotifyPlaylistID,
		p.CreatedBy, p.Type, p.Tracks,
	).Scan(&p.Active, &p.CreatedAt, &p.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("inserting playlist: %w", err)
	}
	return nil
}

// Get retrieves an active playlist by ID. Soft-deleted playlists are
// treated as absent.
func (r *PlaylistRepository) Get(ctx context.Context, id uuid.UUID) (*SharedPlaylist, error) {
	query := `SELECT ` + playlistColumns + ` FROM shared_playlists WHERE id = $1 AND is_active`
	return scanPlaylist(r.pool.QueryRow(ctx, query, id))
}

// GetByMatch retrieves the active playlist seeded for a match.
func (r *PlaylistRepository) GetByMatch(ctx context.Context, matchID uuid.UUID) (*SharedPlaylist, error) {
	query := `SELECT ` + playlistColumns + ` FROM shared_playlists WHERE match_id = $1 AND is_active`
	return scanPlaylist(r.pool.QueryRow(ctx, query, matchID))
}

// ListForUser retrieves the active playlists userID is a member of,
// most recently updated first.
func (r *PlaylistRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]SharedPlaylist, error) {
	query := `
		SELECT ` + playlistColumns + ` FROM shared_playlists p
		WHERE p.is_active AND EXISTS (
			SELECT 1 FROM playlist_members m
			WHERE m.playlist_id = p.id AND m.user_id = $1
		)
		ORDER BY p.updated_at DESC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying playlists: %w", err)
	}
	defer rows.Close()

	var playlists []SharedPlaylist
	for rows.Next() {
		p, err := scanPlaylist(rows)
		if err != nil {
			return nil, err
		}
		playlists = append(playlists, *p)
	}
	return playlists, rows.Err()
}

// UpdateTracks replaces a playlist's track list.
func (r *PlaylistRepository) UpdateTracks(ctx context.Context, id uuid.UUID, tracks []PlaylistTrack, updatedAt time.Time) error {
	if tracks == nil {
		tracks = []PlaylistTrack{}
	}
	query := `UPDATE shared_playlists SET tracks = $2, updated_at = $3 WHERE id = $1 AND is_active`
	tag, err := r.pool.Exec(ctx, query, id, tracks, updatedAt)
	if err != nil {
		return fmt.Errorf("updating playlist tracks: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Deactivate soft-deletes a playlist.
func (r *PlaylistRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `UPDATE shared_playlists SET is_active = FALSE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deactivating playlist: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AddMember inserts a playlist membership. Returns ErrConflict if the
// user is already a member.
func (r *PlaylistRepository) AddMember(ctx context.Context, m *PlaylistMember) error {
	query := `
		INSERT INTO playlist_members (playlist_id, user_id, role, joined_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING joined_at
	`
	err := r.pool.QueryRow(ctx, query, m.PlaylistID, m.UserID, m.Role).Scan(&m.JoinedAt)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("inserting playlist member: %w", err)
	}
	return nil
}

// GetMember retrieves a single playlist membership.
func (r *PlaylistRepository) GetMember(ctx context.Context, playlistID, userID uuid.UUID) (*PlaylistMember, error) {
	query := `
		SELECT playlist_id, user_id, role, joined_at
		FROM playlist_members WHERE playlist_id = $1 AND user_id = $2
	`
	var m PlaylistMember
	err := r.pool.QueryRow(ctx, query, playlistID, userID).Scan(
		&m.PlaylistID, &m.UserID, &m.Role, &m.JoinedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying playlist member: %w", err)
	}
	return &m, nil
}

// RemoveMember deletes a playlist membership. Returns ErrNotFound when
// the membership does not exist.
func (r *PlaylistRepository) RemoveMember(ctx context.Context, playlistID, userID uuid.UUID) error {
	query := `DELETE FROM playlist_members WHERE playlist_id = $1 AND user_id = $2`
	tag, err := r.pool.Exec(ctx, query, playlistID, userID)
	if err != nil {
		return fmt.Errorf("deleting playlist member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListMembers retrieves all memberships for a playlist.
func (r *PlaylistRepository) ListMembers(ctx context.Context, playlistID uuid.UUID) ([]PlaylistMember, error) {
	query := `
		SELECT playlist_id, user_id, role, joined_at
		FROM playlist_members WHERE playlist_id = $1
		ORDER BY joined_at ASC
	`
	rows, err := r.pool.Query(ctx, query, playlistID)
	if err != nil {
		return nil, fmt.Errorf("querying playlist members: %w", err)
	}
	defer rows.Close()

	var members []PlaylistMember
	for rows.Next() {
		var m PlaylistMember
		if err := rows.Scan(&m.PlaylistID, &m.UserID, &m.Role, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("scanning playlist member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}
