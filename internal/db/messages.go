package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MessageRepository handles chat message database operations.
type MessageRepository struct {
	pool *pgxpool.Pool
}

// Create inserts a message.
func (r *MessageRepository) Create(ctx context.Context, m *Message) error {
	query := `
		INSERT INTO messages (id, match_id, sender_id, content, message_type, song_data, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE, NOW())
		RETURNING created_at
	`
	err := r.pool.QueryRow(ctx, query,
		m.ID, m.MatchID, m.SenderID, m.Content, m.Type, m.Song).Scan(&m.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting message: %w", err)
	}
	return nil
}

// ListForMatch retrieves messages for a match ordered by creation time
// ascending, with limit and offset.
func (r *MessageRepository) ListForMatch(ctx context.Context, matchID uuid.UUID, limit, offset int) ([]Message, error) {
	query := `
		SELECT id, match_id, sender_id, content, message_type, song_data, is_read, created_at
		FROM messages
		WHERE match_id = $1
		ORDER BY created_at ASC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, matchID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(
			&m.ID, &m.MatchID, &m.SenderID, &m.Content, &m.Type, &m.Song, &m.Read, &m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// MarkRead flags every unread message in the match not sent by readerID
// as read. Returns the number of messages updated.
func (r *MessageRepository) MarkRead(ctx context.Context, matchID, readerID uuid.UUID) (int, error) {
	query := `
		UPDATE messages SET is_read = TRUE
		WHERE match_id = $1 AND sender_id <> $2 AND is_read = FALSE
	`
	tag, err := r.pool.Exec(ctx, query, matchID, readerID)
	if err != nil {
		return 0, fmt.Errorf("marking messages read: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// UnreadCounts returns the number of unread messages sent to userID
// per match, for the given matches. Matches with no unread messages
// are omitted.
func (r *MessageRepository) UnreadCounts(ctx context.Context, userID uuid.UUID, matchIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	if len(matchIDs) == 0 {
		return map[uuid.UUID]int{}, nil
	}

	query := `
		SELECT match_id, COUNT(*)
		FROM messages
		WHERE match_id = ANY($1) AND sender_id <> $2 AND is_read = FALSE
		GROUP BY match_id
	`
	rows, err := r.pool.Query(ctx, query, matchIDs, userID)
	if err != nil {
		return nil, fmt.Errorf("querying unread counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[uuid.UUID]int)
	for rows.Next() {
		var matchID uuid.UUID
		var n int
		if err := rows.Scan(&matchID, &n); err != nil {
			return nil, fmt.Errorf("scanning unread count: %w", err)
		}
		counts[matchID] = n
	}
	return counts, rows.Err()
}
