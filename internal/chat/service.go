// Package chat implements match-scoped messaging: text and song-share
// messages, read tracking, and conversation starters.
package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/musicmate-app/musicmate/internal/db"
)

// Common errors.
var (
	// ErrNotYourMatch is returned when a user touches a conversation for
	// a match they are not part of.
	ErrNotYourMatch = errors.New("not a member of this match")
	// ErrInvalidType is returned for unknown message types.
	ErrInvalidType = errors.New(`message type must be "text" or "song_share"`)
	// ErrEmptyContent is returned for a text message with no content.
	ErrEmptyContent = errors.New("message content is required")
	// ErrSongRequired is returned for a song_share message without song
	// data.
	ErrSongRequired = errors.New("song data is required for song shares")
)

// Conversation paging bounds.
const (
	DefaultLimit = 50
	MaxLimit     = 100
)

// MessageStore persists chat messages.
type MessageStore interface {
	Create(ctx context.Context, m *db.Message) error
	ListForMatch(ctx context.Context, matchID uuid.UUID, limit, offset int) ([]db.Message, error)
	MarkRead(ctx context.Context, matchID, readerID uuid.UUID) (int, error)
	UnreadCounts(ctx context.Context, userID uuid.UUID, matchIDs []uuid.UUID) (map[uuid.UUID]int, error)
}

// MatchStore loads matches for membership checks.
type MatchStore interface {
	Get(ctx context.Context, id uuid.UUID) (*db.Match, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]db.Match, error)
}

// Service runs match conversations.
type Service struct {
	messages MessageStore
	matches  MatchStore
}

// New creates a chat service.
func New(messages MessageStore, matches MatchStore) *Service {
	return &Service{messages: messages, matches: matches}
}

// Send records a message from senderID in the match's conversation.
// Text messages need content; song shares need song data and may carry
// an empty caption.
func (s *Service) Send(ctx context.Context, matchID, senderID uuid.UUID, content, msgType string, song *db.SongPayload) (*db.Message, error) {
	if msgType == "" {
		msgType = db.MessageText
	}
	if msgType != db.MessageText && msgType != db.MessageSongShare {
		return nil, ErrInvalidType
	}
	if msgType == db.MessageText && content == "" {
		return nil, ErrEmptyContent
	}
	if msgType == db.MessageSongShare && song == nil {
		return nil, ErrSongRequired
	}

	if err := s.requireMember(ctx, matchID, senderID); err != nil {
		return nil, err
	}

	msg := &db.Message{
		ID:       uuid.New(),
		MatchID:  matchID,
		SenderID: senderID,
		Content:  content,
		Type:     msgType,
		Song:     song,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("sending message: %w", err)
	}
	return msg, nil
}

// Conversation returns the match's messages oldest first. A limit of 0
// means DefaultLimit; limits above MaxLimit are clamped.
func (s *Service) Conversation(ctx context.Context, matchID, userID uuid.UUID, limit, offset int) ([]db.Message, error) {
	if err := s.requireMember(ctx, matchID, userID); err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if offset < 0 {
		offset = 0
	}

	messages, err := s.messages.ListForMatch(ctx, matchID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("loading conversation: %w", err)
	}
	return messages, nil
}

// MarkRead flags the other user's messages as read and returns how many
// were updated.
func (s *Service) MarkRead(ctx context.Context, matchID, readerID uuid.UUID) (int, error) {
	if err := s.requireMember(ctx, matchID, readerID); err != nil {
		return 0, err
	}
	n, err := s.messages.MarkRead(ctx, matchID, readerID)
	if err != nil {
		return 0, fmt.Errorf("marking conversation read: %w", err)
	}
	return n, nil
}

// UnreadSummary returns unread message counts per match across all of
// the user's matches. Matches with nothing unread are omitted.
func (s *Service) UnreadSummary(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]int, error) {
	matches, err := s.matches.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing matches: %w", err)
	}

	matchIDs := make([]uuid.UUID, len(matches))
	for i, m := range matches {
		matchIDs[i] = m.ID
	}

	counts, err := s.messages.UnreadCounts(ctx, userID, matchIDs)
	if err != nil {
		return nil, fmt.Errorf("counting unread messages: %w", err)
	}
	return counts, nil
}

// Prompts returns conversation starters for a match, personalised with
// the shared artists and genres snapshotted at match time.
func (s *Service) Prompts(ctx context.Context, matchID, userID uuid.UUID) ([]string, error) {
	match, err := s.matches.Get(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !match.HasMember(userID) {
		return nil, ErrNotYourMatch
	}

	var prompts []string
	if artists := match.Breakdown.SharedArtists; len(artists) > 0 {
		prompts = append(prompts,
			fmt.Sprintf("You both listen to %s! What's your favourite song of theirs?", artists[0]))
		if len(artists) > 1 {
			prompts = append(prompts,
				fmt.Sprintf("%s or %s, who would you rather see live?", artists[0], artists[1]))
		}
	}
	if genres := match.Breakdown.SharedGenres; len(genres) > 0 {
		prompts = append(prompts,
			fmt.Sprintf("What got you into %s?", genres[0]))
	}
	prompts = append(prompts,
		"What's the last song you had on repeat?",
		"Best gig you've been to in Manchester?",
	)
	return prompts, nil
}

func (s *Service) requireMember(ctx context.Context, matchID, userID uuid.UUID) error {
	match, err := s.matches.Get(ctx, matchID)
	if err != nil {
		return err
	}
	if !match.HasMember(userID) {
		return ErrNotYourMatch
	}
	return nil
}
