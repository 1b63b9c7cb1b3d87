// Package playlists manages shared playlists: match seeding, track and
// membership operations, and weekly recaps.
package playlists

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/musicmate-app/musicmate/internal/db"
	"github.com/musicmate-app/musicmate/internal/profile"
)

// Common errors.
var (
	// ErrNotMember is returned when a user acts on a playlist they do
	// not belong to.
	ErrNotMember = errors.New("not a member of this playlist")
	// ErrNotOwner is returned when a membership operation requires the
	// owner role.
	ErrNotOwner = errors.New("only an owner can manage members")
	// ErrGroupOnly is returned for membership edits on match playlists.
	ErrGroupOnly = errors.New("members can only be managed on group playlists")
	// ErrAlreadyMember is returned when adding an existing member.
	ErrAlreadyMember = errors.New("user is already a member")
	// ErrDuplicateTrack is returned when a track with the same Spotify
	// ID is already in the playlist.
	ErrDuplicateTrack = errors.New("track already in playlist")
	// ErrRemoveSelf is returned when an owner tries to remove their own
	// membership.
	ErrRemoveSelf = errors.New("cannot remove yourself from the playlist")
)

// Store persists playlists. Create must reject a second playlist for
// the same match with db.ErrConflict.
type Store interface {
	Create(ctx context.Context, p *db.SharedPlaylist) error
	Get(ctx context.Context, id uuid.UUID) (*db.SharedPlaylist, error)
	GetByMatch(ctx context.Context, matchID uuid.UUID) (*db.SharedPlaylist, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]db.SharedPlaylist, error)
	UpdateTracks(ctx context.Context, id uuid.UUID, tracks []db.PlaylistTrack, updatedAt time.Time) error
	AddMember(ctx context.Context, m *db.PlaylistMember) error
	GetMember(ctx context.Context, playlistID, userID uuid.UUID) (*db.PlaylistMember, error)
	RemoveMember(ctx context.Context, playlistID, userID uuid.UUID) error
	ListMembers(ctx context.Context, playlistID uuid.UUID) ([]db.PlaylistMember, error)
}

// RecapStore persists weekly recaps, unique per (playlist, week start).
type RecapStore interface {
	Create(ctx context.Context, recap *db.WeeklyRecap) error
	GetForWeek(ctx context.Context, playlistID uuid.UUID, weekStart time.Time) (*db.WeeklyRecap, error)
}

// ProfileStore loads music profiles for seeding.
type ProfileStore interface {
	Get(ctx context.Context, userID uuid.UUID) (*db.MusicProfile, error)
}

// UserStore loads user records for playlist naming and member checks.
type UserStore interface {
	Get(ctx context.Context, id uuid.UUID) (*db.User, error)
}

// Service manages shared playlists.
type Service struct {
	playlists Store
	recaps    RecapStore
	profiles  ProfileStore
	users     UserStore
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New creates a playlist service.
func New(playlists Store, recaps RecapStore, profiles ProfileStore, users UserStore, opts ...Option) *Service {
	s := &Service{
		playlists: playlists,
		recaps:    recaps,
		profiles:  profiles,
		users:     users,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SeedForMatch creates the shared playlist for a newly formed match,
// owned by both users. The initial tracks are the recent plays of
// either user whose artist is in the match's shared-artist snapshot,
// pooled user1-first and deduplicated by track ID (first occurrence
// wins). Idempotent: if the match already has a playlist it is
// returned unchanged.
func (s *Service) SeedForMatch(ctx context.Context, match *db.Match) (*db.SharedPlaylist, error) {
	existing, err := s.playlists.GetByMatch(ctx, match.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("checking for existing playlist: %w", err)
	}

	user1, err := s.users.Get(ctx, match.User1ID)
	if err != nil {
		return nil, fmt.Errorf("loading user: %w", err)
	}
	user2, err := s.users.Get(ctx, match.User2ID)
	if err != nil {
		return nil, fmt.Errorf("loading user: %w", err)
	}

	tracks := s.seedTracks(ctx, match)

	matchID := match.ID
	description := fmt.Sprintf("Shared playlist from your %d%% music match!", match.CompatibilityScore)
	playlist := &db.SharedPlaylist{
		ID:          uuid.New(),
		MatchID:     &matchID,
		Name:        fmt.Sprintf("%s & %s's Mix", user1.DisplayName, user2.DisplayName),
		Description: &description,
		CreatedBy:   match.User1ID,
		Type:        db.PlaylistMatch,
		Tracks:      tracks,
	}
	if err := s.playlists.Create(ctx, playlist); err != nil {
		if errors.Is(err, db.ErrConflict) {
			// Lost a creation race; the winner's playlist stands.
			return s.playlists.GetByMatch(ctx, match.ID)
		}
		return nil, fmt.Errorf("creating match playlist: %w", err)
	}

	for _, userID := range []uuid.UUID{match.User1ID, match.User2ID} {
		member := &db.PlaylistMember{PlaylistID: playlist.ID, UserID: userID, Role: db.RoleOwner}
		if err := s.playlists.AddMember(ctx, member); err != nil && !errors.Is(err, db.ErrConflict) {
			return nil, fmt.Errorf("adding playlist owner: %w", err)
		}
	}
	return playlist, nil
}

// seedTracks selects the initial track list for a match playlist. The
// match breakdown's shared-artist names are the canonical definition of
// "artists both parties have in common". Each track is attributed to
// the user whose listening history contributed it, so recap contributor
// counts start out honest. Missing profiles yield an empty seed, not an
// error.
func (s *Service) seedTracks(ctx context.Context, match *db.Match) []db.PlaylistTrack {
	shared := make(map[string]bool, len(match.Breakdown.SharedArtists))
	for _, name := range match.Breakdown.SharedArtists {
		shared[name] = true
	}
	if len(shared) == 0 {
		return nil
	}

	type pooled struct {
		track   profile.Track
		addedBy uuid.UUID
	}
	var pool []pooled
	for _, t := range s.recentTracks(ctx, match.User1ID) {
		pool = append(pool, pooled{track: t, addedBy: match.User1ID})
	}
	for _, t := range s.recentTracks(ctx, match.User2ID) {
		pool = append(pool, pooled{track: t, addedBy: match.User2ID})
	}

	now := s.now().UTC()
	seen := make(map[string]bool)
	var tracks []db.PlaylistTrack
	for _, p := range pool {
		t := p.track
		if !shared[t.Artist] || seen[t.SpotifyID] {
			continue
		}
		seen[t.SpotifyID] = true
		tracks = append(tracks, db.PlaylistTrack{
			TrackName: t.Name,
			Artist:    t.Artist,
			Album:     t.Album,
			ImageURL:  t.ImageURL,
			SpotifyID: t.SpotifyID,
			AddedBy:   p.addedBy,
			AddedAt:   now,
		})
	}
	return tracks
}

func (s *Service) recentTracks(ctx context.Context, userID uuid.UUID) []profile.Track {
	p, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil
	}
	return p.Profile.RecentTracks
}

// CreateGroup creates a group playlist with the creator as owner and
// the given users as editors. Unknown or duplicate member IDs are
// skipped.
func (s *Service) CreateGroup(ctx context.Context, creatorID uuid.UUID, name string, description *string, memberIDs []uuid.UUID) (*db.SharedPlaylist, error) {
	playlist := &db.SharedPlaylist{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		CreatedBy:   creatorID,
		Type:        db.PlaylistGroup,
	}
	if err := s.playlists.Create(ctx, playlist); err != nil {
		return nil, fmt.Errorf("creating group playlist: %w", err)
	}

	owner := &db.PlaylistMember{PlaylistID: playlist.ID, UserID: creatorID, Role: db.RoleOwner}
	if err := s.playlists.AddMember(ctx, owner); err != nil {
		return nil, fmt.Errorf("adding playlist owner: %w", err)
	}

	for _, userID := range memberIDs {
		if userID == creatorID {
			continue
		}
		if _, err := s.users.Get(ctx, userID); err != nil {
			continue
		}
		member := &db.PlaylistMember{PlaylistID: playlist.ID, UserID: userID, Role: db.RoleEditor}
		if err := s.playlists.AddMember(ctx, member); err != nil && !errors.Is(err, db.ErrConflict) {
			return nil, fmt.Errorf("adding playlist member: %w", err)
		}
	}
	return playlist, nil
}

// GetForUser loads a playlist, verifying userID is a member.
func (s *Service) GetForUser(ctx context.Context, playlistID, userID uuid.UUID) (*db.SharedPlaylist, error) {
	playlist, err := s.playlists.Get(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	if _, err := s.playlists.GetMember(ctx, playlistID, userID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrNotMember
		}
		return nil, fmt.Errorf("checking membership: %w", err)
	}
	return playlist, nil
}

// ListForUser lists the playlists a user belongs to.
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID) ([]db.SharedPlaylist, error) {
	return s.playlists.ListForUser(ctx, userID)
}

// Members lists a playlist's memberships.
func (s *Service) Members(ctx context.Context, playlistID uuid.UUID) ([]db.PlaylistMember, error) {
	return s.playlists.ListMembers(ctx, playlistID)
}

// AddTrack appends a track on behalf of userID. Duplicate Spotify IDs
// are rejected with ErrDuplicateTrack before any mutation.
func (s *Service) AddTrack(ctx context.Context, playlistID, userID uuid.UUID, track db.PlaylistTrack) (*db.SharedPlaylist, error) {
	playlist, err := s.GetForUser(ctx, playlistID, userID)
	if err != nil {
		return nil, err
	}

	for _, t := range playlist.Tracks {
		if t.SpotifyID == track.SpotifyID {
			return nil, ErrDuplicateTrack
		}
	}

	track.AddedBy = userID
	track.AddedAt = s.now().UTC()
	playlist.Tracks = append(playlist.Tracks, track)
	playlist.UpdatedAt = track.AddedAt

	if err := s.playlists.UpdateTracks(ctx, playlistID, playlist.Tracks, playlist.UpdatedAt); err != nil {
		return nil, fmt.Errorf("saving tracks: %w", err)
	}
	return playlist, nil
}

// RemoveTrack deletes the track with the given Spotify ID. Removing a
// track that is not present is a no-op returning the playlist
// unchanged.
func (s *Service) RemoveTrack(ctx context.Context, playlistID, userID uuid.UUID, spotifyID string) (*db.SharedPlaylist, error) {
	playlist, err := s.GetForUser(ctx, playlistID, userID)
	if err != nil {
		return nil, err
	}

	kept := playlist.Tracks[:0:0]
	for _, t := range playlist.Tracks {
		if t.SpotifyID != spotifyID {
			kept = append(kept, t)
		}
	}
	if len(kept) == len(playlist.Tracks) {
		return playlist, nil
	}

	playlist.Tracks = kept
	playlist.UpdatedAt = s.now().UTC()
	if err := s.playlists.UpdateTracks(ctx, playlistID, kept, playlist.UpdatedAt); err != nil {
		return nil, fmt.Errorf("saving tracks: %w", err)
	}
	return playlist, nil
}

// AddMember adds an editor to a group playlist. Only owners may manage
// members, and match playlists are never edited this way.
func (s *Service) AddMember(ctx context.Context, playlistID, actorID, userID uuid.UUID) error {
	playlist, err := s.playlists.Get(ctx, playlistID)
	if err != nil {
		return err
	}
	if playlist.Type != db.PlaylistGroup {
		return ErrGroupOnly
	}
	if err := s.requireOwner(ctx, playlistID, actorID); err != nil {
		return err
	}
	if _, err := s.users.Get(ctx, userID); err != nil {
		return err
	}

	member := &db.PlaylistMember{PlaylistID: playlistID, UserID: userID, Role: db.RoleEditor}
	if err := s.playlists.AddMember(ctx, member); err != nil {
		if errors.Is(err, db.ErrConflict) {
			return ErrAlreadyMember
		}
		return fmt.Errorf("adding member: %w", err)
	}
	return nil
}

// RemoveMember removes a member from a group playlist. Owners cannot
// remove themselves.
func (s *Service) RemoveMember(ctx context.Context, playlistID, actorID, userID uuid.UUID) error {
	playlist, err := s.playlists.Get(ctx, playlistID)
	if err != nil {
		return err
	}
	if playlist.Type != db.PlaylistGroup {
		return ErrGroupOnly
	}
	if err := s.requireOwner(ctx, playlistID, actorID); err != nil {
		return err
	}
	if userID == actorID {
		return ErrRemoveSelf
	}
	return s.playlists.RemoveMember(ctx, playlistID, userID)
}

func (s *Service) requireOwner(ctx context.Context, playlistID, userID uuid.UUID) error {
	member, err := s.playlists.GetMember(ctx, playlistID, userID)
	if errors.Is(err, db.ErrNotFound) {
		return ErrNotMember
	}
	if err != nil {
		return fmt.Errorf("checking membership: %w", err)
	}
	if member.Role != db.RoleOwner {
		return ErrNotOwner
	}
	return nil
}

// GetOrGenerateRecap returns the weekly recap for the current calendar
// week, generating and storing it on first request. Each distinct week
// gets its own recap; past weeks' snapshots are never rewritten.
func (s *Service) GetOrGenerateRecap(ctx context.Context, playlistID, userID uuid.UUID) (*db.WeeklyRecap, error) {
	playlist, err := s.GetForUser(ctx, playlistID, userID)
	if err != nil {
		return nil, err
	}

	weekStart := WeekStart(s.now())
	if recap, err := s.recaps.GetForWeek(ctx, playlistID, weekStart); err == nil {
		return recap, nil
	} else if !errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("loading recap: %w", err)
	}

	recap := &db.WeeklyRecap{
		ID:         uuid.New(),
		PlaylistID: playlistID,
		WeekStart:  weekStart,
		Data:       buildRecap(playlist.Tracks, weekStart),
	}
	if err := s.recaps.Create(ctx, recap); err != nil {
		if errors.Is(err, db.ErrConflict) {
			return s.recaps.GetForWeek(ctx, playlistID, weekStart)
		}
		return nil, fmt.Errorf("storing recap: %w", err)
	}
	return recap, nil
}

// buildRecap summarises the tracks added on or after weekStart. The
// top contributor is the user with the most insertions; ties go to the
// contributor whose first week track appears earliest in the list.
func buildRecap(tracks []db.PlaylistTrack, weekStart time.Time) db.RecapData {
	data := db.RecapData{
		TotalTracks: len(tracks),
		WeekTracks:  []db.RecapTrack{},
	}

	counts := make(map[uuid.UUID]int)
	var order []uuid.UUID
	for _, t := range tracks {
		if t.AddedAt.Before(weekStart) {
			continue
		}
		data.WeekTracks = append(data.WeekTracks, db.RecapTrack{
			TrackName: t.TrackName,
			Artist:    t.Artist,
		})
		if _, seen := counts[t.AddedBy]; !seen {
			order = append(order, t.AddedBy)
		}
		counts[t.AddedBy]++
	}
	data.TracksAdded = len(data.WeekTracks)

	best := -1
	for _, contributor := range order {
		if counts[contributor] > best {
			best = counts[contributor]
			top := contributor
			data.TopContributor = &top
		}
	}
	return data
}

// WeekStart returns the UTC midnight of the Monday of t's week.
func WeekStart(t time.Time) time.Time {
	t = t.UTC()
	daysSinceMonday := (int(t.Weekday()) + 6) % 7
	monday := t.AddDate(0, 0, -daysSinceMonday)
	return time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, time.UTC)
}
