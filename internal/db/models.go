package db

import (
	"time"

	"github.com/google/uuid"

	"github.com/musicmate-app/musicmate/internal/compat"
	"github.com/musicmate-app/musicmate/internal/profile"
)

// Swipe actions.
const (
	SwipeLike = "like"
	SwipePass = "pass"
)

// Message types.
const (
	MessageText      = "text"
	MessageSongShare = "song_share"
)

// Playlist types.
const (
	PlaylistMatch = "match"
	PlaylistGroup = "group"
)

// Playlist member roles.
const (
	RoleOwner  = "owner"
	RoleEditor = "editor"
)

// User is a registered MusicMate account.
type User struct {
	ID             uuid.UUID
	Email          string
	HashedPassword string
	DisplayName    string
	StudentID      *string
	Course         *string
	Year           *int
	Faculty        *string
	ShowCourse     bool
	ShowYear       bool
	ShowFaculty    bool
	SpotifyEmail   *string
	Verified       bool
	CreatedAt      time.Time
}

// SpotifyToken holds a user's provider OAuth credentials.
type SpotifyToken struct {
	UserID        uuid.UUID
	AccessToken   string
	RefreshToken  string
	ExpiresAt     time.Time
	SpotifyUserID *string
}

// MusicProfile is a user's synced feature set. The profile payload is
// replaced wholesale on every sync.
type MusicProfile struct {
	UserID     uuid.UUID
	Profile    profile.MusicProfile
	LastSynced time.Time
}

// Swipe is a directed like/pass decision. At most one exists per
// ordered (user, target) pair and it is immutable once created.
type Swipe struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	TargetUserID uuid.UUID
	Action       string // SwipeLike or SwipePass
	CreatedAt    time.Time
}

// Match records a mutual like. User order is incidental; consumers
// must check membership both ways. The score and breakdown are
// snapshots taken at match time and never recomputed.
type Match struct {
	ID                 uuid.UUID
	User1ID            uuid.UUID
	User2ID            uuid.UUID
	CompatibilityScore int
	Breakdown          compat.Result
	CreatedAt          time.Time
}

// HasMember reports whether userID is one of the matched users.
func (m *Match) HasMember(userID uuid.UUID) bool {
	return m.User1ID == userID || m.User2ID == userID
}

// OtherUser returns the counterpart of userID in the match.
func (m *Match) OtherUser(userID uuid.UUID) uuid.UUID {
	if m.User1ID == userID {
		return m.User2ID
	}
	return m.User1ID
}

// SongPayload is the structured song attached to a song_share message.
type SongPayload struct {
	TrackName  string  `json:"track_name"`
	Artist     string  `json:"artist"`
	Album      string  `json:"album"`
	ImageURL   *string `json:"image_url"`
	SpotifyURL *string `json:"spotify_url"`
	SpotifyID  string  `json:"spotify_id"`
}

// Message belongs to exactly one match; ordered by creation time
// ascending. Song is required iff Type is MessageSongShare.
type Message struct {
	ID        uuid.UUID
	MatchID   uuid.UUID
	SenderID  uuid.UUID
	Content   string
	Type      string // MessageText or MessageSongShare
	Song      *SongPayload
	Read      bool
	CreatedAt time.Time
}

// PlaylistTrack is one entry in a shared playlist's track list, stamped
// with the contributing user and insertion time. Tracks are unique per
// playlist by SpotifyID.
type PlaylistTrack struct {
	TrackName  string    `json:"track_name"`
	Artist     string    `json:"artist"`
	Album      string    `json:"album"`
	ImageURL   *string   `json:"image_url"`
	SpotifyURL *string   `json:"spotify_url"`
	SpotifyID  string    `json:"spotify_id"`
	AddedBy    uuid.UUID `json:"added_by"`
	AddedAt    time.Time `json:"added_at"`
}

// SharedPlaylist is a collaborative playlist, either seeded for a match
// or created as a group playlist.
type SharedPlaylist struct {
	ID                uuid.UUID
	MatchID           *uuid.UUID
	Name              string
	Description       *string
	SpotifyPlaylistID *string
	CreatedBy         uuid.UUID
	Type              string // PlaylistMatch or PlaylistGroup
	Tracks            []PlaylistTrack
	Active            bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// PlaylistMember joins a user to a playlist; unique per (playlist, user).
type PlaylistMember struct {
	PlaylistID uuid.UUID
	UserID     uuid.UUID
	Role       string // RoleOwner or RoleEditor
	JoinedAt   time.Time
}

// RecapTrack is a track summarised in a weekly recap.
type RecapTrack struct {
	TrackName string `json:"track_name"`
	Artist    string `json:"artist"`
}

// RecapData is the derived summary stored on a weekly recap.
type RecapData struct {
	TracksAdded    int          `json:"tracks_added"`
	TopContributor *uuid.UUID   `json:"top_contributor"`
	TotalTracks    int          `json:"total_tracks"`
	WeekTracks     []RecapTrack `json:"week_tracks"`
}

// WeeklyRecap is an append-only snapshot of playlist activity for one
// calendar week, unique per (playlist, week start).
type WeeklyRecap struct {
	ID         uuid.UUID
	PlaylistID uuid.UUID
	WeekStart  time.Time
	Data       RecapData
	CreatedAt  time.Time
}
