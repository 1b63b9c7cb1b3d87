package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/musicmate-app/musicmate/internal/db"
)

type playlistResponse struct {
	ID          uuid.UUID          `json:"id"`
	MatchID     *uuid.UUID         `json:"match_id,omitempty"`
	Name        string             `json:"name"`
	Description *string            `json:"description,omitempty"`
	Type        string             `json:"playlist_type"`
	CreatedBy   uuid.UUID          `json:"created_by"`
	Tracks      []db.PlaylistTrack `json:"tracks"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

func toPlaylistResponse(p *db.SharedPlaylist) playlistResponse {
	tracks := p.Tracks
	if tracks == nil {
		tracks = []db.PlaylistTrack{}
	}
	return playlistResponse{
		ID:          p.ID,
		MatchID:     p.MatchID,
		Name:        p.Name,
		Description: p.Description,
		Type:        p.Type,
		CreatedBy:   p.CreatedBy,
		Tracks:      tracks,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func playlistIDParam(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "playlistID"))
}

// ListPlaylists lists the user's playlists (GET /api/playlist).
func (h *Handlers) ListPlaylists(w http.ResponseWriter, r *http.Request) {
	lists, err := h.deps.Playlists.ListForUser(r.Context(), currentUser(r).ID)
	if err != nil {
		respondError(w, err)
		return
	}

	out := make([]playlistResponse, len(lists))
	for i := range lists {
		out[i] = toPlaylistResponse(&lists[i])
	}
	respondJSON(w, http.StatusOK, out)
}

type createPlaylistRequest struct {
	Name        string      `json:"name"`
	Description *string     `json:"description"`
	MemberIDs   []uuid.UUID `json:"member_ids"`
}

// CreatePlaylist creates a group playlist (POST /api/playlist).
func (h *Handlers) CreatePlaylist(w http.ResponseWriter, r *http.Request) {
	var req createPlaylistRequest
	if err := decodeJSON(r, &req); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}
	if req.Name == "" {
		respondBadRequest(w, "name is required")
		return
	}

	playlist, err := h.deps.Playlists.CreateGroup(r.Context(), currentUser(r).ID, req.Name, req.Description, req.MemberIDs)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toPlaylistResponse(playlist))
}

// AutoCreatePlaylist returns the match's shared playlist, seeding it if
// it does not exist yet (POST /api/playlist/auto-create/{matchID}).
// Repeat calls return the same playlist.
func (h *Handlers) AutoCreatePlaylist(w http.ResponseWriter, r *http.Request) {
	matchID, err := uuid.Parse(chi.URLParam(r, "matchID"))
	if err != nil {
		respondBadRequest(w, "invalid match id")
		return
	}

	match, err := h.deps.Matching.MatchForUser(r.Context(), matchID, currentUser(r).ID)
	if err != nil {
		respondError(w, err)
		return
	}

	playlist, err := h.deps.Playlists.SeedForMatch(r.Context(), match)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toPlaylistResponse(playlist))
}

// GetPlaylist returns one playlist (GET /api/playlist/{playlistID}).
func (h *Handlers) GetPlaylist(w http.ResponseWriter, r *http.Request) {
	playlistID, err := playlistIDParam(r)
	if err != nil {
		respondBadRequest(w, "invalid playlist id")
		return
	}

	playlist, err := h.deps.Playlists.GetForUser(r.Context(), playlistID, currentUser(r).ID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toPlaylistResponse(playlist))
}

type addTrackRequest struct {
	TrackName  string  `json:"track_name"`
	Artist     string  `json:"artist"`
	Album      string  `json:"album"`
	ImageURL   *string `json:"image_url"`
	SpotifyURL *string `json:"spotify_url"`
	SpotifyID  string  `json:"spotify_id"`
}

// AddTrack appends a track (POST /api/playlist/{playlistID}/tracks).
func (h *Handlers) AddTrack(w http.ResponseWriter, r *http.Request) {
	playlistID, err := playlistIDParam(r)
	if err != nil {
		respondBadRequest(w, "invalid playlist id")
		return
	}

	var req addTrackRequest
	if err := decodeJSON(r, &req); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}
	if req.SpotifyID == "" || req.TrackName == "" {
		respondBadRequest(w, "spotify_id and track_name are required")
		return
	}

	playlist, err := h.deps.Playlists.AddTrack(r.Context(), playlistID, currentUser(r).ID, db.PlaylistTrack{
		TrackName:  req.TrackName,
		Artist:     req.Artist,
		Album:      req.Album,
		ImageURL:   req.ImageURL,
		SpotifyURL: req.SpotifyURL,
		SpotifyID:  req.SpotifyID,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toPlaylistResponse(playlist))
}

// RemoveTrack deletes a track
// (DELETE /api/playlist/{playlistID}/tracks/{spotifyID}).
func (h *Handlers) RemoveTrack(w http.ResponseWriter, r *http.Request) {
	playlistID, err := playlistIDParam(r)
	if err != nil {
		respondBadRequest(w, "invalid playlist id")
		return
	}

	playlist, err := h.deps.Playlists.RemoveTrack(r.Context(), playlistID, currentUser(r).ID, chi.URLParam(r, "spotifyID"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toPlaylistResponse(playlist))
}

type addMemberRequest struct {
	UserID uuid.UUID `json:"user_id"`
}

// AddMember adds an editor to a group playlist
// (POST /api/playlist/{playlistID}/members).
func (h *Handlers) AddMember(w http.ResponseWriter, r *http.Request) {
	playlistID, err := playlistIDParam(r)
	if err != nil {
		respondBadRequest(w, "invalid playlist id")
		return
	}

	var req addMemberRequest
	if err := decodeJSON(r, &req); err != nil || req.UserID == uuid.Nil {
		respondBadRequest(w, "user_id is required")
		return
	}

	if err := h.deps.Playlists.AddMember(r.Context(), playlistID, currentUser(r).ID, req.UserID); err != nil {
		respondError(w, err)
		return
	}
	h.GetPlaylist(w, r)
}

// RemoveMember removes a member from a group playlist
// (DELETE /api/playlist/{playlistID}/members/{userID}).
func (h *Handlers) RemoveMember(w http.ResponseWriter, r *http.Request) {
	playlistID, err := playlistIDParam(r)
	if err != nil {
		respondBadRequest(w, "invalid playlist id")
		return
	}
	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		respondBadRequest(w, "invalid user id")
		return
	}

	if err := h.deps.Playlists.RemoveMember(r.Context(), playlistID, currentUser(r).ID, userID); err != nil {
		respondError(w, err)
		return
	}
	h.GetPlaylist(w, r)
}

type recapResponse struct {
	ID         uuid.UUID    `json:"id"`
	PlaylistID uuid.UUID    `json:"playlist_id"`
	WeekStart  time.Time    `json:"week_start"`
	Data       db.RecapData `json:"recap_data"`
	CreatedAt  time.Time    `json:"created_at"`
}

// WeeklyRecap returns this week's activity summary, generating it on
// first request (GET /api/playlist/{playlistID}/recap).
func (h *Handlers) WeeklyRecap(w http.ResponseWriter, r *http.Request) {
	playlistID, err := playlistIDParam(r)
	if err != nil {
		respondBadRequest(w, "invalid playlist id")
		return
	}

	recap, err := h.deps.Playlists.GetOrGenerateRecap(r.Context(), playlistID, currentUser(r).ID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, recapResponse{
		ID:         recap.ID,
		PlaylistID: recap.PlaylistID,
		WeekStart:  recap.WeekStart,
		Data:       recap.Data,
		CreatedAt:  recap.CreatedAt,
	})
}
