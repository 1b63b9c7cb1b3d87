package web

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/musicmate-app/musicmate/internal/db"
	"github.com/musicmate-app/musicmate/internal/profile"
)

func oauthToken(t *db.SpotifyToken) *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		Expiry:       t.ExpiresAt,
		TokenType:    "Bearer",
	}
}

type spotifyAuthURLResponse struct {
	AuthURL  string `json:"auth_url"`
	MockMode bool   `json:"mock_mode"`
}

type spotifyStatusResponse struct {
	Connected     bool    `json:"connected"`
	MockMode      bool    `json:"mock_mode"`
	SpotifyUserID *string `json:"spotify_user_id,omitempty"`
}

type spotifyCallbackRequest struct {
	Code string `json:"code"`
}

type musicProfileResponse struct {
	UserID     uuid.UUID            `json:"user_id"`
	Profile    profile.MusicProfile `json:"profile"`
	LastSynced time.Time            `json:"last_synced"`
}

// SpotifyAuthURL returns the provider authorization URL
// (GET /api/spotify/auth-url). In mock mode there is nothing to
// authorize against and the URL is empty.
func (h *Handlers) SpotifyAuthURL(w http.ResponseWriter, r *http.Request) {
	if h.deps.Linker.MockMode() {
		respondJSON(w, http.StatusOK, spotifyAuthURLResponse{MockMode: true})
		return
	}

	state := currentUser(r).ID.String()
	respondJSON(w, http.StatusOK, spotifyAuthURLResponse{AuthURL: h.deps.Linker.AuthURL(state)})
}

// SpotifyCallback completes account linking (POST /api/spotify/callback).
func (h *Handlers) SpotifyCallback(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	if h.deps.Linker.MockMode() {
		// Nothing to exchange; the account uses generated data.
		respondJSON(w, http.StatusOK, spotifyStatusResponse{Connected: true, MockMode: true})
		return
	}

	var req spotifyCallbackRequest
	if err := decodeJSON(r, &req); err != nil || req.Code == "" {
		respondBadRequest(w, "authorization code is required")
		return
	}

	token, err := h.deps.Linker.Exchange(r.Context(), req.Code)
	if err != nil {
		respondError(w, err)
		return
	}

	stored := &db.SpotifyToken{
		UserID:       user.ID,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
	}
	if id, err := h.deps.Linker.ClientFor(r.Context(), token).UserID(r.Context()); err == nil {
		stored.SpotifyUserID = &id
	}
	if err := h.deps.Tokens.Upsert(r.Context(), stored); err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, spotifyStatusResponse{
		Connected:     true,
		SpotifyUserID: stored.SpotifyUserID,
	})
}

// SpotifyStatus reports whether the account is linked
// (GET /api/spotify/status).
func (h *Handlers) SpotifyStatus(w http.ResponseWriter, r *http.Request) {
	if h.deps.Linker.MockMode() {
		respondJSON(w, http.StatusOK, spotifyStatusResponse{Connected: true, MockMode: true})
		return
	}

	token, err := h.deps.Tokens.Get(r.Context(), currentUser(r).ID)
	if errors.Is(err, db.ErrNotFound) {
		respondJSON(w, http.StatusOK, spotifyStatusResponse{})
		return
	}
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, spotifyStatusResponse{
		Connected:     true,
		SpotifyUserID: token.SpotifyUserID,
	})
}

// SyncProfile rebuilds the music profile from listening data
// (POST /api/spotify/sync).
func (h *Handlers) SyncProfile(w http.ResponseWriter, r *http.Request) {
	stored, err := h.deps.Sync.SyncProfile(r.Context(), currentUser(r).ID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, musicProfileResponse{
		UserID:     stored.UserID,
		Profile:    stored.Profile,
		LastSynced: stored.LastSynced,
	})
}

// GetProfile returns the stored music profile (GET /api/spotify/profile).
func (h *Handlers) GetProfile(w http.ResponseWriter, r *http.Request) {
	stored, err := h.deps.Profiles.Get(r.Context(), currentUser(r).ID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, musicProfileResponse{
		UserID:     stored.UserID,
		Profile:    stored.Profile,
		LastSynced: stored.LastSynced,
	})
}

// SpotifyDisconnect unlinks the account (DELETE /api/spotify/disconnect).
// The stored music profile is removed along with the tokens; a user who
// unlinks drops out of candidate feeds until they sync again.
func (h *Handlers) SpotifyDisconnect(w http.ResponseWriter, r *http.Request) {
	userID := currentUser(r).ID
	if err := h.deps.Tokens.Delete(r.Context(), userID); err != nil {
		respondError(w, err)
		return
	}
	if err := h.deps.Profiles.Delete(r.Context(), userID); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "disconnected"})
}
