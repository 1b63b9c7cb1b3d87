package web

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/musicmate-app/musicmate/internal/auth"
	"github.com/musicmate-app/musicmate/internal/chat"
	"github.com/musicmate-app/musicmate/internal/db"
	"github.com/musicmate-app/musicmate/internal/matching"
	"github.com/musicmate-app/musicmate/internal/playlists"
)

// errorResponse is the error payload for all API errors.
type errorResponse struct {
	Detail string `json:"detail"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encoding response: %v", err)
	}
}

func respondError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("internal error: %v", err)
		respondJSON(w, status, errorResponse{Detail: "internal server error"})
		return
	}
	respondJSON(w, status, errorResponse{Detail: err.Error()})
}

func respondBadRequest(w http.ResponseWriter, detail string) {
	respondJSON(w, http.StatusBadRequest, errorResponse{Detail: detail})
}

// statusFor maps service errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, matching.ErrInvalidAction),
		errors.Is(err, matching.ErrSelfSwipe),
		errors.Is(err, chat.ErrInvalidType),
		errors.Is(err, chat.ErrEmptyContent),
		errors.Is(err, chat.ErrSongRequired),
		errors.Is(err, playlists.ErrRemoveSelf),
		errors.Is(err, playlists.ErrGroupOnly):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrDomainNotAllowed),
		errors.Is(err, matching.ErrNotYourMatch),
		errors.Is(err, chat.ErrNotYourMatch),
		errors.Is(err, playlists.ErrNotMember),
		errors.Is(err, playlists.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, db.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, auth.ErrEmailTaken),
		errors.Is(err, matching.ErrAlreadySwiped),
		errors.Is(err, playlists.ErrAlreadyMember),
		errors.Is(err, playlists.ErrDuplicateTrack),
		errors.Is(err, db.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, matching.ErrNoProfile):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
