package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/musicmate-app/musicmate/internal/compat"
	"github.com/musicmate-app/musicmate/internal/db"
)

// candidateUser is another student as shown in the feed and on matches.
// Academic fields respect the owner's visibility settings.
type candidateUser struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
	Course      *string   `json:"course,omitempty"`
	Year        *int      `json:"year,omitempty"`
	Faculty     *string   `json:"faculty,omitempty"`
}

func toCandidateUser(u *db.User) candidateUser {
	c := candidateUser{ID: u.ID, DisplayName: u.DisplayName}
	if u.ShowCourse {
		c.Course = u.Course
	}
	if u.ShowYear {
		c.Year = u.Year
	}
	if u.ShowFaculty {
		c.Faculty = u.Faculty
	}
	return c
}

type candidateResponse struct {
	User          candidateUser `json:"user"`
	Compatibility compat.Result `json:"compatibility"`
	TopArtists    []string      `json:"top_artists"`
}

// Feed returns the ranked swipe feed (GET /api/match/feed). Optional
// course, year and faculty query parameters narrow the candidates.
func (h *Handlers) Feed(w http.ResponseWriter, r *http.Request) {
	var filters db.CandidateFilters
	if course := r.URL.Query().Get("course"); course != "" {
		filters.Course = &course
	}
	if faculty := r.URL.Query().Get("faculty"); faculty != "" {
		filters.Faculty = &faculty
	}
	if yearStr := r.URL.Query().Get("year"); yearStr != "" {
		year, err := strconv.Atoi(yearStr)
		if err != nil {
			respondBadRequest(w, "year must be an integer")
			return
		}
		filters.Year = &year
	}

	feed, err := h.deps.Matching.Feed(r.Context(), currentUser(r).ID, filters)
	if err != nil {
		respondError(w, err)
		return
	}

	out := make([]candidateResponse, len(feed))
	for i, c := range feed {
		out[i] = candidateResponse{
			User:          toCandidateUser(&c.User),
			Compatibility: c.Breakdown,
			TopArtists:    c.TopArtists,
		}
	}
	respondJSON(w, http.StatusOK, out)
}

type swipeRequest struct {
	TargetUserID uuid.UUID `json:"target_user_id"`
	Action       string    `json:"action"`
}

type swipeResponse struct {
	Swiped     bool           `json:"swiped"`
	Matched    bool           `json:"matched"`
	Match      *matchResponse `json:"match,omitempty"`
	PlaylistID *uuid.UUID     `json:"playlist_id,omitempty"`
}

// Swipe records a like/pass decision (POST /api/match/swipe).
func (h *Handlers) Swipe(w http.ResponseWriter, r *http.Request) {
	var req swipeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}
	if req.TargetUserID == uuid.Nil {
		respondBadRequest(w, "target_user_id is required")
		return
	}

	result, err := h.deps.Matching.RecordSwipe(r.Context(), currentUser(r).ID, req.TargetUserID, req.Action)
	if err != nil {
		respondError(w, err)
		return
	}

	resp := swipeResponse{Swiped: true, Matched: result.Matched}
	if result.Match != nil {
		match := h.toMatchResponse(r, result.Match)
		resp.Match = &match
	}
	if result.Playlist != nil {
		resp.PlaylistID = &result.Playlist.ID
	}
	respondJSON(w, http.StatusOK, resp)
}

type matchResponse struct {
	ID                 uuid.UUID     `json:"id"`
	OtherUser          candidateUser `json:"other_user"`
	CompatibilityScore int           `json:"compatibility_score"`
	Breakdown          compat.Result `json:"breakdown"`
	CreatedAt          time.Time     `json:"created_at"`
}

func (h *Handlers) toMatchResponse(r *http.Request, match *db.Match) matchResponse {
	resp := matchResponse{
		ID:                 match.ID,
		CompatibilityScore: match.CompatibilityScore,
		Breakdown:          match.Breakdown,
		CreatedAt:          match.CreatedAt,
	}
	otherID := match.OtherUser(currentUser(r).ID)
	if other, err := h.deps.Users.Get(r.Context(), otherID); err == nil {
		resp.OtherUser = toCandidateUser(other)
	} else {
		resp.OtherUser = candidateUser{ID: otherID}
	}
	return resp
}

// Matches lists the user's matches, newest first (GET /api/match/matches).
func (h *Handlers) Matches(w http.ResponseWriter, r *http.Request) {
	matches, err := h.deps.Matching.Matches(r.Context(), currentUser(r).ID)
	if err != nil {
		respondError(w, err)
		return
	}

	out := make([]matchResponse, len(matches))
	for i := range matches {
		out[i] = h.toMatchResponse(r, &matches[i])
	}
	respondJSON(w, http.StatusOK, out)
}

// GetMatch returns one match (GET /api/match/matches/{matchID}).
func (h *Handlers) GetMatch(w http.ResponseWriter, r *http.Request) {
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
	respondJSON(w, http.StatusOK, h.toMatchResponse(r, match))
}
