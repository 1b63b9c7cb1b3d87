package web

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/musicmate-app/musicmate/internal/db"
	"github.com/musicmate-app/musicmate/internal/spotify"
)

type messageResponse struct {
	ID        uuid.UUID       `json:"id"`
	MatchID   uuid.UUID       `json:"match_id"`
	SenderID  uuid.UUID       `json:"sender_id"`
	Content   string          `json:"content"`
	Type      string          `json:"message_type"`
	Song      *db.SongPayload `json:"song_data,omitempty"`
	Read      bool            `json:"is_read"`
	CreatedAt time.Time       `json:"created_at"`
}

func toMessageResponse(m *db.Message) messageResponse {
	return messageResponse{
		ID:        m.ID,
		MatchID:   m.MatchID,
		SenderID:  m.SenderID,
		Content:   m.Content,
		Type:      m.Type,
		Song:      m.Song,
		Read:      m.Read,
		CreatedAt: m.CreatedAt,
	}
}

func matchIDParam(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "matchID"))
}

// Conversation returns a match's messages (GET /api/chat/{matchID}).
func (h *Handlers) Conversation(w http.ResponseWriter, r *http.Request) {
	matchID, err := matchIDParam(r)
	if err != nil {
		respondBadRequest(w, "invalid match id")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	messages, err := h.deps.Chat.Conversation(r.Context(), matchID, currentUser(r).ID, limit, offset)
	if err != nil {
		respondError(w, err)
		return
	}

	out := make([]messageResponse, len(messages))
	for i := range messages {
		out[i] = toMessageResponse(&messages[i])
	}
	respondJSON(w, http.StatusOK, out)
}

type sendMessageRequest struct {
	Content string          `json:"content"`
	Type    string          `json:"message_type"`
	Song    *db.SongPayload `json:"song_data"`
}

// SendMessage posts a message to a conversation (POST /api/chat/{matchID}).
func (h *Handlers) SendMessage(w http.ResponseWriter, r *http.Request) {
	matchID, err := matchIDParam(r)
	if err != nil {
		respondBadRequest(w, "invalid match id")
		return
	}

	var req sendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}

	msg, err := h.deps.Chat.Send(r.Context(), matchID, currentUser(r).ID, req.Content, req.Type, req.Song)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toMessageResponse(msg))
}

// MarkRead flags the counterpart's messages as read
// (PUT /api/chat/{matchID}/read).
func (h *Handlers) MarkRead(w http.ResponseWriter, r *http.Request) {
	matchID, err := matchIDParam(r)
	if err != nil {
		respondBadRequest(w, "invalid match id")
		return
	}

	n, err := h.deps.Chat.MarkRead(r.Context(), matchID, currentUser(r).ID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"marked_read": n})
}

type unreadCountResponse struct {
	Total   int               `json:"total"`
	ByMatch map[uuid.UUID]int `json:"by_match"`
}

// UnreadCount returns unread totals across all matches
// (GET /api/chat/unread/count).
func (h *Handlers) UnreadCount(w http.ResponseWriter, r *http.Request) {
	counts, err := h.deps.Chat.UnreadSummary(r.Context(), currentUser(r).ID)
	if err != nil {
		respondError(w, err)
		return
	}

	total := 0
	for _, n := range counts {
		total += n
	}
	respondJSON(w, http.StatusOK, unreadCountResponse{Total: total, ByMatch: counts})
}

// Prompts returns conversation starters for a match
// (GET /api/chat/prompts/list?match_id=...).
func (h *Handlers) Prompts(w http.ResponseWriter, r *http.Request) {
	matchID, err := uuid.Parse(r.URL.Query().Get("match_id"))
	if err != nil {
		respondBadRequest(w, "match_id is required")
		return
	}

	prompts, err := h.deps.Chat.Prompts(r.Context(), matchID, currentUser(r).ID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string][]string{"prompts": prompts})
}

// SearchSongs searches tracks to share in chat
// (GET /api/chat/search-song/results?q=...).
func (h *Handlers) SearchSongs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		respondBadRequest(w, "q is required")
		return
	}

	const searchLimit = 10
	if h.deps.Linker.MockMode() {
		respondJSON(w, http.StatusOK, spotify.SearchMockTracks(query, searchLimit))
		return
	}

	token, err := h.deps.Tokens.Get(r.Context(), currentUser(r).ID)
	if errors.Is(err, db.ErrNotFound) {
		respondJSON(w, http.StatusOK, spotify.SearchMockTracks(query, searchLimit))
		return
	}
	if err != nil {
		respondError(w, err)
		return
	}

	client := h.deps.Linker.ClientFor(r.Context(), oauthToken(token))
	tracks, err := client.SearchTracks(r.Context(), query, searchLimit)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, tracks)
}
