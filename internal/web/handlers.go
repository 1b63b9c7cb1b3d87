package web

import (
	"context"
	"net/http"
	"strings"

	"github.com/musicmate-app/musicmate/internal/db"
)

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	deps Deps
}

// NewHandlers creates a Handlers instance.
func NewHandlers(deps Deps) *Handlers {
	return &Handlers{deps: deps}
}

// Health reports liveness (GET /health).
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type contextKey string

const userContextKey contextKey = "user"

// RequireAuth resolves the bearer token to an account and stores it on
// the request context.
func (h *Handlers) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			respondJSON(w, http.StatusUnauthorized, errorResponse{Detail: "missing bearer token"})
			return
		}

		user, err := h.deps.Auth.UserFromToken(r.Context(), token)
		if err != nil {
			respondError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// currentUser returns the authenticated account set by RequireAuth.
func currentUser(r *http.Request) *db.User {
	user, _ := r.Context().Value(userContextKey).(*db.User)
	return user
}
