package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/musicmate-app/musicmate/internal/db"
)

type fakeTokens struct {
	tokens map[uuid.UUID]*db.SpotifyToken
}

func (f *fakeTokens) Upsert(_ context.Context, t *db.SpotifyToken) error {
	f.tokens[t.UserID] = t
	return nil
}

func (f *fakeTokens) Get(_ context.Context, userID uuid.UUID) (*db.SpotifyToken, error) {
	t, ok := f.tokens[userID]
	if !ok {
		return nil, db.ErrNotFound
	}
	return t, nil
}

func (f *fakeTokens) Delete(_ context.Context, userID uuid.UUID) error {
	delete(f.tokens, userID)
	return nil
}

type fakeProfiles struct {
	profiles map[uuid.UUID]*db.MusicProfile
}

func (f *fakeProfiles) Get(_ context.Context, userID uuid.UUID) (*db.MusicProfile, error) {
	p, ok := f.profiles[userID]
	if !ok {
		return nil, db.ErrNotFound
	}
	return p, nil
}

func (f *fakeProfiles) Delete(_ context.Context, userID uuid.UUID) error {
	delete(f.profiles, userID)
	return nil
}

// requestWithUser builds a request carrying an authenticated user, as
// RequireAuth would leave it.
func requestWithUser(method, target string, user *db.User) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	return req.WithContext(context.WithValue(req.Context(), userContextKey, user))
}

func TestSpotifyDisconnect(t *testing.T) {
	user := &db.User{ID: uuid.New(), Email: "alex@manchester.ac.uk"}
	tokens := &fakeTokens{tokens: map[uuid.UUID]*db.SpotifyToken{
		user.ID: {UserID: user.ID, AccessToken: "at", RefreshToken: "rt"},
	}}
	profiles := &fakeProfiles{profiles: map[uuid.UUID]*db.MusicProfile{
		user.ID: {UserID: user.ID},
	}}
	h := NewHandlers(Deps{Tokens: tokens, Profiles: profiles})

	rec := httptest.NewRecorder()
	h.SpotifyDisconnect(rec, requestWithUser(http.MethodDelete, "/api/spotify/disconnect", user))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if _, ok := tokens.tokens[user.ID]; ok {
		t.Error("tokens survived disconnect")
	}
	// The profile goes with the tokens; otherwise the user lingers in
	// candidate feeds with pre-unlink data.
	if _, ok := profiles.profiles[user.ID]; ok {
		t.Error("music profile survived disconnect")
	}
}
