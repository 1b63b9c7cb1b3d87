package spotify

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
)

// Linker runs the account-linking OAuth flow. With no client
// credentials configured it operates in mock mode and accounts fall
// back to generated listening data.
type Linker struct {
	auth *spotifyauth.Authenticator
	mock bool
}

// NewLinker creates a Linker. Empty credentials enable mock mode.
func NewLinker(clientID, clientSecret, redirectURI string) *Linker {
	if clientID == "" || clientSecret == "" {
		return &Linker{mock: true}
	}
	return &Linker{
		auth: spotifyauth.New(
			spotifyauth.WithClientID(clientID),
			spotifyauth.WithClientSecret(clientSecret),
			spotifyauth.WithRedirectURL(redirectURI),
			spotifyauth.WithScopes(
				spotifyauth.ScopeUserTopRead,
				spotifyauth.ScopeUserReadRecentlyPlayed,
				spotifyauth.ScopeUserReadPlaybackState,
				spotifyauth.ScopeUserLibraryRead,
			),
		),
	}
}

// MockMode reports whether provider credentials are absent.
func (l *Linker) MockMode() bool {
	return l.mock
}

// AuthURL returns the provider authorization URL for the given state.
func (l *Linker) AuthURL(state string) string {
	if l.mock {
		return ""
	}
	return l.auth.AuthURL(state)
}

// Exchange trades an authorization code for an OAuth token.
func (l *Linker) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	if l.mock {
		return nil, fmt.Errorf("provider linking unavailable in mock mode")
	}
	token, err := l.auth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchanging authorization code: %w", err)
	}
	return token, nil
}

// ClientFor returns an API client for a stored token. The oauth2
// transport refreshes the token transparently when it expires.
func (l *Linker) ClientFor(ctx context.Context, token *oauth2.Token) *Client {
	return NewClient(spotify.New(l.auth.Client(ctx, token), spotify.WithRetry(true)))
}

// GenerateState creates a random state string for the OAuth flow.
func GenerateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
