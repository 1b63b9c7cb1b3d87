// Package sync refreshes music profiles from a listening data source.
package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/musicmate-app/musicmate/internal/db"
	"github.com/musicmate-app/musicmate/internal/profile"
	"github.com/musicmate-app/musicmate/internal/spotify"
)

// DefaultCooldown is the minimum interval between provider fetches for
// one user. Repeat syncs inside the window return the stored profile.
const DefaultCooldown = 10 * time.Minute

// ProfileStore persists music profiles.
type ProfileStore interface {
	Get(ctx context.Context, userID uuid.UUID) (*db.MusicProfile, error)
	Upsert(ctx context.Context, p *db.MusicProfile) error
}

// TokenStore loads provider OAuth credentials.
type TokenStore interface {
	Get(ctx context.Context, userID uuid.UUID) (*db.SpotifyToken, error)
}

// SourceProvider resolves the listening data source for a user.
type SourceProvider interface {
	SourceFor(ctx context.Context, userID uuid.UUID) (spotify.Source, error)
}

// Service syncs music profiles.
type Service struct {
	profiles ProfileStore
	sources  SourceProvider
	cooldown time.Duration
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithCooldown overrides the minimum interval between fetches.
func WithCooldown(d time.Duration) Option {
	return func(s *Service) {
		s.cooldown = d
	}
}

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New creates a sync service.
func New(profiles ProfileStore, sources SourceProvider, opts ...Option) *Service {
	s := &Service{
		profiles: profiles,
		sources:  sources,
		cooldown: DefaultCooldown,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SyncProfile rebuilds the user's music profile from their listening
// data source and stores it wholesale. Within the cooldown window the
// stored profile is returned without touching the provider.
func (s *Service) SyncProfile(ctx context.Context, userID uuid.UUID) (*db.MusicProfile, error) {
	existing, err := s.profiles.Get(ctx, userID)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("loading profile: %w", err)
	}
	if existing != nil && s.now().Sub(existing.LastSynced) < s.cooldown {
		return existing, nil
	}

	source, err := s.sources.SourceFor(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("resolving listening source: %w", err)
	}
	raw, err := source.ListeningData(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching listening data: %w", err)
	}

	stored := &db.MusicProfile{
		UserID:     userID,
		Profile:    *profile.Build(raw),
		LastSynced: s.now().UTC(),
	}
	if err := s.profiles.Upsert(ctx, stored); err != nil {
		return nil, fmt.Errorf("storing profile: %w", err)
	}
	return stored, nil
}

// spotifyProvider resolves real clients for linked accounts and falls
// back to generated data for everyone else.
type spotifyProvider struct {
	linker *spotify.Linker
	tokens TokenStore
}

// NewSpotifyProvider creates the standard source provider: the Spotify
// API for users with stored tokens, MockSource otherwise or when the
// linker runs in mock mode.
func NewSpotifyProvider(linker *spotify.Linker, tokens TokenStore) SourceProvider {
	return &spotifyProvider{linker: linker, tokens: tokens}
}

func (p *spotifyProvider) SourceFor(ctx context.Context, userID uuid.UUID) (spotify.Source, error) {
	if p.linker.MockMode() {
		return spotify.NewMockSource(userID), nil
	}

	token, err := p.tokens.Get(ctx, userID)
	if errors.Is(err, db.ErrNotFound) {
		return spotify.NewMockSource(userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading provider token: %w", err)
	}

	return p.linker.ClientFor(ctx, &oauth2.Token{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		Expiry:       token.ExpiresAt,
		TokenType:    "Bearer",
	}), nil
}
