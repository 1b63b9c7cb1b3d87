package sync

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/musicmate-app/musicmate/internal/db"
	"github.com/musicmate-app/musicmate/internal/profile"
	"github.com/musicmate-app/musicmate/internal/spotify"
)

type fakeProfiles struct {
	profiles map[uuid.UUID]*db.MusicProfile
	upserts  int
}

func (f *fakeProfiles) Get(_ context.Context, userID uuid.UUID) (*db.MusicProfile, error) {
	p, ok := f.profiles[userID]
	if !ok {
		return nil, db.ErrNotFound
	}
	clone := *p
	return &clone, nil
}

func (f *fakeProfiles) Upsert(_ context.Context, p *db.MusicProfile) error {
	clone := *p
	f.profiles[p.UserID] = &clone
	f.upserts++
	return nil
}

type staticSource struct {
	raw   profile.RawListeningData
	calls int
}

func (s *staticSource) ListeningData(_ context.Context) (profile.RawListeningData, error) {
	s.calls++
	return s.raw, nil
}

type staticProvider struct {
	source spotify.Source
}

func (p *staticProvider) SourceFor(_ context.Context, _ uuid.UUID) (spotify.Source, error) {
	return p.source, nil
}

func TestSyncProfileBuildsAndStores(t *testing.T) {
	profiles := &fakeProfiles{profiles: make(map[uuid.UUID]*db.MusicProfile)}
	source := &staticSource{raw: profile.RawListeningData{
		TopArtists: []profile.Artist{
			{SpotifyID: "a1", Name: "Radiohead", Genres: []string{"art rock", "electronic"}, Rank: 1},
			{SpotifyID: "a2", Name: "Mitski", Genres: []string{"art rock"}, Rank: 2},
		},
	}}
	now := time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)
	svc := New(profiles, &staticProvider{source: source},
		WithClock(func() time.Time { return now }))

	stored, err := svc.SyncProfile(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("SyncProfile: %v", err)
	}
	if !stored.LastSynced.Equal(now) {
		t.Errorf("last_synced = %v, want %v", stored.LastSynced, now)
	}
	if stored.Profile.ListeningPatterns.TopGenre != "art rock" {
		t.Errorf("top genre = %q, want art rock", stored.Profile.ListeningPatterns.TopGenre)
	}
	if len(stored.Profile.TopArtists) != 2 {
		t.Errorf("got %d artists, want 2", len(stored.Profile.TopArtists))
	}
}

func TestSyncProfileCooldown(t *testing.T) {
	profiles := &fakeProfiles{profiles: make(map[uuid.UUID]*db.MusicProfile)}
	source := &staticSource{}
	now := time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)
	svc := New(profiles, &staticProvider{source: source},
		WithCooldown(10*time.Minute),
		WithClock(func() time.Time { return now }))
	userID := uuid.New()
	ctx := context.Background()

	if _, err := svc.SyncProfile(ctx, userID); err != nil {
		t.Fatalf("first sync: %v", err)
	}

	// Inside the window the provider is not touched.
	now = now.Add(5 * time.Minute)
	if _, err := svc.SyncProfile(ctx, userID); err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if source.calls != 1 {
		t.Errorf("provider fetched %d times, want 1", source.calls)
	}

	// Past the window it refetches.
	now = now.Add(10 * time.Minute)
	if _, err := svc.SyncProfile(ctx, userID); err != nil {
		t.Fatalf("third sync: %v", err)
	}
	if source.calls != 2 {
		t.Errorf("provider fetched %d times, want 2", source.calls)
	}
	if profiles.upserts != 2 {
		t.Errorf("profile stored %d times, want 2", profiles.upserts)
	}
}

func TestSpotifyProviderFallsBackToMock(t *testing.T) {
	linker := spotify.NewLinker("", "", "")
	provider := NewSpotifyProvider(linker, nil)

	source, err := provider.SourceFor(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("SourceFor: %v", err)
	}
	if _, ok := source.(*spotify.MockSource); !ok {
		t.Errorf("source = %T, want *spotify.MockSource", source)
	}
}
