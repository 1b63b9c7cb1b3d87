package matching

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/musicmate-app/musicmate/internal/db"
	"github.com/musicmate-app/musicmate/internal/profile"
)

// ============================================================================
// In-memory fakes
// ============================================================================

type fakeProfiles struct {
	profiles map[uuid.UUID]*db.MusicProfile
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{profiles: make(map[uuid.UUID]*db.MusicProfile)}
}

func (f *fakeProfiles) add(userID uuid.UUID, p profile.MusicProfile) {
	f.profiles[userID] = &db.MusicProfile{UserID: userID, Profile: p}
}

func (f *fakeProfiles) Get(_ context.Context, userID uuid.UUID) (*db.MusicProfile, error) {
	p, ok := f.profiles[userID]
	if !ok {
		return nil, db.ErrNotFound
	}
	return p, nil
}

type fakeSwipes struct {
	swipes map[[2]uuid.UUID]*db.Swipe
}

func newFakeSwipes() *fakeSwipes {
	return &fakeSwipes{swipes: make(map[[2]uuid.UUID]*db.Swipe)}
}

func (f *fakeSwipes) Create(_ context.Context, s *db.Swipe) error {
	key := [2]uuid.UUID{s.UserID, s.TargetUserID}
	if _, ok := f.swipes[key]; ok {
		return db.ErrConflict
	}
	f.swipes[key] = s
	return nil
}

func (f *fakeSwipes) Get(_ context.Context, userID, targetID uuid.UUID) (*db.Swipe, error) {
	s, ok := f.swipes[[2]uuid.UUID{userID, targetID}]
	if !ok {
		return nil, db.ErrNotFound
	}
	return s, nil
}

type fakeMatches struct {
	matches []*db.Match
}

func (f *fakeMatches) Create(_ context.Context, m *db.Match) error {
	for _, existing := range f.matches {
		if existing.HasMember(m.User1ID) && existing.HasMember(m.User2ID) {
			return db.ErrConflict
		}
	}
	f.matches = append(f.matches, m)
	return nil
}

func (f *fakeMatches) Get(_ context.Context, id uuid.UUID) (*db.Match, error) {
	for _, m := range f.matches {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, db.ErrNotFound
}

func (f *fakeMatches) GetForPair(_ context.Context, a, b uuid.UUID) (*db.Match, error) {
	for _, m := range f.matches {
		if m.HasMember(a) && m.HasMember(b) {
			return m, nil
		}
	}
	return nil, db.ErrNotFound
}

func (f *fakeMatches) ListForUser(_ context.Context, userID uuid.UUID) ([]db.Match, error) {
	var out []db.Match
	for _, m := range f.matches {
		if m.HasMember(userID) {
			out = append(out, *m)
		}
	}
	return out, nil
}

type fakeCandidates struct {
	users []db.User
}

func (f *fakeCandidates) ListCandidates(_ context.Context, userID uuid.UUID, filters db.CandidateFilters) ([]db.User, error) {
	var out []db.User
	for _, u := range f.users {
		if u.ID == userID {
			continue
		}
		if filters.Course != nil && (u.Course == nil || *u.Course != *filters.Course) {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

type fakeSeeder struct {
	calls     int
	playlists map[uuid.UUID]*db.SharedPlaylist
}

func newFakeSeeder() *fakeSeeder {
	return &fakeSeeder{playlists: make(map[uuid.UUID]*db.SharedPlaylist)}
}

func (f *fakeSeeder) SeedForMatch(_ context.Context, match *db.Match) (*db.SharedPlaylist, error) {
	f.calls++
	if p, ok := f.playlists[match.ID]; ok {
		return p, nil
	}
	matchID := match.ID
	p := &db.SharedPlaylist{
		ID:      uuid.New(),
		MatchID: &matchID,
		Type:    db.PlaylistMatch,
	}
	f.playlists[match.ID] = p
	return p, nil
}

// ============================================================================
// Test helpers
// ============================================================================

type fixture struct {
	svc        *Service
	profiles   *fakeProfiles
	swipes     *fakeSwipes
	matches    *fakeMatches
	candidates *fakeCandidates
	seeder     *fakeSeeder
}

func newFixture() *fixture {
	f := &fixture{
		profiles:   newFakeProfiles(),
		swipes:     newFakeSwipes(),
		matches:    &fakeMatches{},
		candidates: &fakeCandidates{},
		seeder:     newFakeSeeder(),
	}
	f.svc = New(f.profiles, f.swipes, f.matches, f.candidates, f.seeder)
	return f
}

func simpleProfile(artistID, artistName, genre string) profile.MusicProfile {
	return profile.MusicProfile{
		TopArtists: []profile.Artist{{SpotifyID: artistID, Name: artistName, Rank: 1}},
		TopGenres:  []profile.GenreCount{{Genre: genre, Count: 1}},
		ListeningPatterns: profile.ListeningPatterns{
			TotalArtists: 1,
			TotalGenres:  1,
			TopGenre:     genre,
		},
	}
}

// ============================================================================
// Swipe validation
// ============================================================================

func TestRecordSwipe_InvalidAction(t *testing.T) {
	f := newFixture()

	_, err := f.svc.RecordSwipe(context.Background(), uuid.New(), uuid.New(), "superlike")
	if !errors.Is(err, ErrInvalidAction) {
		t.Errorf("err = %v, want ErrInvalidAction", err)
	}
	if len(f.swipes.swipes) != 0 {
		t.Error("swipe persisted despite validation failure")
	}
}

func TestRecordSwipe_SelfSwipe(t *testing.T) {
	f := newFixture()
	me := uuid.New()

	_, err := f.svc.RecordSwipe(context.Background(), me, me, db.SwipeLike)
	if !errors.Is(err, ErrSelfSwipe) {
		t.Errorf("err = %v, want ErrSelfSwipe", err)
	}
}

func TestRecordSwipe_DuplicateConflicts(t *testing.T) {
	f := newFixture()
	actor, target := uuid.New(), uuid.New()

	if _, err := f.svc.RecordSwipe(context.Background(), actor, target, db.SwipePass); err != nil {
		t.Fatalf("first swipe: %v", err)
	}

	// Second attempt conflicts regardless of the action chosen.
	for _, action := range []string{db.SwipeLike, db.SwipePass} {
		_, err := f.svc.RecordSwipe(context.Background(), actor, target, action)
		if !errors.Is(err, ErrAlreadySwiped) {
			t.Errorf("repeat %s: err = %v, want ErrAlreadySwiped", action, err)
		}
	}
}

func TestRecordSwipe_PassNeverMatches(t *testing.T) {
	f := newFixture()
	u, v := uuid.New(), uuid.New()

	if _, err := f.svc.RecordSwipe(context.Background(), u, v, db.SwipeLike); err != nil {
		t.Fatalf("u likes v: %v", err)
	}
	res, err := f.svc.RecordSwipe(context.Background(), v, u, db.SwipePass)
	if err != nil {
		t.Fatalf("v passes u: %v", err)
	}
	if res.Matched {
		t.Error("pass produced a match")
	}
	if len(f.matches.matches) != 0 {
		t.Errorf("expected no matches, got %d", len(f.matches.matches))
	}
}

// ============================================================================
// Mutual like / match creation
// ============================================================================

func TestRecordSwipe_MutualLikeCreatesMatchOnce(t *testing.T) {
	f := newFixture()
	u, v := uuid.New(), uuid.New()
	f.profiles.add(u, simpleProfile("x1", "Artist1", "rock"))
	f.profiles.add(v, simpleProfile("x1", "Artist1", "rock"))

	first, err := f.svc.RecordSwipe(context.Background(), u, v, db.SwipeLike)
	if err != nil {
		t.Fatalf("u likes v: %v", err)
	}
	if first.Matched {
		t.Error("match reported before reciprocation")
	}

	second, err := f.svc.RecordSwipe(context.Background(), v, u, db.SwipeLike)
	if err != nil {
		t.Fatalf("v likes u: %v", err)
	}
	if !second.Matched || second.Match == nil {
		t.Fatal("mutual like did not produce a match")
	}
	if second.Match.CompatibilityScore != 100 {
		t.Errorf("snapshot score = %d, want 100", second.Match.CompatibilityScore)
	}
	if len(second.Match.Breakdown.SharedArtists) != 1 {
		t.Errorf("breakdown = %+v, want one shared artist", second.Match.Breakdown)
	}
	if len(f.matches.matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(f.matches.matches))
	}
	if f.seeder.calls != 1 {
		t.Errorf("seeder invoked %d times, want 1", f.seeder.calls)
	}
	if second.Playlist == nil {
		t.Error("seeded playlist missing from result")
	}
}

func TestRecordSwipe_ExistingMatchNotDuplicated(t *testing.T) {
	f := newFixture()
	u, v := uuid.New(), uuid.New()

	// Simulate a pre-existing match for the pair (e.g. a lost race:
	// the other completion won the insert).
	existing := &db.Match{ID: uuid.New(), User1ID: v, User2ID: u}
	f.matches.matches = append(f.matches.matches, existing)

	// Reverse like already recorded by v.
	if err := f.swipes.Create(context.Background(), &db.Swipe{
		ID: uuid.New(), UserID: v, TargetUserID: u, Action: db.SwipeLike,
	}); err != nil {
		t.Fatal(err)
	}

	res, err := f.svc.RecordSwipe(context.Background(), u, v, db.SwipeLike)
	if err != nil {
		t.Fatalf("swipe: %v", err)
	}
	if !res.Matched {
		t.Error("expected matched result")
	}
	if res.Match.ID != existing.ID {
		t.Errorf("match = %s, want the existing %s", res.Match.ID, existing.ID)
	}
	if len(f.matches.matches) != 1 {
		t.Errorf("expected 1 match, got %d", len(f.matches.matches))
	}
	if f.seeder.calls != 0 {
		t.Errorf("seeder invoked %d times for an existing match, want 0", f.seeder.calls)
	}
}

func TestRecordSwipe_MissingProfilesDegradeToEmptySnapshot(t *testing.T) {
	f := newFixture()
	u, v := uuid.New(), uuid.New()

	if _, err := f.svc.RecordSwipe(context.Background(), u, v, db.SwipeLike); err != nil {
		t.Fatal(err)
	}
	res, err := f.svc.RecordSwipe(context.Background(), v, u, db.SwipeLike)
	if err != nil {
		t.Fatalf("swipe: %v", err)
	}
	if !res.Matched {
		t.Fatal("expected a match")
	}
	if res.Match.CompatibilityScore != 0 {
		t.Errorf("score = %d, want 0 when profiles are absent", res.Match.CompatibilityScore)
	}
}

// ============================================================================
// Feed
// ============================================================================

func TestFeed_RequiresOwnProfile(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Feed(context.Background(), uuid.New(), db.CandidateFilters{})
	if !errors.Is(err, ErrNoProfile) {
		t.Errorf("err = %v, want ErrNoProfile", err)
	}
}

func TestFeed_RankedByScoreThenID(t *testing.T) {
	f := newFixture()
	me := uuid.New()
	f.profiles.add(me, simpleProfile("x1", "Artist1", "rock"))

	perfect := db.User{ID: uuid.MustParse("00000000-0000-0000-0000-0000000000b1"), DisplayName: "Perfect"}
	stranger := db.User{ID: uuid.MustParse("00000000-0000-0000-0000-0000000000a1"), DisplayName: "Stranger"}
	twinLow := db.User{ID: uuid.MustParse("00000000-0000-0000-0000-0000000000c1"), DisplayName: "Twin Low"}
	twinHigh := db.User{ID: uuid.MustParse("00000000-0000-0000-0000-0000000000c2"), DisplayName: "Twin High"}

	f.profiles.add(perfect.ID, simpleProfile("x1", "Artist1", "rock"))
	f.profiles.add(stranger.ID, simpleProfile("y9", "Nobody", "noise"))
	// Two identical candidates to force a score tie.
	f.profiles.add(twinLow.ID, simpleProfile("x1", "Artist1", "jazz"))
	f.profiles.add(twinHigh.ID, simpleProfile("x1", "Artist1", "jazz"))

	f.candidates.users = []db.User{stranger, twinHigh, perfect, twinLow}

	feed, err := f.svc.Feed(context.Background(), me, db.CandidateFilters{})
	if err != nil {
		t.Fatalf("feed: %v", err)
	}

	if len(feed) != 4 {
		t.Fatalf("expected 4 candidates, got %d", len(feed))
	}
	if feed[0].User.ID != perfect.ID {
		t.Errorf("feed[0] = %s, want the perfect match first", feed[0].User.DisplayName)
	}
	// Tied twins ordered by user ID ascending.
	if feed[1].User.ID != twinLow.ID || feed[2].User.ID != twinHigh.ID {
		t.Errorf("tie order = [%s, %s], want [Twin Low, Twin High]",
			feed[1].User.DisplayName, feed[2].User.DisplayName)
	}
	if feed[3].User.ID != stranger.ID {
		t.Errorf("feed[3] = %s, want the stranger last", feed[3].User.DisplayName)
	}
}

func TestFeed_SkipsCandidatesWithoutProfile(t *testing.T) {
	f := newFixture()
	me := uuid.New()
	f.profiles.add(me, simpleProfile("x1", "Artist1", "rock"))

	ghost := db.User{ID: uuid.New(), DisplayName: "Ghost"}
	real := db.User{ID: uuid.New(), DisplayName: "Real"}
	f.profiles.add(real.ID, simpleProfile("x1", "Artist1", "rock"))
	f.candidates.users = []db.User{ghost, real}

	feed, err := f.svc.Feed(context.Background(), me, db.CandidateFilters{})
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	if len(feed) != 1 || feed[0].User.ID != real.ID {
		t.Errorf("feed = %+v, want only the candidate with a profile", feed)
	}
}

// ============================================================================
// Match access
// ============================================================================

func TestMatchForUser_MembershipBothWays(t *testing.T) {
	f := newFixture()
	u, v, outsider := uuid.New(), uuid.New(), uuid.New()
	match := &db.Match{ID: uuid.New(), User1ID: u, User2ID: v}
	f.matches.matches = append(f.matches.matches, match)

	for _, member := range []uuid.UUID{u, v} {
		got, err := f.svc.MatchForUser(context.Background(), match.ID, member)
		if err != nil {
			t.Errorf("member %s: %v", member, err)
		} else if got.ID != match.ID {
			t.Errorf("member %s got wrong match", member)
		}
	}

	if _, err := f.svc.MatchForUser(context.Background(), match.ID, outsider); !errors.Is(err, ErrNotYourMatch) {
		t.Errorf("outsider err = %v, want ErrNotYourMatch", err)
	}
	if _, err := f.svc.MatchForUser(context.Background(), uuid.New(), u); !errors.Is(err, db.ErrNotFound) {
		t.Errorf("missing match err = %v, want ErrNotFound", err)
	}
}
