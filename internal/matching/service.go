// Package matching implements the candidate feed and the swipe/match
// state machine.
package matching

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/musicmate-app/musicmate/internal/compat"
	"github.com/musicmate-app/musicmate/internal/db"
	"github.com/musicmate-app/musicmate/internal/profile"
)

// Common errors.
var (
	// ErrInvalidAction is returned for actions other than like/pass.
	ErrInvalidAction = errors.New(`action must be "like" or "pass"`)
	// ErrSelfSwipe is returned when a user swipes on themselves.
	ErrSelfSwipe = errors.New("cannot swipe on yourself")
	// ErrAlreadySwiped is returned on a repeat swipe for the same
	// ordered (actor, target) pair.
	ErrAlreadySwiped = errors.New("already swiped on this user")
	// ErrNoProfile is returned when the acting user has not synced a
	// music profile yet.
	ErrNoProfile = errors.New("music profile not synced")
	// ErrNotYourMatch is returned when a user asks about a match they
	// are not part of.
	ErrNotYourMatch = errors.New("not a member of this match")
)

// ProfileStore loads music profiles.
type ProfileStore interface {
	Get(ctx context.Context, userID uuid.UUID) (*db.MusicProfile, error)
}

// SwipeStore persists swipe decisions. Create must reject a duplicate
// ordered pair with db.ErrConflict.
type SwipeStore interface {
	Create(ctx context.Context, s *db.Swipe) error
	Get(ctx context.Context, userID, targetID uuid.UUID) (*db.Swipe, error)
}

// MatchStore persists matches. Create must reject a duplicate
// unordered pair with db.ErrConflict.
type MatchStore interface {
	Create(ctx context.Context, m *db.Match) error
	Get(ctx context.Context, id uuid.UUID) (*db.Match, error)
	GetForPair(ctx context.Context, a, b uuid.UUID) (*db.Match, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]db.Match, error)
}

// CandidateStore lists users eligible for scoring.
type CandidateStore interface {
	ListCandidates(ctx context.Context, userID uuid.UUID, filters db.CandidateFilters) ([]db.User, error)
}

// Seeder creates the shared playlist for a newly formed match. It must
// be idempotent at the match level.
type Seeder interface {
	SeedForMatch(ctx context.Context, match *db.Match) (*db.SharedPlaylist, error)
}

// Service runs the matching engine. All operations are synchronous and
// request-scoped; concurrent duplicate-match protection is delegated to
// the stores' insert-or-reject guarantees.
type Service struct {
	profiles   ProfileStore
	swipes     SwipeStore
	matches    MatchStore
	candidates CandidateStore
	seeder     Seeder
}

// New creates a matching service.
func New(profiles ProfileStore, swipes SwipeStore, matches MatchStore, candidates CandidateStore, seeder Seeder) *Service {
	return &Service{
		profiles:   profiles,
		swipes:     swipes,
		matches:    matches,
		candidates: candidates,
		seeder:     seeder,
	}
}

// Candidate is one entry in the ranked swipe feed.
type Candidate struct {
	User       db.User
	Score      int
	Breakdown  compat.Result
	TopArtists []string // first five of the candidate's top artists
}

// SwipeResult is the outcome of recording a swipe.
type SwipeResult struct {
	Swipe    *db.Swipe
	Matched  bool
	Match    *db.Match
	Playlist *db.SharedPlaylist
}

// SelectCandidates returns the users eligible for scoring against
// userID: everyone else with a music profile who userID has not swiped
// on, narrowed by filters. No ordering guarantee; ranking belongs to
// Feed.
func (s *Service) SelectCandidates(ctx context.Context, userID uuid.UUID, filters db.CandidateFilters) ([]db.User, error) {
	users, err := s.candidates.ListCandidates(ctx, userID, filters)
	if err != nil {
		return nil, fmt.Errorf("listing candidates: %w", err)
	}
	return users, nil
}

// Feed returns swipe-ready candidates with compatibility scores, ranked
// by score descending with user ID as the stable secondary key.
// Returns ErrNoProfile if the acting user has not synced. Candidates
// whose profile disappeared since selection are skipped, not errors.
func (s *Service) Feed(ctx context.Context, userID uuid.UUID, filters db.CandidateFilters) ([]Candidate, error) {
	mine, err := s.profiles.Get(ctx, userID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrNoProfile
	}
	if err != nil {
		return nil, fmt.Errorf("loading profile: %w", err)
	}

	users, err := s.SelectCandidates(ctx, userID, filters)
	if err != nil {
		return nil, err
	}

	feed := make([]Candidate, 0, len(users))
	for _, user := range users {
		theirs, err := s.profiles.Get(ctx, user.ID)
		if errors.Is(err, db.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("loading candidate profile: %w", err)
		}

		result := compat.Score(&mine.Profile, &theirs.Profile)
		feed = append(feed, Candidate{
			User:       user,
			Score:      result.Score,
			Breakdown:  result,
			TopArtists: topArtistNames(&theirs.Profile, 5),
		})
	}

	sort.SliceStable(feed, func(i, j int) bool {
		if feed[i].Score != feed[j].Score {
			return feed[i].Score > feed[j].Score
		}
		return strings.Compare(feed[i].User.ID.String(), feed[j].User.ID.String()) < 0
	})
	return feed, nil
}

// RecordSwipe records a like/pass decision from actor toward target.
// A mutual like transitions the pair to matched exactly once: the
// compatibility snapshot is computed, the match stored, and the shared
// playlist seeded. Repeat swipes fail with ErrAlreadySwiped.
func (s *Service) RecordSwipe(ctx context.Context, actorID, targetID uuid.UUID, action string) (*SwipeResult, error) {
	if action != db.SwipeLike && action != db.SwipePass {
		return nil, ErrInvalidAction
	}
	if actorID == targetID {
		return nil, ErrSelfSwipe
	}

	swipe := &db.Swipe{
		ID:           uuid.New(),
		UserID:       actorID,
		TargetUserID: targetID,
		Action:       action,
	}
	if err := s.swipes.Create(ctx, swipe); err != nil {
		if errors.Is(err, db.ErrConflict) {
			return nil, ErrAlreadySwiped
		}
		return nil, fmt.Errorf("recording swipe: %w", err)
	}

	result := &SwipeResult{Swipe: swipe}
	if action != db.SwipeLike {
		return result, nil
	}

	reverse, err := s.swipes.Get(ctx, targetID, actorID)
	if errors.Is(err, db.ErrNotFound) {
		return result, nil
	}
	if err != nil {
		return nil, fmt.Errorf("checking mutual like: %w", err)
	}
	if reverse.Action != db.SwipeLike {
		return result, nil
	}

	match, created, err := s.createMatch(ctx, actorID, targetID)
	if err != nil {
		return nil, err
	}
	result.Matched = true
	result.Match = match

	if created {
		playlist, err := s.seeder.SeedForMatch(ctx, match)
		if err != nil {
			return nil, fmt.Errorf("seeding match playlist: %w", err)
		}
		result.Playlist = playlist
	}
	return result, nil
}

// createMatch stores the match for a detected mutual like. The second
// return value reports whether this call created it; if the pair was
// already matched the existing record is returned and no side effects
// run again.
func (s *Service) createMatch(ctx context.Context, actorID, targetID uuid.UUID) (*db.Match, bool, error) {
	snapshot := s.snapshotScore(ctx, actorID, targetID)

	match := &db.Match{
		ID:                 uuid.New(),
		User1ID:            actorID,
		User2ID:            targetID,
		CompatibilityScore: snapshot.Score,
		Breakdown:          snapshot,
	}
	err := s.matches.Create(ctx, match)
	if errors.Is(err, db.ErrConflict) {
		existing, getErr := s.matches.GetForPair(ctx, actorID, targetID)
		if getErr != nil {
			return nil, false, fmt.Errorf("loading existing match: %w", getErr)
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("creating match: %w", err)
	}
	return match, true, nil
}

// snapshotScore computes the score stored on the match. A missing
// profile on either side degrades to an empty breakdown rather than
// failing the match.
func (s *Service) snapshotScore(ctx context.Context, actorID, targetID uuid.UUID) compat.Result {
	mine, err := s.profiles.Get(ctx, actorID)
	if err != nil {
		return compat.Result{}
	}
	theirs, err := s.profiles.Get(ctx, targetID)
	if err != nil {
		return compat.Result{}
	}
	return compat.Score(&mine.Profile, &theirs.Profile)
}

// Matches lists all matches for a user, newest first.
func (s *Service) Matches(ctx context.Context, userID uuid.UUID) ([]db.Match, error) {
	matches, err := s.matches.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing matches: %w", err)
	}
	return matches, nil
}

// MatchForUser loads a match and verifies userID is one of its members.
// Returns ErrNotYourMatch otherwise.
func (s *Service) MatchForUser(ctx context.Context, matchID, userID uuid.UUID) (*db.Match, error) {
	match, err := s.matches.Get(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !match.HasMember(userID) {
		return nil, ErrNotYourMatch
	}
	return match, nil
}

func topArtistNames(p *profile.MusicProfile, limit int) []string {
	names := make([]string, 0, limit)
	for _, a := range p.TopArtists {
		if len(names) == limit {
			break
		}
		names = append(names, a.Name)
	}
	return names
}
