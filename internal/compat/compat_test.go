package compat

import (
	"testing"

	"github.com/musicmate-app/musicmate/internal/profile"
)

func testProfile(artists []profile.Artist, genres []profile.GenreCount) *profile.MusicProfile {
	distinct := make(map[string]bool)
	for _, a := range artists {
		for _, g := range a.Genres {
			distinct[g] = true
		}
	}
	totalGenres := len(distinct)
	if totalGenres == 0 {
		totalGenres = len(genres)
	}
	return &profile.MusicProfile{
		TopArtists: artists,
		TopGenres:  genres,
		ListeningPatterns: profile.ListeningPatterns{
			TotalArtists: len(artists),
			TotalGenres:  totalGenres,
		},
	}
}

func TestScore_SelfIsPerfect(t *testing.T) {
	p := testProfile(
		[]profile.Artist{
			{SpotifyID: "a1", Name: "Arctic Monkeys", Rank: 1},
			{SpotifyID: "a2", Name: "Tame Impala", Rank: 2},
		},
		[]profile.GenreCount{
			{Genre: "indie rock", Count: 2},
			{Genre: "psychedelic rock", Count: 1},
		},
	)

	r := Score(p, p)

	if r.Score != 100 {
		t.Errorf("Score = %d, want 100", r.Score)
	}
	if r.ArtistOverlapPct != 1.0 {
		t.Errorf("ArtistOverlapPct = %v, want 1.0", r.ArtistOverlapPct)
	}
	if r.GenreOverlapPct != 1.0 {
		t.Errorf("GenreOverlapPct = %v, want 1.0", r.GenreOverlapPct)
	}
	if len(r.SharedArtists) != 2 || len(r.SharedGenres) != 2 {
		t.Errorf("breakdown = %+v, want full overlap", r)
	}
}

func TestScore_BothEmpty(t *testing.T) {
	// No artists and no genres on either side: overlaps are 0 with
	// floored denominators, pattern similarity is 1 for equal zero
	// counts, so the floor value is the full pattern weight.
	r := Score(&profile.MusicProfile{}, &profile.MusicProfile{})

	if r.Score != 20 {
		t.Errorf("Score = %d, want 20", r.Score)
	}
	if r.ArtistOverlapPct != 0 || r.GenreOverlapPct != 0 {
		t.Errorf("overlaps = %v/%v, want 0/0", r.ArtistOverlapPct, r.GenreOverlapPct)
	}
}

func TestScore_NilProfilesTreatedAsEmpty(t *testing.T) {
	r := Score(nil, nil)
	if r.Score != 20 {
		t.Errorf("Score = %d, want 20", r.Score)
	}
}

func TestScore_OneSidedEmpty(t *testing.T) {
	a := testProfile(
		[]profile.Artist{{SpotifyID: "a1", Name: "SZA", Genres: []string{"r&b"}, Rank: 1}},
		[]profile.GenreCount{{Genre: "r&b", Count: 1}},
	)

	r := Score(a, &profile.MusicProfile{})

	if r.Score != 0 {
		t.Errorf("Score = %d, want 0", r.Score)
	}
}

func TestScore_KnownScenario(t *testing.T) {
	a := &profile.MusicProfile{
		TopArtists: []profile.Artist{{SpotifyID: "x1", Name: "Artist1", Rank: 1}},
		TopGenres:  []profile.GenreCount{{Genre: "rock", Count: 5}},
		ListeningPatterns: profile.ListeningPatterns{
			TotalArtists: 1,
			TotalGenres:  1,
		},
	}
	b := &profile.MusicProfile{
		TopArtists: []profile.Artist{{SpotifyID: "x1", Name: "Artist1", Rank: 1}},
		TopGenres: []profile.GenreCount{
			{Genre: "rock", Count: 3},
			{Genre: "pop", Count: 1},
		},
		ListeningPatterns: profile.ListeningPatterns{
			TotalArtists: 1,
			TotalGenres:  2,
		},
	}

	r := Score(a, b)

	if r.ArtistOverlapPct != 1.0 {
		t.Errorf("ArtistOverlapPct = %v, want 1.0", r.ArtistOverlapPct)
	}
	if r.GenreOverlapPct != 0.5 {
		t.Errorf("GenreOverlapPct = %v, want 0.5", r.GenreOverlapPct)
	}
	// pattern_sim = (1 + 0.5)/2 = 0.75, so 40 + 20 + 15.
	if r.Score != 75 {
		t.Errorf("Score = %d, want 75", r.Score)
	}
	if len(r.SharedArtists) != 1 || r.SharedArtists[0] != "Artist1" {
		t.Errorf("SharedArtists = %v, want [Artist1]", r.SharedArtists)
	}
	if len(r.SharedGenres) != 1 || r.SharedGenres[0] != "rock" {
		t.Errorf("SharedGenres = %v, want [rock]", r.SharedGenres)
	}
}

func TestScore_SymmetricInScore(t *testing.T) {
	a := testProfile(
		[]profile.Artist{
			{SpotifyID: "a1", Name: "Radiohead", Genres: []string{"alternative rock"}, Rank: 1},
			{SpotifyID: "a2", Name: "Mitski", Genres: []string{"indie rock"}, Rank: 2},
		},
		[]profile.GenreCount{
			{Genre: "alternative rock", Count: 1},
			{Genre: "indie rock", Count: 1},
		},
	)
	b := testProfile(
		[]profile.Artist{
			{SpotifyID: "a2", Name: "Mitski", Genres: []string{"indie rock"}, Rank: 1},
			{SpotifyID: "a3", Name: "Frank Ocean", Genres: []string{"r&b"}, Rank: 2},
			{SpotifyID: "a4", Name: "Daniel Caesar", Genres: []string{"neo soul"}, Rank: 3},
		},
		[]profile.GenreCount{
			{Genre: "indie rock", Count: 1},
			{Genre: "r&b", Count: 1},
			{Genre: "neo soul", Count: 1},
		},
	)

	fwd := Score(a, b)
	rev := Score(b, a)

	// Only score equality is guaranteed; breakdown list order follows
	// the first argument.
	if fwd.Score != rev.Score {
		t.Errorf("asymmetric scores: %d vs %d", fwd.Score, rev.Score)
	}
	if fwd.ArtistOverlapPct != rev.ArtistOverlapPct {
		t.Errorf("asymmetric artist overlap: %v vs %v", fwd.ArtistOverlapPct, rev.ArtistOverlapPct)
	}
	if fwd.GenreOverlapPct != rev.GenreOverlapPct {
		t.Errorf("asymmetric genre overlap: %v vs %v", fwd.GenreOverlapPct, rev.GenreOverlapPct)
	}
}

func TestScore_RoundsHalfAwayFromZero(t *testing.T) {
	// No overlap at all; totals 13 vs 20 artists give count similarity
	// 0.65, equal genre counts give 1, so pattern_sim = 0.825 and the
	// raw score is 16.5, which must round up to 17.
	a := &profile.MusicProfile{
		ListeningPatterns: profile.ListeningPatterns{TotalArtists: 13, TotalGenres: 4},
	}
	b := &profile.MusicProfile{
		ListeningPatterns: profile.ListeningPatterns{TotalArtists: 20, TotalGenres: 4},
	}

	r := Score(a, b)

	if r.Score != 17 {
		t.Errorf("Score = %d, want 17 (half rounds away from zero)", r.Score)
	}
}

func TestScore_DuplicateArtistIDsCountedOnce(t *testing.T) {
	a := testProfile(
		[]profile.Artist{
			{SpotifyID: "a1", Name: "Dua Lipa", Rank: 1},
			{SpotifyID: "a1", Name: "Dua Lipa", Rank: 2},
		},
		nil,
	)
	b := testProfile(
		[]profile.Artist{{SpotifyID: "a1", Name: "Dua Lipa", Rank: 1}},
		nil,
	)

	r := Score(a, b)

	if len(r.SharedArtists) != 1 {
		t.Errorf("SharedArtists = %v, want a single entry", r.SharedArtists)
	}
	if r.ArtistOverlapPct != 1.0 {
		t.Errorf("ArtistOverlapPct = %v, want 1.0", r.ArtistOverlapPct)
	}
}
