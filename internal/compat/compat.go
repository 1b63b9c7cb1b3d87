// Package compat computes compatibility scores between music profiles.
package compat

import (
	"math"

	"github.com/musicmate-app/musicmate/internal/profile"
)

// Weights of the score components. They sum to 100.
const (
	artistWeight  = 40
	genreWeight   = 40
	patternWeight = 20
)

// Result is a compatibility score with its breakdown.
type Result struct {
	Score            int      `json:"score"`
	SharedArtists    []string `json:"shared_artists"`
	SharedGenres     []string `json:"shared_genres"`
	GenreOverlapPct  float64  `json:"genre_overlap_pct"`
	ArtistOverlapPct float64  `json:"artist_overlap_pct"`
}

// Score computes the compatibility between two profiles:
//
//	artist overlap  |A∩B| / max(|A|,|B|,1) over artist IDs   (40%)
//	genre overlap   Jaccard over genre sets                  (40%)
//	pattern sim     1 - |x1-x2|/max(x1,x2,1), averaged over
//	                total_artists and total_genres           (20%)
//
// The final score is clamped to 0..100 and rounded half away from zero.
// Overlap percentages are rounded to three decimal places. Shared
// artists and genres are listed in profile-a order, so swapping the
// arguments keeps the score but may reorder the breakdown lists.
// Nil profiles are treated as empty. No I/O, fully deterministic.
func Score(a, b *profile.MusicProfile) Result {
	if a == nil {
		a = &profile.MusicProfile{}
	}
	if b == nil {
		b = &profile.MusicProfile{}
	}

	aIDs := artistIDSet(a)
	bIDs := artistIDSet(b)

	var sharedArtists []string
	seen := make(map[string]bool)
	for _, artist := range a.TopArtists {
		if !bIDs[artist.SpotifyID] || seen[artist.SpotifyID] {
			continue
		}
		seen[artist.SpotifyID] = true
		name := artist.Name
		if name == "" {
			name = artistName(b, artist.SpotifyID)
		}
		sharedArtists = append(sharedArtists, name)
	}
	artistOverlap := float64(len(seen)) / float64(maxInt(len(aIDs), len(bIDs), 1))

	aGenres := genreSet(a)
	bGenres := genreSet(b)
	var sharedGenres []string
	for _, g := range a.TopGenres {
		if bGenres[g.Genre] {
			sharedGenres = append(sharedGenres, g.Genre)
		}
	}
	union := len(aGenres)
	for g := range bGenres {
		if !aGenres[g] {
			union++
		}
	}
	genreOverlap := float64(len(sharedGenres)) / float64(maxInt(union, 1))

	patternSim := (countSimilarity(a.ListeningPatterns.TotalArtists, b.ListeningPatterns.TotalArtists) +
		countSimilarity(a.ListeningPatterns.TotalGenres, b.ListeningPatterns.TotalGenres)) / 2

	score := artistOverlap*artistWeight + genreOverlap*genreWeight + patternSim*patternWeight
	score = math.Min(math.Max(score, 0), 100)

	return Result{
		Score:            int(math.Round(score)),
		SharedArtists:    sharedArtists,
		SharedGenres:     sharedGenres,
		GenreOverlapPct:  round3(genreOverlap),
		ArtistOverlapPct: round3(artistOverlap),
	}
}

// countSimilarity compares two non-negative counts on a 0..1 scale.
func countSimilarity(x1, x2 int) float64 {
	return 1 - math.Abs(float64(x1-x2))/float64(maxInt(x1, x2, 1))
}

func artistIDSet(p *profile.MusicProfile) map[string]bool {
	ids := make(map[string]bool, len(p.TopArtists))
	for _, a := range p.TopArtists {
		ids[a.SpotifyID] = true
	}
	return ids
}

func artistName(p *profile.MusicProfile, spotifyID string) string {
	for _, a := range p.TopArtists {
		if a.SpotifyID == spotifyID {
			return a.Name
		}
	}
	return ""
}

func genreSet(p *profile.MusicProfile) map[string]bool {
	genres := make(map[string]bool, len(p.TopGenres))
	for _, g := range p.TopGenres {
		genres[g.Genre] = true
	}
	return genres
}

func round3(x float64) float64 {
	return math.Round(x*1000) / 1000
}

func maxInt(vals ...int) int {
	m := vals[0]
	for _, v := range vals[1:] {
		if v > m {
			m = v
		}
	}
	return m
}
