// Package profile builds comparison-ready music profiles from raw
// streaming-provider listening data.
package profile

import (
	"sort"
	"time"
)

// TopGenreLimit is the number of genres kept on a profile.
const TopGenreLimit = 15

// Artist is a top artist from the provider, ranked 1..N.
type Artist struct {
	SpotifyID string   `json:"spotify_id"`
	Name      string   `json:"name"`
	Genres    []string `json:"genres"`
	ImageURL  *string  `json:"image_url"`
	Rank      int      `json:"rank"`
}

// GenreCount is a genre with its occurrence count across top artists.
type GenreCount struct {
	Genre string `json:"genre"`
	Count int    `json:"count"`
}

// Track is a provider track. PlayedAt is set only for recently-played
// entries.
type Track struct {
	SpotifyID string     `json:"spotify_id"`
	Name      string     `json:"name"`
	Artist    string     `json:"artist"`
	Album     string     `json:"album"`
	ImageURL  *string    `json:"image_url"`
	PlayedAt  *time.Time `json:"played_at"`
}

// ListeningPatterns holds aggregate statistics used for pattern
// similarity scoring.
type ListeningPatterns struct {
	TotalArtists  int    `json:"total_artists"`
	TotalGenres   int    `json:"total_genres"`
	TopGenre      string `json:"top_genre"`
	AvgPopularity int    `json:"avg_popularity"`
}

// MusicProfile is the comparison-ready feature set for one user. It is
// replaced wholesale on every sync.
type MusicProfile struct {
	TopArtists        []Artist          `json:"top_artists"`
	TopGenres         []GenreCount      `json:"top_genres"`
	RecentTracks      []Track           `json:"recent_tracks"`
	ListeningPatterns ListeningPatterns `json:"listening_patterns"`
}

// RawListeningData is the provider payload a profile is built from.
// TopTracks is carried for the popularity statistics placeholder but
// does not currently contribute to the feature set.
type RawListeningData struct {
	TopArtists   []Artist
	TopTracks    []Track
	RecentTracks []Track
}

// Build normalizes raw listening data into a MusicProfile.
//
// Genre tags are tallied across all top artists; the TopGenreLimit
// highest-count genres are kept, ties broken by first-encountered order.
// TotalGenres counts every distinct tag seen, not just the kept ones.
// Pure transform: no I/O, deterministic for identical input.
func Build(raw RawListeningData) *MusicProfile {
	counts := make(map[string]int)
	var order []string
	for _, artist := range raw.TopArtists {
		for _, genre := range artist.Genres {
			if _, seen := counts[genre]; !seen {
				order = append(order, genre)
			}
			counts[genre]++
		}
	}

	genres := make([]GenreCount, len(order))
	for i, g := range order {
		genres[i] = GenreCount{Genre: g, Count: counts[g]}
	}
	sort.SliceStable(genres, func(i, j int) bool {
		return genres[i].Count > genres[j].Count
	})

	topGenres := genres
	if len(topGenres) > TopGenreLimit {
		topGenres = topGenres[:TopGenreLimit]
	}

	patterns := ListeningPatterns{
		TotalArtists: len(raw.TopArtists),
		TotalGenres:  len(counts),
	}
	if len(topGenres) > 0 {
		patterns.TopGenre = topGenres[0].Genre
	}

	return &MusicProfile{
		TopArtists:        raw.TopArtists,
		TopGenres:         topGenres,
		RecentTracks:      raw.RecentTracks,
		ListeningPatterns: patterns,
	}
}
