package spotify

import (
	"context"
	"hash/fnv"
	"math/rand"
	"strings"

	"github.com/google/uuid"

	"github.com/musicmate-app/musicmate/internal/profile"
)

type mockArtist struct {
	name      string
	spotifyID string
	genres    []string
}

type mockTrack struct {
	name      string
	artist    string
	album     string
	spotifyID string
}

var mockArtistPool = []mockArtist{
	{"Arctic Monkeys", "7Ln80lUS6He07XvHI8qqHH", []string{"indie rock", "rock", "sheffield indie"}},
	{"Tame Impala", "5INjqkS1o8h1imAzPqGZBb", []string{"psychedelic rock", "indie rock", "neo-psychedelia"}},
	{"Kendrick Lamar", "2YZyLoL8N0Wb9xBt1NhZWg", []string{"hip hop", "rap", "west coast rap"}},
	{"Doja Cat", "5cj0lLjcoR7YOSnhnX0Po5", []string{"pop", "dance pop", "rap"}},
	{"The Weeknd", "1Xyo4u8uXC1ZmMpatF05PJ", []string{"r&b", "pop", "canadian pop"}},
	{"Tyler, The Creator", "4V8LLVI7PbaPR0K2TGSxFF", []string{"hip hop", "rap", "alternative hip hop"}},
	{"Frank Ocean", "2h93pZq0e7k5yf4dywlkpM", []string{"r&b", "alternative r&b", "neo soul"}},
	{"SZA", "7tYKF4w9nC0nq9CsPZTHyP", []string{"r&b", "pop", "alternative r&b"}},
	{"Radiohead", "4Z8W4fKeB5YxbusRsdQVPb", []string{"alternative rock", "art rock", "electronic"}},
	{"Steve Lacy", "57vWImR43h4CaDao012Ofp", []string{"r&b", "indie soul", "bedroom pop"}},
	{"Billie Eilish", "6qqNVTkY8uBg9cP3Jd7DAH", []string{"pop", "electropop", "art pop"}},
	{"Mac DeMarco", "3Sz7ZnJQBIHsXLUSo0OQtM", []string{"indie rock", "lo-fi", "slacker rock"}},
	{"Playboi Carti", "699OTQXzgjhIYAHMy9RyPD", []string{"hip hop", "rap", "trap"}},
	{"Dua Lipa", "6M2wZ9GZgrQXHCFfjv46we", []string{"pop", "dance pop", "uk pop"}},
	{"Travis Scott", "0Y5tJX1MQlPlqiwlOH1tJY", []string{"hip hop", "rap", "trap"}},
	{"Phoebe Bridgers", "1r1uxoy19fzMxunt3ONAkG", []string{"indie rock", "indie folk", "singer-songwriter"}},
	{"Daniel Caesar", "20wkVLutqVOYrc0kxFs7rA", []string{"r&b", "canadian r&b", "neo soul"}},
	{"Lana Del Rey", "00FQb4jTyendYWaN8pK0wa", []string{"art pop", "indie pop", "baroque pop"}},
	{"Bad Bunny", "4q3ewBCX7sLwd24euuV69X", []string{"reggaeton", "latin trap", "latin pop"}},
	{"Mitski", "2uYWgrBGLiGKrpDbBDM2Pr", []string{"indie rock", "art pop", "indie pop"}},
}

var mockTrackPool = []mockTrack{
	{"Do I Wanna Know?", "Arctic Monkeys", "AM", "m1"},
	{"The Less I Know The Better", "Tame Impala", "Currents", "m2"},
	{"HUMBLE.", "Kendrick Lamar", "DAMN.", "m3"},
	{"Say So", "Doja Cat", "Hot Pink", "m4"},
	{"Blinding Lights", "The Weeknd", "After Hours", "m5"},
	{"EARFQUAKE", "Tyler, The Creator", "IGOR", "m6"},
	{"Nights", "Frank Ocean", "Blonde", "m7"},
	{"Kill Bill", "SZA", "SOS", "m8"},
	{"Creep", "Radiohead", "Pablo Honey", "m9"},
	{"Bad Habit", "Steve Lacy", "Gemini Rights", "m10"},
	{"lovely", "Billie Eilish", "WHEN WE ALL FALL ASLEEP", "m11"},
	{"Chamber of Reflection", "Mac DeMarco", "Salad Days", "m12"},
	{"Magnolia", "Playboi Carti", "Playboi Carti", "m13"},
	{"Levitating", "Dua Lipa", "Future Nostalgia", "m14"},
	{"SICKO MODE", "Travis Scott", "Astroworld", "m15"},
}

// MockSource generates listening data for accounts without a linked
// provider. Output is derived from the user ID so repeated syncs for
// the same user agree while different users get varied tastes.
type MockSource struct {
	seed int64
}

// NewMockSource creates a mock source for the given user.
func NewMockSource(userID uuid.UUID) *MockSource {
	h := fnv.New64a()
	h.Write(userID[:])
	return &MockSource{seed: int64(h.Sum64())}
}

// ListeningData returns the user's generated listening data.
func (m *MockSource) ListeningData(_ context.Context) (profile.RawListeningData, error) {
	rng := rand.New(rand.NewSource(m.seed))
	var raw profile.RawListeningData

	numArtists := 8 + rng.Intn(8)
	for i, idx := range sample(rng, len(mockArtistPool), numArtists) {
		a := mockArtistPool[idx]
		raw.TopArtists = append(raw.TopArtists, profile.Artist{
			SpotifyID: a.spotifyID,
			Name:      a.name,
			Genres:    a.genres,
			Rank:      i + 1,
		})
	}

	numTracks := 6 + rng.Intn(7)
	for _, idx := range sample(rng, len(mockTrackPool), numTracks) {
		t := mockTrackPool[idx]
		track := profile.Track{
			SpotifyID: t.spotifyID,
			Name:      t.name,
			Artist:    t.artist,
			Album:     t.album,
		}
		raw.TopTracks = append(raw.TopTracks, track)
		raw.RecentTracks = append(raw.RecentTracks, track)
	}

	return raw, nil
}

// SearchMockTracks filters the mock track pool by a case-insensitive
// substring match on track and artist names.
func SearchMockTracks(query string, limit int) []profile.Track {
	query = strings.ToLower(query)
	var tracks []profile.Track
	for _, t := range mockTrackPool {
		if len(tracks) == limit {
			break
		}
		if !strings.Contains(strings.ToLower(t.name), query) &&
			!strings.Contains(strings.ToLower(t.artist), query) {
			continue
		}
		tracks = append(tracks, profile.Track{
			SpotifyID: t.spotifyID,
			Name:      t.name,
			Artist:    t.artist,
			Album:     t.album,
		})
	}
	return tracks
}

// sample returns k distinct indices from [0, n) in shuffled order.
func sample(rng *rand.Rand, n, k int) []int {
	if k > n {
		k = n
	}
	indices := rng.Perm(n)
	return indices[:k]
}
