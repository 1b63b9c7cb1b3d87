// Package spotify provides listening data sources: a wrapper around the
// Spotify Web API and a deterministic mock for accounts without a
// linked provider.
package spotify

import (
	"context"

	"github.com/musicmate-app/musicmate/internal/profile"
)

// Fetch limits per listening data category.
const (
	TopArtistLimit   = 20
	TopTrackLimit    = 20
	RecentTrackLimit = 20
)

// Source yields the raw listening data a music profile is built from.
type Source interface {
	ListeningData(ctx context.Context) (profile.RawListeningData, error)
}
