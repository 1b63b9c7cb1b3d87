package spotify

import (
	"context"
	"fmt"
	"strings"

	"github.com/zmb3/spotify/v2"

	"github.com/musicmate-app/musicmate/internal/profile"
)

// Client wraps an authenticated Spotify API client.
type Client struct {
	api *spotify.Client
}

// NewClient creates a client wrapper. The underlying client must
// already be authenticated for the target user.
func NewClient(api *spotify.Client) *Client {
	return &Client{api: api}
}

// UserID returns the current user's Spotify ID.
func (c *Client) UserID(ctx context.Context) (string, error) {
	user, err := c.api.CurrentUser(ctx)
	if err != nil {
		return "", fmt.Errorf("getting current user: %w", err)
	}
	return user.ID, nil
}

// ListeningData fetches the user's medium-term top artists and tracks
// plus their recently played history.
func (c *Client) ListeningData(ctx context.Context) (profile.RawListeningData, error) {
	var raw profile.RawListeningData

	artists, err := c.api.CurrentUsersTopArtists(ctx,
		spotify.Limit(TopArtistLimit), spotify.Timerange(spotify.MediumTermRange))
	if err != nil {
		return raw, fmt.Errorf("fetching top artists: %w", err)
	}
	for i, artist := range artists.Artists {
		raw.TopArtists = append(raw.TopArtists, profile.Artist{
			SpotifyID: artist.ID.String(),
			Name:      artist.Name,
			Genres:    artist.Genres,
			ImageURL:  firstImage(artist.Images),
			Rank:      i + 1,
		})
	}

	tracks, err := c.api.CurrentUsersTopTracks(ctx,
		spotify.Limit(TopTrackLimit), spotify.Timerange(spotify.MediumTermRange))
	if err != nil {
		return raw, fmt.Errorf("fetching top tracks: %w", err)
	}
	for _, track := range tracks.Tracks {
		raw.TopTracks = append(raw.TopTracks, profile.Track{
			SpotifyID: track.ID.String(),
			Name:      track.Name,
			Artist:    joinArtists(track.Artists),
			Album:     track.Album.Name,
			ImageURL:  firstImage(track.Album.Images),
		})
	}

	recent, err := c.api.PlayerRecentlyPlayedOpt(ctx,
		&spotify.RecentlyPlayedOptions{Limit: RecentTrackLimit})
	if err != nil {
		return raw, fmt.Errorf("fetching recently played: %w", err)
	}
	for _, item := range recent {
		playedAt := item.PlayedAt
		raw.RecentTracks = append(raw.RecentTracks, profile.Track{
			SpotifyID: item.Track.ID.String(),
			Name:      item.Track.Name,
			Artist:    joinArtists(item.Track.Artists),
			Album:     item.Track.Album.Name,
			ImageURL:  firstImage(item.Track.Album.Images),
			PlayedAt:  &playedAt,
		})
	}

	return raw, nil
}

// SearchTracks searches the catalogue for tracks matching query.
func (c *Client) SearchTracks(ctx context.Context, query string, limit int) ([]profile.Track, error) {
	result, err := c.api.Search(ctx, query, spotify.SearchTypeTrack, spotify.Limit(limit))
	if err != nil {
		return nil, fmt.Errorf("searching tracks: %w", err)
	}
	if result.Tracks == nil {
		return nil, nil
	}

	var tracks []profile.Track
	for _, t := range result.Tracks.Tracks {
		tracks = append(tracks, profile.Track{
			SpotifyID: t.ID.String(),
			Name:      t.Name,
			Artist:    joinArtists(t.Artists),
			Album:     t.Album.Name,
			ImageURL:  firstImage(t.Album.Images),
		})
	}
	return tracks, nil
}

func joinArtists(artists []spotify.SimpleArtist) string {
	names := make([]string, len(artists))
	for i, a := range artists {
		names[i] = a.Name
	}
	return strings.Join(names, ", ")
}

func firstImage(images []spotify.Image) *string {
	if len(images) == 0 {
		return nil
	}
	url := images[0].URL
	return &url
}
