// package services defines the [HistorySource] and [Catalog] interfaces for
// music service APIs
//
// Last.fm (history), Spotify (catalog)
package services

import (
	"context"
	"time"

	"github.com/pawelad/music-snapshot/internal/models"
)

// HistorySource is a service that can report what the user listened to and
// when. Implementations return raw play events; windowing and dedupe happen
// downstream.
type HistorySource interface {
	// RecentTracks retrieves play events inside [from, to], oldest data
	// the service has first paged out last. Both bounds are always sent
	// to the remote service.
	RecentTracks(ctx context.Context, from, to time.Time) ([]models.PlayEvent, error)

	// Name returns the name of the service (e.g. "Last.fm")
	Name() string
}

// Catalog is a service that can search its track catalog and build
// playlists for the authenticated user.
type Catalog interface {
	// SearchTrack runs a fielded catalog search and returns up to limit
	// matches, best ranked first.
	SearchTrack(ctx context.Context, query string, limit int) ([]models.Track, error)

	// CreatePlaylist creates an empty playlist owned by the current user.
	CreatePlaylist(ctx context.Context, name, description string, public bool) (*models.Playlist, error)

	// AddItems appends items to a playlist in the given order. The batch
	// must fit in a single request.
	AddItems(ctx context.Context, playlistID string, uris []string) error

	// Name returns the name of the service (e.g. "Spotify")
	Name() string
}
