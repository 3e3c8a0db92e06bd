// package tasks implements snapshot construction: fetching a play history
// window, inferring session boundaries, resolving plays against the catalog,
// and materializing the result as a playlist.
//
// The core abstraction is [SnapshotEngine], which orchestrates the pipeline.
// Operations emit progress updates via channels for non-blocking status
// reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/pawelad/music-snapshot/internal/models"
	"github.com/pawelad/music-snapshot/internal/resolver"
	"github.com/pawelad/music-snapshot/internal/services"
	"github.com/pawelad/music-snapshot/internal/session"
	"github.com/pawelad/music-snapshot/internal/shared"
)

// TrackResolution represents the outcome of resolving a single play event.
type TrackResolution struct {
	Event     models.PlayEvent     // Play event from the history service
	Matched   *models.Track        // Resolved catalog track (nil if not found)
	Match     *models.CatalogMatch // Catalog identity and rank of the match
	FromCache bool                 // Whether the match came from the local cache
	Error     error                // Error if resolution failed
}

// SnapshotRunResult contains all data from a full snapshot operation.
type SnapshotRunResult struct {
	History         models.PlayHistory  // Normalized history the snapshot was cut from
	Range           models.SessionRange // Selected session bounds (inclusive indexes)
	Playlist        *models.Playlist    // Created playlist
	Resolutions     []TrackResolution   // Per-play resolution results, in play order
	ResolvedCount   int                 // Number of plays matched to catalog tracks
	UnmatchedCount  int                 // Number of plays without a catalog match
	CacheHits       int                 // Resolutions served from the local cache
	AddedCount      int                 // Tracks actually added to the playlist
	TotalTracks     int                 // Plays inside the selected range
	MatchPercentage float64             // Resolution success rate as percentage
}

// SnapshotOpts configures a snapshot run.
type SnapshotOpts struct {
	Name         string        // Playlist name (default: session start date)
	GapThreshold time.Duration // Session boundary gap (default: 60 minutes)
}

// MatchCache is the optional persistence layer for resolved matches.
// Implemented by repositories.MatchRepository.
type MatchCache interface {
	Get(artist, title string) (*models.Track, bool, error)
	Put(artist, title string, track models.Track) error
}

// SnapshotEngine builds playlists out of listening history windows.
type SnapshotEngine struct {
	history services.HistorySource
	catalog services.Catalog
	cache   MatchCache
}

// NewSnapshotEngine creates a SnapshotEngine with the provided services.
// The cache may be nil, in which case every resolution hits the catalog.
func NewSnapshotEngine(history services.HistorySource, catalog services.Catalog, cache MatchCache) *SnapshotEngine {
	return &SnapshotEngine{
		history: history,
		catalog: catalog,
		cache:   cache,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks
// execution.
func (e *SnapshotEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Fetch retrieves and normalizes the play history for [from, to).
func (e *SnapshotEngine) Fetch(ctx context.Context, progress chan<- ProgressUpdate, from, to time.Time) (models.PlayHistory, error) {
	if e.history == nil {
		return models.PlayHistory{}, fmt.Errorf("%w: history service not initialized", shared.ErrRemoteUnavailable)
	}

	e.sendProgress(progress, fetchHistoryUpdate(e.history.Name()))

	raw, err := e.history.RecentTracks(ctx, from, to)
	if err != nil {
		return models.PlayHistory{}, err
	}

	history, err := session.Normalize(raw, from, to)
	if err != nil {
		return models.PlayHistory{}, err
	}

	e.sendProgress(progress, historyFetchedUpdate(history))
	return history, nil
}

// GuessRange infers the full session range starting at the given index.
func (e *SnapshotEngine) GuessRange(history models.PlayHistory, start int, threshold time.Duration) (models.SessionRange, error) {
	if start < 0 || start >= history.Len() {
		return models.SessionRange{}, fmt.Errorf("%w: start index %d outside history of %d plays",
			shared.ErrInvalidRange, start, history.Len())
	}

	end, _ := session.GuessEnd(history, start, threshold)
	return models.SessionRange{Start: start, End: end}, nil
}

// Run materializes the selected slice of the history as a playlist: every
// play inside the range is resolved against the catalog (consulting the
// match cache first), a playlist named per opts is created, and the resolved
// tracks are appended in play order.
//
// Unresolvable plays are recorded and skipped; they never abort the run.
// A failure while adding tracks returns the partially filled result together
// with the error, so the caller can see how far the run got.
func (e *SnapshotEngine) Run(ctx context.Context, progress chan<- ProgressUpdate, history models.PlayHistory, rng models.SessionRange, opts SnapshotOpts) (*SnapshotRunResult, error) {
	if e.catalog == nil {
		return nil, fmt.Errorf("%w: catalog service not initialized", shared.ErrRemoteUnavailable)
	}

	if !rng.Validate(history.Len()) {
		return nil, fmt.Errorf("%w: [%d, %d] does not fit a history of %d plays",
			shared.ErrInvalidRange, rng.Start, rng.End, history.Len())
	}

	result := &SnapshotRunResult{
		History:     history,
		Range:       rng,
		TotalTracks: rng.Count(),
	}

	selected := history.Events[rng.Start : rng.End+1]

	e.sendProgress(progress, resolveTracksUpdate(0, len(selected), nil))

	result.Resolutions = make([]TrackResolution, len(selected))
	for i, event := range selected {
		e.sendProgress(progress, resolveTracksUpdate(i+1, len(selected), &event))

		resolution := e.resolve(ctx, event)
		result.Resolutions[i] = resolution

		switch {
		case resolution.Matched != nil:
			result.ResolvedCount++
			if resolution.FromCache {
				result.CacheHits++
			}
		case resolution.Error != nil && !shared.IsRecoverable(resolution.Error):
			// Anything other than a missing match means the catalog
			// itself is failing, keep going would just repeat it.
			return result, resolution.Error
		default:
			result.UnmatchedCount++
		}
	}

	if result.TotalTracks > 0 {
		result.MatchPercentage = float64(result.ResolvedCount) / float64(result.TotalTracks) * 100
	}

	if result.ResolvedCount == 0 {
		return result, fmt.Errorf("%w: none of the %d plays could be resolved",
			shared.ErrTrackNotFound, result.TotalTracks)
	}

	name := opts.Name
	if name == "" {
		name = history.Events[rng.Start].PlayedAt.Local().Format(shared.DateFormat)
	}

	start := history.Events[rng.Start].PlayedAt
	end := history.Events[rng.End].PlayedAt

	e.sendProgress(progress, createPlaylistUpdate(name))

	// The Spotify API cannot create truly private playlists, public=false
	// is as close as it gets.
	playlist, err := e.catalog.CreatePlaylist(ctx, name, SnapshotDescription(start, end), false)
	if err != nil {
		return result, fmt.Errorf("failed to create playlist: %w", err)
	}
	result.Playlist = playlist

	e.sendProgress(progress, playlistCreatedUpdate(playlist))

	uris := make([]string, 0, result.ResolvedCount)
	for _, resolution := range result.Resolutions {
		if resolution.Matched != nil {
			uris = append(uris, resolution.Matched.URI)
		}
	}

	batches := session.Chunk(uris, session.MaxBatchSize)
	for i, batch := range batches {
		e.sendProgress(progress, addTracksUpdate(i+1, len(batches), len(batch)))

		if err := e.catalog.AddItems(ctx, playlist.ID, batch); err != nil {
			return result, fmt.Errorf("failed to add tracks (batch %d of %d): %w", i+1, len(batches), err)
		}
		result.AddedCount += len(batch)
	}

	return result, nil
}

// resolve matches one play event, trying the cache before the catalog.
// Fresh matches are written back to the cache; cache write failures are not
// worth aborting a resolution that already succeeded.
func (e *SnapshotEngine) resolve(ctx context.Context, event models.PlayEvent) TrackResolution {
	resolution := TrackResolution{Event: event}

	if e.cache != nil {
		if cached, found, err := e.cache.Get(event.Artist, event.Title); err == nil && found {
			resolution.Matched = cached
			resolution.Match = &models.CatalogMatch{CatalogID: cached.ID}
			resolution.FromCache = true
			return resolution
		}
	}

	track, err := resolver.Resolve(ctx, e.catalog, event)
	if err != nil {
		resolution.Error = err
		return resolution
	}

	resolution.Matched = &track
	resolution.Match = &models.CatalogMatch{CatalogID: track.ID}
	if e.cache != nil {
		_ = e.cache.Put(event.Artist, event.Title, track)
	}

	return resolution
}

// SnapshotDescription renders the playlist description from the session
// bounds, in local time. When the session fits in one day the end collapses
// to just the time. Line breaks are not allowed in playlist descriptions.
func SnapshotDescription(start, end time.Time) string {
	start = start.Local()
	end = end.Local()

	description := fmt.Sprintf("🎵 📸 | %s - ", start.Format(shared.DateTimeFormat))
	if start.Format(shared.DateFormat) == end.Format(shared.DateFormat) {
		description += end.Format(shared.TimeFormat)
	} else {
		description += end.Format(shared.DateTimeFormat)
	}

	return description
}
