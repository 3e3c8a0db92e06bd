// package repositories provides SQLite persistence for resolved track
// matches.
//
// Catalog search is by far the slowest and flakiest part of building a
// snapshot, so every successful resolution is cached keyed by the history
// service's artist/title pair. Repeat snapshots over overlapping windows
// then skip the search round trip entirely.
package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/pawelad/music-snapshot/internal/models"
)

// MatchRepository persists resolved artist/title → catalog track matches.
type MatchRepository struct {
	db *sql.DB
}

// NewMatchRepository creates a new MatchRepository with the given database
// connection.
func NewMatchRepository(db *sql.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

// Get looks up a cached match. The second return value reports whether one
// exists; a miss is not an error.
func (r *MatchRepository) Get(artist, title string) (*models.Track, bool, error) {
	query := `
		SELECT catalog_id, uri, url
		FROM track_matches
		WHERE artist = ? AND title = ?
	`

	track := models.Track{Artist: artist, Title: title}
	err := r.db.QueryRow(query, artist, title).Scan(&track.ID, &track.URI, &track.URL)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to query match: %w", err)
	}

	return &track, true, nil
}

// Put stores a resolved match, replacing any previous resolution for the
// same artist/title pair.
func (r *MatchRepository) Put(artist, title string, track models.Track) error {
	query := `
		INSERT INTO track_matches (artist, title, catalog_id, uri, url, resolved_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (artist, title) DO UPDATE SET
			catalog_id = excluded.catalog_id,
			uri = excluded.uri,
			url = excluded.url,
			resolved_at = excluded.resolved_at
	`

	_, err := r.db.Exec(query, artist, title, track.ID, track.URI, track.URL,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to store match: %w", err)
	}

	return nil
}

// MatchStats summarizes the cache contents.
type MatchStats struct {
	Matches   int
	Artists   int
	OldestAge time.Duration
}

// Stats reports how many matches are cached and how stale the oldest one
// is.
func (r *MatchRepository) Stats() (*MatchStats, error) {
	stats := &MatchStats{}

	query := `
		SELECT COUNT(*), COUNT(DISTINCT artist), COALESCE(MIN(resolved_at), '')
		FROM track_matches
	`

	var oldest string
	if err := r.db.QueryRow(query).Scan(&stats.Matches, &stats.Artists, &oldest); err != nil {
		return nil, fmt.Errorf("failed to query stats: %w", err)
	}

	if oldest != "" {
		if resolvedAt, err := time.Parse(time.RFC3339, oldest); err == nil {
			stats.OldestAge = time.Since(resolvedAt)
		}
	}

	return stats, nil
}

// Clear drops every cached match and returns how many were removed.
func (r *MatchRepository) Clear() (int64, error) {
	result, err := r.db.Exec("DELETE FROM track_matches")
	if err != nil {
		return 0, fmt.Errorf("failed to clear matches: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count removed matches: %w", err)
	}

	return removed, nil
}
