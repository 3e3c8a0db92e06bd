// package models defines the data model for the music snapshot tool
package models

import (
	"time"
)

// PlayEvent is a single scrobble: a timestamped record that a track was
// played, as reported by the listening-history service.
//
// Identity is the (SourceID, PlayedAt) pair. Events are immutable once
// constructed at the history-client boundary.
type PlayEvent struct {
	PlayedAt time.Time `json:"played_at"` // UTC
	Artist   string    `json:"artist"`
	Title    string    `json:"title"`
	Album    string    `json:"album,omitempty"`
	SourceID string    `json:"source_id"`
}

// PlayHistory is an ordered sequence of play events, ascending by PlayedAt,
// with no duplicate SourceID, bounded to a half-open [From, To) window.
//
// Constructed once per run by session.Normalize and immutable thereafter.
type PlayHistory struct {
	Events []PlayEvent `json:"events"`
	From   time.Time   `json:"from"`
	To     time.Time   `json:"to"`
}

// Len returns the number of events in the history.
func (h PlayHistory) Len() int { return len(h.Events) }

// SessionRange is a pair of inclusive indices into a PlayHistory.
//
// Valid when 0 <= Start <= End < history length. Derived per run, never
// stored.
type SessionRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Count returns the number of events covered by the range.
func (r SessionRange) Count() int { return r.End - r.Start + 1 }

// Validate checks the range against a history of length n.
func (r SessionRange) Validate(n int) bool {
	return r.Start >= 0 && r.Start <= r.End && r.End < n
}

// CatalogMatch is the target catalog's best candidate for a play event.
// Rank 0 is the top result. Absence of a match is modeled as an error,
// not a zero CatalogMatch.
type CatalogMatch struct {
	CatalogID string `json:"catalog_id"`
	Rank      int    `json:"rank"`
}

// Track represents a track in the target catalog.
type Track struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Album  string `json:"album,omitempty"`
	URI    string `json:"uri,omitempty"`
	URL    string `json:"url,omitempty"`
}

// Playlist represents a playlist in the target catalog.
type Playlist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	TrackCount  int    `json:"track_count"`
	Public      bool   `json:"public"`
	URL         string `json:"url,omitempty"`
}
