// package resolver translates play events from the listening history into
// catalog track IDs. Matching is heuristic: artist and title strings are
// scrubbed of words that commonly differ between services before being fed
// into a fielded catalog search, and only the top-ranked hit is accepted.
package resolver

import (
	"context"
	"fmt"
	"strings"

	"github.com/pawelad/music-snapshot/internal/models"
	"github.com/pawelad/music-snapshot/internal/shared"
)

// SearchCapability is the slice of the catalog service the resolver needs.
type SearchCapability interface {
	SearchTrack(ctx context.Context, query string, limit int) ([]models.Track, error)
}

// articleForms are removed from artist names as substrings, not words.
// "The Beatles" becomes "Beatles", but "Theory of a Deadman" becomes
// "ory of a Deadman" and still tends to match because the search engine
// scores on the remaining tokens. Crude, known, and kept.
var articleForms = []string{"the", "The"}

// featureMarkers are trimmed off the end of a title, each applied in order
// to whatever the previous one left behind. Longest forms come first so a
// parenthesised marker comes off whole instead of leaving "Song (".
var featureMarkers = []string{"(feat", "(Feat", "feat", "Feat", "(ft", "(Ft", "ft", "Ft"}

// NormalizeArtist scrubs an artist name for catalog search.
func NormalizeArtist(name string) string {
	for _, word := range articleForms {
		name = strings.ReplaceAll(name, word, "")
	}
	return strings.TrimSpace(name)
}

// NormalizeTitle scrubs a track title for catalog search.
func NormalizeTitle(title string) string {
	for _, marker := range featureMarkers {
		title = strings.TrimSuffix(title, marker)
	}
	return strings.TrimSpace(title)
}

// BuildQuery assembles the fielded search query for a play event. An album
// field is deliberately left out: filtering on it breaks lookups for tracks
// released both as singles and album cuts.
func BuildQuery(event models.PlayEvent) string {
	return fmt.Sprintf("artist:%s track:%s",
		NormalizeArtist(event.Artist), NormalizeTitle(event.Title))
}

// Resolve looks a single play event up in the catalog and returns the
// top-ranked match. An empty result set maps to [shared.ErrTrackNotFound],
// which callers treat as recoverable; transport and API failures pass
// through untouched.
func Resolve(ctx context.Context, catalog SearchCapability, event models.PlayEvent) (models.Track, error) {
	tracks, err := catalog.SearchTrack(ctx, BuildQuery(event), 1)
	if err != nil {
		return models.Track{}, err
	}

	if len(tracks) == 0 {
		return models.Track{}, fmt.Errorf("%w: %s by %s",
			shared.ErrTrackNotFound, event.Title, event.Artist)
	}

	return tracks[0], nil
}
