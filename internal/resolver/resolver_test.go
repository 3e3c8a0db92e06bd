package resolver

import (
	"context"
	"errors"
	"testing"

	"github.com/pawelad/music-snapshot/internal/models"
	"github.com/pawelad/music-snapshot/internal/shared"
)

func TestNormalizeArtist(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"LeadingArticle", "The Beatles", "Beatles"},
		{"Lowercase", "the xx", "xx"},
		// Substring removal keeps the space on both sides of the article.
		{"MidName", "Florence + The Machine", "Florence +  Machine"},
		{"NoArticle", "Radiohead", "Radiohead"},
		// Substring removal hits inside words too. Accepted trade-off:
		// search still ranks on the surviving tokens.
		{"InsideWord", "Theory of a Deadman", "ory of a Deadman"},
		{"OnlyArticle", "The The", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeArtist(tc.in); got != tc.want {
				t.Errorf("NormalizeArtist(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalizeTitle(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"TrailingFeat", "Song feat", "Song"},
		{"TrailingParenFt", "Song (ft", "Song"},
		{"TrailingParenFeat", "Song (feat", "Song"},
		{"CapitalFeat", "Song Feat", "Song"},
		{"MarkerMidTitle", "Song (feat. Someone)", "Song (feat. Someone)"},
		{"Plain", "Karma Police", "Karma Police"},
		{"WhitespaceTrimmed", "  Song ft", "Song"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeTitle(tc.in); got != tc.want {
				t.Errorf("NormalizeTitle(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestBuildQuery(t *testing.T) {
	event := models.PlayEvent{Artist: "The Beatles", Title: "Let It Be"}

	want := "artist:Beatles track:Let It Be"
	if got := BuildQuery(event); got != want {
		t.Errorf("BuildQuery() = %q, want %q", got, want)
	}
}

type fakeCatalog struct {
	tracks []models.Track
	err    error
	query  string
	limit  int
}

func (f *fakeCatalog) SearchTrack(_ context.Context, query string, limit int) ([]models.Track, error) {
	f.query = query
	f.limit = limit
	return f.tracks, f.err
}

func TestResolve(t *testing.T) {
	event := models.PlayEvent{Artist: "The National", Title: "Fake Empire"}

	t.Run("TopHit", func(t *testing.T) {
		catalog := &fakeCatalog{tracks: []models.Track{
			{ID: "abc123", URI: "spotify:track:abc123", Title: "Fake Empire"},
		}}

		track, err := Resolve(context.Background(), catalog, event)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if track.ID != "abc123" {
			t.Errorf("want top hit abc123, got %s", track.ID)
		}
		if catalog.limit != 1 {
			t.Errorf("want limit 1, got %d", catalog.limit)
		}
		if catalog.query != "artist:National track:Fake Empire" {
			t.Errorf("unexpected query: %q", catalog.query)
		}
	})

	t.Run("NoResults", func(t *testing.T) {
		catalog := &fakeCatalog{}

		_, err := Resolve(context.Background(), catalog, event)
		if !errors.Is(err, shared.ErrTrackNotFound) {
			t.Errorf("want ErrTrackNotFound, got %v", err)
		}
	})

	t.Run("SearchFailurePassesThrough", func(t *testing.T) {
		catalog := &fakeCatalog{err: shared.ErrRemoteUnavailable}

		_, err := Resolve(context.Background(), catalog, event)
		if !errors.Is(err, shared.ErrRemoteUnavailable) {
			t.Errorf("want the catalog error untouched, got %v", err)
		}
	})
}
