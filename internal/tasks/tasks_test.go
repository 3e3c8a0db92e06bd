package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/pawelad/music-snapshot/internal/models"
	"github.com/pawelad/music-snapshot/internal/shared"
)

var base = time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)

func historyOf(offsets ...int) models.PlayHistory {
	events := make([]models.PlayEvent, 0, len(offsets))
	for i, m := range offsets {
		events = append(events, models.PlayEvent{
			PlayedAt: base.Add(time.Duration(m) * time.Minute),
			Artist:   fmt.Sprintf("Artist %d", i),
			Title:    fmt.Sprintf("Track %d", i),
			SourceID: fmt.Sprintf("src-%d", i),
		})
	}
	return models.PlayHistory{
		Events: events,
		From:   base,
		To:     base.Add(24 * time.Hour),
	}
}

// fakeHistory implements services.HistorySource.
type fakeHistory struct {
	events []models.PlayEvent
	err    error
}

func (f *fakeHistory) RecentTracks(_ context.Context, from, to time.Time) ([]models.PlayEvent, error) {
	return f.events, f.err
}

func (f *fakeHistory) Name() string { return "Last.fm" }

// fakeCatalog implements services.Catalog with scripted behavior.
type fakeCatalog struct {
	searchErr    error
	missing      map[string]bool // queries that return no hits
	searchCalls  []string
	created      []string
	createErr    error
	addBatches   [][]string
	addFailAfter int // fail on batch N (1-based), 0 means never
}

func (f *fakeCatalog) SearchTrack(_ context.Context, query string, limit int) ([]models.Track, error) {
	f.searchCalls = append(f.searchCalls, query)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if f.missing[query] {
		return nil, nil
	}

	id := fmt.Sprintf("cat-%d", len(f.searchCalls))
	return []models.Track{{
		ID:  id,
		URI: "spotify:track:" + id,
	}}, nil
}

func (f *fakeCatalog) CreatePlaylist(_ context.Context, name, description string, public bool) (*models.Playlist, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, name)
	return &models.Playlist{
		ID:          "pl123",
		Name:        name,
		Description: description,
		Public:      public,
	}, nil
}

func (f *fakeCatalog) AddItems(_ context.Context, playlistID string, uris []string) error {
	if f.addFailAfter > 0 && len(f.addBatches)+1 >= f.addFailAfter {
		return fmt.Errorf("%w: spotify API error: status 502", shared.ErrRemoteUnavailable)
	}
	f.addBatches = append(f.addBatches, uris)
	return nil
}

func (f *fakeCatalog) Name() string { return "Spotify" }

// fakeCache implements MatchCache in memory.
type fakeCache struct {
	entries map[string]models.Track
	puts    int
}

func cacheKey(artist, title string) string { return artist + "\x00" + title }

func (f *fakeCache) Get(artist, title string) (*models.Track, bool, error) {
	track, ok := f.entries[cacheKey(artist, title)]
	if !ok {
		return nil, false, nil
	}
	return &track, true, nil
}

func (f *fakeCache) Put(artist, title string, track models.Track) error {
	if f.entries == nil {
		f.entries = map[string]models.Track{}
	}
	f.entries[cacheKey(artist, title)] = track
	f.puts++
	return nil
}

func TestFetch(t *testing.T) {
	t.Run("NormalizesHistory", func(t *testing.T) {
		source := &fakeHistory{events: historyOf(40, 0, 20).Events}
		engine := NewSnapshotEngine(source, &fakeCatalog{}, nil)

		history, err := engine.Fetch(context.Background(), nil, base, base.Add(2*time.Hour))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if history.Len() != 3 {
			t.Fatalf("expected 3 events, got %d", history.Len())
		}
		if !history.Events[0].PlayedAt.Equal(base) {
			t.Errorf("expected ascending order after normalization")
		}
	})

	t.Run("EmptyWindow", func(t *testing.T) {
		source := &fakeHistory{}
		engine := NewSnapshotEngine(source, &fakeCatalog{}, nil)

		_, err := engine.Fetch(context.Background(), nil, base, base.Add(time.Hour))
		if !errors.Is(err, shared.ErrEmptyHistory) {
			t.Errorf("expected ErrEmptyHistory, got %v", err)
		}
	})

	t.Run("SourceFailure", func(t *testing.T) {
		source := &fakeHistory{err: shared.ErrRemoteUnavailable}
		engine := NewSnapshotEngine(source, &fakeCatalog{}, nil)

		_, err := engine.Fetch(context.Background(), nil, base, base.Add(time.Hour))
		if !errors.Is(err, shared.ErrRemoteUnavailable) {
			t.Errorf("expected the source error surfaced, got %v", err)
		}
	})
}

func TestGuessRange(t *testing.T) {
	history := historyOf(0, 10, 20, 90, 100)
	engine := NewSnapshotEngine(&fakeHistory{}, &fakeCatalog{}, nil)

	t.Run("InfersEnd", func(t *testing.T) {
		rng, err := engine.GuessRange(history, 0, time.Hour)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if rng.Start != 0 || rng.End != 2 {
			t.Errorf("expected [0, 2], got [%d, %d]", rng.Start, rng.End)
		}
	})

	t.Run("StartOutOfBounds", func(t *testing.T) {
		_, err := engine.GuessRange(history, 5, time.Hour)
		if !errors.Is(err, shared.ErrInvalidRange) {
			t.Errorf("expected ErrInvalidRange, got %v", err)
		}
	})
}

func TestRun(t *testing.T) {
	ctx := context.Background()

	t.Run("FullPipeline", func(t *testing.T) {
		history := historyOf(0, 10, 20)
		catalog := &fakeCatalog{}
		engine := NewSnapshotEngine(&fakeHistory{}, catalog, nil)

		result, err := engine.Run(ctx, nil, history, models.SessionRange{Start: 0, End: 2}, SnapshotOpts{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if result.ResolvedCount != 3 || result.AddedCount != 3 {
			t.Errorf("expected 3 resolved and added, got %d/%d", result.ResolvedCount, result.AddedCount)
		}
		if result.Playlist == nil || result.Playlist.ID != "pl123" {
			t.Fatal("expected the created playlist in the result")
		}
		if len(catalog.addBatches) != 1 {
			t.Fatalf("expected a single batch, got %d", len(catalog.addBatches))
		}

		// Play order must survive into the add request.
		want := []string{"spotify:track:cat-1", "spotify:track:cat-2", "spotify:track:cat-3"}
		for i, uri := range catalog.addBatches[0] {
			if uri != want[i] {
				t.Errorf("batch position %d: expected %s, got %s", i, want[i], uri)
			}
		}
	})

	t.Run("DefaultPlaylistName", func(t *testing.T) {
		history := historyOf(0, 10)
		catalog := &fakeCatalog{}
		engine := NewSnapshotEngine(&fakeHistory{}, catalog, nil)

		_, err := engine.Run(ctx, nil, history, models.SessionRange{Start: 0, End: 1}, SnapshotOpts{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := base.Local().Format(shared.DateFormat)
		if len(catalog.created) != 1 || catalog.created[0] != want {
			t.Errorf("expected playlist named %q, got %v", want, catalog.created)
		}
	})

	t.Run("InvalidRangeBeforeAnyMutation", func(t *testing.T) {
		history := historyOf(0, 10)
		catalog := &fakeCatalog{}
		engine := NewSnapshotEngine(&fakeHistory{}, catalog, nil)

		_, err := engine.Run(ctx, nil, history, models.SessionRange{Start: 1, End: 5}, SnapshotOpts{})
		if !errors.Is(err, shared.ErrInvalidRange) {
			t.Fatalf("expected ErrInvalidRange, got %v", err)
		}

		if len(catalog.searchCalls) != 0 || len(catalog.created) != 0 {
			t.Error("nothing should reach the catalog on an invalid range")
		}
	})

	t.Run("UnmatchedPlaysAreSkipped", func(t *testing.T) {
		history := historyOf(0, 10, 20)
		catalog := &fakeCatalog{missing: map[string]bool{
			"artist:Artist 1 track:Track 1": true,
		}}
		engine := NewSnapshotEngine(&fakeHistory{}, catalog, nil)

		result, err := engine.Run(ctx, nil, history, models.SessionRange{Start: 0, End: 2}, SnapshotOpts{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if result.UnmatchedCount != 1 || result.ResolvedCount != 2 {
			t.Errorf("expected 2 resolved / 1 unmatched, got %d/%d",
				result.ResolvedCount, result.UnmatchedCount)
		}
		if result.AddedCount != 2 {
			t.Errorf("expected 2 added, got %d", result.AddedCount)
		}
		if !errors.Is(result.Resolutions[1].Error, shared.ErrTrackNotFound) {
			t.Errorf("expected the miss recorded, got %v", result.Resolutions[1].Error)
		}
	})

	t.Run("NothingResolvedCreatesNoPlaylist", func(t *testing.T) {
		history := historyOf(0, 10)
		catalog := &fakeCatalog{missing: map[string]bool{
			"artist:Artist 0 track:Track 0": true,
			"artist:Artist 1 track:Track 1": true,
		}}
		engine := NewSnapshotEngine(&fakeHistory{}, catalog, nil)

		result, err := engine.Run(ctx, nil, history, models.SessionRange{Start: 0, End: 1}, SnapshotOpts{})
		if err == nil {
			t.Fatal("expected an error when nothing resolves")
		}

		if len(catalog.created) != 0 {
			t.Error("no playlist should be created for an empty resolution set")
		}
		if result == nil || result.UnmatchedCount != 2 {
			t.Error("expected the result to carry the unmatched counts")
		}
	})

	t.Run("CatalogOutageAborts", func(t *testing.T) {
		history := historyOf(0, 10)
		catalog := &fakeCatalog{searchErr: shared.ErrRemoteUnavailable}
		engine := NewSnapshotEngine(&fakeHistory{}, catalog, nil)

		result, err := engine.Run(ctx, nil, history, models.SessionRange{Start: 0, End: 1}, SnapshotOpts{})
		if !errors.Is(err, shared.ErrRemoteUnavailable) {
			t.Fatalf("expected ErrRemoteUnavailable, got %v", err)
		}

		if len(catalog.searchCalls) != 1 {
			t.Errorf("the outage should abort after the first search, got %d calls", len(catalog.searchCalls))
		}
		if result == nil {
			t.Error("expected the partial result alongside the error")
		}
	})

	t.Run("ChunkedAdds", func(t *testing.T) {
		offsets := make([]int, 160)
		for i := range offsets {
			offsets[i] = i
		}
		history := historyOf(offsets...)
		catalog := &fakeCatalog{}
		engine := NewSnapshotEngine(&fakeHistory{}, catalog, nil)

		result, err := engine.Run(ctx, nil, history, models.SessionRange{Start: 0, End: 159}, SnapshotOpts{Name: "Big"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		wantSizes := []int{75, 75, 10}
		if len(catalog.addBatches) != len(wantSizes) {
			t.Fatalf("expected %d batches, got %d", len(wantSizes), len(catalog.addBatches))
		}
		for i, size := range wantSizes {
			if len(catalog.addBatches[i]) != size {
				t.Errorf("batch %d: expected %d items, got %d", i, size, len(catalog.addBatches[i]))
			}
		}
		if result.AddedCount != 160 {
			t.Errorf("expected 160 added, got %d", result.AddedCount)
		}
	})

	t.Run("PartialAddVisibleOnFailure", func(t *testing.T) {
		offsets := make([]int, 100)
		for i := range offsets {
			offsets[i] = i
		}
		history := historyOf(offsets...)
		catalog := &fakeCatalog{addFailAfter: 2}
		engine := NewSnapshotEngine(&fakeHistory{}, catalog, nil)

		result, err := engine.Run(ctx, nil, history, models.SessionRange{Start: 0, End: 99}, SnapshotOpts{Name: "Partial"})
		if !errors.Is(err, shared.ErrRemoteUnavailable) {
			t.Fatalf("expected the add failure surfaced, got %v", err)
		}

		if result.AddedCount != 75 {
			t.Errorf("expected the first batch counted, got %d", result.AddedCount)
		}
		if result.Playlist == nil {
			t.Error("the created playlist should still be reported")
		}
	})

	t.Run("CacheHitSkipsSearch", func(t *testing.T) {
		history := historyOf(0, 10)
		catalog := &fakeCatalog{}
		cache := &fakeCache{entries: map[string]models.Track{
			cacheKey("Artist 0", "Track 0"): {ID: "cached", URI: "spotify:track:cached"},
		}}
		engine := NewSnapshotEngine(&fakeHistory{}, catalog, cache)

		result, err := engine.Run(ctx, nil, history, models.SessionRange{Start: 0, End: 1}, SnapshotOpts{Name: "Cached"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if result.CacheHits != 1 {
			t.Errorf("expected 1 cache hit, got %d", result.CacheHits)
		}
		if len(catalog.searchCalls) != 1 {
			t.Errorf("expected only the uncached play searched, got %d calls", len(catalog.searchCalls))
		}
		if cache.puts != 1 {
			t.Errorf("expected the fresh match written back, got %d puts", cache.puts)
		}
		if catalog.addBatches[0][0] != "spotify:track:cached" {
			t.Errorf("expected the cached URI first, got %s", catalog.addBatches[0][0])
		}
	})

	t.Run("ProgressNeverBlocks", func(t *testing.T) {
		history := historyOf(0, 10, 20)
		engine := NewSnapshotEngine(&fakeHistory{}, &fakeCatalog{}, nil)

		// Unbuffered channel nobody reads from.
		progress := make(chan ProgressUpdate)

		done := make(chan struct{})
		go func() {
			defer close(done)
			_, err := engine.Run(ctx, progress, history, models.SessionRange{Start: 0, End: 2}, SnapshotOpts{Name: "NB"})
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()

		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("run blocked on progress reporting")
		}
	})
}

func TestSnapshotDescription(t *testing.T) {
	t.Run("SameDay", func(t *testing.T) {
		start := time.Date(2025, 6, 1, 20, 0, 0, 0, time.Local)
		end := time.Date(2025, 6, 1, 22, 30, 0, 0, time.Local)

		got := SnapshotDescription(start, end)
		want := "🎵 📸 | 2025-06-01 20:00 - 22:30"
		if got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	})

	t.Run("CrossesMidnight", func(t *testing.T) {
		start := time.Date(2025, 6, 1, 23, 0, 0, 0, time.Local)
		end := time.Date(2025, 6, 2, 1, 15, 0, 0, time.Local)

		got := SnapshotDescription(start, end)
		if !strings.HasSuffix(got, "2025-06-02 01:15") {
			t.Errorf("expected the full end datetime, got %q", got)
		}
	})
}
