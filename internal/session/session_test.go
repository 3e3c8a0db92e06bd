package session

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/pawelad/music-snapshot/internal/models"
	"github.com/pawelad/music-snapshot/internal/shared"
)

var base = time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)

// eventsAt builds one play event per offset (minutes after base), with a
// unique SourceID derived from the index.
func eventsAt(offsets ...int) []models.PlayEvent {
	events := make([]models.PlayEvent, 0, len(offsets))
	for i, m := range offsets {
		events = append(events, models.PlayEvent{
			PlayedAt: base.Add(time.Duration(m) * time.Minute),
			Artist:   "Artist",
			Title:    fmt.Sprintf("Track %d", i),
			SourceID: fmt.Sprintf("src-%d", i),
		})
	}
	return events
}

func TestNormalize(t *testing.T) {
	from := base
	to := base.Add(3 * time.Hour)

	t.Run("SortsAscending", func(t *testing.T) {
		raw := eventsAt(40, 0, 20)
		history, err := Normalize(raw, from, to)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		for i := 1; i < history.Len(); i++ {
			if history.Events[i].PlayedAt.Before(history.Events[i-1].PlayedAt) {
				t.Errorf("events out of order at %d: %v after %v",
					i, history.Events[i].PlayedAt, history.Events[i-1].PlayedAt)
			}
		}
	})

	t.Run("StableOnEqualTimestamps", func(t *testing.T) {
		raw := eventsAt(10, 10, 10)
		history, err := Normalize(raw, from, to)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		for i, want := range []string{"src-0", "src-1", "src-2"} {
			if history.Events[i].SourceID != want {
				t.Errorf("event %d: want %s, got %s", i, want, history.Events[i].SourceID)
			}
		}
	})

	t.Run("HalfOpenWindow", func(t *testing.T) {
		raw := eventsAt(-10, 0, 60, 180, 200)
		history, err := Normalize(raw, from, to)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if history.Len() != 2 {
			t.Fatalf("want 2 events inside [from, to), got %d", history.Len())
		}

		// The from bound is inclusive, the to bound exclusive.
		if !history.Events[0].PlayedAt.Equal(from) {
			t.Errorf("event at from should survive, got %v", history.Events[0].PlayedAt)
		}
	})

	t.Run("DropsDuplicateSourceIDs", func(t *testing.T) {
		raw := eventsAt(0, 20)
		raw = append(raw, raw[0])

		history, err := Normalize(raw, from, to)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if history.Len() != 2 {
			t.Errorf("want 2 unique events, got %d", history.Len())
		}
	})

	t.Run("Idempotent", func(t *testing.T) {
		raw := eventsAt(40, 0, 20, 20)
		first, err := Normalize(raw, from, to)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		second, err := Normalize(first.Events, from, to)
		if err != nil {
			t.Fatalf("unexpected error on second pass: %v", err)
		}

		if second.Len() != first.Len() {
			t.Fatalf("second pass changed length: %d != %d", second.Len(), first.Len())
		}
		for i := range first.Events {
			if first.Events[i].SourceID != second.Events[i].SourceID {
				t.Errorf("event %d changed between passes", i)
			}
		}
	})

	t.Run("EmptyAfterFiltering", func(t *testing.T) {
		raw := eventsAt(-30, -20)
		_, err := Normalize(raw, from, to)
		if !errors.Is(err, shared.ErrEmptyHistory) {
			t.Errorf("want ErrEmptyHistory, got %v", err)
		}
	})

	t.Run("EmptyInput", func(t *testing.T) {
		_, err := Normalize(nil, from, to)
		if !errors.Is(err, shared.ErrEmptyHistory) {
			t.Errorf("want ErrEmptyHistory, got %v", err)
		}
	})
}

func TestGuessEnd(t *testing.T) {
	mustHistory := func(t *testing.T, offsets ...int) models.PlayHistory {
		t.Helper()
		history, err := Normalize(eventsAt(offsets...), base, base.Add(24*time.Hour))
		if err != nil {
			t.Fatalf("building history: %v", err)
		}
		return history
	}

	t.Run("FirstGapWins", func(t *testing.T) {
		history := mustHistory(t, 0, 10, 20, 90, 100)

		end, found := GuessEnd(history, 0, time.Hour)
		if !found {
			t.Error("expected a qualifying gap")
		}
		if end != 2 {
			t.Errorf("want end index 2, got %d", end)
		}
	})

	t.Run("GapEqualToThresholdContinues", func(t *testing.T) {
		history := mustHistory(t, 0, 60, 120)

		end, found := GuessEnd(history, 0, time.Hour)
		if found {
			t.Error("a gap equal to the threshold should not end the session")
		}
		if end != 2 {
			t.Errorf("want end index 2, got %d", end)
		}
	})

	t.Run("NoGapRunsToEnd", func(t *testing.T) {
		history := mustHistory(t, 0, 10, 20, 30)

		end, found := GuessEnd(history, 0, time.Hour)
		if found {
			t.Error("no gap expected")
		}
		if end != 3 {
			t.Errorf("want last index 3, got %d", end)
		}
	})

	t.Run("StartAtLastEvent", func(t *testing.T) {
		history := mustHistory(t, 0, 10, 200)

		end, found := GuessEnd(history, 2, time.Hour)
		if found {
			t.Error("no events after start, no gap to find")
		}
		if end != 2 {
			t.Errorf("want start index back, got %d", end)
		}
	})

	t.Run("SingleEvent", func(t *testing.T) {
		history := mustHistory(t, 0)

		end, found := GuessEnd(history, 0, time.Hour)
		if found || end != 0 {
			t.Errorf("want (0, false), got (%d, %v)", end, found)
		}
	})

	t.Run("EmptyHistory", func(t *testing.T) {
		end, found := GuessEnd(models.PlayHistory{}, 0, time.Hour)
		if found || end != 0 {
			t.Errorf("want (0, false), got (%d, %v)", end, found)
		}
	})

	t.Run("LaterStartSkipsEarlierGaps", func(t *testing.T) {
		history := mustHistory(t, 0, 120, 130, 140, 300)

		end, found := GuessEnd(history, 1, time.Hour)
		if !found {
			t.Error("expected the gap after index 3")
		}
		if end != 3 {
			t.Errorf("want end index 3, got %d", end)
		}
	})

	t.Run("ZeroThresholdUsesDefault", func(t *testing.T) {
		history := mustHistory(t, 0, 30, 120)

		end, found := GuessEnd(history, 0, 0)
		if !found || end != 1 {
			t.Errorf("want (1, true) under the default threshold, got (%d, %v)", end, found)
		}
	})
}

func TestChunk(t *testing.T) {
	ids := func(n int) []string {
		out := make([]string, n)
		for i := range out {
			out[i] = fmt.Sprintf("id-%03d", i)
		}
		return out
	}

	t.Run("SplitsAtCap", func(t *testing.T) {
		batches := Chunk(ids(160), 75)

		want := []int{75, 75, 10}
		if len(batches) != len(want) {
			t.Fatalf("want %d batches, got %d", len(want), len(batches))
		}
		for i, size := range want {
			if len(batches[i]) != size {
				t.Errorf("batch %d: want %d items, got %d", i, size, len(batches[i]))
			}
		}
	})

	t.Run("PreservesOrder", func(t *testing.T) {
		all := ids(160)
		var flat []string
		for _, batch := range Chunk(all, 75) {
			flat = append(flat, batch...)
		}

		for i := range all {
			if flat[i] != all[i] {
				t.Fatalf("order broken at %d: want %s, got %s", i, all[i], flat[i])
			}
		}
	})

	t.Run("SingleBatchWhenUnderCap", func(t *testing.T) {
		batches := Chunk(ids(75), 75)
		if len(batches) != 1 || len(batches[0]) != 75 {
			t.Errorf("want one full batch, got %d batches", len(batches))
		}
	})

	t.Run("Empty", func(t *testing.T) {
		if batches := Chunk(nil, 75); batches != nil {
			t.Errorf("want nil, got %v", batches)
		}
	})

	t.Run("DefaultSize", func(t *testing.T) {
		batches := Chunk(ids(100), 0)
		if len(batches) != 2 || len(batches[0]) != MaxBatchSize {
			t.Errorf("want default batch size %d, got %d batches", MaxBatchSize, len(batches))
		}
	})
}
