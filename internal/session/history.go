// package session implements listening-session reconstruction over a
// scrobble history: normalization of raw play events and inference of a
// plausible end-of-session boundary.
package session

import (
	"fmt"
	"sort"
	"time"

	"github.com/pawelad/music-snapshot/internal/models"
	"github.com/pawelad/music-snapshot/internal/shared"
)

// Normalize turns a raw, arbitrarily-ordered batch of play events into a
// [models.PlayHistory]: events outside the half-open [from, to) window are
// dropped, duplicate SourceIDs are removed (first occurrence wins), and the
// result is sorted ascending by PlayedAt with a stable sort so exact
// timestamp ties keep their original fetch order.
//
// The remote service's own window filtering is advisory, not authoritative,
// so the bounds are re-applied here.
//
// Returns [shared.ErrEmptyHistory] when nothing survives filtering; callers
// must treat that as a hard stop.
func Normalize(raw []models.PlayEvent, from, to time.Time) (models.PlayHistory, error) {
	history := models.PlayHistory{From: from, To: to}

	seen := make(map[string]struct{}, len(raw))
	events := make([]models.PlayEvent, 0, len(raw))

	for _, event := range raw {
		if event.PlayedAt.Before(from) || !event.PlayedAt.Before(to) {
			continue
		}
		if _, ok := seen[event.SourceID]; ok {
			continue
		}
		seen[event.SourceID] = struct{}{}
		events = append(events, event)
	}

	if len(events) == 0 {
		return history, fmt.Errorf("%w: [%s, %s)", shared.ErrEmptyHistory,
			from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339))
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].PlayedAt.Before(events[j].PlayedAt)
	})

	history.Events = events
	return history, nil
}
