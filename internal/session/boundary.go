package session

import (
	"time"

	"github.com/pawelad/music-snapshot/internal/models"
)

// DefaultGapThreshold is the idle gap between consecutive plays that marks
// the end of a listening session when no explicit threshold is configured.
const DefaultGapThreshold = 60 * time.Minute

// GuessEnd scans the normalized history forward from start and returns the
// index of the last event belonging to the same listening session: the first
// pair of adjacent events whose gap strictly exceeds threshold ends the
// session at the earlier event. When no such gap exists the session runs to
// the end of the history.
//
// The second return value reports whether a qualifying gap was found, so
// callers can tell an inferred boundary from a history that simply ran out.
// A start index at the final event yields (start, false).
func GuessEnd(history models.PlayHistory, start int, threshold time.Duration) (int, bool) {
	if threshold <= 0 {
		threshold = DefaultGapThreshold
	}

	if history.Len() == 0 {
		return 0, false
	}

	last := history.Len() - 1
	for i := start; i < last; i++ {
		gap := history.Events[i+1].PlayedAt.Sub(history.Events[i].PlayedAt)
		if gap > threshold {
			return i, true
		}
	}

	return last, false
}
