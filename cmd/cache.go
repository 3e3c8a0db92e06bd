package main

import (
	"context"
	"fmt"
	"time"

	"github.com/pawelad/music-snapshot/internal/shared"
	"github.com/urfave/cli/v3"
)

// CacheStats shows how many track matches are cached locally.
func (r *Runner) CacheStats(ctx context.Context, cmd *cli.Command) error {
	if r.matches == nil {
		return fmt.Errorf("%w: match cache not initialized, run 'music-snapshot setup' first", shared.ErrMissingConfig)
	}

	stats, err := r.matches.Stats()
	if err != nil {
		return err
	}

	r.writePlain("Cached matches: %d\n", stats.Matches)
	r.writePlain("Distinct artists: %d\n", stats.Artists)
	if stats.OldestAge > 0 {
		r.writePlain("Oldest match: %s ago\n", stats.OldestAge.Round(time.Second))
	}

	return nil
}

// CacheClear deletes all cached track matches.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	if r.matches == nil {
		return fmt.Errorf("%w: match cache not initialized, run 'music-snapshot setup' first", shared.ErrMissingConfig)
	}

	removed, err := r.matches.Clear()
	if err != nil {
		return err
	}

	r.logger.Infof("cleared %d cached matches", removed)
	r.writePlain("✓ Removed %d cached matches\n", removed)

	return nil
}
