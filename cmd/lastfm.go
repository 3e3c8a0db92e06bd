package main

import (
	"context"
	"fmt"

	"github.com/pawelad/music-snapshot/internal/formatter"
	"github.com/pawelad/music-snapshot/internal/session"
	"github.com/pawelad/music-snapshot/internal/shared"
	"github.com/urfave/cli/v3"
)

// LastFMRecent lists the normalized play history for a window.
func (r *Runner) LastFMRecent(ctx context.Context, cmd *cli.Command) error {
	if r.lastfm == nil {
		return fmt.Errorf("%w: Last.fm api_key and username must be set in config.toml", shared.ErrMissingCredentials)
	}

	from, to, err := r.parseWindow(cmd)
	if err != nil {
		return err
	}

	r.logger.Infof("fetching recent plays from %v to %v", from, to)

	events, err := r.lastfm.RecentTracks(ctx, from, to)
	if err != nil {
		return err
	}

	history, err := session.Normalize(events, from, to)
	if err != nil {
		return err
	}

	if path := cmd.String("csv"); path != "" {
		written, err := formatter.WriteHistoryCSV(history, path)
		if err != nil {
			return fmt.Errorf("failed to write CSV: %w", err)
		}
		r.writePlain("✓ History written to %s (%d plays)\n", written, history.Len())
		return nil
	}

	if cmd.Bool("json") {
		return r.writeJSON(history, cmd.Bool("pretty"))
	}

	r.writePlain("Found %d plays:\n\n", history.Len())
	for i, event := range history.Events {
		r.writePlain("%d. %s - %s\n", i, event.Artist, event.Title)
		if event.Album != "" {
			r.writePlain("   Album: %s\n", event.Album)
		}
		r.writePlain("   Played: %s\n", event.PlayedAt.Local().Format(shared.DateTimeFormat))
	}

	return nil
}
