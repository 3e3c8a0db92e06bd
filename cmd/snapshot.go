package main

import (
	"context"
	"fmt"
	"time"

	"github.com/pawelad/music-snapshot/internal/formatter"
	"github.com/pawelad/music-snapshot/internal/shared"
	"github.com/pawelad/music-snapshot/internal/tasks"
	"github.com/urfave/cli/v3"
)

// parseTimeFlag parses a --from/--to value in local time, accepting a date
// with or without a clock component.
func parseTimeFlag(value string) (time.Time, error) {
	for _, layout := range []string{shared.DateTimeFormat, shared.DateFormat} {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q (want %q or %q)", shared.ErrInvalidArgument, value, shared.DateFormat, shared.DateTimeFormat)
}

// parseWindow resolves the [from, to) history window from flags, falling back
// to a trailing window ending now.
func (r *Runner) parseWindow(cmd *cli.Command) (time.Time, time.Time, error) {
	var from, to time.Time
	var err error

	if value := cmd.String("to"); value != "" {
		if to, err = parseTimeFlag(value); err != nil {
			return from, to, err
		}
	} else {
		to = time.Now()
	}

	if value := cmd.String("from"); value != "" {
		if from, err = parseTimeFlag(value); err != nil {
			return from, to, err
		}
	} else {
		days := r.config.Snapshot.FetchWindowDays
		if days <= 0 {
			days = 1
		}
		from = to.Add(-time.Duration(days) * 24 * time.Hour)
	}

	if !from.Before(to) {
		return from, to, fmt.Errorf("%w: from %s is not before to %s", shared.ErrInvalidRange, from.Format(shared.DateTimeFormat), to.Format(shared.DateTimeFormat))
	}

	return from, to, nil
}

// gapThreshold resolves the session gap threshold from the flag or config.
func (r *Runner) gapThreshold(cmd *cli.Command) time.Duration {
	if minutes := cmd.Int("threshold"); minutes > 0 {
		return time.Duration(minutes) * time.Minute
	}
	return r.config.Snapshot.GapThreshold()
}

// SnapshotGuess fetches the history window and prints the inferred session
// bounds without touching the catalog.
func (r *Runner) SnapshotGuess(ctx context.Context, cmd *cli.Command) error {
	if r.engine == nil {
		return fmt.Errorf("%w: Last.fm and Spotify services are required", shared.ErrMissingCredentials)
	}

	from, to, err := r.parseWindow(cmd)
	if err != nil {
		return err
	}

	r.logger.Info("guessing session bounds", "from", from, "to", to)

	history, err := r.engine.Fetch(ctx, nil, from, to)
	if err != nil {
		return err
	}

	rng, err := r.engine.GuessRange(history, cmd.Int("start"), r.gapThreshold(cmd))
	if err != nil {
		return err
	}

	first := history.Events[rng.Start]
	last := history.Events[rng.End]

	r.writePlain("Found %d plays, session spans %d:\n\n", history.Len(), rng.Count())
	r.writePlain("  Start [%d]: %s - %s (%s)\n", rng.Start, first.Artist, first.Title, first.PlayedAt.Local().Format(shared.DateTimeFormat))
	r.writePlain("  End   [%d]: %s - %s (%s)\n", rng.End, last.Artist, last.Title, last.PlayedAt.Local().Format(shared.DateTimeFormat))

	return nil
}

// SnapshotCreate runs the full pipeline: fetch, infer bounds, resolve each
// play against the catalog and materialize the session as a playlist.
func (r *Runner) SnapshotCreate(ctx context.Context, cmd *cli.Command) error {
	if r.engine == nil {
		return fmt.Errorf("%w: Last.fm and Spotify services are required", shared.ErrMissingCredentials)
	}

	from, to, err := r.parseWindow(cmd)
	if err != nil {
		return err
	}

	r.logger.Info("creating snapshot", "from", from, "to", to)
	r.writePlain("Building snapshot from %s to %s...\n\n", from.Format(shared.DateTimeFormat), to.Format(shared.DateTimeFormat))

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.FetchHistory:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.ResolveTracks:
				if update.Step == 0 {
					r.writePlain("\n🔍 %s\n", update.Message)
				} else {
					r.writePlain("   %s\n", update.Message)
				}
			case tasks.CreatePlaylist, tasks.AddTracks:
				r.writePlain("\n📝 %s\n", update.Message)
			}
		}
	}()

	result, runErr := r.runSnapshot(ctx, cmd, progressCh, from, to)
	close(progressCh)
	<-done

	if result != nil && result.AddedCount > 0 && runErr != nil {
		r.writePlain("\n⚠ Run aborted after adding %d/%d tracks\n", result.AddedCount, result.ResolvedCount)
		if result.Playlist != nil {
			r.writePlain("  Playlist: %s\n", result.Playlist.URL)
		}
	}
	if runErr != nil {
		return runErr
	}

	r.writePlain("\n")
	r.writePlainHeader("Snapshot Complete!")
	r.writePlain("Playlist: %s (%s)\n", result.Playlist.Name, shared.VisibilityString(result.Playlist.Public))
	r.writePlain("Added: %d tracks\n", result.AddedCount)
	r.writePlain("Match rate: %d/%d (%.1f%%)\n", result.ResolvedCount, result.TotalTracks, result.MatchPercentage)
	if result.CacheHits > 0 {
		r.writePlain("Cache hits: %d\n", result.CacheHits)
	}
	if result.Playlist.URL != "" {
		r.writePlain("URL: %s\n", result.Playlist.URL)
	}

	if result.UnmatchedCount > 0 {
		r.writePlain("\nSkipped %d plays without a catalog match:\n", result.UnmatchedCount)
		for _, resolution := range result.Resolutions {
			if resolution.Matched == nil {
				r.writePlain("  - %s - %s\n", resolution.Event.Artist, resolution.Event.Title)
			}
		}
	}

	if base := cmd.String("export"); base != "" {
		files, err := formatter.WriteResultExport(result, base)
		if err != nil {
			return fmt.Errorf("failed to export run: %w", err)
		}
		for _, f := range files {
			r.writePlain("✓ Exported %s\n", f)
		}
	}

	return nil
}

// runSnapshot executes fetch, boundary inference and the snapshot run with
// the flags resolved against config defaults.
func (r *Runner) runSnapshot(ctx context.Context, cmd *cli.Command, progressCh chan tasks.ProgressUpdate, from, to time.Time) (*tasks.SnapshotRunResult, error) {
	history, err := r.engine.Fetch(ctx, progressCh, from, to)
	if err != nil {
		return nil, err
	}

	rng, err := r.engine.GuessRange(history, cmd.Int("start"), r.gapThreshold(cmd))
	if err != nil {
		return nil, err
	}

	return r.engine.Run(ctx, progressCh, history, rng, tasks.SnapshotOpts{
		Name:         cmd.String("name"),
		GapThreshold: r.gapThreshold(cmd),
	})
}
