package main

import (
	"context"
	"fmt"

	"github.com/pawelad/music-snapshot/internal/shared"
	"github.com/urfave/cli/v3"
)

// SpotifySearch searches the catalog for a track.
func (r *Runner) SpotifySearch(ctx context.Context, cmd *cli.Command) error {
	query := cmd.StringArg("query")
	if query == "" {
		return fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}

	if r.catalog == nil {
		return fmt.Errorf("%w: Spotify service not initialized", shared.ErrMissingCredentials)
	}

	limit := cmd.Int("limit")
	r.logger.Infof("searching catalog for %q with limit %v", query, limit)

	tracks, err := r.catalog.SearchTrack(ctx, query, limit)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(tracks, cmd.Bool("pretty"))
	}

	if len(tracks) == 0 {
		r.writePlain("No tracks found for %q\n", query)
		return nil
	}

	r.writePlain("Found %d tracks:\n\n", len(tracks))
	for i, track := range tracks {
		r.writePlain("%d. %s - %s\n", i+1, track.Artist, track.Title)
		if track.Album != "" {
			r.writePlain("   Album: %s\n", track.Album)
		}
		r.writePlain("   URI: %s\n", track.URI)
	}

	return nil
}

// SpotifyProfile shows the authenticated user's profile.
func (r *Runner) SpotifyProfile(ctx context.Context, cmd *cli.Command) error {
	if r.spotify == nil {
		return fmt.Errorf("%w: Spotify service not initialized", shared.ErrMissingCredentials)
	}

	user, err := r.spotify.UserProfile(ctx)
	if err != nil {
		return err
	}

	r.writePlain("ID: %s\n", user.ID)
	if user.DisplayName != "" {
		r.writePlain("Name: %s\n", user.DisplayName)
	}
	if user.Email != "" {
		r.writePlain("Email: %s\n", user.Email)
	}
	if user.Country != "" {
		r.writePlain("Country: %s\n", user.Country)
	}
	if user.Product != "" {
		r.writePlain("Product: %s\n", user.Product)
	}
	r.writePlain("Followers: %d\n", user.Followers.Total)

	return nil
}
