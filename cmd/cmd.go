// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// snapshotCommand handles snapshot construction
func snapshotCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "snapshot",
		Aliases: []string{"snap"},
		Usage:   "Build a playlist from a listening session",
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Materialize a listening session as a Spotify playlist",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "from",
						Usage: "Window start (2006-01-02 or \"2006-01-02 15:04\", local time)",
					},
					&cli.StringFlag{
						Name:  "to",
						Usage: "Window end, exclusive (defaults to now)",
					},
					&cli.IntFlag{
						Name:  "start",
						Usage: "Index of the first play of the session",
					},
					&cli.IntFlag{
						Name:  "threshold",
						Usage: "Gap in minutes that ends a session (0 uses config)",
					},
					&cli.StringFlag{
						Name:    "name",
						Aliases: []string{"n"},
						Usage:   "Playlist name (defaults to the session start date)",
					},
					&cli.StringFlag{
						Name:    "export",
						Aliases: []string{"o"},
						Usage:   "Base path for markdown/JSON export of the run",
					},
				},
				Action: r.SnapshotCreate,
			},
			{
				Name:  "guess",
				Usage: "Show the inferred session bounds without creating anything",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "from",
						Usage: "Window start (2006-01-02 or \"2006-01-02 15:04\", local time)",
					},
					&cli.StringFlag{
						Name:  "to",
						Usage: "Window end, exclusive (defaults to now)",
					},
					&cli.IntFlag{
						Name:  "start",
						Usage: "Index of the first play of the session",
					},
					&cli.IntFlag{
						Name:  "threshold",
						Usage: "Gap in minutes that ends a session (0 uses config)",
					},
				},
				Action: r.SnapshotGuess,
			},
		},
	}
}

// lastfmCommand handles Last.fm history operations
func lastfmCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "lastfm",
		Aliases: []string{"fm"},
		Usage:   "Last.fm play history operations",
		Commands: []*cli.Command{
			{
				Name:  "recent",
				Usage: "List recent plays in a window",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "from",
						Usage: "Window start (2006-01-02 or \"2006-01-02 15:04\", local time)",
					},
					&cli.StringFlag{
						Name:  "to",
						Usage: "Window end, exclusive (defaults to now)",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
					&cli.StringFlag{
						Name:    "csv",
						Aliases: []string{"o"},
						Usage:   "Write the history to a CSV file",
					},
				},
				Action: r.LastFMRecent,
			},
		},
	}
}

// spotifyCommand handles Spotify catalog operations
func spotifyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "spotify",
		Aliases: []string{"spot"},
		Usage:   "Spotify catalog operations",
		Commands: []*cli.Command{
			{
				Name:  "search",
				Usage: "Search the catalog for a track",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "query",
					},
				},
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of results",
						Value: 5,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.SpotifySearch,
			},
			{
				Name:   "profile",
				Usage:  "Show the authenticated user's profile",
				Action: r.SpotifyProfile,
			},
		},
	}
}

// authCommand handles Spotify OAuth2 authorization
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage Spotify authorization",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Authorize with Spotify using OAuth2",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Check current authorization state",
				Action: r.AuthStatus,
			},
		},
	}
}

// cacheCommand handles the local track match cache
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect and manage the track match cache",
		Commands: []*cli.Command{
			{
				Name:   "stats",
				Usage:  "Show cached match counts",
				Action: r.CacheStats,
			},
			{
				Name:   "clear",
				Usage:  "Delete all cached matches",
				Action: r.CacheClear,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive session selection.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Pick the session bounds interactively",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "from",
				Usage: "Window start (2006-01-02 or \"2006-01-02 15:04\", local time)",
			},
			&cli.StringFlag{
				Name:  "to",
				Usage: "Window end, exclusive (defaults to now)",
			},
			&cli.StringFlag{
				Name:    "name",
				Aliases: []string{"n"},
				Usage:   "Playlist name (defaults to the session start date)",
			},
		},
		Action: r.TUI,
	}
}
