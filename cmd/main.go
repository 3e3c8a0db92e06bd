package main

import (
	"context"
	"os"

	"github.com/pawelad/music-snapshot/internal/repositories"
	"github.com/pawelad/music-snapshot/internal/services"
	"github.com/pawelad/music-snapshot/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

const configPath = "config.toml"

func main() {
	logger := shared.NewLogger(nil)

	var lastfmService services.HistorySource
	var spotifyService *services.SpotifyService

	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if loadedConfig, err := shared.LoadConfig(configPath); err == nil {
			config = loadedConfig
		}
	}

	if config.Credentials.LastFM.APIKey != "" && config.Credentials.LastFM.Username != "" {
		if svc, err := services.NewLastFMService(map[string]string{
			"api_key":  config.Credentials.LastFM.APIKey,
			"username": config.Credentials.LastFM.Username,
		}); err == nil {
			lastfmService = svc
		}
	}

	if config.Credentials.Spotify.ClientID != "" && config.Credentials.Spotify.ClientSecret != "" {
		if svc, err := services.NewSpotifyService(config.Credentials.Spotify.Map()); err == nil {
			spotifyService = svc
			if token := config.Credentials.Spotify.Token(); token != nil {
				svc.SetToken(context.Background(), token)
			}
			svc.OnTokenRefresh(func(token *oauth2.Token) {
				if err := config.Credentials.Spotify.Update(token); err != nil {
					logger.Warn("failed to update spotify tokens", "error", err)
					return
				}
				if err := shared.SaveConfig(configPath, config); err != nil {
					logger.Warn("failed to persist refreshed tokens", "error", err)
				}
			})
		}
	}

	var matchRepo *repositories.MatchRepository
	if _, err := os.Stat(config.Database.Path); err == nil {
		if db, err := shared.NewDatabase(config.Database.Path); err == nil {
			shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)
			matchRepo = repositories.NewMatchRepository(db)
		} else {
			logger.Warn("failed to open match cache", "error", err)
		}
	}

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		LastFM:     lastfmService,
		Spotify:    spotifyService,
		Matches:    matchRepo,
		Logger:     logger,
	})

	app := &cli.Command{
		Name:     "music-snapshot",
		Usage:    "Create Spotify playlists from Last.fm listening sessions",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize config and the match cache database",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}
