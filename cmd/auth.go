package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/pawelad/music-snapshot/internal/server"
	"github.com/pawelad/music-snapshot/internal/services"
	"github.com/pawelad/music-snapshot/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// AuthLogin performs the OAuth2 authorization flow for Spotify.
//
// Starts a local HTTP server, opens the browser for user authorization, and
// persists the exchanged tokens to the config file so subsequent runs skip
// the browser dance.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	config := r.config
	if config == nil {
		var err error
		if _, statErr := os.Stat(configPath); statErr == nil {
			config, err = shared.LoadConfig(configPath)
			if err != nil {
				r.logger.Warnf("failed to load config, using defaults %v", err)
				config = shared.DefaultConfig()
			}
		} else {
			config = shared.DefaultConfig()
		}
	}

	if config.Credentials.Spotify.ClientID == "" || config.Credentials.Spotify.ClientSecret == "" {
		return fmt.Errorf("%w: Spotify client_id and client_secret must be set in config.toml", shared.ErrMissingCredentials)
	}

	spotifyService := r.spotify
	if spotifyService == nil {
		var err error
		spotifyService, err = services.NewSpotifyService(config.Credentials.Spotify.Map())
		if err != nil {
			return fmt.Errorf("failed to create Spotify service: %w", err)
		}
	}

	token, err := r.doOAuth(config, spotifyService, "authorization")
	if err != nil {
		return err
	}

	if err := config.Credentials.Spotify.Update(token); err != nil {
		return fmt.Errorf("failed to update spotify configuration: %w", err)
	}

	if err := shared.SaveConfig(configPath, config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	spotifyService.SetToken(ctx, token)

	r.writePlainln("✓ Authorization successful")
	r.writePlain("✓ Tokens saved to %s\n\n", configPath)
	r.writePlain("You can now use: music-snapshot snapshot create\n")

	return nil
}

// AuthStatus reports whether stored Spotify tokens exist and when they expire.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	token := r.config.Credentials.Spotify.Token()
	if token == nil {
		r.writePlain("✗ Not authorized. Run 'music-snapshot auth login' first.\n")
		return nil
	}

	r.writePlain("✓ Tokens stored\n")
	if token.RefreshToken != "" {
		r.writePlain("Refresh token: present\n")
	} else {
		r.writePlain("Refresh token: missing (reauthorization needed on expiry)\n")
	}
	if !token.Expiry.IsZero() {
		if token.Expiry.Before(time.Now()) {
			r.writePlain("Access token: expired %s\n", token.Expiry.Local().Format(shared.DateTimeFormat))
		} else {
			r.writePlain("Access token: valid until %s\n", token.Expiry.Local().Format(shared.DateTimeFormat))
		}
	}

	if r.spotify == nil {
		return nil
	}

	user, err := r.spotify.UserProfile(ctx)
	if err != nil {
		r.writePlain("Profile check: ✗ %v\n", err)
		return nil
	}
	r.writePlain("Profile check: ✓ authenticated as %s\n", user.ID)

	return nil
}

// doOAuth executes the OAuth2 authorization flow with a local HTTP server
func (r *Runner) doOAuth(config *shared.Config, spotifyService *services.SpotifyService, prefix string) (*oauth2.Token, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	authURL := spotifyService.GetAuthURL(state)
	oauthHandler := server.NewOAuthHandler(spotifyService.GetOAuthConfig(), state)
	router := server.NewBasicRouter()
	router.Use(server.Logging(r.logger))
	router.Handler(oauthHandler)

	serverAddr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	httpServer := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth server for %s at %v", prefix, serverAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	time.Sleep(100 * time.Millisecond)

	r.writePlain("→ Opening browser for Spotify %s...\n", prefix)
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(2 * time.Minute)
	defer timeout.Stop()

	var result server.OAuthResult

	select {
	case result = <-oauthHandler.Result():
		// Got result from callback
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return nil, fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrTimeout)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("error shutting down server", "error", err)
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("authorization failed: %w", result.Error())
	}

	if result.Token == nil {
		return nil, fmt.Errorf("no token received")
	}

	return result.Token, nil
}
