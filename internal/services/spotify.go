// Spotify API implementation of [Catalog]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/pawelad/music-snapshot/internal/models"
	"github.com/pawelad/music-snapshot/internal/session"
	"github.com/pawelad/music-snapshot/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"
)

type followers struct {
	Total int `json:"total"`
}

type externalURLs struct {
	Spotify string `json:"spotify"`
}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	Country     string    `json:"country"`
	Product     string    `json:"product"` // premium, free, etc.
	Followers   followers `json:"followers"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ReleaseDate string `json:"release_date"`
	URI         string `json:"uri"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Artists      []SpotifyArtist `json:"artists"`
	Album        SpotifyAlbum    `json:"album"`
	DurationMS   int             `json:"duration_ms"`
	Explicit     bool            `json:"explicit"`
	Popularity   int             `json:"popularity"`
	URI          string          `json:"uri"`
	ExternalURLs externalURLs    `json:"external_urls"`
}

type searchTracks struct {
	Items []SpotifyTrack `json:"items"`
	Total int            `json:"total"`
}

// SpotifySearchResponse represents a track search result page.
type SpotifySearchResponse struct {
	Tracks searchTracks `json:"tracks"`
}

type playlistTracks struct {
	Total int `json:"total"`
}

// SpotifyPlaylist represents a Spotify playlist.
type SpotifyPlaylist struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	Public       bool           `json:"public"`
	Tracks       playlistTracks `json:"tracks"`
	URI          string         `json:"uri"`
	ExternalURLs externalURLs   `json:"external_urls"`
}

// SpotifyService implements the Catalog interface for Spotify API
// interactions. Uses [oauth2] for authentication with automatic token
// refresh, and reports refreshed tokens through an optional callback so the
// caller can persist them.
type SpotifyService struct {
	config     *oauth2.Config
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter

	mu        sync.Mutex
	token     *oauth2.Token
	source    oauth2.TokenSource
	onRefresh func(*oauth2.Token)

	userID string
}

// NewSpotifyService creates a new Spotify service with the given OAuth2
// credentials.
func NewSpotifyService(credentials map[string]string) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = "http://localhost:6600/callback"
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes: []string{
			"user-read-private",
			"playlist-modify-public",
			"playlist-modify-private",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &SpotifyService{
		config:     config,
		httpClient: &http.Client{Timeout: requestTimeout},
		baseURL:    spotifyBaseURL,
		limiter:    rate.NewLimiter(rate.Limit(10), 1),
	}, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// SetBaseURL overrides the API endpoint, for tests.
func (s *SpotifyService) SetBaseURL(u string) {
	s.baseURL = u
}

// GetOAuthConfig returns the underlying [oauth2.Config], used by the
// callback server to exchange the authorization code.
func (s *SpotifyService) GetOAuthConfig() *oauth2.Config {
	return s.config
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// OnTokenRefresh registers a callback invoked whenever the underlying token
// source mints a new access token. Typically used to write the token back
// to the config file.
func (s *SpotifyService) OnTokenRefresh(fn func(*oauth2.Token)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onRefresh = fn
}

// Authenticate installs a token on the service. Accepts either an
// "auth_code" fresh from the authorization redirect, or a previously
// persisted token via "access_token"/"refresh_token"/"expiry".
func (s *SpotifyService) Authenticate(ctx context.Context, credentials map[string]string) error {
	if authCode, ok := credentials["auth_code"]; ok && authCode != "" {
		token, err := s.config.Exchange(ctx, authCode)
		if err != nil {
			return fmt.Errorf("%w: failed to exchange auth code: %v", shared.ErrAuthFailed, err)
		}
		s.setToken(ctx, token)
		return nil
	}

	accessToken := credentials["access_token"]
	refreshToken := credentials["refresh_token"]
	if accessToken == "" && refreshToken == "" {
		return fmt.Errorf("%w: missing access_token or auth_code", shared.ErrMissingCredentials)
	}

	token := &oauth2.Token{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
	}
	if raw, ok := credentials["expiry"]; ok && raw != "" {
		if expiry, err := time.Parse(time.RFC3339, raw); err == nil {
			token.Expiry = expiry
		}
	}

	s.setToken(ctx, token)
	return nil
}

// SetToken installs an already minted token, used after the OAuth callback
// handler has done the code exchange itself.
func (s *SpotifyService) SetToken(ctx context.Context, token *oauth2.Token) {
	s.setToken(ctx, token)
}

func (s *SpotifyService) setToken(ctx context.Context, token *oauth2.Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.source = s.config.TokenSource(ctx, token)
}

// currentToken returns a valid access token, refreshing through the oauth2
// token source when the cached one expired.
func (s *SpotifyService) currentToken() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.source == nil {
		return nil, fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}

	token, err := s.source.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrTokenExpired, err)
	}

	if s.token == nil || token.AccessToken != s.token.AccessToken {
		s.token = token
		if s.onRefresh != nil {
			s.onRefresh(token)
		}
	}

	return token, nil
}

// doRequest performs an authenticated, rate-limited HTTP request to the
// Spotify API.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, body interface{}, result interface{}) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	token, err := s.currentToken()
	if err != nil {
		return err
	}

	apiURL := s.baseURL + endpoint

	var reqBody *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: spotify rejected the access token", shared.ErrTokenExpired)
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: spotify API error: status %d", shared.ErrRemoteUnavailable, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("spotify API error: status %d", resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// UserProfile retrieves the current authenticated user's profile. The user
// ID is cached for playlist creation.
func (s *SpotifyService) UserProfile(ctx context.Context) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, "GET", "/me", nil, &user); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.userID = user.ID
	s.mu.Unlock()

	return &user, nil
}

// Catalog interface implementation

// SearchTrack runs a track search and maps the hits to [models.Track],
// keeping the API's ranking order.
func (s *SpotifyService) SearchTrack(ctx context.Context, query string, limit int) ([]models.Track, error) {
	if limit <= 0 {
		limit = 1
	}
	if limit > 50 {
		limit = 50
	}

	endpoint := "/search?q=" + url.QueryEscape(query) +
		"&type=track&limit=" + strconv.Itoa(limit)

	var response SpotifySearchResponse
	if err := s.doRequest(ctx, "GET", endpoint, nil, &response); err != nil {
		return nil, err
	}

	tracks := make([]models.Track, 0, len(response.Tracks.Items))
	for _, item := range response.Tracks.Items {
		track := models.Track{
			ID:    item.ID,
			Title: item.Name,
			Album: item.Album.Name,
			URI:   item.URI,
			URL:   item.ExternalURLs.Spotify,
		}
		if len(item.Artists) > 0 {
			track.Artist = item.Artists[0].Name
		}
		tracks = append(tracks, track)
	}

	return tracks, nil
}

// CreatePlaylist creates an empty playlist for the authenticated user.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, name, description string, public bool) (*models.Playlist, error) {
	userID, err := s.currentUserID(ctx)
	if err != nil {
		return nil, err
	}

	body := map[string]interface{}{
		"name":        name,
		"description": description,
		"public":      public,
	}

	var created SpotifyPlaylist
	endpoint := fmt.Sprintf("/users/%s/playlists", url.PathEscape(userID))
	if err := s.doRequest(ctx, "POST", endpoint, body, &created); err != nil {
		return nil, err
	}

	return &models.Playlist{
		ID:          created.ID,
		Name:        created.Name,
		Description: created.Description,
		TrackCount:  created.Tracks.Total,
		Public:      created.Public,
		URL:         created.ExternalURLs.Spotify,
	}, nil
}

// AddItems appends up to one batch of track URIs to a playlist. Larger sets
// must be chunked by the caller; the guard keeps a miscounted batch from
// being silently truncated by the API.
func (s *SpotifyService) AddItems(ctx context.Context, playlistID string, uris []string) error {
	if len(uris) == 0 {
		return fmt.Errorf("%w: no track URIs provided", shared.ErrInvalidInput)
	}
	if len(uris) > session.MaxBatchSize {
		return fmt.Errorf("%w: at most %d items per request", shared.ErrInvalidInput, session.MaxBatchSize)
	}

	body := map[string]interface{}{"uris": uris}
	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))

	return s.doRequest(ctx, "POST", endpoint, body, nil)
}

// currentUserID returns the cached profile ID, fetching the profile once if
// needed.
func (s *SpotifyService) currentUserID(ctx context.Context) (string, error) {
	s.mu.Lock()
	cached := s.userID
	s.mu.Unlock()

	if cached != "" {
		return cached, nil
	}

	user, err := s.UserProfile(ctx)
	if err != nil {
		return "", err
	}
	return user.ID, nil
}
