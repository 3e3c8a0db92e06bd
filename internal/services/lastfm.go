// Last.fm API implementation of [HistorySource]
//
// Response types based on https://www.last.fm/api/show/user.getRecentTracks
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pawelad/music-snapshot/internal/models"
	"github.com/pawelad/music-snapshot/internal/shared"
	"golang.org/x/time/rate"
)

const (
	lastfmBaseURL = "https://ws.audioscrobbler.com/2.0/"

	// lastfmPageLimit is the per-page track count, the API maximum is 200.
	lastfmPageLimit = 200

	lastfmMaxRetries = 3
	lastfmMaxBackoff = 30 * time.Second

	// requestTimeout bounds every outbound HTTP request so a stalled
	// remote surfaces as ErrRemoteUnavailable instead of hanging.
	requestTimeout = 30 * time.Second
)

// Last.fm error codes that signal a transient outage.
const (
	lastfmErrServiceOffline   = 11
	lastfmErrTempUnavailable  = 16
	lastfmErrRateLimitReached = 29
)

// lastfmText covers the "#text" wrapper Last.fm uses for nested values.
type lastfmText struct {
	Text string `json:"#text"`
}

type lastfmDate struct {
	UTS  string `json:"uts"`
	Text string `json:"#text"`
}

type lastfmTrackAttr struct {
	NowPlaying string `json:"nowplaying"`
}

// lastfmTrack represents one entry in a recent tracks page.
type lastfmTrack struct {
	Name   string           `json:"name"`
	URL    string           `json:"url"`
	Artist lastfmText       `json:"artist"`
	Album  lastfmText       `json:"album"`
	Date   *lastfmDate      `json:"date"`
	Attr   *lastfmTrackAttr `json:"@attr"`
}

type lastfmPageAttr struct {
	Page       string `json:"page"`
	TotalPages string `json:"totalPages"`
	Total      string `json:"total"`
}

type lastfmRecentTracks struct {
	Tracks []lastfmTrack  `json:"track"`
	Attr   lastfmPageAttr `json:"@attr"`
}

type lastfmRecentTracksResponse struct {
	RecentTracks lastfmRecentTracks `json:"recenttracks"`
}

// lastfmError is the API-level failure envelope. Last.fm returns it with
// both 2xx and non-2xx statuses.
type lastfmError struct {
	Code    int    `json:"error"`
	Message string `json:"message"`
}

func (e *lastfmError) Error() string {
	return fmt.Sprintf("lastfm error %d: %s", e.Code, e.Message)
}

// temporary reports whether the error code is worth retrying.
func (e *lastfmError) temporary() bool {
	switch e.Code {
	case lastfmErrServiceOffline, lastfmErrTempUnavailable, lastfmErrRateLimitReached:
		return true
	default:
		return false
	}
}

// LastFMService implements the HistorySource interface over the Last.fm
// JSON API. Read-only endpoints need only the API key, no session.
type LastFMService struct {
	apiKey     string
	username   string
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	backoff    time.Duration
}

// NewLastFMService creates a Last.fm client for the given user. Requests
// are throttled to stay inside the documented fair-use limit.
func NewLastFMService(credentials map[string]string) (*LastFMService, error) {
	apiKey, ok := credentials["api_key"]
	if !ok || apiKey == "" {
		return nil, fmt.Errorf("%w: missing api_key", shared.ErrMissingCredentials)
	}

	username, ok := credentials["username"]
	if !ok || username == "" {
		return nil, fmt.Errorf("%w: missing username", shared.ErrMissingCredentials)
	}

	return &LastFMService{
		apiKey:     apiKey,
		username:   username,
		httpClient: &http.Client{Timeout: requestTimeout},
		baseURL:    lastfmBaseURL,
		limiter:    rate.NewLimiter(rate.Limit(5), 1),
		backoff:    1 * time.Second,
	}, nil
}

func (s *LastFMService) Name() string {
	return "Last.fm"
}

// SetBaseURL overrides the API endpoint, for tests.
func (s *LastFMService) SetBaseURL(u string) {
	s.baseURL = u
}

// RecentTracks retrieves every play event between from and to, walking the
// paginated response until the last page. The currently-playing entry has no
// timestamp and is skipped.
func (s *LastFMService) RecentTracks(ctx context.Context, from, to time.Time) ([]models.PlayEvent, error) {
	var events []models.PlayEvent

	page := 1
	for {
		response, err := s.recentTracksPage(ctx, from, to, page)
		if err != nil {
			return nil, err
		}

		for _, track := range response.RecentTracks.Tracks {
			if track.Attr != nil && track.Attr.NowPlaying == "true" {
				continue
			}
			if track.Date == nil {
				continue
			}

			uts, err := strconv.ParseInt(track.Date.UTS, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("failed to parse play timestamp %q: %w", track.Date.UTS, err)
			}

			events = append(events, models.PlayEvent{
				PlayedAt: time.Unix(uts, 0).UTC(),
				Artist:   track.Artist.Text,
				Title:    track.Name,
				Album:    track.Album.Text,
				SourceID: fmt.Sprintf("%s#%d", track.URL, uts),
			})
		}

		totalPages, err := strconv.Atoi(response.RecentTracks.Attr.TotalPages)
		if err != nil || page >= totalPages {
			return events, nil
		}
		page++
	}
}

// recentTracksPage fetches a single page of user.getrecenttracks. Both
// window bounds are always sent; leaving "to" open makes Last.fm fall back
// to "now" and return plays the caller never asked for.
func (s *LastFMService) recentTracksPage(ctx context.Context, from, to time.Time, page int) (*lastfmRecentTracksResponse, error) {
	params := url.Values{}
	params.Set("method", "user.getrecenttracks")
	params.Set("user", s.username)
	params.Set("api_key", s.apiKey)
	params.Set("format", "json")
	params.Set("from", strconv.FormatInt(from.Unix(), 10))
	params.Set("to", strconv.FormatInt(to.Unix(), 10))
	params.Set("limit", strconv.Itoa(lastfmPageLimit))
	params.Set("page", strconv.Itoa(page))

	var response lastfmRecentTracksResponse
	if err := s.doRequest(ctx, params, &response); err != nil {
		return nil, err
	}

	return &response, nil
}

// doRequest performs a GET against the Last.fm API with rate limiting and
// bounded retry on transient failures.
func (s *LastFMService) doRequest(ctx context.Context, params url.Values, result interface{}) error {
	apiURL := s.baseURL + "?" + params.Encode()

	var lastErr error
	backoff := s.backoff

	for attempt := 0; attempt < lastfmMaxRetries; attempt++ {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, "GET", apiURL, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("User-Agent", "music-snapshot/1.0")

		resp, err := s.httpClient.Do(req)
		if err != nil {
			lastErr = err
			if !sleepBackoff(ctx, &backoff) {
				return ctx.Err()
			}
			continue
		}

		err = decodeLastfmResponse(resp, result)
		resp.Body.Close()
		if err == nil {
			return nil
		}

		lastErr = err
		var apiErr *lastfmError
		retryable := resp.StatusCode >= 500
		if !retryable && errors.As(err, &apiErr) {
			retryable = apiErr.temporary()
		}
		if !retryable {
			return fmt.Errorf("%w: %v", shared.ErrRemoteUnavailable, err)
		}
		if !sleepBackoff(ctx, &backoff) {
			return ctx.Err()
		}
	}

	return fmt.Errorf("%w: max retries exceeded: %v", shared.ErrRemoteUnavailable, lastErr)
}

// decodeLastfmResponse unpacks either the requested payload or the API
// error envelope, which Last.fm can send with any status code.
func decodeLastfmResponse(resp *http.Response, result interface{}) error {
	if resp.StatusCode >= 500 {
		return fmt.Errorf("server error: %s", resp.Status)
	}

	raw := json.RawMessage{}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var apiErr lastfmError
	if err := json.Unmarshal(raw, &apiErr); err == nil && apiErr.Code != 0 {
		return &apiErr
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if err := json.Unmarshal(raw, result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// sleepBackoff waits out the current backoff and doubles it, capped at
// [lastfmMaxBackoff]. Returns false if the context ended first.
func sleepBackoff(ctx context.Context, backoff *time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(*backoff):
	}

	next := *backoff * 2
	if next > lastfmMaxBackoff {
		next = lastfmMaxBackoff
	}
	*backoff = next
	return true
}
