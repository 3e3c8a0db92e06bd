// Package services implements the [HistorySource] and [Catalog] interfaces
// for Last.fm and Spotify.
//
// # Last.fm Implementation
//
// [LastFMService] talks to the Last.fm 2.0 JSON API with an API key. Only
// read access is needed, so there is no session handshake. Requests are rate
// limited and temporary failures (HTTP 5xx, Last.fm error codes 11 and 16)
// are retried with exponential backoff before surfacing as
// [shared.ErrRemoteUnavailable].
//
// # Spotify Implementation
//
// [SpotifyService] uses OAuth2 for authentication with automatic token
// refresh. The [oauth2.Client] refreshes expired tokens using the refresh
// token, and a callback fires on every refresh so the caller can persist the
// new token.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrNotAuthenticated] : Authenticate() not called
//   - [shared.ErrTokenExpired] : OAuth token rejected, reauthorization needed
//   - [shared.ErrRemoteUnavailable] : remote API unreachable or failing
//   - [shared.ErrTrackNotFound] : catalog search came back empty
//
// # API Mappings
//
// Both services convert provider JSON to the shared model types at the
// client boundary: Last.fm recent tracks become [models.PlayEvent] (the
// now-playing pseudo-entry is dropped, and SourceID is formed from the track
// URL and the play timestamp), and Spotify search hits become
// [models.Track].
package services
