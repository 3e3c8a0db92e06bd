package shared

import (
	"errors"
	"fmt"
)

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenExpired     = fmt.Errorf("access token expired")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// History and session errors
	ErrEmptyHistory = fmt.Errorf("no play events in the requested window")
	ErrInvalidRange = fmt.Errorf("invalid session range")

	// Catalog and service errors
	ErrRemoteUnavailable = fmt.Errorf("remote service unavailable")
	ErrTrackNotFound     = fmt.Errorf("track not found")
	ErrPlaylistNotFound  = fmt.Errorf("playlist not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

// IsRecoverable reports whether an error is a per-item failure the snapshot
// pipeline can skip over. Everything else aborts the run.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrTrackNotFound)
}
