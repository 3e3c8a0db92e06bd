// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/pawelad/music-snapshot/internal/models"
)

// MockHistorySource is a test double for [services.HistorySource]
type MockHistorySource struct {
	Events []models.PlayEvent
	Err    error
}

func (m *MockHistorySource) RecentTracks(ctx context.Context, from, to time.Time) ([]models.PlayEvent, error) {
	return m.Events, m.Err
}

func (m *MockHistorySource) Name() string { return "mock-history" }

// MockCatalog is a test double for [services.Catalog]
type MockCatalog struct {
	Tracks    []models.Track
	Playlist  *models.Playlist
	SearchErr error
	CreateErr error
	AddErr    error
	Added     [][]string
}

func (m *MockCatalog) SearchTrack(ctx context.Context, query string, limit int) ([]models.Track, error) {
	return m.Tracks, m.SearchErr
}

func (m *MockCatalog) CreatePlaylist(ctx context.Context, name, description string, public bool) (*models.Playlist, error) {
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	if m.Playlist != nil {
		return m.Playlist, nil
	}
	return &models.Playlist{ID: "mock-playlist", Name: name, Description: description, Public: public}, nil
}

func (m *MockCatalog) AddItems(ctx context.Context, playlistID string, uris []string) error {
	if m.AddErr != nil {
		return m.AddErr
	}
	m.Added = append(m.Added, uris)
	return nil
}

func (m *MockCatalog) Name() string { return "mock-catalog" }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
