// package formatter provides functions to export play histories and
// snapshot results to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/pawelad/music-snapshot/internal/models"
	"github.com/pawelad/music-snapshot/internal/shared"
	"github.com/pawelad/music-snapshot/internal/tasks"
)

// HistoryToCSV converts a play history to CSV format with columns: Index, PlayedAt, Artist, Title, Album
func HistoryToCSV(history models.PlayHistory) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Index", "PlayedAt", "Artist", "Title", "Album"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, event := range history.Events {
		record := []string{
			strconv.Itoa(i),
			event.PlayedAt.Local().Format(shared.DateTimeFormat),
			event.Artist,
			event.Title,
			event.Album,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ResultToMarkdown converts a snapshot run result to Markdown format
func ResultToMarkdown(result *tasks.SnapshotRunResult) ([]byte, error) {
	var buf bytes.Buffer

	name := "Snapshot"
	if result.Playlist != nil {
		name = result.Playlist.Name
	}
	buf.WriteString(fmt.Sprintf("# %s\n\n", name))

	if result.Playlist != nil {
		if result.Playlist.Description != "" {
			buf.WriteString(fmt.Sprintf("**Description**: %s\n\n", result.Playlist.Description))
		}
		buf.WriteString(fmt.Sprintf("**Visibility**: %s\n", shared.VisibilityString(result.Playlist.Public)))
		if result.Playlist.URL != "" {
			buf.WriteString(fmt.Sprintf("**URL**: %s\n", result.Playlist.URL))
		}
	}

	buf.WriteString(fmt.Sprintf("**Plays**: %d\n", result.TotalTracks))
	buf.WriteString(fmt.Sprintf("**Resolved**: %d (%.1f%%)\n", result.ResolvedCount, result.MatchPercentage))
	buf.WriteString(fmt.Sprintf("**Added**: %d\n\n", result.AddedCount))

	buf.WriteString("## Tracks\n\n")
	for i, resolution := range result.Resolutions {
		marker := "✓"
		if resolution.Matched == nil {
			marker = "✗"
		}
		buf.WriteString(fmt.Sprintf("%d. %s %s - %s\n", i+1, marker, resolution.Event.Artist, resolution.Event.Title))
	}

	return buf.Bytes(), nil
}

// ResultToText converts a snapshot run result to plain text format
func ResultToText(result *tasks.SnapshotRunResult) ([]byte, error) {
	var buf bytes.Buffer

	if result.Playlist != nil {
		buf.WriteString(fmt.Sprintf("Playlist: %s\n", result.Playlist.Name))
		if result.Playlist.URL != "" {
			buf.WriteString(fmt.Sprintf("URL: %s\n", result.Playlist.URL))
		}
	}
	buf.WriteString(fmt.Sprintf("Plays: %d\n", result.TotalTracks))
	buf.WriteString(fmt.Sprintf("Resolved: %d\n", result.ResolvedCount))
	buf.WriteString(fmt.Sprintf("Added: %d\n\n", result.AddedCount))

	for i, resolution := range result.Resolutions {
		if resolution.Matched == nil {
			buf.WriteString(fmt.Sprintf("%d. %s - %s (no match)\n", i+1, resolution.Event.Artist, resolution.Event.Title))
			continue
		}
		buf.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, resolution.Event.Artist, resolution.Event.Title))
	}

	return buf.Bytes(), nil
}

// ToMetadataJSON generates a JSON representation of playlist metadata (without tracks)
func ToMetadataJSON(playlist models.Playlist) ([]byte, error) {
	return shared.MarshalJSON(playlist, true)
}

// WriteHistoryCSV exports a play history to a CSV file.
//
// Defaults to history_{from date}.csv as the filename.
func WriteHistoryCSV(history models.PlayHistory, filepath string) (string, error) {
	if filepath == "" {
		filepath = fmt.Sprintf("history_%s.csv", history.From.Local().Format(shared.DateFormat))
	}

	csvData, err := HistoryToCSV(history)
	if err != nil {
		return "", fmt.Errorf("failed to generate CSV: %w", err)
	}

	if err := os.WriteFile(filepath, csvData, 0644); err != nil {
		return "", fmt.Errorf("failed to write CSV file: %w", err)
	}

	return filepath, nil
}

// WriteResultExport exports a snapshot run result to Markdown with an
// accompanying metadata JSON file.
//
// Defaults to the playlist ID as the base filename & creates {base}.md and
// {base}_metadata.json
func WriteResultExport(result *tasks.SnapshotRunResult, baseFilepath string) ([]string, error) {
	if baseFilepath == "" {
		if result.Playlist == nil {
			return nil, fmt.Errorf("%w: no playlist to derive a filename from", shared.ErrInvalidInput)
		}
		baseFilepath = result.Playlist.ID
	}

	mdData, err := ResultToMarkdown(result)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := baseFilepath + ".md"
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}

	files := []string{mdFile}

	if result.Playlist != nil {
		metadataJSON, err := ToMetadataJSON(*result.Playlist)
		if err != nil {
			return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
		}

		metadataFile := baseFilepath + "_metadata.json"
		if err := os.WriteFile(metadataFile, metadataJSON, 0644); err != nil {
			return nil, fmt.Errorf("failed to write metadata file: %w", err)
		}
		files = append(files, metadataFile)
	}

	return files, nil
}
