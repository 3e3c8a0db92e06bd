// Package ui implements an interactive terminal interface using bubbletea's
// Elm architecture.
//
// The TUI provides a multi-view workflow for cutting a snapshot out of the
// listening history:
//  1. [LoadingView] : Fetch and normalize the play history window
//  2. [StartSelectView] : Pick the first song of the session
//  3. [EndSelectView] : Pick the last song, pre-selected at the inferred boundary
//  4. [ConfirmView] : Confirm playlist creation
//  5. [RunView] : Monitor real-time progress updates
//  6. [ResultView] : Display counts, the playlist URL, and unmatched plays
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View
// pattern, receiving messages via the Msg union type. Progress updates flow
// through a channel from the SnapshotEngine, providing non-blocking status
// reporting during a run.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q)
// with contextual help displayed via charmbracelet/bubbles/help.
package ui
