package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pawelad/music-snapshot/internal/shared"
	"github.com/pawelad/music-snapshot/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI for session selection.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if r.engine == nil {
		return fmt.Errorf("%w: Last.fm and Spotify services are required", shared.ErrMissingCredentials)
	}

	from, to, err := r.parseWindow(cmd)
	if err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/music-snapshot-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	model := ui.NewModel(ctx, r.engine, from, to, r.config.Snapshot.GapThreshold(), cmd.String("name"))
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
