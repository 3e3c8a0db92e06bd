package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pawelad/music-snapshot/internal/models"
	"github.com/pawelad/music-snapshot/internal/shared"
	"github.com/pawelad/music-snapshot/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LoadingView ViewState = iota
	StartSelectView
	EndSelectView
	ConfirmView
	RunView
	ResultView
)

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	engine       *tasks.SnapshotEngine
	from         time.Time
	to           time.Time
	threshold    time.Duration
	name         string
	width        int
	height       int
	history      models.PlayHistory
	startList    list.Model
	endList      list.Model
	rng          models.SessionRange
	guessed      bool
	progressChan chan tasks.ProgressUpdate
	progress     tasks.ProgressUpdate
	result       *tasks.SnapshotRunResult
	err          error
	help         help.Model
	keys         keyMap
}

type historyFetchedMsg struct {
	history models.PlayHistory
	err     error
}

type progressUpdateMsg tasks.ProgressUpdate

type snapshotCompleteMsg struct {
	result *tasks.SnapshotRunResult
	err    error
}

// NewModel creates a new TUI model with the provided dependencies. The
// history window and gap threshold are fixed for the lifetime of the model,
// the session bounds are picked interactively.
func NewModel(ctx context.Context, engine *tasks.SnapshotEngine, from, to time.Time, threshold time.Duration, name string) *Model {
	return &Model{
		ctx:       ctx,
		view:      LoadingView,
		engine:    engine,
		from:      from,
		to:        to,
		threshold: threshold,
		name:      name,
		help:      help.New(),
		keys:      newKeyMap(),
	}
}

// Init initializes the TUI by fetching the play history.
func (m *Model) Init() tea.Cmd {
	return m.fetchHistory()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.startList.Width() == 0 {
			m.startList.SetSize(msg.Width-4, msg.Height-8)
		}
		if m.endList.Width() == 0 {
			m.endList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case StartSelectView:
			return m.handleStartKeys(msg)
		case EndSelectView:
			return m.handleEndKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		case LoadingView, RunView:
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
		}

	case historyFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.history = msg.history
		m.startList = list.New(eventItems(m.history.Events, 0), list.NewDefaultDelegate(), 0, 0)
		m.startList.Title = "Select first song"
		m.startList.SetSize(m.width-4, m.height-8)
		m.view = StartSelectView
		return m, nil

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case snapshotCompleteMsg:
		m.result = msg.result
		m.err = msg.err
		m.view = ResultView
		m.progressChan = nil
		return m, nil
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case LoadingView:
		return styles.title.Render("Fetching play history...")
	case StartSelectView:
		return m.renderStartList()
	case EndSelectView:
		return m.renderEndList()
	case ConfirmView:
		return m.renderConfirm()
	case RunView:
		return m.renderRun()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleStartKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "enter":
		selected := m.startList.SelectedItem()
		if selected != nil {
			if item, ok := selected.(eventItem); ok {
				m.selectStart(item.index)
				return m, nil
			}
		}
	}

	var cmd tea.Cmd
	m.startList, cmd = m.startList.Update(msg)
	return m, cmd
}

// selectStart fixes the session start and builds the end-selection list,
// pre-selecting the inferred boundary.
func (m *Model) selectStart(start int) {
	m.rng.Start = start

	guess, err := m.engine.GuessRange(m.history, start, m.threshold)
	if err != nil {
		m.err = err
		return
	}
	m.rng = guess
	m.guessed = true

	candidates := m.history.Events[start:]
	m.endList = list.New(eventItems(candidates, start), list.NewDefaultDelegate(), 0, 0)
	m.endList.Title = "Select last song"
	m.endList.SetSize(m.width-4, m.height-8)
	m.endList.Select(guess.End - start)
	m.view = EndSelectView
}

func (m *Model) handleEndKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = StartSelectView
		return m, nil
	case "enter":
		selected := m.endList.SelectedItem()
		if selected != nil {
			if item, ok := selected.(eventItem); ok {
				m.rng.End = item.index
				m.view = ConfirmView
				return m, nil
			}
		}
	}

	var cmd tea.Cmd
	m.endList, cmd = m.endList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "n":
		m.view = EndSelectView
		return m, nil
	case "y":
		m.view = RunView
		return m, m.startRun()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		m.view = StartSelectView
		m.result = nil
		m.err = nil
		m.guessed = false
		return m, nil
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case StartSelectView:
		m.startList, cmd = m.startList.Update(msg)
	case EndSelectView:
		m.endList, cmd = m.endList.Update(msg)
	}
	return m, cmd
}

func (m *Model) fetchHistory() tea.Cmd {
	return func() tea.Msg {
		history, err := m.engine.Fetch(m.ctx, nil, m.from, m.to)
		return historyFetchedMsg{history: history, err: err}
	}
}

func (m *Model) startRun() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	progressChan := m.progressChan

	go func() {
		result, err := m.engine.Run(m.ctx, progressChan, m.history, m.rng, tasks.SnapshotOpts{
			Name:         m.name,
			GapThreshold: m.threshold,
		})
		m.result = result
		m.err = err
		close(progressChan)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	progressChan := m.progressChan
	return func() tea.Msg {
		if progressChan == nil {
			return snapshotCompleteMsg{result: m.result, err: m.err}
		}

		update, ok := <-progressChan
		if !ok {
			return snapshotCompleteMsg{result: m.result, err: m.err}
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderStartList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.startList.View(), helpView)
}

func (m *Model) renderEndList() string {
	var hint string
	if m.guessed {
		hint = styles.help.Render("The highlighted song is the inferred end of the session.")
	}
	helpKeys := []key.Binding{m.keys.enter, m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n%s\n\n%s", m.endList.View(), hint, helpView)
}

func (m *Model) renderConfirm() string {
	start := m.history.Events[m.rng.Start]
	end := m.history.Events[m.rng.End]

	name := m.name
	if name == "" {
		name = start.PlayedAt.Local().Format(shared.DateFormat)
	}

	title := styles.title.Render(fmt.Sprintf("Create playlist '%s' with %d songs?", name, m.rng.Count()))
	info := fmt.Sprintf("\nFirst: %s - %s (%s)\nLast: %s - %s (%s)\n",
		start.Artist, start.Title, start.PlayedAt.Local().Format(shared.DateTimeFormat),
		end.Artist, end.Title, end.PlayedAt.Local().Format(shared.DateTimeFormat),
	)

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderRun() string {
	title := styles.title.Render("Building Snapshot")

	var phase string
	switch m.progress.Phase {
	case tasks.ResolveTracks:
		phase = fmt.Sprintf("Resolving tracks (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.CreatePlaylist:
		phase = "Creating playlist..."
	case tasks.AddTracks:
		phase = fmt.Sprintf("Adding tracks (batch %d/%d)", m.progress.Step, m.progress.Total)
	default:
		phase = "Processing..."
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, m.progress.Message)
}

func (m *Model) renderResult() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Snapshot failed: %v\n\nPress r to retry, q to quit", m.err))
	}

	if m.result == nil {
		return styles.err.Render("No result available\n\nPress r to retry, q to quit")
	}

	title := styles.ok.Render("✓ Snapshot Created!")
	info := fmt.Sprintf(
		"\nPlaylist: %s\nAdded: %d/%d plays (%.1f%% matched)",
		m.result.Playlist.Name,
		m.result.AddedCount,
		m.result.TotalTracks,
		m.result.MatchPercentage,
	)
	if m.result.Playlist.URL != "" {
		info += fmt.Sprintf("\nURL: %s", m.result.Playlist.URL)
	}

	var failed string
	if m.result.UnmatchedCount > 0 {
		failed = fmt.Sprintf("\n\n%s", styles.warn.Render(fmt.Sprintf("Couldn't match %d plays:", m.result.UnmatchedCount)))
		for _, resolution := range m.result.Resolutions {
			if resolution.Matched == nil {
				failed += fmt.Sprintf("\n  • %s - %s", resolution.Event.Artist, resolution.Event.Title)
			}
		}
	}

	helpKeys := []key.Binding{m.keys.restart, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s%s\n\n%s", title, info, failed, helpView)
}
