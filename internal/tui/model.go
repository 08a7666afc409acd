// Package tui implements a small read-only bubbletea program showing
// live sync engine state: the pending/pushed/acked queue counts, the
// last HLC token emitted, the current remote cursor, and recent
// conflicts. Structured the way the teacher's pkg/monitor package is:
// model.go holds the tea.Model, view.go holds rendering, styles.go
// holds lipgloss.Style values.
package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	syncengine "github.com/marcus/syncengine"
)

// Snapshot is the data one refresh pulls from the engine.
type Snapshot struct {
	Pending       int
	Pushed        int
	Acked         int
	LastHLC       string
	RemoteCursor  string
	Conflicts     []syncengine.ConflictRecord
	RefreshedAt   time.Time
	Err           error
}

// tickMsg triggers a data refresh.
type tickMsg time.Time

// snapshotMsg carries a freshly fetched Snapshot.
type snapshotMsg Snapshot

// Model is the bubbletea model for the sync monitor.
type Model struct {
	Engine          *syncengine.Engine
	RefreshInterval time.Duration

	Width, Height int
	Snapshot      Snapshot
	ShowHelp      bool
	Refreshing    bool
	Spinner       spinner.Model
}

// NewModel builds a Model that polls e on interval.
func NewModel(e *syncengine.Engine, interval time.Duration) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	return Model{Engine: e, RefreshInterval: interval, Spinner: s}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.fetch(), m.scheduleTick(), m.Spinner.Tick)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			m.Refreshing = true
			return m, m.fetch()
		case "?":
			m.ShowHelp = !m.ShowHelp
			return m, nil
		}
	case tea.WindowSizeMsg:
		m.Width, m.Height = msg.Width, msg.Height
		return m, nil
	case tickMsg:
		m.Refreshing = true
		return m, tea.Batch(m.fetch(), m.scheduleTick())
	case snapshotMsg:
		m.Snapshot = Snapshot(msg)
		m.Refreshing = false
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) View() string {
	return m.renderView()
}

func (m Model) scheduleTick() tea.Cmd {
	return tea.Tick(m.RefreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) fetch() tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(FetchSnapshot(m.Engine))
	}
}

// FetchSnapshot reads the current sync state from e. Pending/pushed/acked
// counts are derived from local_changes directly since the Engine's
// public API only exposes "pending" (get_pending); the TUI queries the
// underlying connection for the other two counts, which is safe because
// it never writes.
func FetchSnapshot(e *syncengine.Engine) Snapshot {
	snap := Snapshot{RefreshedAt: time.Now()}

	countByStatus := func(status string) int {
		var n int
		row := e.Conn().QueryRow(`SELECT COUNT(*) FROM local_changes WHERE sync_status = ?`, status)
		row.Scan(&n)
		return n
	}
	snap.Pending = countByStatus("pending")
	snap.Pushed = countByStatus("pushed")
	snap.Acked = countByStatus("acked")

	if row := e.Conn().QueryRow(`SELECT hlc FROM local_changes ORDER BY change_id DESC LIMIT 1`); row != nil {
		var hlc string
		if err := row.Scan(&hlc); err == nil {
			snap.LastHLC = hlc
		}
	}

	cursor, err := e.GetRemoteCursor()
	if err == nil && cursor != nil {
		snap.RemoteCursor = *cursor
	}

	conflicts, err := e.RecentConflicts(10)
	if err == nil {
		snap.Conflicts = conflicts
	}

	return snap
}
