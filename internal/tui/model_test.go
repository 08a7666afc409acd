package tui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func newTestModel() Model {
	return NewModel(nil, time.Second)
}

func TestUpdate_QuitKey(t *testing.T) {
	m := newTestModel()
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatalf("expected a quit command")
	}
	if cmd() != tea.Quit() {
		t.Fatalf("expected tea.Quit message")
	}
}

func TestUpdate_ToggleHelp(t *testing.T) {
	m := newTestModel()
	next, _ := m.Update(tea.KeyMsg{Runes: []rune("?"), Type: tea.KeyRunes})
	updated := next.(Model)
	if !updated.ShowHelp {
		t.Fatalf("expected ShowHelp toggled on")
	}
	next, _ = updated.Update(tea.KeyMsg{Runes: []rune("?"), Type: tea.KeyRunes})
	updated = next.(Model)
	if updated.ShowHelp {
		t.Fatalf("expected ShowHelp toggled back off")
	}
}

func TestUpdate_WindowSize(t *testing.T) {
	m := newTestModel()
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	updated := next.(Model)
	if updated.Width != 80 || updated.Height != 24 {
		t.Fatalf("unexpected dimensions: %+v", updated)
	}
}

func TestUpdate_SnapshotMessageClearsRefreshing(t *testing.T) {
	m := newTestModel()
	m.Refreshing = true
	snap := Snapshot{Pending: 3, Pushed: 1, Acked: 2}
	next, _ := m.Update(snapshotMsg(snap))
	updated := next.(Model)
	if updated.Refreshing {
		t.Fatalf("expected Refreshing cleared after snapshot arrives")
	}
	if updated.Snapshot.Pending != 3 {
		t.Fatalf("expected snapshot applied, got %+v", updated.Snapshot)
	}
}

func TestRenderView_BeforeFirstWindowSize(t *testing.T) {
	m := newTestModel()
	if got := m.View(); got != "loading..." {
		t.Fatalf("expected loading placeholder, got %q", got)
	}
}

func TestRenderView_ShowsErrorAndCounts(t *testing.T) {
	m := newTestModel()
	m.Width, m.Height = 80, 24

	m.Snapshot = Snapshot{Pending: 2, Pushed: 1, Acked: 5, LastHLC: "1000-0-A", RemoteCursor: "c1"}
	out := m.renderView()
	if out == "" {
		t.Fatalf("expected non-empty view")
	}

	m.Snapshot = Snapshot{Err: errBoom{}}
	out = m.renderView()
	if out == "" {
		t.Fatalf("expected non-empty error view")
	}
}

type errBoom struct{}

func (errBoom) Error() string { return "boom" }
