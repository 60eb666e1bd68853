package tui

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/earth-module/tem-dashboard/internal/catalog"
	"github.com/earth-module/tem-dashboard/internal/model"
	"github.com/earth-module/tem-dashboard/internal/state"
)

type assignCall struct {
	kind  catalog.Kind
	index int
	id    int
}

type fakeActions struct {
	mu        sync.Mutex
	assigns   []assignCall
	refreshes int
	err       error
}

func (f *fakeActions) Assign(ctx context.Context, kind catalog.Kind, index, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.assigns = append(f.assigns, assignCall{kind: kind, index: index, id: id})
	return f.err
}

func (f *fakeActions) Refresh() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
}

func newTestModel(t *testing.T) (Model, *fakeActions, *state.Store) {
	t.Helper()
	store := state.New(catalog.Default(), state.Options{})
	actions := &fakeActions{}
	m := NewModel(store, nil, actions, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return m, actions, store
}

func press(t *testing.T, m Model, key tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(key)
	out, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return out, cmd
}

var (
	keyTab   = tea.KeyMsg{Type: tea.KeyTab}
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyR     = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}}
	keyQ     = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}}
)

func TestViewRendersCardsAndTiles(t *testing.T) {
	m, _, _ := newTestModel(t)
	out := m.View()
	for _, want := range []string{"The Earth Module", "offline", "CV 1", "CV 2", "GATE 1", "GATE 2", "Temperature", "Kp Index", "Weather", "Celestial"} {
		if !strings.Contains(out, want) {
			t.Fatalf("view missing %q:\n%s", want, out)
		}
	}
}

func TestAssignFlow(t *testing.T) {
	m, actions, _ := newTestModel(t)

	m, _ = press(t, m, keyDown)
	m, cmd := press(t, m, keyEnter)
	if cmd == nil {
		t.Fatal("expected assign command")
	}
	msg := cmd()
	done, ok := msg.(assignDoneMsg)
	if !ok {
		t.Fatalf("cmd() = %T", msg)
	}

	actions.mu.Lock()
	calls := append([]assignCall(nil), actions.assigns...)
	actions.mu.Unlock()
	want := assignCall{kind: catalog.KindCV, index: 0, id: catalog.ParamHumidity}
	if len(calls) != 1 || calls[0] != want {
		t.Fatalf("assigns = %+v, want %+v", calls, want)
	}

	next, _ := m.Update(done)
	m = next.(Model)
	if !strings.Contains(m.View(), "CV 1 → Humidity") {
		t.Fatalf("status not shown:\n%s", m.View())
	}
}

func TestAssignCurrentParameterIsNoop(t *testing.T) {
	m, actions, _ := newTestModel(t)
	if _, cmd := press(t, m, keyEnter); cmd != nil {
		t.Fatal("re-selecting the assigned parameter must not post")
	}
	if len(actions.assigns) != 0 {
		t.Fatalf("assigns = %+v", actions.assigns)
	}
}

func TestAssignFailureShown(t *testing.T) {
	m, actions, _ := newTestModel(t)
	actions.err = errors.New("module refused")
	m, _ = press(t, m, keyDown)
	_, cmd := press(t, m, keyEnter)
	next, _ := m.Update(cmd())
	m = next.(Model)
	if !m.failed || !strings.Contains(m.status, "module refused") {
		t.Fatalf("status = %q failed=%v", m.status, m.failed)
	}
}

func TestSelectionWrapsAndResetsCursor(t *testing.T) {
	m, _, _ := newTestModel(t)
	m, _ = press(t, m, keyTab)
	m, _ = press(t, m, keyTab)
	if m.selected != 2 {
		t.Fatalf("selected = %d", m.selected)
	}
	// gate1 defaults to Rain/Snow, the first gate option.
	if opt := m.options()[m.cursor]; opt.ID != catalog.ParamPrecipitation {
		t.Fatalf("cursor on %+v", opt)
	}
	m, _ = press(t, m, keyTab)
	m, _ = press(t, m, keyTab)
	if m.selected != 0 {
		t.Fatalf("selection did not wrap: %d", m.selected)
	}
}

func TestSnapshotUpdatesView(t *testing.T) {
	m, _, store := newTestModel(t)
	snap := store.Merge(state.Partial{Outputs: &model.OutputsPayload{Levels: map[string]float64{"cv1": 0.5}}})
	next, _ := m.Update(snapshotMsg(snap))
	m = next.(Model)
	if !strings.Contains(m.View(), "2.50V") {
		t.Fatalf("level not rendered:\n%s", m.View())
	}
}

func TestKeysRefreshAndQuit(t *testing.T) {
	m, actions, _ := newTestModel(t)
	m, _ = press(t, m, keyR)
	if actions.refreshes != 1 {
		t.Fatalf("refreshes = %d", actions.refreshes)
	}
	_, cmd := press(t, m, keyQ)
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("q must quit")
	}
}

func TestWaitForSnapshot(t *testing.T) {
	ch := make(chan state.Snapshot, 1)
	ch <- state.Snapshot{Revision: 4}
	if msg, ok := waitForSnapshot(ch)().(snapshotMsg); !ok || msg.Revision != 4 {
		t.Fatalf("msg = %+v", msg)
	}
	close(ch)
	if _, ok := waitForSnapshot(ch)().(feedClosedMsg); !ok {
		t.Fatal("closed feed must report feedClosedMsg")
	}
	if waitForSnapshot(nil) != nil {
		t.Fatal("nil feed must not schedule a command")
	}
}

func TestBar(t *testing.T) {
	if got := strings.Count(bar(50), "█"); got != barWidth/2 {
		t.Fatalf("half bar = %d cells", got)
	}
	if got := strings.Count(bar(150), "█"); got != barWidth {
		t.Fatalf("overfull bar = %d cells", got)
	}
}
