package tui

import (
	"context"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syedzayyan/pomonotes/internal/model"
	"github.com/syedzayyan/pomonotes/internal/timer"
)

type fakeController struct {
	mu      sync.Mutex
	snap    timer.Snapshot
	events  chan timer.Snapshot
	calls   []string
	tags    []string
	notes   []string
	confirm []bool
}

func newFakeController() *fakeController {
	return &fakeController{
		snap:   timer.Snapshot{State: timer.StateIdle, Remaining: 1500, PhaseLength: 1500, Display: "25:00", IntervalsPerSession: 4},
		events: make(chan timer.Snapshot, 8),
	}
}

func (f *fakeController) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeController) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeController) Snapshot() timer.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap
}

func (f *fakeController) set(state timer.State) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snap.State = state
	if state != timer.StateIdle {
		f.snap.Ordinal = 1
	}
}

func (f *fakeController) Subscribe(int) <-chan timer.Snapshot { return f.events }

func (f *fakeController) Start() error {
	f.record("start")
	f.set(timer.StateWorkRunning)
	return nil
}

func (f *fakeController) Pause() error {
	f.record("pause")
	f.set(timer.StateWorkPaused)
	return nil
}

func (f *fakeController) confirmed(ctx context.Context, c timer.Confirmer) {
	ok := c.Confirm(ctx, "")
	f.mu.Lock()
	f.confirm = append(f.confirm, ok)
	f.mu.Unlock()
}

func (f *fakeController) Skip(ctx context.Context, c timer.Confirmer) (bool, error) {
	f.record("skip")
	f.confirmed(ctx, c)
	return true, nil
}

func (f *fakeController) Stop(ctx context.Context, c timer.Confirmer) (bool, error) {
	f.record("stop")
	f.confirmed(ctx, c)
	f.set(timer.StateIdle)
	return true, nil
}

func (f *fakeController) Reset(ctx context.Context, c timer.Confirmer) (bool, error) {
	f.record("reset")
	f.confirmed(ctx, c)
	f.set(timer.StateIdle)
	return true, nil
}

func (f *fakeController) AddTag(name string) error {
	f.record("tag")
	if strings.TrimSpace(name) == "" {
		return timer.ErrInvalidTag
	}
	f.mu.Lock()
	f.tags = append(f.tags, name)
	f.mu.Unlock()
	return nil
}

func (f *fakeController) AddNote(_ context.Context, text string) (model.Note, error) {
	f.record("note")
	f.mu.Lock()
	f.notes = append(f.notes, text)
	f.mu.Unlock()
	return model.Note{ID: "1", Text: text}, nil
}

func (f *fakeController) ClearNotifications() { f.record("clear") }

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m Model, msg tea.KeyMsg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

// pressRun feeds a key, runs the control command it returns and feeds the
// result back in.
func pressRun(t *testing.T, m Model, msg tea.KeyMsg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	m = next.(Model)
	require.NotNil(t, cmd)
	out, ok := cmd().(resultMsg)
	require.True(t, ok)
	next, _ = m.Update(out)
	return next.(Model)
}

func newTestModel() (Model, *fakeController) {
	ctrl := newFakeController()
	return New(context.Background(), ctrl, Options{}), ctrl
}

func TestToggleStartsAndPauses(t *testing.T) {
	m, ctrl := newTestModel()

	m = press(t, m, tea.KeyMsg{Type: tea.KeySpace})
	assert.Equal(t, timer.StateWorkRunning, m.snap.State)

	m = press(t, m, runes("p"))
	assert.Equal(t, timer.StateWorkPaused, m.snap.State)

	m = press(t, m, runes("p"))
	assert.Equal(t, []string{"start", "pause", "start"}, ctrl.Calls())
	assert.Equal(t, timer.StateWorkRunning, m.snap.State)
}

func TestSkipAsksFirst(t *testing.T) {
	m, ctrl := newTestModel()
	m = press(t, m, runes("p"))

	m = press(t, m, runes("s"))
	assert.Equal(t, actionSkip, m.confirming)
	assert.Contains(t, m.View(), "Skip the current pomodoro?")

	m = press(t, m, runes("n"))
	assert.Zero(t, m.confirming)
	assert.Equal(t, []string{"start"}, ctrl.Calls())

	m = press(t, m, runes("s"))
	m = pressRun(t, m, runes("y"))
	assert.Equal(t, []string{"start", "skip"}, ctrl.Calls())
	assert.Equal(t, []bool{true}, ctrl.confirm)
	assert.Equal(t, "Skipped", m.status)
}

func TestStopNeedsActiveSession(t *testing.T) {
	m, ctrl := newTestModel()

	m = press(t, m, runes("x"))
	assert.Zero(t, m.confirming)
	assert.True(t, m.statusErr)
	assert.Empty(t, ctrl.Calls())

	m = press(t, m, runes("p"))
	m = press(t, m, runes("x"))
	m = pressRun(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, []string{"start", "stop"}, ctrl.Calls())
	assert.Equal(t, timer.StateIdle, m.snap.State)
}

func TestResetWhenIdleSkipsDialog(t *testing.T) {
	m, ctrl := newTestModel()
	m = pressRun(t, m, runes("r"))
	assert.Zero(t, m.confirming)
	assert.Equal(t, []string{"reset"}, ctrl.Calls())
}

func TestTagInput(t *testing.T) {
	m, ctrl := newTestModel()

	m = press(t, m, runes("t"))
	require.Equal(t, inputTag, m.mode)
	m = press(t, m, runes("deep"))
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, inputNone, m.mode)
	assert.Equal(t, []string{"deep"}, ctrl.tags)
	assert.Equal(t, `Tagged "deep"`, m.status)

	m = press(t, m, runes("t"))
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, inputNone, m.mode)
	assert.Equal(t, []string{"tag"}, ctrl.Calls())
}

func TestNoteInput(t *testing.T) {
	m, ctrl := newTestModel()

	m = press(t, m, runes("n"))
	assert.Equal(t, inputNone, m.mode)
	assert.Equal(t, timer.ErrNoSession.Error(), m.status)

	m = press(t, m, runes("p"))
	m = press(t, m, runes("n"))
	require.Equal(t, inputNote, m.mode)
	m = press(t, m, runes("ship it"))
	m = pressRun(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, []string{"ship it"}, ctrl.notes)
	assert.Equal(t, "Note saved", m.status)
}

func TestSnapshotDrivesView(t *testing.T) {
	m, _ := newTestModel()
	assert.Contains(t, m.View(), "Ready")

	next, cmd := m.Update(snapshotMsg(timer.Snapshot{
		State:               timer.StateWorkOvertime,
		Ordinal:             2,
		IntervalsPerSession: 4,
		Remaining:           -20,
		PhaseLength:         1500,
		Overtime:            true,
		Display:             "-00:20",
		Completed:           1,
		TotalTime:           3020,
		Tags:                []string{"deep"},
	}))
	m = next.(Model)
	require.NotNil(t, cmd)

	view := m.View()
	assert.Contains(t, view, "Pomodoro 2/4")
	assert.Contains(t, view, "-00:20")
	assert.Contains(t, view, "Completed 1")
	assert.Contains(t, view, "50:20")
	assert.Contains(t, view, "deep")
}

func TestSnapshotSubscription(t *testing.T) {
	m, ctrl := newTestModel()
	ctrl.events <- timer.Snapshot{State: timer.StateBreakRunning, BreakType: model.BreakLong, Display: "15:00"}

	msg := m.Init()()
	next, _ := m.Update(msg)
	m = next.(Model)
	assert.Contains(t, m.View(), "Long break")

	close(ctrl.events)
	_, cmd := m.Update(m.Init()())
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestConnectivityLine(t *testing.T) {
	ctrl := newFakeController()
	m := New(context.Background(), ctrl, Options{
		Online:  func() bool { return false },
		Pending: func() int { return 3 },
	})
	view := m.View()
	assert.Contains(t, view, "offline")
	assert.Contains(t, view, "3 queued")
}

func TestFraction(t *testing.T) {
	assert.Equal(t, 0.0, fraction(timer.Snapshot{}))
	assert.Equal(t, 0.5, fraction(timer.Snapshot{PhaseLength: 300, Remaining: 150}))
	assert.Equal(t, 1.0, fraction(timer.Snapshot{PhaseLength: 300, Remaining: -40}))
}
