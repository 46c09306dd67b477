package timer

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/syedzayyan/pomonotes/internal/errors"
	"github.com/syedzayyan/pomonotes/internal/model"
	"github.com/syedzayyan/pomonotes/internal/notify"
	"github.com/syedzayyan/pomonotes/internal/offline"
)

func TestStartCreatesSessionAndFirstPomodoro(t *testing.T) {
	r := newRig(t)
	require.NoError(t, r.machine.AddTag("deep"))
	require.NoError(t, r.machine.Start())
	r.flush(t)

	snap := r.machine.Snapshot()
	assert.Equal(t, StateWorkRunning, snap.State)
	assert.Equal(t, 1, snap.Ordinal)
	assert.Equal(t, "25:00", snap.Display)
	assert.True(t, snap.SessionID.IsTemp())

	created := r.api.Last("CreateSession")
	assert.Equal(t, model.StatusRunning, created.Session.Status)
	assert.Equal(t, "deep", created.Session.Tags)
	assert.Equal(t, testStart, created.Session.StartTime)

	pomodoro := r.api.Last("CreatePomodoro")
	assert.Equal(t, snap.SessionID, pomodoro.Pomodoro.SessionID)
	assert.Equal(t, 1, pomodoro.Pomodoro.Number)
	assert.Equal(t, snap.SessionID, r.marker.Get())

	assert.ErrorIs(t, r.machine.Start(), ErrAlreadyRunning)
}

func TestCountdownAdvancesByWholeSeconds(t *testing.T) {
	r := newRig(t)
	require.NoError(t, r.machine.Start())

	r.clock.Advance(500 * time.Millisecond)
	assert.Equal(t, 1500, r.machine.Snapshot().Remaining)

	r.advance(90)
	snap := r.machine.Snapshot()
	assert.Equal(t, 1410, snap.Remaining)
	assert.Equal(t, "23:30", snap.Display)
	assert.Equal(t, 90, r.machine.TotalTime())
}

func TestSkipBeforeZeroExcludesInterval(t *testing.T) {
	r := newRig(t)
	require.NoError(t, r.machine.Start())
	r.advance(10)
	r.skip(t)
	r.flush(t)

	snap := r.machine.Snapshot()
	assert.Equal(t, StateBreakRunning, snap.State)
	assert.Equal(t, model.BreakShort, snap.BreakType)
	assert.Equal(t, 1, snap.Skipped)
	assert.Equal(t, 0, r.machine.TotalTime())

	update := r.api.Last("UpdatePomodoro")
	assert.Equal(t, model.StatusSkipped, *update.Interval.Status)
	assert.Equal(t, 10, *update.Interval.Duration)

	session := r.api.Last("UpdateSession")
	assert.Equal(t, 0, *session.Update.TotalTime)
	assert.Equal(t, 1, *session.Update.SkippedPomodoros)
	assert.Equal(t, 0, *session.Update.CompletedPomodoros)
}

func TestOvertimeSkipCountsActualSeconds(t *testing.T) {
	r := newRig(t)
	require.NoError(t, r.machine.Start())

	r.advance(1500)
	assert.Equal(t, StateWorkOvertime, r.machine.Snapshot().State)

	r.advance(20)
	snap := r.machine.Snapshot()
	assert.Equal(t, -20, snap.Remaining)
	assert.Equal(t, "-00:20", snap.Display)
	assert.True(t, snap.Overtime)

	r.skip(t)
	r.flush(t)

	update := r.api.Last("UpdatePomodoro")
	assert.Equal(t, model.StatusCompleted, *update.Interval.Status)
	assert.Equal(t, 1520, *update.Interval.Duration)
	assert.Equal(t, 1520, r.machine.TotalTime())
	assert.Equal(t, 0, r.machine.Snapshot().Skipped)
	assert.Equal(t, 1520, *r.api.Last("UpdateSession").Update.TotalTime)
}

func TestBoundaryAlertFiresOncePerPhase(t *testing.T) {
	r := newRig(t)
	require.NoError(t, r.machine.Start())

	r.advance(1500 + 120)
	r.flush(t)
	assert.Equal(t, 1, r.alerts.Count(notify.KindBoundary))

	require.NoError(t, r.machine.Pause())
	require.NoError(t, r.machine.Start())
	r.advance(60)
	r.flush(t)
	assert.Equal(t, 1, r.alerts.Count(notify.KindBoundary))

	r.skip(t)
	r.advance(300)
	r.flush(t)
	assert.Equal(t, 2, r.alerts.Count(notify.KindBoundary))
	assert.Equal(t, StateBreakOvertime, r.machine.Snapshot().State)
}

func TestPauseFreezesAndResumes(t *testing.T) {
	r := newRig(t)
	assert.ErrorIs(t, r.machine.Pause(), ErrNotRunning)

	require.NoError(t, r.machine.Start())
	r.advance(100)
	require.NoError(t, r.machine.Pause())
	r.advance(500)
	r.flush(t)

	snap := r.machine.Snapshot()
	assert.Equal(t, StateWorkPaused, snap.State)
	assert.Equal(t, 1400, snap.Remaining)

	update := r.api.Last("UpdatePomodoro")
	assert.Equal(t, model.StatusPaused, *update.Interval.Status)
	assert.Equal(t, 100, *update.Interval.Duration)
	assert.Nil(t, update.Interval.EndTime)
	assert.Equal(t, model.StatusPaused, *r.api.Last("UpdateSession").Update.Status)

	require.NoError(t, r.machine.Start())
	r.advance(5)
	r.flush(t)
	assert.Equal(t, 1395, r.machine.Snapshot().Remaining)
	assert.Equal(t, model.StatusRunning, *r.api.Last("UpdatePomodoro").Interval.Status)
	assert.Equal(t, 1, r.alerts.Count(notify.KindPaused))
	assert.Len(t, r.api.Calls("CreatePomodoro"), 1)
}

func TestStopPersistsTotals(t *testing.T) {
	r := newRig(t)
	require.NoError(t, r.machine.Start())
	sessionID := r.machine.Snapshot().SessionID

	r.advance(1500)
	r.skip(t)
	r.skip(t)
	r.advance(300)

	ok, err := r.machine.Stop(context.Background(), Confirmed)
	require.NoError(t, err)
	require.True(t, ok)
	r.flush(t)

	update := r.api.Last("UpdateSession")
	assert.Equal(t, sessionID, update.ID)
	assert.Equal(t, model.StatusStopped, *update.Update.Status)
	assert.Equal(t, 1800, *update.Update.TotalTime)
	assert.Equal(t, 1, *update.Update.CompletedPomodoros)
	require.NotNil(t, update.Update.EndTime)

	pomodoro := r.api.Last("UpdatePomodoro")
	assert.Equal(t, model.StatusStopped, *pomodoro.Interval.Status)
	assert.Equal(t, 300, *pomodoro.Interval.Duration)

	assert.Equal(t, StateIdle, r.machine.Snapshot().State)
	assert.True(t, r.marker.Get().IsZero())

	cached, ok, err := r.cache.Get(context.Background(), sessionID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, model.StatusStopped, cached.Status)
}

func TestStopDuringBreakCountsFinishedPomodoro(t *testing.T) {
	r := newRig(t)
	require.NoError(t, r.machine.Start())
	r.advance(1500)
	r.skip(t)
	r.advance(60)

	_, err := r.machine.Stop(context.Background(), Confirmed)
	require.NoError(t, err)
	r.flush(t)

	update := r.api.Last("UpdateSession")
	assert.Equal(t, 1500, *update.Update.TotalTime)
	assert.Equal(t, 1, *update.Update.CompletedPomodoros)
	assert.Equal(t, model.StatusStopped, *r.api.Last("UpdateBreak").Interval.Status)
}

func TestDecliningLeavesStateUntouched(t *testing.T) {
	r := newRig(t)
	require.NoError(t, r.machine.AddTag("focus"))
	require.NoError(t, r.machine.Start())
	r.advance(30)
	r.flush(t)

	before := r.machine.Snapshot()
	callsBefore := len(r.api.Calls(""))

	ok, err := r.machine.Skip(context.Background(), Declined)
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = r.machine.Stop(context.Background(), Declined)
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = r.machine.Reset(context.Background(), Declined)
	require.NoError(t, err)
	assert.False(t, ok)
	r.flush(t)

	assert.Equal(t, before, r.machine.Snapshot())
	assert.Len(t, r.api.Calls(""), callsBefore)
	assert.Equal(t, []string{"focus"}, r.machine.Tags())
}

func TestConfirmationPromptPrecedesMutation(t *testing.T) {
	r := newRig(t)
	require.NoError(t, r.machine.Start())

	var seen Snapshot
	_, err := r.machine.Skip(context.Background(), ConfirmFunc(func(context.Context, string) bool {
		seen = r.machine.Snapshot()
		return true
	}))
	require.NoError(t, err)
	assert.Equal(t, StateWorkRunning, seen.State)
	assert.Equal(t, StateBreakRunning, r.machine.Snapshot().State)
}

func TestSessionCompletesAfterFourPomodoros(t *testing.T) {
	r := newRig(t)
	require.NoError(t, r.machine.Start())
	sessionID := r.machine.Snapshot().SessionID

	last := 1
	for i := 1; i <= 4; i++ {
		r.advance(1500)
		snap := r.machine.Snapshot()
		assert.Equal(t, i, snap.Ordinal)
		assert.GreaterOrEqual(t, snap.Ordinal, last)
		last = snap.Ordinal

		r.skip(t)
		snap = r.machine.Snapshot()
		assert.LessOrEqual(t, snap.Ordinal, 4)
		if i < 4 {
			assert.Equal(t, model.BreakShort, snap.BreakType)
			r.skip(t)
		} else {
			assert.Equal(t, model.BreakLong, snap.BreakType)
			assert.Equal(t, 900, snap.Remaining)
		}
	}
	r.flush(t)

	update := r.api.Last("UpdateSession")
	assert.Equal(t, model.StatusCompleted, *update.Update.Status)
	assert.Equal(t, 6000, *update.Update.TotalTime)
	assert.Equal(t, 4, *update.Update.CompletedPomodoros)
	assert.Equal(t, 0, *update.Update.SkippedPomodoros)
	assert.Equal(t, sessionID, r.marker.Get())

	r.advance(900)
	r.flush(t)
	assert.Equal(t, StateIdle, r.machine.Snapshot().State)
	assert.True(t, r.marker.Get().IsZero())
	assert.Equal(t, model.StatusCompleted, *r.api.Last("UpdateBreak").Interval.Status)
}

func TestSkippingEveryPhaseKeepsCountsBounded(t *testing.T) {
	r := newRig(t)
	require.NoError(t, r.machine.Start())

	for i := 0; i < 7; i++ {
		r.advance(3)
		r.skip(t)
		snap := r.machine.Snapshot()
		assert.LessOrEqual(t, snap.Ordinal, 4)
		assert.LessOrEqual(t, snap.Completed+snap.Skipped, 4)
	}
	r.flush(t)

	update := r.api.Last("UpdateSession")
	assert.Equal(t, model.StatusCompleted, *update.Update.Status)
	assert.Equal(t, 4, *update.Update.SkippedPomodoros)
	assert.Equal(t, 0, *update.Update.TotalTime)

	r.skip(t)
	assert.Equal(t, StateIdle, r.machine.Snapshot().State)
	_, err := r.machine.Skip(context.Background(), Confirmed)
	assert.ErrorIs(t, err, ErrNotRunning)
}

func TestAtMostOneOpenInterval(t *testing.T) {
	r := newRig(t)
	require.NoError(t, r.machine.Start())
	r.advance(1500)
	r.skip(t)
	require.NoError(t, r.machine.Pause())
	require.NoError(t, r.machine.Start())
	r.skip(t)
	r.advance(40)
	r.skip(t)
	_, err := r.machine.Stop(context.Background(), Confirmed)
	require.NoError(t, err)
	r.flush(t)

	assert.Equal(t, 1, r.api.MaxOpenIntervals())
}

func TestResetCancelsAndClearsTags(t *testing.T) {
	r := newRig(t)
	require.NoError(t, r.machine.AddTag("deep"))
	require.NoError(t, r.machine.Start())
	r.advance(42)

	ok, err := r.machine.Reset(context.Background(), Confirmed)
	require.NoError(t, err)
	require.True(t, ok)
	r.flush(t)

	update := r.api.Last("UpdateSession")
	assert.Equal(t, model.StatusCancelled, *update.Update.Status)
	assert.Equal(t, 42, *update.Update.TotalTime)
	assert.Empty(t, r.machine.Tags())
	assert.Equal(t, StateIdle, r.machine.Snapshot().State)
	assert.Equal(t, 1, r.alerts.Count(notify.KindCleared))

	calls := len(r.api.Calls(""))
	ok, err = r.machine.Reset(context.Background(), Declined)
	require.NoError(t, err)
	assert.True(t, ok, "reset without a session needs no confirmation")
	r.flush(t)
	assert.Len(t, r.api.Calls(""), calls)
}

func TestTagEditsWriteOnlyTags(t *testing.T) {
	r := newRig(t)
	assert.ErrorIs(t, r.machine.AddTag(" "), ErrInvalidTag)
	assert.ErrorIs(t, r.machine.AddTag("a,b"), ErrInvalidTag)

	require.NoError(t, r.machine.Start())
	require.NoError(t, r.machine.AddTag("reading"))
	require.NoError(t, r.machine.AddTag("reading"))
	require.NoError(t, r.machine.AddTag("math"))
	require.NoError(t, r.machine.RemoveTag("reading"))
	r.flush(t)

	updates := r.api.Calls("UpdateSession")
	require.Len(t, updates, 3)
	last := updates[2].Update
	require.NotNil(t, last.Tags)
	assert.Equal(t, "math", *last.Tags)
	assert.Nil(t, last.Status)
	assert.Nil(t, last.TotalTime)
}

func TestAddNote(t *testing.T) {
	r := newRig(t)
	ctx := context.Background()

	_, err := r.machine.AddNote(ctx, "idea")
	assert.ErrorIs(t, err, ErrNoSession)

	require.NoError(t, r.machine.Start())
	_, err = r.machine.AddNote(ctx, "   ")
	assert.ErrorIs(t, err, ErrEmptyNote)

	note, err := r.machine.AddNote(ctx, "## plan\n- write tests")
	require.NoError(t, err)
	assert.Equal(t, model.ID("501"), note.ID)

	sent := r.api.Last("CreateNote").Note
	snap := r.machine.Snapshot()
	assert.Equal(t, snap.SessionID, sent.SessionID)
	assert.Equal(t, snap.PomodoroID, sent.PomodoroID)
}

func TestResolveIDRewritesReferences(t *testing.T) {
	r := newRig(t)
	require.NoError(t, r.machine.Start())
	r.flush(t)
	snap := r.machine.Snapshot()

	r.machine.ResolveID(snap.SessionID, "900")
	r.machine.ResolveID(snap.PomodoroID, "901")
	r.flush(t)

	snap = r.machine.Snapshot()
	assert.Equal(t, model.ID("900"), snap.SessionID)
	assert.Equal(t, model.ID("901"), snap.PomodoroID)
	assert.Equal(t, model.ID("900"), r.marker.Get())
	_, ok, err := r.cache.Get(context.Background(), "900")
	require.NoError(t, err)
	assert.True(t, ok)

	r.advance(5)
	require.NoError(t, r.machine.Pause())
	r.flush(t)
	assert.Equal(t, model.ID("901"), r.api.Last("UpdatePomodoro").ID)
	assert.Equal(t, model.ID("900"), r.api.Last("UpdateSession").ID)
}

func TestSubscribeReceivesTicks(t *testing.T) {
	r := newRig(t)
	events := r.machine.Subscribe(16)
	require.NoError(t, r.machine.Start())
	r.advance(2)

	var states []int
	for len(events) > 0 {
		states = append(states, (<-events).Remaining)
	}
	assert.Equal(t, []int{1500, 1499, 1498}, states)
}

func TestRestoreResumesOpenSession(t *testing.T) {
	r := newRig(t)
	ctx := context.Background()
	r.api.sessions = []model.Session{
		{ID: "40", Status: model.StatusStopped, CompletedPomodoros: 4},
		{ID: "41", Status: model.StatusInProgress, CompletedPomodoros: 2, TotalTime: 3030, Tags: "a,b", StartTime: testStart},
	}

	var prompt string
	result, err := r.machine.Restore(ctx, ConfirmFunc(func(_ context.Context, p string) bool {
		prompt = p
		return true
	}))
	require.NoError(t, err)
	assert.True(t, result.Resumed)
	assert.Equal(t, SourceAPI, result.Source)
	assert.Contains(t, prompt, "#41")

	snap := r.machine.Snapshot()
	assert.Equal(t, StateWorkPaused, snap.State)
	assert.Equal(t, 3, snap.Ordinal)
	assert.Equal(t, []string{"a", "b"}, snap.Tags)
	assert.Equal(t, 3030, snap.TotalTime)

	again, err := r.machine.Restore(ctx, Declined)
	require.NoError(t, err)
	assert.Equal(t, SourceMemory, again.Source)
	assert.Equal(t, snap, r.machine.Snapshot())

	require.NoError(t, r.machine.Start())
	r.flush(t)
	pomodoro := r.api.Last("CreatePomodoro").Pomodoro
	assert.Equal(t, model.ID("41"), pomodoro.SessionID)
	assert.Equal(t, 3, pomodoro.Number)
	assert.Equal(t, model.ID("41"), r.marker.Get())
}

func TestSkipRestoredPomodoroBeforeStart(t *testing.T) {
	r := newRig(t)
	r.api.sessions = []model.Session{
		{ID: "41", Status: model.StatusInProgress, CompletedPomodoros: 2, TotalTime: 3000, StartTime: testStart},
	}
	_, err := r.machine.Restore(context.Background(), Confirmed)
	require.NoError(t, err)

	r.skip(t)
	r.flush(t)

	created := r.api.Calls("CreatePomodoro")
	require.Len(t, created, 1)
	pomodoro := created[0].Pomodoro
	assert.Equal(t, model.ID("41"), pomodoro.SessionID)
	assert.Equal(t, 3, pomodoro.Number)

	skipped := r.api.Last("UpdatePomodoro")
	assert.Equal(t, pomodoro.ID, skipped.ID)
	assert.Equal(t, model.StatusSkipped, *skipped.Interval.Status)
	assert.Equal(t, 0, *skipped.Interval.Duration)

	brk := r.api.Last("CreateBreak").Break
	assert.Equal(t, pomodoro.ID, brk.PomodoroID)
	assert.Equal(t, model.BreakShort, brk.Type)

	snap := r.machine.Snapshot()
	assert.Equal(t, StateBreakRunning, snap.State)
	assert.Equal(t, 1, snap.Skipped)
	assert.Equal(t, 3000, snap.TotalTime)
	assert.LessOrEqual(t, r.api.MaxOpenIntervals(), 1)
}

func TestRestoreFallsBackToCachedSnapshot(t *testing.T) {
	r := newRig(t)
	ctx := context.Background()
	r.api.listErr = offline.ErrOffline
	r.marker.id = "tmp-offline"
	require.NoError(t, r.cache.Put(ctx, model.Session{ID: "tmp-offline", Status: model.StatusRunning, CompletedPomodoros: 1, TotalTime: 1500}))

	result, err := r.machine.Restore(ctx, Confirmed)
	require.NoError(t, err)
	assert.True(t, result.Resumed)
	assert.Equal(t, SourceCache, result.Source)
	assert.Equal(t, 2, r.machine.Snapshot().Ordinal)
}

func TestRestoreNeverResumesFinishedSessions(t *testing.T) {
	for _, status := range []string{model.StatusCompleted, model.StatusStopped, model.StatusCancelled} {
		t.Run(status, func(t *testing.T) {
			r := newRig(t)
			ctx := context.Background()
			r.api.listErr = offline.ErrOffline
			r.marker.id = "12"
			require.NoError(t, r.cache.Put(ctx, model.Session{ID: "12", Status: status, CompletedPomodoros: 2}))

			result, err := r.machine.Restore(ctx, Confirmed)
			require.NoError(t, err)
			assert.False(t, result.Found)
			assert.Equal(t, StateIdle, r.machine.Snapshot().State)
			r.flush(t)
			assert.True(t, r.marker.Get().IsZero())
		})
	}
}

func TestRestoreDropsMarkerForMissingSession(t *testing.T) {
	r := newRig(t)
	r.marker.id = "77"
	r.api.getErr = &offline.StatusError{
		Status: http.StatusNotFound,
		API:    apperrors.New(http.StatusNotFound, "session_not_found", "Session not found"),
	}

	result, err := r.machine.Restore(context.Background(), Confirmed)
	require.NoError(t, err)
	assert.False(t, result.Found)
	r.flush(t)
	assert.True(t, r.marker.Get().IsZero())
}

func TestRestoreDeclinedStopsSession(t *testing.T) {
	r := newRig(t)
	r.api.sessions = []model.Session{{ID: "8", Status: model.StatusRunning, CompletedPomodoros: 1, TotalTime: 1500}}

	result, err := r.machine.Restore(context.Background(), Declined)
	require.NoError(t, err)
	assert.True(t, result.Found)
	assert.False(t, result.Resumed)
	r.flush(t)

	update := r.api.Last("UpdateSession")
	assert.Equal(t, model.ID("8"), update.ID)
	assert.Equal(t, model.StatusStopped, *update.Update.Status)
	assert.Nil(t, update.Update.TotalTime)
	assert.Equal(t, StateIdle, r.machine.Snapshot().State)
}
