package timer

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/syedzayyan/pomonotes/internal/apiclient"
	"github.com/syedzayyan/pomonotes/internal/clock"
	"github.com/syedzayyan/pomonotes/internal/logger"
	"github.com/syedzayyan/pomonotes/internal/model"
	"github.com/syedzayyan/pomonotes/internal/notify"
)

type apiCall struct {
	Op       string
	ID       model.ID
	Session  model.Session
	Pomodoro model.Pomodoro
	Break    model.Break
	Note     model.Note
	Update   model.SessionUpdate
	Interval model.IntervalUpdate
}

type fakeAPI struct {
	mu       sync.Mutex
	calls    []apiCall
	statuses map[model.ID]string
	maxOpen  int

	sessions []model.Session
	listErr  error
	byID     map[model.ID]model.Session
	getErr   error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{statuses: map[model.ID]string{}, byID: map[model.ID]model.Session{}}
}

func (f *fakeAPI) record(c apiCall) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)

	open := 0
	for _, status := range f.statuses {
		if status == model.StatusRunning || status == model.StatusPaused {
			open++
		}
	}
	if open > f.maxOpen {
		f.maxOpen = open
	}
}

func (f *fakeAPI) setStatus(id model.ID, status string) {
	f.mu.Lock()
	f.statuses[id] = status
	f.mu.Unlock()
}

func (f *fakeAPI) Calls(op string) []apiCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []apiCall
	for _, c := range f.calls {
		if op == "" || c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeAPI) Last(op string) apiCall {
	calls := f.Calls(op)
	if len(calls) == 0 {
		return apiCall{}
	}
	return calls[len(calls)-1]
}

func (f *fakeAPI) MaxOpenIntervals() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxOpen
}

func (f *fakeAPI) ListSessions(context.Context, apiclient.ListOptions) ([]model.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Session(nil), f.sessions...), f.listErr
}

func (f *fakeAPI) GetSession(_ context.Context, id model.ID) (model.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return model.Session{}, f.getErr
	}
	return f.byID[id], nil
}

func (f *fakeAPI) CreateSession(_ context.Context, s model.Session) (model.Session, error) {
	f.record(apiCall{Op: "CreateSession", ID: s.ID, Session: s})
	return s, nil
}

func (f *fakeAPI) UpdateSession(_ context.Context, id model.ID, u model.SessionUpdate) (model.Session, error) {
	f.record(apiCall{Op: "UpdateSession", ID: id, Update: u})
	return model.Session{ID: id}, nil
}

func (f *fakeAPI) CreatePomodoro(_ context.Context, p model.Pomodoro) (model.Pomodoro, error) {
	f.setStatus(p.ID, p.Status)
	f.record(apiCall{Op: "CreatePomodoro", ID: p.ID, Pomodoro: p})
	return p, nil
}

func (f *fakeAPI) UpdatePomodoro(_ context.Context, id model.ID, u model.IntervalUpdate) (model.Pomodoro, error) {
	f.setStatus(id, *u.Status)
	f.record(apiCall{Op: "UpdatePomodoro", ID: id, Interval: u})
	return model.Pomodoro{ID: id}, nil
}

func (f *fakeAPI) CreateBreak(_ context.Context, b model.Break) (model.Break, error) {
	f.setStatus(b.ID, b.Status)
	f.record(apiCall{Op: "CreateBreak", ID: b.ID, Break: b})
	return b, nil
}

func (f *fakeAPI) UpdateBreak(_ context.Context, id model.ID, u model.IntervalUpdate) (model.Break, error) {
	f.setStatus(id, *u.Status)
	f.record(apiCall{Op: "UpdateBreak", ID: id, Interval: u})
	return model.Break{ID: id}, nil
}

func (f *fakeAPI) CreateNote(_ context.Context, n model.Note) (model.Note, error) {
	f.record(apiCall{Op: "CreateNote", Note: n})
	n.ID = "501"
	return n, nil
}

type memMarker struct {
	mu sync.Mutex
	id model.ID
}

func (m *memMarker) ActiveSessionID(context.Context) (model.ID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.id, nil
}

func (m *memMarker) SetActiveSessionID(_ context.Context, id model.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.id = id
	return nil
}

func (m *memMarker) Get() model.ID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.id
}

type memCache struct {
	mu   sync.Mutex
	data map[model.ID]model.Session
}

func newMemCache() *memCache {
	return &memCache{data: map[model.ID]model.Session{}}
}

func (c *memCache) Put(_ context.Context, s model.Session) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[s.ID] = s
	return nil
}

func (c *memCache) Get(_ context.Context, id model.ID) (*model.Session, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.data[id]
	if !ok {
		return nil, false, nil
	}
	return &s, true, nil
}

func (c *memCache) Rekey(_ context.Context, temp, serverID model.ID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.data[temp]; ok {
		s.ID = serverID
		c.data[serverID] = s
		delete(c.data, temp)
	}
	return nil
}

type alertLog struct {
	mu     sync.Mutex
	alerts []notify.Alert
}

func (a *alertLog) Present(_ context.Context, alert notify.Alert) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.alerts = append(a.alerts, alert)
}

func (a *alertLog) Count(kind notify.Kind) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for _, alert := range a.alerts {
		if alert.Kind == kind {
			n++
		}
	}
	return n
}

type rig struct {
	machine *Machine
	api     *fakeAPI
	marker  *memMarker
	cache   *memCache
	alerts  *alertLog
	clock   *clock.Manual
}

var testStart = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func newRig(t *testing.T) *rig {
	t.Helper()
	r := &rig{
		api:    newFakeAPI(),
		marker: &memMarker{},
		cache:  newMemCache(),
		alerts: &alertLog{},
		clock:  clock.NewManual(testStart),
	}
	var seq int
	var seqMu sync.Mutex
	r.machine = New(DefaultConfig(), Deps{
		API:       r.api,
		Marker:    r.marker,
		Cache:     r.cache,
		Presenter: r.alerts,
		Clock:     r.clock,
		Log:       logger.Discard(),
		NewID: func() model.ID {
			seqMu.Lock()
			defer seqMu.Unlock()
			seq++
			return model.ID(fmt.Sprintf("%s%d", model.TempIDPrefix, seq))
		},
	})
	t.Cleanup(func() { _ = r.machine.Close(context.Background()) })
	return r
}

func (r *rig) advance(seconds int) {
	r.clock.Advance(time.Duration(seconds) * time.Second)
}

func (r *rig) flush(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, r.machine.Flush(ctx))
}

func (r *rig) skip(t *testing.T) {
	t.Helper()
	ok, err := r.machine.Skip(context.Background(), Confirmed)
	require.NoError(t, err)
	require.True(t, ok)
}
