package offline

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syedzayyan/pomonotes/internal/clock"
	"github.com/syedzayyan/pomonotes/internal/localstore"
	"github.com/syedzayyan/pomonotes/internal/logger"
	"github.com/syedzayyan/pomonotes/internal/model"
)

type recordedCall struct {
	Method string
	Path   string
	Body   string
}

type fakeAPI struct {
	mu      sync.Mutex
	calls   []recordedCall
	nextID  int
	respond func(call recordedCall) (int, string)
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	call := recordedCall{Method: r.Method, Path: r.URL.Path, Body: string(body)}

	f.mu.Lock()
	f.calls = append(f.calls, call)
	respond := f.respond
	f.nextID++
	id := f.nextID
	f.mu.Unlock()

	if respond != nil {
		if status, payload := respond(call); status != 0 {
			w.WriteHeader(status)
			_, _ = io.WriteString(w, payload)
			return
		}
	}
	if r.URL.Path == "/health" {
		w.WriteHeader(http.StatusOK)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if r.Method == http.MethodPost {
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]int{"id": 100 + id})
		return
	}
	_, _ = io.WriteString(w, "{}")
}

func (f *fakeAPI) Calls() []recordedCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedCall(nil), f.calls...)
}

type harness struct {
	store    *localstore.Store
	resolver *Resolver
	queue    *Queue
	client   *Client
	clock    *clock.Manual
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()

	store, err := localstore.Open(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	log := logger.Discard()
	resolver, err := NewResolver(ctx, store, log)
	require.NoError(t, err)

	clk := clock.NewManual(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	doer := &http.Client{Timeout: 2 * time.Second}
	queue := NewQueue(store, resolver, doer, clk, log)
	return &harness{
		store:    store,
		resolver: resolver,
		queue:    queue,
		client:   NewClient(doer, queue, resolver, log),
		clock:    clk,
	}
}

func closedServerURL(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	return url
}

func TestOfflineMutationReturnsPlaceholder(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.client.SetOnline(false)

	temp := model.NewTempID()
	resp, err := h.client.Do(ctx, Request{
		Method:     http.MethodPost,
		URL:        "http://api.invalid/api/sessions",
		Body:       []byte(`{"status":"running","tags":"deep"}`),
		EntityType: EntitySession,
		TempID:     temp,
	})
	require.NoError(t, err)
	assert.True(t, resp.Queued)
	assert.Equal(t, http.StatusAccepted, resp.Status)

	var echoed struct {
		ID     model.ID `json:"id"`
		Status string   `json:"status"`
		Tags   string   `json:"tags"`
	}
	require.NoError(t, json.Unmarshal(resp.Body, &echoed))
	assert.Equal(t, temp, echoed.ID)
	assert.Equal(t, "running", echoed.Status)
	assert.Equal(t, "deep", echoed.Tags)

	pending, err := h.queue.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, temp, pending[0].TempID)
	assert.Equal(t, EntitySession, pending[0].EntityType)
}

func TestEnqueueKeysStrictlyIncrease(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	var last int64
	for i := 0; i < 5; i++ {
		record, err := h.queue.Enqueue(ctx, Request{Method: http.MethodPut, URL: "http://api.invalid/api/sessions/1"})
		require.NoError(t, err)
		assert.Greater(t, record.InsertedAt, last)
		last = record.InsertedAt
	}

	// A fresh queue over the same store continues after the stored maximum.
	reopened := NewQueue(h.store, h.resolver, http.DefaultClient, h.clock, logger.Discard())
	record, err := reopened.Enqueue(ctx, Request{Method: http.MethodPut, URL: "http://api.invalid/api/sessions/1"})
	require.NoError(t, err)
	assert.Greater(t, record.InsertedAt, last)
}

func TestDrainReplaysInOrderAndRewritesTempIDs(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	api := &fakeAPI{}
	srv := httptest.NewServer(api)
	defer srv.Close()

	h.client.SetOnline(false)

	sessionTemp := model.NewTempID()
	pomodoroTemp := model.NewTempID()

	var bound []model.ID
	h.resolver.OnBind(func(temp, serverID model.ID) { bound = append(bound, temp) })

	requests := []Request{
		{Method: http.MethodPost, URL: srv.URL + "/api/sessions", Body: []byte(`{"status":"running"}`), EntityType: EntitySession, TempID: sessionTemp},
		{Method: http.MethodPost, URL: srv.URL + "/api/pomodoros", Body: []byte(`{"session_id":"` + sessionTemp.String() + `","number":1}`), EntityType: EntityPomodoro, TempID: pomodoroTemp},
		{Method: http.MethodPut, URL: srv.URL + "/api/pomodoros/" + pomodoroTemp.String(), Body: []byte(`{"status":"completed"}`), EntityType: EntityPomodoro},
		{Method: http.MethodPut, URL: srv.URL + "/api/sessions/" + sessionTemp.String(), Body: []byte(`{"status":"stopped"}`), EntityType: EntitySession},
	}
	for _, req := range requests {
		_, err := h.client.Do(ctx, req)
		require.NoError(t, err)
	}

	result, err := h.queue.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, result.Replayed)

	calls := api.Calls()
	require.Len(t, calls, 4)
	assert.Equal(t, "/api/sessions", calls[0].Path)
	assert.Equal(t, "/api/pomodoros", calls[1].Path)
	assert.Contains(t, calls[1].Body, `"session_id":101`)
	assert.Equal(t, "/api/pomodoros/102", calls[2].Path)
	assert.Equal(t, "/api/sessions/101", calls[3].Path)

	assert.Equal(t, model.ID("101"), h.resolver.Resolve(sessionTemp))
	assert.Equal(t, model.ID("102"), h.resolver.Resolve(pomodoroTemp))
	assert.Equal(t, []model.ID{sessionTemp, pomodoroTemp}, bound)

	n, err := h.queue.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDrainStopsAtFirstRetryableFailure(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	failing := true
	var mu sync.Mutex
	api := &fakeAPI{respond: func(call recordedCall) (int, string) {
		mu.Lock()
		defer mu.Unlock()
		if failing && strings.HasPrefix(call.Path, "/api/sessions/") {
			return http.StatusServiceUnavailable, `{"error":{"code":"unavailable","message":"try later"}}`
		}
		return 0, ""
	}}
	srv := httptest.NewServer(api)
	defer srv.Close()

	temp := model.NewTempID()
	for _, req := range []Request{
		{Method: http.MethodPost, URL: srv.URL + "/api/sessions", Body: []byte(`{}`), EntityType: EntitySession, TempID: temp},
		{Method: http.MethodPut, URL: srv.URL + "/api/sessions/" + temp.String(), Body: []byte(`{"tags":"a"}`)},
		{Method: http.MethodPut, URL: srv.URL + "/api/sessions/" + temp.String(), Body: []byte(`{"status":"stopped"}`)},
	} {
		_, err := h.queue.Enqueue(ctx, req)
		require.NoError(t, err)
	}

	result, err := h.queue.Drain(ctx)
	require.Error(t, err)
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, "unavailable", statusErr.API.Code)
	assert.Equal(t, 1, result.Replayed)
	assert.Equal(t, 2, result.Remaining)
	require.Len(t, api.Calls(), 2, "the third request must not be attempted")

	mu.Lock()
	failing = false
	mu.Unlock()

	result, err = h.queue.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Replayed)

	calls := api.Calls()
	require.Len(t, calls, 4)
	assert.Equal(t, `{"tags":"a"}`, calls[2].Body)
	assert.Equal(t, `{"status":"stopped"}`, calls[3].Body)
}

func TestDrainKeepsQueueOnNetworkError(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	url := closedServerURL(t)

	_, err := h.queue.Enqueue(ctx, Request{Method: http.MethodPut, URL: url + "/api/sessions/1", Body: []byte(`{}`)})
	require.NoError(t, err)

	_, err = h.queue.Drain(ctx)
	require.Error(t, err)
	assert.True(t, IsNetworkError(err))

	n, err := h.queue.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestDrainDropsRejectedRequests(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	api := &fakeAPI{respond: func(call recordedCall) (int, string) {
		if call.Path == "/api/sessions/9" {
			return http.StatusNotFound, `{"error":{"code":"session_not_found","message":"session not found"}}`
		}
		return 0, ""
	}}
	srv := httptest.NewServer(api)
	defer srv.Close()

	for _, path := range []string{"/api/sessions/9", "/api/sessions/10"} {
		_, err := h.queue.Enqueue(ctx, Request{Method: http.MethodPut, URL: srv.URL + path, Body: []byte(`{}`)})
		require.NoError(t, err)
	}

	result, err := h.queue.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Rejected)
	assert.Equal(t, 1, result.Replayed)
	assert.Len(t, api.Calls(), 2)
}

func TestOnlineCreateBindsServerID(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	srv := httptest.NewServer(&fakeAPI{})
	defer srv.Close()

	temp := model.NewTempID()
	resp, err := h.client.Do(ctx, Request{
		Method:     http.MethodPost,
		URL:        srv.URL + "/api/sessions",
		Body:       []byte(`{"status":"running"}`),
		EntityType: EntitySession,
		TempID:     temp,
	})
	require.NoError(t, err)
	assert.False(t, resp.Queued)
	assert.Equal(t, http.StatusCreated, resp.Status)
	assert.Equal(t, model.ID("101"), h.resolver.Resolve(temp))

	mappings, err := h.store.Mappings(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.ID("101"), mappings[temp])
}

func TestNetworkFailureFlipsOfflineAndQueues(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	url := closedServerURL(t)

	var flips []bool
	h.client.OnStatusChange(func(online bool) { flips = append(flips, online) })

	resp, err := h.client.Do(ctx, Request{Method: http.MethodPut, URL: url + "/api/sessions/3", Body: []byte(`{"status":"paused"}`)})
	require.NoError(t, err)
	assert.True(t, resp.Queued)
	assert.False(t, h.client.Online())
	assert.Equal(t, []bool{false}, flips)

	_, err = h.client.Do(ctx, Request{Method: http.MethodGet, URL: url + "/api/sessions"})
	require.ErrorIs(t, err, ErrOffline)
}

func TestListenersMayRegisterDuringDispatch(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	var flips []bool
	h.client.OnStatusChange(func(online bool) {
		flips = append(flips, online)
		h.client.OnStatusChange(func(bool) {})
	})
	h.client.SetOnline(false)
	h.client.SetOnline(true)
	assert.Equal(t, []bool{false, true}, flips)

	var bound []model.ID
	h.resolver.OnBind(func(temp, serverID model.ID) {
		bound = append(bound, serverID)
		h.resolver.OnBind(func(model.ID, model.ID) {})
	})
	require.NoError(t, h.resolver.Bind(ctx, model.NewTempID(), "41"))
	require.NoError(t, h.resolver.Bind(ctx, model.NewTempID(), "42"))
	assert.Equal(t, []model.ID{"41", "42"}, bound)
}

func TestMutationsQueueBehindPendingRecords(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	api := &fakeAPI{}
	srv := httptest.NewServer(api)
	defer srv.Close()

	_, err := h.queue.Enqueue(ctx, Request{Method: http.MethodPut, URL: srv.URL + "/api/sessions/1", Body: []byte(`{"tags":"x"}`)})
	require.NoError(t, err)

	resp, err := h.client.Do(ctx, Request{Method: http.MethodPut, URL: srv.URL + "/api/sessions/1", Body: []byte(`{"status":"paused"}`)})
	require.NoError(t, err)
	assert.True(t, resp.Queued)
	assert.Empty(t, api.Calls())
}

func TestStatusErrorsSurfaceToCaller(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	srv := httptest.NewServer(&fakeAPI{respond: func(recordedCall) (int, string) {
		return http.StatusForbidden, `{"error":{"code":"forbidden","message":"forbidden"}}`
	}})
	defer srv.Close()

	_, err := h.client.Do(ctx, Request{Method: http.MethodPut, URL: srv.URL + "/api/sessions/1", Body: []byte(`{}`)})
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusForbidden, statusErr.Status)
	assert.False(t, statusErr.Retryable())
	assert.True(t, h.client.Online())
}

func TestMonitorDrainsWhenReachable(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	api := &fakeAPI{}
	srv := httptest.NewServer(api)
	defer srv.Close()

	h.client.SetOnline(false)
	_, err := h.client.Do(ctx, Request{Method: http.MethodPut, URL: srv.URL + "/api/sessions/5", Body: []byte(`{}`)})
	require.NoError(t, err)

	monitor := NewMonitor(h.client, srv.URL+"/", time.Second, logger.Discard())
	assert.True(t, monitor.Check(ctx))
	assert.True(t, h.client.Online())

	n, err := h.queue.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	calls := api.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "/health", calls[0].Path)
	assert.Equal(t, "/api/sessions/5", calls[1].Path)
}

func TestMonitorMarksOfflineWhenUnreachable(t *testing.T) {
	h := newHarness(t)
	monitor := NewMonitor(h.client, closedServerURL(t), time.Second, logger.Discard())
	assert.False(t, monitor.Check(context.Background()))
	assert.False(t, h.client.Online())
}

func TestIsNetworkError(t *testing.T) {
	assert.True(t, IsNetworkError(ErrOffline))
	assert.True(t, IsNetworkError(context.DeadlineExceeded))
	assert.True(t, IsNetworkError(io.ErrUnexpectedEOF))
	assert.False(t, IsNetworkError(context.Canceled))
	assert.False(t, IsNetworkError(errors.New("boom")))
	assert.False(t, IsNetworkError(nil))
}
