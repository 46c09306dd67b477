package offline

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Monitor probes the API health endpoint and drains the queue whenever the
// API is reachable and requests are waiting.
type Monitor struct {
	client   *Client
	url      string
	interval time.Duration
	log      *slog.Logger
}

func NewMonitor(client *Client, baseURL string, interval time.Duration, log *slog.Logger) *Monitor {
	return &Monitor{
		client:   client,
		url:      strings.TrimRight(baseURL, "/") + "/health",
		interval: interval,
		log:      log,
	}
}

// Run checks immediately and then every interval until ctx is done.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		m.Check(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Check probes once and reports whether the API answered.
func (m *Monitor) Check(ctx context.Context) bool {
	status, _, err := send(ctx, m.client.doer, http.MethodGet, m.url, nil, nil)
	if err != nil || status >= http.StatusInternalServerError {
		if ctx.Err() == nil {
			m.client.SetOnline(false)
		}
		return false
	}

	m.client.SetOnline(true)

	n, err := m.client.queue.Len(ctx)
	if err != nil {
		m.log.Warn("inspect request queue failed", "error", err)
		return true
	}
	if n == 0 {
		return true
	}

	result, err := m.client.queue.Drain(ctx)
	if err != nil {
		if IsNetworkError(err) {
			m.client.SetOnline(false)
		}
		return true
	}
	if result.Replayed > 0 || result.Rejected > 0 {
		m.log.Info("queue drained", "replayed", result.Replayed, "rejected", result.Rejected)
	}
	return true
}
