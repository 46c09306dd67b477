package notify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// Counter persists the unread alert count.
type Counter interface {
	IncrementNotificationCount(ctx context.Context) (int, error)
	ResetNotificationCount(ctx context.Context) error
}

// Badge counts boundary alerts until they are cleared.
type Badge struct {
	counter Counter

	mu    sync.Mutex
	count int
}

func NewBadge(counter Counter) *Badge {
	return &Badge{counter: counter}
}

func (b *Badge) Name() string { return "badge" }

func (b *Badge) Send(ctx context.Context, alert Alert) error {
	switch alert.Kind {
	case KindBoundary:
		n, err := b.counter.IncrementNotificationCount(ctx)
		if err != nil {
			return fmt.Errorf("increment badge: %w", err)
		}
		b.set(n)
	case KindCleared:
		if err := b.counter.ResetNotificationCount(ctx); err != nil {
			return fmt.Errorf("reset badge: %w", err)
		}
		b.set(0)
	}
	return nil
}

func (b *Badge) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

func (b *Badge) set(n int) {
	b.mu.Lock()
	b.count = n
	b.mu.Unlock()
}

// Terminal rings the bell and prints a line for boundary alerts.
type Terminal struct {
	mu sync.Mutex
	w  io.Writer
}

func NewTerminal(w io.Writer) *Terminal {
	return &Terminal{w: w}
}

func (t *Terminal) Name() string { return "terminal" }

func (t *Terminal) Send(_ context.Context, alert Alert) error {
	if alert.Kind != KindBoundary {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := fmt.Fprintf(t.w, "\a%s: %s\n", alert.Title, alert.Message)
	return err
}

// Log records every alert.
type Log struct {
	log *slog.Logger
}

func NewLog(log *slog.Logger) *Log {
	return &Log{log: log}
}

func (l *Log) Name() string { return "log" }

func (l *Log) Send(ctx context.Context, alert Alert) error {
	l.log.InfoContext(ctx, "alert",
		"kind", alert.Kind,
		"phase", alert.Phase,
		"ordinal", alert.Ordinal,
		"remaining", alert.Remaining,
	)
	return nil
}
