// Package notify turns timer events into user-visible alerts.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

type Kind string

const (
	// KindRunning replaces any paused alert while a countdown runs.
	KindRunning Kind = "running"
	KindPaused  Kind = "paused"
	// KindBoundary fires once when a phase reaches its nominal length.
	KindBoundary Kind = "boundary"
	// KindCleared withdraws all alerts and resets the badge.
	KindCleared Kind = "cleared"
)

type Alert struct {
	Kind      Kind      `json:"kind"`
	Phase     string    `json:"phase"`
	Ordinal   int       `json:"ordinal"`
	Remaining int       `json:"remaining"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	At        time.Time `json:"at"`
}

// Presenter receives every alert the timer produces.
type Presenter interface {
	Present(ctx context.Context, alert Alert)
}

type PresenterFunc func(ctx context.Context, alert Alert)

func (f PresenterFunc) Present(ctx context.Context, alert Alert) {
	f(ctx, alert)
}

// Sink delivers alerts over one channel.
type Sink interface {
	Name() string
	Send(ctx context.Context, alert Alert) error
}

// Dispatcher fans alerts out to sinks. A failing sink is logged and does not
// stop delivery to the others.
type Dispatcher struct {
	sinks []Sink
	log   *slog.Logger
}

func NewDispatcher(log *slog.Logger, sinks ...Sink) *Dispatcher {
	return &Dispatcher{sinks: sinks, log: log}
}

func (d *Dispatcher) Present(ctx context.Context, alert Alert) {
	for _, sink := range d.sinks {
		if err := sink.Send(ctx, alert); err != nil {
			d.log.Warn("alert delivery failed",
				"sink", sink.Name(),
				"kind", alert.Kind,
				"error", err,
			)
			continue
		}
		d.log.Debug("alert delivered", "sink", sink.Name(), "kind", alert.Kind)
	}
}

// BoundaryAlert describes the end of a phase.
func BoundaryAlert(phase string, ordinal int, at time.Time) Alert {
	alert := Alert{Kind: KindBoundary, Phase: phase, Ordinal: ordinal, At: at}
	if phase == "work" {
		alert.Title = "Pomodoro complete"
		alert.Message = fmt.Sprintf("Pomodoro %d is done. Time for a break.", ordinal)
	} else {
		alert.Title = "Break over"
		alert.Message = "Back to work."
	}
	return alert
}
