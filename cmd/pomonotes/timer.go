package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/syedzayyan/pomonotes/internal/notify"
	"github.com/syedzayyan/pomonotes/internal/timer"
	"github.com/syedzayyan/pomonotes/internal/tui"
)

type timerFlags struct {
	tags     []string
	headless bool
	resume   bool
}

func newTimerCmd(root *rootFlags) *cobra.Command {
	flags := &timerFlags{}
	cmd := &cobra.Command{
		Use:   "timer",
		Short: "Run the pomodoro timer",
		Long: "Runs the interactive timer. A session left open by an earlier run is offered for " +
			"resumption first. With --headless the timer starts immediately and prints alerts.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTimer(cmd.Context(), root, flags, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringSliceVar(&flags.tags, "tag", nil, "tag for the session (repeatable)")
	cmd.Flags().BoolVar(&flags.headless, "headless", false, "run without the TUI")
	cmd.Flags().BoolVar(&flags.resume, "resume", true, "resume an open session when stdin is not a terminal")
	return cmd
}

func runTimer(ctx context.Context, root *rootFlags, flags *timerFlags, out io.Writer) error {
	a, err := openApp(ctx, root)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer func() {
		cancel()
		wg.Wait()
	}()

	sinks := []notify.Sink{notify.NewBadge(a.store), notify.NewLog(a.log)}
	if flags.headless {
		sinks = append(sinks, notify.NewTerminal(out))
	}
	machine := timer.New(timer.ConfigFrom(a.cfg.Timer), timer.Deps{
		API:       a.api,
		Marker:    a.store,
		Cache:     a.cache,
		Presenter: notify.NewDispatcher(a.log, sinks...),
		Log:       a.log,
	})
	defer func() {
		closeCtx, cancelClose := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelClose()
		if err := machine.Close(closeCtx); err != nil {
			a.log.Warn("timer close did not finish pending writes", "error", err)
		}
	}()
	a.requests.Resolver().OnBind(machine.ResolveID)

	// Replay anything queued by an earlier run before looking for an open session.
	a.monitor.Check(ctx)
	wg.Add(1)
	go func() {
		defer wg.Done()
		a.monitor.Run(ctx)
	}()

	result, err := machine.Restore(ctx, promptConfirmer{in: os.Stdin, fallback: flags.resume, log: a.log})
	if err != nil {
		return fmt.Errorf("restore session: %w", err)
	}
	if result.Found && !result.Resumed {
		fmt.Fprintf(out, "Stopped session #%s\n", result.Session.ID)
	}

	for _, tag := range flags.tags {
		if err := machine.AddTag(tag); err != nil {
			return fmt.Errorf("tag %q: %w", tag, err)
		}
	}

	if flags.headless {
		return runHeadless(ctx, machine, out)
	}
	return tui.Run(ctx, machine, tui.Options{
		Online: a.requests.Online,
		Pending: func() int {
			n, err := a.requests.Queue().Len(ctx)
			if err != nil {
				return 0
			}
			return n
		},
	})
}

// runHeadless starts the timer and prints each phase change until the session
// ends or ctx is cancelled.
func runHeadless(ctx context.Context, m *timer.Machine, out io.Writer) error {
	events := m.Subscribe(16)
	if err := m.Start(); err != nil && !errors.Is(err, timer.ErrAlreadyRunning) {
		return err
	}

	var last timer.State
	for {
		select {
		case <-ctx.Done():
			return nil
		case snap, ok := <-events:
			if !ok {
				return nil
			}
			if snap.State != last {
				last = snap.State
				fmt.Fprintf(out, "%s  %s  pomodoro %d/%d\n", snap.State, snap.Display, snap.Ordinal, snap.IntervalsPerSession)
			}
			if !snap.Active() {
				return nil
			}
		}
	}
}
