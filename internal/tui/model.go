// Package tui renders the running timer and maps keys onto machine controls.
// It holds no timer state of its own; every frame is drawn from the latest
// machine snapshot.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/syedzayyan/pomonotes/internal/clock"
	"github.com/syedzayyan/pomonotes/internal/model"
	"github.com/syedzayyan/pomonotes/internal/timer"
)

// Controller is the part of the timer machine the view drives.
type Controller interface {
	Snapshot() timer.Snapshot
	Subscribe(buffer int) <-chan timer.Snapshot
	Start() error
	Pause() error
	Skip(ctx context.Context, confirm timer.Confirmer) (bool, error)
	Stop(ctx context.Context, confirm timer.Confirmer) (bool, error)
	Reset(ctx context.Context, confirm timer.Confirmer) (bool, error)
	AddTag(name string) error
	AddNote(ctx context.Context, text string) (model.Note, error)
	ClearNotifications()
}

type Options struct {
	// Online reports connectivity for the status line. Optional.
	Online func() bool
	// Pending reports queued requests for the status line. Optional.
	Pending func() int
}

type snapshotMsg timer.Snapshot

type eventsClosedMsg struct{}

type resultMsg struct {
	text string
	err  error
}

type action int

const (
	actionSkip action = iota + 1
	actionStop
	actionReset
)

type inputMode int

const (
	inputNone inputMode = iota
	inputTag
	inputNote
)

type Model struct {
	ctx    context.Context
	ctrl   Controller
	opts   Options
	events <-chan timer.Snapshot

	snap     timer.Snapshot
	keys     keyMap
	styles   styles
	progress progress.Model
	help     help.Model
	input    textinput.Model
	mode     inputMode

	confirming action
	prompt     string

	status    string
	statusErr bool
	width     int
}

func New(ctx context.Context, ctrl Controller, opts Options) Model {
	ti := textinput.New()
	ti.CharLimit = 500
	ti.Width = 40

	return Model{
		ctx:      ctx,
		ctrl:     ctrl,
		opts:     opts,
		events:   ctrl.Subscribe(32),
		snap:     ctrl.Snapshot(),
		keys:     defaultKeys(),
		styles:   defaultStyles(),
		progress: progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		help:     help.New(),
		input:    ti,
	}
}

func (m Model) Init() tea.Cmd {
	return waitForSnapshot(m.events)
}

func waitForSnapshot(ch <-chan timer.Snapshot) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-ch
		if !ok {
			return eventsClosedMsg{}
		}
		return snapshotMsg(snap)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progress.Width = min(max(msg.Width-8, 10), 60)
		m.help.Width = msg.Width
		return m, nil

	case snapshotMsg:
		m.snap = timer.Snapshot(msg)
		return m, waitForSnapshot(m.events)

	case eventsClosedMsg:
		return m, tea.Quit

	case resultMsg:
		m.snap = m.ctrl.Snapshot()
		m.setStatus(msg.text, msg.err)
		return m, nil

	case tea.KeyMsg:
		switch {
		case m.confirming != 0:
			return m.handleConfirmKey(msg)
		case m.mode != inputNone:
			return m.handleInputKey(msg)
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Toggle):
		var err error
		if m.snap.Active() && !m.snap.Paused() {
			err = m.ctrl.Pause()
		} else {
			err = m.ctrl.Start()
		}
		m.snap = m.ctrl.Snapshot()
		m.setStatus("", err)
		return m, nil

	case key.Matches(msg, m.keys.Skip):
		return m.ask(actionSkip, fmt.Sprintf("Skip the current %s?", phaseWord(m.snap)))

	case key.Matches(msg, m.keys.Stop):
		return m.ask(actionStop, "Stop the current timer? This ends the current session.")

	case key.Matches(msg, m.keys.Reset):
		if !m.snap.Active() {
			return m, m.run(actionReset)
		}
		return m.ask(actionReset, "Reset the timer? This cancels the current session.")

	case key.Matches(msg, m.keys.Tag):
		return m.openInput(inputTag, "tag name")

	case key.Matches(msg, m.keys.Note):
		if !m.snap.Active() {
			m.setStatus("", timer.ErrNoSession)
			return m, nil
		}
		return m.openInput(inputNote, "note (markdown)")

	case key.Matches(msg, m.keys.Clear):
		m.ctrl.ClearNotifications()
		m.setStatus("Notifications cleared", nil)
		return m, nil

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}
	return m, nil
}

func (m Model) ask(a action, prompt string) (tea.Model, tea.Cmd) {
	if !m.snap.Active() {
		m.setStatus("", timer.ErrNotRunning)
		return m, nil
	}
	m.confirming = a
	m.prompt = prompt
	return m, nil
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := m.confirming
	switch msg.String() {
	case "y", "Y", "enter":
		m.confirming = 0
		m.prompt = ""
		return m, m.run(a)
	case "n", "N", "esc", "q":
		m.confirming = 0
		m.prompt = ""
		m.setStatus("Cancelled", nil)
	}
	return m, nil
}

// run executes a confirmed control off the update loop. The dialog already
// asked, so the machine gets timer.Confirmed.
func (m Model) run(a action) tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		var (
			done bool
			err  error
			text string
		)
		switch a {
		case actionSkip:
			done, err = ctrl.Skip(ctx, timer.Confirmed)
			text = "Skipped"
		case actionStop:
			done, err = ctrl.Stop(ctx, timer.Confirmed)
			text = "Session stopped"
		case actionReset:
			done, err = ctrl.Reset(ctx, timer.Confirmed)
			text = "Timer reset"
		}
		if !done && err == nil {
			text = ""
		}
		return resultMsg{text: text, err: err}
	}
}

func (m Model) openInput(mode inputMode, placeholder string) (tea.Model, tea.Cmd) {
	m.mode = mode
	m.input.Reset()
	m.input.Placeholder = placeholder
	return m, m.input.Focus()
}

func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.closeInput()
		return m, nil
	case tea.KeyEnter:
		value := m.input.Value()
		mode := m.mode
		m.closeInput()
		if mode == inputTag {
			err := m.ctrl.AddTag(value)
			m.snap = m.ctrl.Snapshot()
			if err == nil {
				m.setStatus(fmt.Sprintf("Tagged %q", strings.TrimSpace(value)), nil)
			} else {
				m.setStatus("", err)
			}
			return m, nil
		}
		ctx, ctrl := m.ctx, m.ctrl
		return m, func() tea.Msg {
			if _, err := ctrl.AddNote(ctx, value); err != nil {
				return resultMsg{err: err}
			}
			return resultMsg{text: "Note saved"}
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) closeInput() {
	m.mode = inputNone
	m.input.Blur()
	m.input.Reset()
}

func (m *Model) setStatus(text string, err error) {
	m.statusErr = err != nil
	switch {
	case err != nil && errors.Is(err, timer.ErrAlreadyRunning):
		m.status = "Already running"
	case err != nil:
		m.status = err.Error()
	default:
		m.status = text
	}
}

func phaseWord(s timer.Snapshot) string {
	if s.InBreak() {
		return "break"
	}
	return "pomodoro"
}

func (m Model) View() string {
	s := m.snap
	var b strings.Builder

	b.WriteString(m.styles.Phase.Render(heading(s)))
	b.WriteString("\n\n")

	display := s.Display
	if display == "" {
		display = clock.FormatSeconds(s.Remaining)
	}
	clockStyle := m.styles.Work
	switch {
	case s.Overtime && s.Active():
		clockStyle = m.styles.Overtime
	case s.InBreak():
		clockStyle = m.styles.Break
	}
	b.WriteString(clockStyle.Render(display))
	if s.Paused() {
		b.WriteString("  " + m.styles.Stat.Render("paused"))
	}
	b.WriteString("\n")
	b.WriteString(m.progress.ViewAs(fraction(s)))
	b.WriteString("\n\n")

	b.WriteString(m.styles.Stat.Render(fmt.Sprintf("Completed %d · Skipped %d · Tracked %s",
		s.Completed, s.Skipped, clock.FormatSeconds(s.TotalTime))))
	b.WriteString("\n")

	if len(s.Tags) > 0 {
		tags := make([]string, len(s.Tags))
		for i, tag := range s.Tags {
			tags[i] = m.styles.Tag.Render(tag)
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tags...))
		b.WriteString("\n")
	}

	if line := m.connectivity(); line != "" {
		b.WriteString(line)
		b.WriteString("\n")
	}

	if m.status != "" {
		style := m.styles.Status
		if m.statusErr {
			style = m.styles.Error
		}
		b.WriteString(style.Render(m.status))
		b.WriteString("\n")
	}

	switch {
	case m.confirming != 0:
		dialog := m.prompt + "\n" + m.styles.Key.Render("[Y] Yes") + "    " + m.styles.Key.Render("[N] No")
		b.WriteString(m.styles.Dialog.Render(dialog))
		b.WriteString("\n")
	case m.mode != inputNone:
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return m.styles.Frame.Render(b.String())
}

func (m Model) connectivity() string {
	var parts []string
	if m.opts.Online != nil && !m.opts.Online() {
		parts = append(parts, m.styles.Offline.Render("offline"))
	}
	if m.opts.Pending != nil {
		if n := m.opts.Pending(); n > 0 {
			parts = append(parts, m.styles.Stat.Render(fmt.Sprintf("%d queued", n)))
		}
	}
	return strings.Join(parts, " ")
}

func heading(s timer.Snapshot) string {
	switch {
	case !s.Active():
		return "Ready"
	case s.InBreak() && s.BreakType == model.BreakLong:
		return "Long break"
	case s.InBreak():
		return "Short break"
	}
	return fmt.Sprintf("Pomodoro %d/%d", s.Ordinal, s.IntervalsPerSession)
}

func fraction(s timer.Snapshot) float64 {
	if s.PhaseLength <= 0 {
		return 0
	}
	f := float64(s.PhaseLength-s.Remaining) / float64(s.PhaseLength)
	return min(max(f, 0), 1)
}

// Run drives the machine interactively until the user quits or ctx ends.
func Run(ctx context.Context, ctrl Controller, opts Options) error {
	p := tea.NewProgram(New(ctx, ctrl, opts), tea.WithContext(ctx), tea.WithAltScreen())
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
