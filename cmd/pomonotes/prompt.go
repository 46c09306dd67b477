package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

func interactive(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// promptConfirmer asks on the terminal. Without a terminal it answers with
// fallback so scripted runs never block.
type promptConfirmer struct {
	in       *os.File
	fallback bool
	log      *slog.Logger
}

func (p promptConfirmer) Confirm(ctx context.Context, prompt string) bool {
	if !interactive(p.in) {
		return p.fallback
	}
	ok := p.fallback
	err := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(prompt).
			Affirmative("Yes").
			Negative("No").
			Value(&ok),
	)).RunWithContext(ctx)
	if err != nil {
		if !errors.Is(err, huh.ErrUserAborted) {
			p.log.Warn("confirm prompt failed", "error", err)
		}
		return false
	}
	return ok
}

func promptPassword(ctx context.Context) (string, error) {
	var password string
	err := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Validate(func(s string) error {
				if s == "" {
					return errors.New("password is required")
				}
				return nil
			}).
			Value(&password),
	)).RunWithContext(ctx)
	return password, err
}
