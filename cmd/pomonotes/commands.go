package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/syedzayyan/pomonotes/internal/apiclient"
	"github.com/syedzayyan/pomonotes/internal/clock"
	"github.com/syedzayyan/pomonotes/internal/model"
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderRow(false).
		Headers(headers...)
}

func newStatusCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show connectivity, queued requests and the active session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, root)
			if err != nil {
				return err
			}
			defer a.Close()
			out := cmd.OutOrStdout()

			online := a.api.Health(ctx) == nil
			state := "online"
			if !online {
				state = "offline"
			}
			fmt.Fprintf(out, "API:      %s (%s)\n", a.cfg.Client.APIURL, state)
			if online {
				if me, err := a.api.Me(ctx); err == nil {
					fmt.Fprintf(out, "User:     %s\n", me.Email)
				} else {
					fmt.Fprintln(out, "User:     not signed in")
				}
			}

			queued, err := a.requests.Queue().Len(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Queued:   %d\n", queued)

			alerts, err := a.store.NotificationCount(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Alerts:   %d\n", alerts)

			id, err := a.store.ActiveSessionID(ctx)
			if err != nil {
				return err
			}
			if id.IsZero() {
				fmt.Fprintln(out, "Session:  none")
				return nil
			}

			var session *model.Session
			if online {
				if s, err := a.api.GetSession(ctx, a.requests.Resolver().Resolve(id)); err == nil {
					session = &s
				}
			}
			if session == nil {
				if session, _, err = a.cache.Get(ctx, id); err != nil {
					return err
				}
			}
			if session == nil {
				fmt.Fprintf(out, "Session:  #%s (no details available)\n", id)
				return nil
			}
			fmt.Fprintf(out, "Session:  #%s %s, %d completed, %d skipped, tracked %s\n",
				session.ID, session.Status, session.CompletedPomodoros, session.SkippedPomodoros,
				clock.FormatSeconds(session.TotalTime))
			if session.Tags != "" {
				fmt.Fprintf(out, "Tags:     %s\n", session.Tags)
			}
			return nil
		},
	}
}

func newSyncCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Replay queued requests now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, root)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.api.Health(ctx); err != nil {
				return fmt.Errorf("api unreachable: %w", err)
			}
			result, err := a.requests.Queue().Drain(ctx)
			fmt.Fprintf(cmd.OutOrStdout(), "Replayed %d, rejected %d, remaining %d\n",
				result.Replayed, result.Rejected, result.Remaining)
			return err
		},
	}
}

func newQueueCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "queue",
		Short: "List requests waiting to be replayed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, root)
			if err != nil {
				return err
			}
			defer a.Close()
			out := cmd.OutOrStdout()

			pending, err := a.requests.Queue().Pending(ctx)
			if err != nil {
				return err
			}
			if len(pending) == 0 {
				fmt.Fprintln(out, "No queued requests")
				return nil
			}
			t := newTable("QUEUED", "METHOD", "URL", "ENTITY", "TEMP ID")
			for _, p := range pending {
				t.Row(time.Unix(0, p.InsertedAt).Format(time.DateTime), p.Method, p.URL, p.EntityType, string(p.TempID))
			}
			fmt.Fprintln(out, t.Render())
			return nil
		},
	}
}

func newHistoryCmd(root *rootFlags) *cobra.Command {
	var opts apiclient.ListOptions
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, root)
			if err != nil {
				return err
			}
			defer a.Close()
			out := cmd.OutOrStdout()

			sessions, err := a.api.ListSessions(ctx, opts)
			if err != nil {
				return err
			}
			if len(sessions) == 0 {
				fmt.Fprintln(out, "No sessions")
				return nil
			}
			t := newTable("ID", "STARTED", "STATUS", "DONE", "SKIPPED", "TRACKED", "TAGS")
			for _, s := range sessions {
				t.Row(
					string(s.ID),
					s.StartTime.Local().Format(time.DateTime),
					s.Status,
					strconv.Itoa(s.CompletedPomodoros),
					strconv.Itoa(s.SkippedPomodoros),
					clock.FormatSeconds(s.TotalTime),
					s.Tags,
				)
			}
			fmt.Fprintln(out, t.Render())
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.Tag, "tag", "", "only sessions with this tag")
	cmd.Flags().StringVar(&opts.Range, "range", "", "7days, 30days, 90days, year or all")
	cmd.Flags().IntVar(&opts.Days, "days", 0, "only sessions from the last N days")
	return cmd
}

func newNoteCmd(root *rootFlags) *cobra.Command {
	var sessionID string
	cmd := &cobra.Command{
		Use:   "note",
		Short: "Add or list session notes",
	}
	cmd.PersistentFlags().StringVar(&sessionID, "session", "", "session id (defaults to the active session)")

	sessionFor := func(cmd *cobra.Command, a *app) (model.ID, error) {
		if sessionID != "" {
			return model.ID(sessionID), nil
		}
		id, err := a.store.ActiveSessionID(cmd.Context())
		if err != nil {
			return "", err
		}
		if id.IsZero() {
			return "", errors.New("no active session; pass --session")
		}
		return id, nil
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <text>",
		Short: "Attach a markdown note to a session",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			text := strings.TrimSpace(strings.Join(args, " "))
			if text == "" {
				return errors.New("note text is required")
			}
			a, err := openApp(ctx, root)
			if err != nil {
				return err
			}
			defer a.Close()

			id, err := sessionFor(cmd, a)
			if err != nil {
				return err
			}
			note, err := a.api.CreateNote(ctx, model.Note{SessionID: id, Text: text, CreatedAt: time.Now()})
			if err != nil {
				return err
			}
			if note.ID.IsTemp() {
				fmt.Fprintln(cmd.OutOrStdout(), "Note queued until the API is reachable")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Note %s saved\n", note.ID)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the notes of a session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, root)
			if err != nil {
				return err
			}
			defer a.Close()

			id, err := sessionFor(cmd, a)
			if err != nil {
				return err
			}
			notes, err := a.api.ListNotes(ctx, id)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, n := range notes {
				fmt.Fprintf(out, "--- %s (%s)\n%s\n", n.ID, n.CreatedAt.Local().Format(time.DateTime), n.Text)
			}
			return nil
		},
	})
	return cmd
}

func newTagCmd(root *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tag",
		Short: "Manage the tag catalog",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <name>",
		Short: "Create a tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			name := strings.TrimSpace(args[0])
			if name == "" || strings.Contains(name, ",") {
				return errors.New("tag name must be non-empty and contain no commas")
			}
			a, err := openApp(ctx, root)
			if err != nil {
				return err
			}
			defer a.Close()

			tag, err := a.api.CreateTag(ctx, name)
			if err != nil {
				return err
			}
			if tag.ID.IsTemp() {
				fmt.Fprintf(cmd.OutOrStdout(), "Tag %s queued until the API is reachable\n", tag.Name)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Tag %s created (%s)\n", tag.Name, tag.Color)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List tags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, root)
			if err != nil {
				return err
			}
			defer a.Close()

			tags, err := a.api.ListTags(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, tag := range tags {
				swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(tag.Color)).Render("●")
				fmt.Fprintf(out, "%s %s\n", swatch, tag.Name)
			}
			return nil
		},
	})
	return cmd
}

func newLoginCmd(root *rootFlags) *cobra.Command {
	var (
		email    string
		password string
		register bool
	)
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the API token locally",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if email == "" {
				return errors.New("--email is required")
			}
			if password == "" {
				if !interactive(os.Stdin) {
					return errors.New("--password is required when stdin is not a terminal")
				}
				var err error
				if password, err = promptPassword(ctx); err != nil {
					return err
				}
			}

			a, err := openApp(ctx, root)
			if err != nil {
				return err
			}
			defer a.Close()

			auth := a.api.Login
			if register {
				auth = a.api.Register
			}
			result, err := auth(ctx, email, password)
			if err != nil {
				return err
			}
			if err := a.saveToken(ctx, result.Token); err != nil {
				return fmt.Errorf("store token: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", result.User.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when omitted)")
	cmd.Flags().BoolVar(&register, "register", false, "create the account first")
	return cmd
}
