package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/syedzayyan/pomonotes/internal/model"
)

type NoteRepository struct {
	db *sql.DB
}

func NewNoteRepository(db *sql.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

func (r *NoteRepository) Create(ctx context.Context, sessionID int64, pomodoroID *int64, note *model.Note) error {
	result, err := r.db.ExecContext(
		ctx,
		`INSERT INTO notes (session_id, pomodoro_id, note, created_at) VALUES (?, ?, ?, ?)`,
		sessionID,
		nullableInt64(pomodoroID),
		note.Text,
		formatTime(note.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("create note: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("note id: %w", err)
	}
	note.ID = model.IDFromInt64(id)
	note.SessionID = model.IDFromInt64(sessionID)
	if pomodoroID != nil {
		note.PomodoroID = model.IDFromInt64(*pomodoroID)
	}
	return nil
}

func (r *NoteRepository) Get(ctx context.Context, id int64) (*model.Note, error) {
	row := r.db.QueryRowContext(ctx, selectNote+` WHERE n.id = ?`, id)
	note, err := scanNote(row)
	if err != nil {
		return nil, notFoundOr(err, "get note")
	}
	return note, nil
}

// List returns notes on sessions owned by userID, newest first. A non-nil
// sessionID restricts the result to that session.
func (r *NoteRepository) List(ctx context.Context, userID string, sessionID *int64) ([]model.Note, error) {
	query := selectNote + ` WHERE s.user_id = ?`
	args := []interface{}{userID}
	if sessionID != nil {
		query += ` AND n.session_id = ?`
		args = append(args, *sessionID)
	}
	query += ` ORDER BY n.created_at DESC, n.id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	notes := make([]model.Note, 0)
	for rows.Next() {
		note, scanErr := scanNote(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan note: %w", scanErr)
		}
		notes = append(notes, *note)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notes: %w", err)
	}
	return notes, nil
}

func (r *NoteRepository) UpdateText(ctx context.Context, id int64, text string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE notes SET note = ? WHERE id = ?`, text, id)
	if err != nil {
		return fmt.Errorf("update note: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *NoteRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return ErrNotFound
	}
	return nil
}

const selectNote = `SELECT n.id, n.session_id, n.pomodoro_id, n.note, n.created_at
	FROM notes n JOIN sessions s ON s.id = n.session_id`

func scanNote(s scanner) (*model.Note, error) {
	var note model.Note
	var id, sessionID int64
	var pomodoroID sql.NullInt64
	var createdAt string
	if err := s.Scan(&id, &sessionID, &pomodoroID, &note.Text, &createdAt); err != nil {
		return nil, err
	}
	note.ID = model.IDFromInt64(id)
	note.SessionID = model.IDFromInt64(sessionID)
	if pomodoroID.Valid {
		note.PomodoroID = model.IDFromInt64(pomodoroID.Int64)
	}

	var err error
	if note.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse note created_at: %w", err)
	}
	return &note, nil
}
