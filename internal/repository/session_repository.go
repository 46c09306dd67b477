package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/syedzayyan/pomonotes/internal/model"
)

type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// SessionFilter narrows List. Zero values match everything.
type SessionFilter struct {
	UserID string
	Tag    string
	Since  *time.Time
	Limit  int
}

func (r *SessionRepository) Create(ctx context.Context, session *model.Session) error {
	var userID interface{}
	if session.UserID != "" {
		userID = session.UserID
	}

	result, err := r.db.ExecContext(
		ctx,
		`INSERT INTO sessions (
			user_id, start_time, end_time, status, total_time,
			completed_pomodoros, skipped_pomodoros, tags
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		userID,
		formatTime(session.StartTime),
		nullableTime(session.EndTime),
		session.Status,
		session.TotalTime,
		session.CompletedPomodoros,
		session.SkippedPomodoros,
		session.Tags,
	)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("session id: %w", err)
	}
	session.ID = model.IDFromInt64(id)
	return nil
}

func (r *SessionRepository) Get(ctx context.Context, id int64) (*model.Session, error) {
	row := r.db.QueryRowContext(ctx, selectSession+` WHERE id = ?`, id)
	session, err := scanSession(row)
	if err != nil {
		return nil, notFoundOr(err, "get session")
	}
	return session, nil
}

func (r *SessionRepository) List(ctx context.Context, filter SessionFilter) ([]model.Session, error) {
	var where []string
	var args []interface{}
	if filter.UserID != "" {
		where = append(where, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.Tag != "" {
		where = append(where, "(',' || tags || ',') LIKE ?")
		args = append(args, "%,"+filter.Tag+",%")
	}
	if filter.Since != nil {
		where = append(where, "start_time >= ?")
		args = append(args, formatTime(*filter.Since))
	}

	query := selectSession
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY start_time DESC, id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]model.Session, 0)
	for rows.Next() {
		session, scanErr := scanSession(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan session: %w", scanErr)
		}
		sessions = append(sessions, *session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// Update writes only the non-nil fields of update.
func (r *SessionRepository) Update(ctx context.Context, id int64, update model.SessionUpdate) error {
	var sets []string
	var args []interface{}
	if update.EndTime != nil {
		sets = append(sets, "end_time = ?")
		args = append(args, formatTime(*update.EndTime))
	}
	if update.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, *update.Status)
	}
	if update.TotalTime != nil {
		sets = append(sets, "total_time = ?")
		args = append(args, *update.TotalTime)
	}
	if update.CompletedPomodoros != nil {
		sets = append(sets, "completed_pomodoros = ?")
		args = append(args, *update.CompletedPomodoros)
	}
	if update.SkippedPomodoros != nil {
		sets = append(sets, "skipped_pomodoros = ?")
		args = append(args, *update.SkippedPomodoros)
	}
	if update.Tags != nil {
		sets = append(sets, "tags = ?")
		args = append(args, *update.Tags)
	}
	if len(sets) == 0 {
		return nil
	}

	args = append(args, id)
	result, err := r.db.ExecContext(
		ctx,
		`UPDATE sessions SET `+strings.Join(sets, ", ")+` WHERE id = ?`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the session; pomodoros, breaks and notes follow via ON DELETE CASCADE.
func (r *SessionRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return ErrNotFound
	}
	return nil
}

const selectSession = `SELECT id, user_id, start_time, end_time, status, total_time,
	completed_pomodoros, skipped_pomodoros, tags FROM sessions`

func scanSession(s scanner) (*model.Session, error) {
	var session model.Session
	var id int64
	var userID sql.NullString
	var startTime string
	var endTime sql.NullString
	if err := s.Scan(
		&id,
		&userID,
		&startTime,
		&endTime,
		&session.Status,
		&session.TotalTime,
		&session.CompletedPomodoros,
		&session.SkippedPomodoros,
		&session.Tags,
	); err != nil {
		return nil, err
	}

	session.ID = model.IDFromInt64(id)
	session.UserID = userID.String

	parsedStart, err := parseTime(startTime)
	if err != nil {
		return nil, fmt.Errorf("parse session start_time: %w", err)
	}
	session.StartTime = parsedStart

	if session.EndTime, err = parseNullTime(endTime, "session end_time"); err != nil {
		return nil, err
	}
	return &session, nil
}
