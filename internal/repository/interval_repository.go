package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/syedzayyan/pomonotes/internal/model"
)

// IntervalRepository stores pomodoros and breaks.
type IntervalRepository struct {
	db *sql.DB
}

func NewIntervalRepository(db *sql.DB) *IntervalRepository {
	return &IntervalRepository{db: db}
}

func (r *IntervalRepository) CreatePomodoro(ctx context.Context, sessionID int64, p *model.Pomodoro) error {
	result, err := r.db.ExecContext(
		ctx,
		`INSERT INTO pomodoros (session_id, number, start_time, end_time, duration, status)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sessionID,
		p.Number,
		formatTime(p.StartTime),
		nullableTime(p.EndTime),
		p.Duration,
		p.Status,
	)
	if err != nil {
		return fmt.Errorf("create pomodoro: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("pomodoro id: %w", err)
	}
	p.ID = model.IDFromInt64(id)
	p.SessionID = model.IDFromInt64(sessionID)
	return nil
}

func (r *IntervalRepository) GetPomodoro(ctx context.Context, id int64) (*model.Pomodoro, error) {
	row := r.db.QueryRowContext(ctx, selectPomodoro+` WHERE id = ?`, id)
	p, err := scanPomodoro(row)
	if err != nil {
		return nil, notFoundOr(err, "get pomodoro")
	}
	return p, nil
}

func (r *IntervalRepository) ListPomodoros(ctx context.Context, sessionID int64) ([]model.Pomodoro, error) {
	rows, err := r.db.QueryContext(ctx, selectPomodoro+` WHERE session_id = ? ORDER BY number, id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list pomodoros: %w", err)
	}
	defer rows.Close()

	pomodoros := make([]model.Pomodoro, 0)
	for rows.Next() {
		p, scanErr := scanPomodoro(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan pomodoro: %w", scanErr)
		}
		pomodoros = append(pomodoros, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pomodoros: %w", err)
	}
	return pomodoros, nil
}

func (r *IntervalRepository) UpdatePomodoro(ctx context.Context, id int64, update model.IntervalUpdate) error {
	return r.updateInterval(ctx, "pomodoros", id, update)
}

func (r *IntervalRepository) CreateBreak(ctx context.Context, sessionID int64, pomodoroID *int64, b *model.Break) error {
	result, err := r.db.ExecContext(
		ctx,
		`INSERT INTO breaks (session_id, pomodoro_id, type, start_time, end_time, duration, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sessionID,
		nullableInt64(pomodoroID),
		b.Type,
		formatTime(b.StartTime),
		nullableTime(b.EndTime),
		b.Duration,
		b.Status,
	)
	if err != nil {
		return fmt.Errorf("create break: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("break id: %w", err)
	}
	b.ID = model.IDFromInt64(id)
	b.SessionID = model.IDFromInt64(sessionID)
	if pomodoroID != nil {
		b.PomodoroID = model.IDFromInt64(*pomodoroID)
	}
	return nil
}

func (r *IntervalRepository) GetBreak(ctx context.Context, id int64) (*model.Break, error) {
	row := r.db.QueryRowContext(ctx, selectBreak+` WHERE id = ?`, id)
	b, err := scanBreak(row)
	if err != nil {
		return nil, notFoundOr(err, "get break")
	}
	return b, nil
}

func (r *IntervalRepository) ListBreaks(ctx context.Context, sessionID int64) ([]model.Break, error) {
	rows, err := r.db.QueryContext(ctx, selectBreak+` WHERE session_id = ? ORDER BY start_time, id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list breaks: %w", err)
	}
	defer rows.Close()

	breaks := make([]model.Break, 0)
	for rows.Next() {
		b, scanErr := scanBreak(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan break: %w", scanErr)
		}
		breaks = append(breaks, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate breaks: %w", err)
	}
	return breaks, nil
}

func (r *IntervalRepository) UpdateBreak(ctx context.Context, id int64, update model.IntervalUpdate) error {
	return r.updateInterval(ctx, "breaks", id, update)
}

func (r *IntervalRepository) updateInterval(ctx context.Context, table string, id int64, update model.IntervalUpdate) error {
	var sets []string
	var args []interface{}
	if update.EndTime != nil {
		sets = append(sets, "end_time = ?")
		args = append(args, formatTime(*update.EndTime))
	}
	if update.Duration != nil {
		sets = append(sets, "duration = ?")
		args = append(args, *update.Duration)
	}
	if update.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, *update.Status)
	}
	if len(sets) == 0 {
		return nil
	}

	args = append(args, id)
	result, err := r.db.ExecContext(
		ctx,
		`UPDATE `+table+` SET `+strings.Join(sets, ", ")+` WHERE id = ?`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("update %s: %w", table, err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return ErrNotFound
	}
	return nil
}

const selectPomodoro = `SELECT id, session_id, number, start_time, end_time, duration, status FROM pomodoros`

const selectBreak = `SELECT id, session_id, pomodoro_id, type, start_time, end_time, duration, status FROM breaks`

func scanPomodoro(s scanner) (*model.Pomodoro, error) {
	var p model.Pomodoro
	var id, sessionID int64
	var startTime string
	var endTime sql.NullString
	if err := s.Scan(&id, &sessionID, &p.Number, &startTime, &endTime, &p.Duration, &p.Status); err != nil {
		return nil, err
	}
	p.ID = model.IDFromInt64(id)
	p.SessionID = model.IDFromInt64(sessionID)

	var err error
	if p.StartTime, err = parseTime(startTime); err != nil {
		return nil, fmt.Errorf("parse pomodoro start_time: %w", err)
	}
	if p.EndTime, err = parseNullTime(endTime, "pomodoro end_time"); err != nil {
		return nil, err
	}
	return &p, nil
}

func scanBreak(s scanner) (*model.Break, error) {
	var b model.Break
	var id, sessionID int64
	var pomodoroID sql.NullInt64
	var startTime string
	var endTime sql.NullString
	if err := s.Scan(&id, &sessionID, &pomodoroID, &b.Type, &startTime, &endTime, &b.Duration, &b.Status); err != nil {
		return nil, err
	}
	b.ID = model.IDFromInt64(id)
	b.SessionID = model.IDFromInt64(sessionID)
	if pomodoroID.Valid {
		b.PomodoroID = model.IDFromInt64(pomodoroID.Int64)
	}

	var err error
	if b.StartTime, err = parseTime(startTime); err != nil {
		return nil, fmt.Errorf("parse break start_time: %w", err)
	}
	if b.EndTime, err = parseNullTime(endTime, "break end_time"); err != nil {
		return nil, err
	}
	return &b, nil
}
