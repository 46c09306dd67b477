// Package localstore is the client's durable state: key/value markers, the
// pending request queue, session snapshots and temp-id mappings. Each concern
// owns its own table.
package localstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/syedzayyan/pomonotes/internal/db"
	"github.com/syedzayyan/pomonotes/internal/model"
)

var ErrNotFound = errors.New("localstore: not found")

const (
	KeyActiveSession     = "pomonotes.active_session_id"
	KeyNotificationCount = "pomonotes.notification_counter"
	KeyAuthToken         = "pomonotes.auth_token"
)

type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the state database at path and applies the
// client schema.
func Open(path string) (*Store, error) {
	database, err := db.OpenSQLite(path)
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(database, db.ClientMigrations()); err != nil {
		_ = database.Close()
		return nil, err
	}
	return &Store{db: database}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Value(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", key, err)
	}
	return value, nil
}

func (s *Store) SetValue(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key,
		value,
	)
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func (s *Store) DeleteValue(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// ActiveSessionID returns the remembered session id, or "" when none is set.
func (s *Store) ActiveSessionID(ctx context.Context) (model.ID, error) {
	value, err := s.Value(ctx, KeyActiveSession)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return model.ID(value), nil
}

func (s *Store) SetActiveSessionID(ctx context.Context, id model.ID) error {
	if id.IsZero() {
		return s.DeleteValue(ctx, KeyActiveSession)
	}
	return s.SetValue(ctx, KeyActiveSession, id.String())
}

func (s *Store) NotificationCount(ctx context.Context) (int, error) {
	value, err := s.Value(ctx, KeyNotificationCount)
	if errors.Is(err, ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, nil
	}
	return n, nil
}

func (s *Store) IncrementNotificationCount(ctx context.Context) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin counter tx: %w", err)
	}
	defer tx.Rollback()

	var raw string
	count := 0
	err = tx.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, KeyNotificationCount).Scan(&raw)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return 0, fmt.Errorf("read counter: %w", err)
	default:
		count, _ = strconv.Atoi(raw)
	}
	count++

	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		KeyNotificationCount,
		strconv.Itoa(count),
	); err != nil {
		return 0, fmt.Errorf("write counter: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit counter: %w", err)
	}
	return count, nil
}

func (s *Store) ResetNotificationCount(ctx context.Context) error {
	return s.DeleteValue(ctx, KeyNotificationCount)
}

func (s *Store) AuthToken(ctx context.Context) (string, error) {
	token, err := s.Value(ctx, KeyAuthToken)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return token, err
}

func (s *Store) SetAuthToken(ctx context.Context, token string) error {
	return s.SetValue(ctx, KeyAuthToken, token)
}
