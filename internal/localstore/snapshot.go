package localstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/syedzayyan/pomonotes/internal/model"
)

func (s *Store) PutSnapshot(ctx context.Context, session model.Session) error {
	if session.ID.IsZero() {
		return errors.New("snapshot without session id")
	}
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO session_snapshots (session_id, payload, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(session_id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		session.ID.String(),
		string(payload),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("put snapshot: %w", err)
	}
	return nil
}

func (s *Store) GetSnapshot(ctx context.Context, id model.ID) (*model.Session, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM session_snapshots WHERE session_id = ?`, id.String()).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}

	var session model.Session
	if err := json.Unmarshal([]byte(payload), &session); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &session, nil
}

func (s *Store) DeleteSnapshot(ctx context.Context, id model.ID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM session_snapshots WHERE session_id = ?`, id.String()); err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}

func (s *Store) PutMapping(ctx context.Context, temp, serverID model.ID) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO id_mappings (temp_id, server_id) VALUES (?, ?)
		 ON CONFLICT(temp_id) DO UPDATE SET server_id = excluded.server_id`,
		temp.String(),
		serverID.String(),
	)
	if err != nil {
		return fmt.Errorf("put id mapping: %w", err)
	}
	return nil
}

func (s *Store) Mappings(ctx context.Context) (map[model.ID]model.ID, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT temp_id, server_id FROM id_mappings`)
	if err != nil {
		return nil, fmt.Errorf("list id mappings: %w", err)
	}
	defer rows.Close()

	mappings := make(map[model.ID]model.ID)
	for rows.Next() {
		var temp, server string
		if err := rows.Scan(&temp, &server); err != nil {
			return nil, fmt.Errorf("scan id mapping: %w", err)
		}
		mappings[model.ID(temp)] = model.ID(server)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate id mappings: %w", err)
	}
	return mappings, nil
}
