package localstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/syedzayyan/pomonotes/internal/model"
)

// PendingRequest is a mutating API call waiting to be replayed. InsertedAt is
// both the ordering key and the record id.
type PendingRequest struct {
	InsertedAt int64             `json:"inserted_at"`
	URL        string            `json:"url"`
	Method     string            `json:"method"`
	Headers    map[string]string `json:"headers,omitempty"`
	Body       []byte            `json:"body,omitempty"`
	EntityType string            `json:"entity_type,omitempty"`
	TempID     model.ID          `json:"temp_id,omitempty"`
}

func (s *Store) AppendPending(ctx context.Context, req PendingRequest) error {
	headers, err := json.Marshal(req.Headers)
	if err != nil {
		return fmt.Errorf("encode headers: %w", err)
	}
	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO pending_requests (inserted_at, url, method, headers, body, entity_type, temp_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		req.InsertedAt,
		req.URL,
		req.Method,
		string(headers),
		req.Body,
		req.EntityType,
		req.TempID.String(),
	)
	if err != nil {
		return fmt.Errorf("append pending request: %w", err)
	}
	return nil
}

// ListPending returns queued requests in insertion order.
func (s *Store) ListPending(ctx context.Context) ([]PendingRequest, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT inserted_at, url, method, headers, body, entity_type, temp_id
		 FROM pending_requests ORDER BY inserted_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("list pending requests: %w", err)
	}
	defer rows.Close()

	pending := make([]PendingRequest, 0)
	for rows.Next() {
		var req PendingRequest
		var headers string
		var tempID string
		if err := rows.Scan(&req.InsertedAt, &req.URL, &req.Method, &headers, &req.Body, &req.EntityType, &tempID); err != nil {
			return nil, fmt.Errorf("scan pending request: %w", err)
		}
		if headers != "" && headers != "null" {
			if err := json.Unmarshal([]byte(headers), &req.Headers); err != nil {
				return nil, fmt.Errorf("decode headers of %d: %w", req.InsertedAt, err)
			}
		}
		req.TempID = model.ID(tempID)
		pending = append(pending, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending requests: %w", err)
	}
	return pending, nil
}

func (s *Store) DeletePending(ctx context.Context, insertedAt int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM pending_requests WHERE inserted_at = ?`, insertedAt); err != nil {
		return fmt.Errorf("delete pending request: %w", err)
	}
	return nil
}

func (s *Store) CountPending(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM pending_requests`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count pending requests: %w", err)
	}
	return count, nil
}

// MaxInsertedAt returns the largest queued key, or 0 for an empty queue.
func (s *Store) MaxInsertedAt(ctx context.Context) (int64, error) {
	var maxKey sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(inserted_at) FROM pending_requests`).Scan(&maxKey); err != nil {
		return 0, fmt.Errorf("max inserted_at: %w", err)
	}
	return maxKey.Int64, nil
}
