package offline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/syedzayyan/pomonotes/internal/model"
)

// Doer sends HTTP requests; *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

const (
	EntitySession  = "session"
	EntityPomodoro = "pomodoro"
	EntityBreak    = "break"
	EntityNote     = "note"
	EntityTag      = "tag"
)

// Request describes one API call.
type Request struct {
	Method     string
	URL        string
	Header     map[string]string
	Body       []byte
	EntityType string
	// TempID is the placeholder id of the entity a POST creates.
	TempID model.ID
	// Direct requests are never queued; login is one.
	Direct bool
}

// Response is an API answer, or the placeholder produced for a queued request.
type Response struct {
	Status int
	Body   []byte
	Queued bool
}

func isMutation(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	}
	return true
}

// bindsID reports whether a successful replay of this request yields a server
// id that in-memory state may still reference by its temp id.
func bindsID(method, entityType string, tempID model.ID) bool {
	if method != http.MethodPost || !tempID.IsTemp() {
		return false
	}
	switch entityType {
	case EntitySession, EntityPomodoro, EntityBreak:
		return true
	}
	return false
}

func send(ctx context.Context, doer Doer, method, url string, header map[string]string, body []byte) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	for key, value := range header {
		req.Header.Set(key, value)
	}
	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := doer.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, respBody, nil
}

func decodeID(body []byte) (model.ID, error) {
	var created struct {
		ID model.ID `json:"id"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return "", fmt.Errorf("decode created id: %w", err)
	}
	if created.ID.IsZero() {
		return "", errors.New("response carries no id")
	}
	return created.ID, nil
}

// placeholder echoes body back with id set to tempID so callers can treat a
// queued write like a successful one.
func placeholder(body []byte, tempID model.ID) []byte {
	if tempID.IsZero() {
		return body
	}
	fields := map[string]json.RawMessage{}
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &fields); err != nil {
			return body
		}
	}
	fields["id"] = json.RawMessage(tempID.JSONLiteral())
	out, err := json.Marshal(fields)
	if err != nil {
		return body
	}
	return out
}
