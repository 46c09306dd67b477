package offline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/syedzayyan/pomonotes/internal/model"
)

// MappingStore persists temp-id to server-id bindings.
type MappingStore interface {
	PutMapping(ctx context.Context, temp, serverID model.ID) error
	Mappings(ctx context.Context) (map[model.ID]model.ID, error)
}

// Resolver maps temporary ids to the ids the server assigned, and rewrites
// outgoing requests accordingly.
type Resolver struct {
	mu        sync.RWMutex
	store     MappingStore
	ids       map[model.ID]model.ID
	listeners []func(temp, serverID model.ID)
	log       *slog.Logger
}

func NewResolver(ctx context.Context, store MappingStore, log *slog.Logger) (*Resolver, error) {
	ids, err := store.Mappings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load id mappings: %w", err)
	}
	return &Resolver{store: store, ids: ids, log: log}, nil
}

// OnBind registers fn to be called after each new binding.
func (r *Resolver) OnBind(fn func(temp, serverID model.ID)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
}

// Resolve returns the server id for a temp id, or id unchanged.
func (r *Resolver) Resolve(id model.ID) model.ID {
	if !id.IsTemp() {
		return id
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if serverID, ok := r.ids[id]; ok {
		return serverID
	}
	return id
}

func (r *Resolver) Bind(ctx context.Context, temp, serverID model.ID) error {
	if !temp.IsTemp() || serverID.IsZero() || serverID.IsTemp() {
		return fmt.Errorf("invalid binding %q -> %q", temp, serverID)
	}

	r.mu.Lock()
	if existing, ok := r.ids[temp]; ok && existing == serverID {
		r.mu.Unlock()
		return nil
	}
	r.ids[temp] = serverID
	listeners := append([]func(temp, serverID model.ID){}, r.listeners...)
	r.mu.Unlock()

	err := r.store.PutMapping(ctx, temp, serverID)
	if err != nil {
		r.log.Warn("persist id mapping failed", "temp_id", temp, "server_id", serverID, "error", err)
	}
	r.log.Debug("temp id bound", "temp_id", temp, "server_id", serverID)

	for _, fn := range listeners {
		fn(temp, serverID)
	}
	return err
}

// RewriteURL replaces every bound temp id in a request URL.
func (r *Resolver) RewriteURL(url string) string {
	if !strings.Contains(url, model.TempIDPrefix) {
		return url
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for temp, serverID := range r.ids {
		url = strings.ReplaceAll(url, temp.String(), serverID.String())
	}
	return url
}

// RewriteBody replaces every bound temp id appearing as a JSON string value
// with the server id's literal.
func (r *Resolver) RewriteBody(body []byte) []byte {
	if !bytes.Contains(body, []byte(model.TempIDPrefix)) {
		return body
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for temp, serverID := range r.ids {
		body = bytes.ReplaceAll(body, []byte(temp.JSONLiteral()), []byte(serverID.JSONLiteral()))
	}
	return body
}
