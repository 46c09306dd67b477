// Package sessioncache keeps the last known snapshot of each session so an
// active session can be resumed when the API is unreachable at startup.
package sessioncache

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/syedzayyan/pomonotes/internal/localstore"
	"github.com/syedzayyan/pomonotes/internal/model"
)

// SnapshotStore is the durable level of the cache.
type SnapshotStore interface {
	PutSnapshot(ctx context.Context, session model.Session) error
	GetSnapshot(ctx context.Context, id model.ID) (*model.Session, error)
	DeleteSnapshot(ctx context.Context, id model.ID) error
}

// Cache is an in-process ristretto cache in front of the durable snapshot store.
// Get checks memory first and backfills it on a durable hit.
type Cache struct {
	l1 *ristretto.Cache[string, model.Session]
	l2 SnapshotStore
}

// New creates a cache holding up to maxEntries snapshots in memory.
func New(store SnapshotStore, maxEntries int64) (*Cache, error) {
	if maxEntries <= 0 {
		maxEntries = 1024
	}
	l1, err := ristretto.NewCache(&ristretto.Config[string, model.Session]{
		NumCounters:        maxEntries * 10,
		MaxCost:            maxEntries,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create session cache: %w", err)
	}
	return &Cache{l1: l1, l2: store}, nil
}

// Put upserts the snapshot keyed by session id.
func (c *Cache) Put(ctx context.Context, session model.Session) error {
	if session.ID.IsZero() {
		return errors.New("cache session without id")
	}
	if err := c.l2.PutSnapshot(ctx, session); err != nil {
		return err
	}
	c.l1.Set(session.ID.String(), session, 1)
	c.l1.Wait()
	return nil
}

// Get returns the snapshot for id, or ok=false when none is cached.
func (c *Cache) Get(ctx context.Context, id model.ID) (session *model.Session, ok bool, err error) {
	if id.IsZero() {
		return nil, false, nil
	}
	if cached, found := c.l1.Get(id.String()); found {
		return &cached, true, nil
	}

	stored, err := c.l2.GetSnapshot(ctx, id)
	if errors.Is(err, localstore.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	c.l1.Set(id.String(), *stored, 1)
	c.l1.Wait()
	return stored, true, nil
}

func (c *Cache) Delete(ctx context.Context, id model.ID) error {
	c.l1.Del(id.String())
	return c.l2.DeleteSnapshot(ctx, id)
}

// Rekey moves the snapshot stored under a temp id to the server-assigned id.
func (c *Cache) Rekey(ctx context.Context, temp, serverID model.ID) error {
	session, ok, err := c.Get(ctx, temp)
	if err != nil || !ok {
		return err
	}
	session.ID = serverID
	if err := c.Put(ctx, *session); err != nil {
		return err
	}
	return c.Delete(ctx, temp)
}

func (c *Cache) Close() {
	c.l1.Close()
}
