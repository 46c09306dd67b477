package offline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/syedzayyan/pomonotes/internal/clock"
	"github.com/syedzayyan/pomonotes/internal/localstore"
)

const tracerName = "github.com/syedzayyan/pomonotes/internal/offline"

// Store is the durable backing of the queue.
type Store interface {
	AppendPending(ctx context.Context, req localstore.PendingRequest) error
	ListPending(ctx context.Context) ([]localstore.PendingRequest, error)
	DeletePending(ctx context.Context, insertedAt int64) error
	CountPending(ctx context.Context) (int, error)
	MaxInsertedAt(ctx context.Context) (int64, error)
}

// DrainResult summarizes one drain pass.
type DrainResult struct {
	Replayed  int
	Rejected  int
	Remaining int
}

// Queue is the ordered offline request queue.
type Queue struct {
	store    Store
	resolver *Resolver
	doer     Doer
	clock    clock.Clock
	log      *slog.Logger

	mu     sync.Mutex
	loaded bool
	last   int64

	drains singleflight.Group
}

func NewQueue(store Store, resolver *Resolver, doer Doer, clk clock.Clock, log *slog.Logger) *Queue {
	return &Queue{
		store:    store,
		resolver: resolver,
		doer:     doer,
		clock:    clk,
		log:      log,
	}
}

// Enqueue appends req. Keys are wall-clock nanoseconds, bumped past the last
// key so they stay unique and strictly increasing.
func (q *Queue) Enqueue(ctx context.Context, req Request) (localstore.PendingRequest, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.loaded {
		last, err := q.store.MaxInsertedAt(ctx)
		if err != nil {
			return localstore.PendingRequest{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		q.last = last
		q.loaded = true
	}

	key := q.clock.Now().UnixNano()
	if key <= q.last {
		key = q.last + 1
	}

	record := localstore.PendingRequest{
		InsertedAt: key,
		URL:        req.URL,
		Method:     req.Method,
		Headers:    req.Header,
		Body:       req.Body,
		EntityType: req.EntityType,
		TempID:     req.TempID,
	}
	if err := q.store.AppendPending(ctx, record); err != nil {
		return localstore.PendingRequest{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	q.last = key

	q.log.Info("request queued",
		"method", req.Method,
		"url", req.URL,
		"entity", req.EntityType,
		"temp_id", req.TempID,
		"inserted_at", key,
	)
	return record, nil
}

func (q *Queue) Pending(ctx context.Context) ([]localstore.PendingRequest, error) {
	return q.store.ListPending(ctx)
}

func (q *Queue) Len(ctx context.Context) (int, error) {
	return q.store.CountPending(ctx)
}

// Drain replays queued requests one at a time in insertion order and stops at
// the first request that fails retryably, leaving it and everything after it
// queued. Concurrent callers share a single pass.
func (q *Queue) Drain(ctx context.Context) (DrainResult, error) {
	v, err, _ := q.drains.Do("drain", func() (interface{}, error) {
		return q.drain(ctx)
	})
	result, _ := v.(DrainResult)
	return result, err
}

func (q *Queue) drain(ctx context.Context) (DrainResult, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "offline.drain")
	defer span.End()

	var result DrainResult
	for {
		records, err := q.store.ListPending(ctx)
		if err != nil {
			err = fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
			failSpan(span, err)
			return result, err
		}
		if len(records) == 0 {
			span.SetAttributes(
				attribute.Int("drain.replayed", result.Replayed),
				attribute.Int("drain.rejected", result.Rejected),
			)
			return result, nil
		}

		for i, record := range records {
			if err := q.replay(ctx, record, &result); err != nil {
				result.Remaining = len(records) - i
				q.log.Warn("drain stopped",
					"inserted_at", record.InsertedAt,
					"url", record.URL,
					"remaining", result.Remaining,
					"error", err,
				)
				failSpan(span, err)
				return result, err
			}
		}
	}
}

func (q *Queue) replay(ctx context.Context, record localstore.PendingRequest, result *DrainResult) error {
	url := q.resolver.RewriteURL(record.URL)
	body := q.resolver.RewriteBody(record.Body)

	status, respBody, err := send(ctx, q.doer, record.Method, url, record.Headers, body)
	if err != nil {
		return fmt.Errorf("replay %s %s: %w", record.Method, url, err)
	}

	if status >= 400 {
		statusErr := newStatusError(status, respBody)
		if statusErr.Retryable() {
			return fmt.Errorf("replay %s %s: %w", record.Method, url, statusErr)
		}
		// The server will never accept this request; keeping it would block
		// everything queued behind it.
		q.log.Error("queued request rejected",
			"inserted_at", record.InsertedAt,
			"method", record.Method,
			"url", url,
			"status", status,
			"code", statusErr.API.Code,
		)
		result.Rejected++
		return q.remove(ctx, record)
	}

	if bindsID(record.Method, record.EntityType, record.TempID) {
		serverID, err := decodeID(respBody)
		if err != nil {
			q.log.Warn("replayed create without id", "temp_id", record.TempID, "error", err)
		} else if err := q.resolver.Bind(ctx, record.TempID, serverID); err != nil {
			q.log.Warn("bind replayed id failed", "temp_id", record.TempID, "error", err)
		}
	}

	result.Replayed++
	return q.remove(ctx, record)
}

func (q *Queue) remove(ctx context.Context, record localstore.PendingRequest) error {
	if err := q.store.DeletePending(ctx, record.InsertedAt); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func failSpan(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// IsStoreError reports whether err came from the durable store.
func IsStoreError(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}
