package offline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
)

// Client sends API requests and degrades mutations to queued placeholders
// while the API is unreachable.
type Client struct {
	doer     Doer
	queue    *Queue
	resolver *Resolver
	log      *slog.Logger

	online atomic.Bool

	mu        sync.Mutex
	listeners []func(online bool)
}

func NewClient(doer Doer, queue *Queue, resolver *Resolver, log *slog.Logger) *Client {
	c := &Client{
		doer:     doer,
		queue:    queue,
		resolver: resolver,
		log:      log,
	}
	c.online.Store(true)
	return c
}

func (c *Client) Queue() *Queue {
	return c.queue
}

func (c *Client) Resolver() *Resolver {
	return c.resolver
}

func (c *Client) Online() bool {
	return c.online.Load()
}

// OnStatusChange registers fn to be called on every online/offline flip.
func (c *Client) OnStatusChange(fn func(online bool)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

func (c *Client) SetOnline(online bool) {
	if c.online.Swap(online) == online {
		return
	}
	if online {
		c.log.Info("api reachable")
	} else {
		c.log.Warn("api unreachable, queueing writes")
	}

	c.mu.Lock()
	listeners := append([]func(bool){}, c.listeners...)
	c.mu.Unlock()
	for _, fn := range listeners {
		fn(online)
	}
}

// Do performs req. Reads fail with ErrOffline when the API is unreachable.
// Mutations are queued when offline, when earlier mutations are still
// queued, or when the send fails with a network error; the caller then gets a
// 202 placeholder echoing the body with id set to req.TempID.
func (c *Client) Do(ctx context.Context, req Request) (Response, error) {
	if !isMutation(req.Method) || req.Direct {
		return c.direct(ctx, req)
	}

	req.URL = c.resolver.RewriteURL(req.URL)
	req.Body = c.resolver.RewriteBody(req.Body)

	if !c.Online() {
		return c.enqueue(ctx, req, nil)
	}
	if n, err := c.queue.Len(ctx); err != nil {
		c.log.Warn("inspect request queue failed", "error", err)
	} else if n > 0 {
		return c.enqueue(ctx, req, nil)
	}

	status, body, err := send(ctx, c.doer, req.Method, req.URL, req.Header, req.Body)
	if err != nil {
		if !IsNetworkError(err) {
			return Response{}, err
		}
		c.SetOnline(false)
		return c.enqueue(ctx, req, err)
	}
	return c.finish(ctx, req, status, body)
}

func (c *Client) direct(ctx context.Context, req Request) (Response, error) {
	status, body, err := send(ctx, c.doer, req.Method, req.URL, req.Header, req.Body)
	if err != nil {
		if IsNetworkError(err) {
			c.SetOnline(false)
			return Response{}, fmt.Errorf("%w: %s %s: %v", ErrOffline, req.Method, req.URL, err)
		}
		return Response{}, err
	}
	if status >= http.StatusBadRequest {
		return Response{Status: status, Body: body}, newStatusError(status, body)
	}
	return Response{Status: status, Body: body}, nil
}

// enqueue stores req for replay. If the store is unavailable and req has not
// been sent yet, it is sent directly and any failure propagates.
func (c *Client) enqueue(ctx context.Context, req Request, sendErr error) (Response, error) {
	if _, err := c.queue.Enqueue(ctx, req); err != nil {
		c.log.Error("queue request failed", "method", req.Method, "url", req.URL, "error", err)
		if sendErr != nil {
			return Response{}, errors.Join(sendErr, err)
		}
		status, body, directErr := send(ctx, c.doer, req.Method, req.URL, req.Header, req.Body)
		if directErr != nil {
			return Response{}, errors.Join(directErr, err)
		}
		return c.finish(ctx, req, status, body)
	}
	return Response{
		Status: http.StatusAccepted,
		Body:   placeholder(req.Body, req.TempID),
		Queued: true,
	}, nil
}

func (c *Client) finish(ctx context.Context, req Request, status int, body []byte) (Response, error) {
	if status >= http.StatusBadRequest {
		c.log.Warn("api rejected request", "method", req.Method, "url", req.URL, "status", status)
		return Response{Status: status, Body: body}, newStatusError(status, body)
	}
	if bindsID(req.Method, req.EntityType, req.TempID) {
		if serverID, err := decodeID(body); err != nil {
			c.log.Warn("created entity without id", "temp_id", req.TempID, "error", err)
		} else if err := c.resolver.Bind(ctx, req.TempID, serverID); err != nil {
			c.log.Warn("bind created id failed", "temp_id", req.TempID, "error", err)
		}
	}
	return Response{Status: status, Body: body}, nil
}
