// Package apiclient is a typed client for the pomonotes REST API. Every call
// goes through the offline request wrapper, so mutations survive connectivity
// loss.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/syedzayyan/pomonotes/internal/model"
	"github.com/syedzayyan/pomonotes/internal/offline"
)

// StatusError is a non-2xx API response.
type StatusError = offline.StatusError

type Client struct {
	base string
	rc   *offline.Client
}

func New(baseURL string, rc *offline.Client) *Client {
	return &Client{base: strings.TrimRight(baseURL, "/"), rc: rc}
}

// Requests exposes the underlying request wrapper.
func (c *Client) Requests() *offline.Client {
	return c.rc
}

type ListOptions struct {
	Tag   string
	Range string
	Days  int
}

type AuthResult struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

func (c *Client) Health(ctx context.Context) error {
	_, err := c.call(ctx, offline.Request{Method: http.MethodGet, URL: c.base + "/health"}, nil)
	return err
}

func (c *Client) Register(ctx context.Context, email, password string) (AuthResult, error) {
	return c.auth(ctx, "/api/auth/register", email, password)
}

func (c *Client) Login(ctx context.Context, email, password string) (AuthResult, error) {
	return c.auth(ctx, "/api/auth/login", email, password)
}

// Me returns the account the current token belongs to.
func (c *Client) Me(ctx context.Context) (model.User, error) {
	var user model.User
	_, err := c.call(ctx, offline.Request{Method: http.MethodGet, URL: c.base + "/api/auth/me"}, &user)
	return user, err
}

func (c *Client) auth(ctx context.Context, path, email, password string) (AuthResult, error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return AuthResult{}, err
	}
	var result AuthResult
	_, err = c.call(ctx, offline.Request{
		Method: http.MethodPost,
		URL:    c.base + path,
		Body:   body,
		Direct: true,
	}, &result)
	return result, err
}

func (c *Client) ListSessions(ctx context.Context, opts ListOptions) ([]model.Session, error) {
	query := url.Values{}
	if opts.Tag != "" {
		query.Set("tag", opts.Tag)
	}
	if opts.Range != "" {
		query.Set("range", opts.Range)
	}
	if opts.Days > 0 {
		query.Set("days", strconv.Itoa(opts.Days))
	}
	target := c.base + "/api/sessions"
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	sessions := make([]model.Session, 0)
	_, err := c.call(ctx, offline.Request{Method: http.MethodGet, URL: target}, &sessions)
	return sessions, err
}

func (c *Client) GetSession(ctx context.Context, id model.ID) (model.Session, error) {
	var session model.Session
	_, err := c.call(ctx, offline.Request{Method: http.MethodGet, URL: c.entityURL("/api/sessions", id)}, &session)
	return session, err
}

// CreateSession creates s. s.ID must be a temp id; the server assigns the real
// one, and the temp id is bound to it once the create goes through.
func (c *Client) CreateSession(ctx context.Context, s model.Session) (model.Session, error) {
	temp := s.ID
	s.ID = ""
	var created model.Session
	err := c.create(ctx, "/api/sessions", offline.EntitySession, temp, s, &created)
	return created, err
}

func (c *Client) UpdateSession(ctx context.Context, id model.ID, update model.SessionUpdate) (model.Session, error) {
	var session model.Session
	err := c.update(ctx, c.entityURL("/api/sessions", id), offline.EntitySession, update, &session)
	return session, err
}

func (c *Client) CreatePomodoro(ctx context.Context, p model.Pomodoro) (model.Pomodoro, error) {
	temp := p.ID
	p.ID = ""
	var created model.Pomodoro
	err := c.create(ctx, "/api/pomodoros", offline.EntityPomodoro, temp, p, &created)
	return created, err
}

func (c *Client) UpdatePomodoro(ctx context.Context, id model.ID, update model.IntervalUpdate) (model.Pomodoro, error) {
	var pomodoro model.Pomodoro
	err := c.update(ctx, c.entityURL("/api/pomodoros", id), offline.EntityPomodoro, update, &pomodoro)
	return pomodoro, err
}

func (c *Client) CreateBreak(ctx context.Context, b model.Break) (model.Break, error) {
	temp := b.ID
	b.ID = ""
	var created model.Break
	err := c.create(ctx, "/api/breaks", offline.EntityBreak, temp, b, &created)
	return created, err
}

func (c *Client) UpdateBreak(ctx context.Context, id model.ID, update model.IntervalUpdate) (model.Break, error) {
	var brk model.Break
	err := c.update(ctx, c.entityURL("/api/breaks", id), offline.EntityBreak, update, &brk)
	return brk, err
}

func (c *Client) CreateNote(ctx context.Context, n model.Note) (model.Note, error) {
	temp := n.ID
	if temp.IsZero() {
		temp = model.NewTempID()
	}
	n.ID = ""
	var created model.Note
	err := c.create(ctx, "/api/notes", offline.EntityNote, temp, n, &created)
	return created, err
}

// ListNotes lists notes of one session, or all notes when sessionID is zero.
func (c *Client) ListNotes(ctx context.Context, sessionID model.ID) ([]model.Note, error) {
	target := c.base + "/api/notes"
	if !sessionID.IsZero() {
		target += "?session_id=" + url.QueryEscape(c.rc.Resolver().Resolve(sessionID).String())
	}
	notes := make([]model.Note, 0)
	_, err := c.call(ctx, offline.Request{Method: http.MethodGet, URL: target}, &notes)
	return notes, err
}

func (c *Client) ListTags(ctx context.Context) ([]model.Tag, error) {
	tags := make([]model.Tag, 0)
	_, err := c.call(ctx, offline.Request{Method: http.MethodGet, URL: c.base + "/api/tags"}, &tags)
	return tags, err
}

// CreateTag creates a tag colored from the palette in catalog order. When the
// catalog can't be read the server picks the color.
func (c *Client) CreateTag(ctx context.Context, name string) (model.Tag, error) {
	tag := model.Tag{Name: strings.TrimSpace(name)}
	if existing, err := c.ListTags(ctx); err == nil {
		tag.Color = model.TagPalette[len(existing)%len(model.TagPalette)]
	}
	var created model.Tag
	err := c.create(ctx, "/api/tags", offline.EntityTag, model.NewTempID(), tag, &created)
	return created, err
}

func (c *Client) entityURL(collection string, id model.ID) string {
	return c.base + collection + "/" + url.PathEscape(c.rc.Resolver().Resolve(id).String())
}

func (c *Client) create(ctx context.Context, path, entity string, temp model.ID, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode %s: %w", entity, err)
	}
	_, err = c.call(ctx, offline.Request{
		Method:     http.MethodPost,
		URL:        c.base + path,
		Body:       body,
		EntityType: entity,
		TempID:     temp,
	}, out)
	return err
}

func (c *Client) update(ctx context.Context, target, entity string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode %s update: %w", entity, err)
	}
	_, err = c.call(ctx, offline.Request{
		Method:     http.MethodPut,
		URL:        target,
		Body:       body,
		EntityType: entity,
	}, out)
	return err
}

func (c *Client) call(ctx context.Context, req offline.Request, out interface{}) (offline.Response, error) {
	resp, err := c.rc.Do(ctx, req)
	if err != nil {
		return resp, err
	}
	if out == nil || len(bytes.TrimSpace(resp.Body)) == 0 {
		return resp, nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return resp, fmt.Errorf("decode %s %s: %w", req.Method, req.URL, err)
	}
	return resp, nil
}
