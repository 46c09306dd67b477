package service

import (
	"context"
	"errors"
	"strings"
	"time"

	apperrors "github.com/syedzayyan/pomonotes/internal/errors"
	"github.com/syedzayyan/pomonotes/internal/model"
	"github.com/syedzayyan/pomonotes/internal/repository"
)

const defaultListDays = 7

type SessionService struct {
	sessions *repository.SessionRepository
	now      func() time.Time
}

func NewSessionService(sessions *repository.SessionRepository) *SessionService {
	return &SessionService{sessions: sessions, now: time.Now}
}

// ListSessionsInput mirrors the list query string: a tag filter wins over a
// range, and a range wins over a day count.
type ListSessionsInput struct {
	Tag   string
	Range string
	Days  int
}

func (s *SessionService) List(ctx context.Context, userID string, input ListSessionsInput) ([]model.Session, *apperrors.APIError) {
	filter := repository.SessionFilter{UserID: userID}
	switch {
	case input.Tag != "":
		filter.Tag = strings.TrimSpace(input.Tag)
	case input.Range != "":
		filter.Since = rangeStart(s.now(), input.Range)
	default:
		days := input.Days
		if days <= 0 {
			days = defaultListDays
		}
		since := s.now().AddDate(0, 0, -days)
		filter.Since = &since
	}

	sessions, err := s.sessions.List(ctx, filter)
	if err != nil {
		return nil, apperrors.Internal("failed to list sessions")
	}
	return sessions, nil
}

// rangeStart returns nil for "all".
func rangeStart(now time.Time, rng string) *time.Time {
	var start time.Time
	switch rng {
	case "all":
		return nil
	case "7days":
		start = now.AddDate(0, 0, -7)
	case "90days":
		start = now.AddDate(0, 0, -90)
	case "year":
		start = time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())
	default:
		start = now.AddDate(0, 0, -30)
	}
	return &start
}

func (s *SessionService) Get(ctx context.Context, userID string, id int64) (*model.Session, *apperrors.APIError) {
	return s.owned(ctx, userID, id)
}

func (s *SessionService) Create(ctx context.Context, userID string, input model.Session) (*model.Session, *apperrors.APIError) {
	if input.Status == "" {
		input.Status = model.StatusRunning
	}
	if !model.IsActiveStatus(input.Status) && !model.IsTerminalStatus(input.Status) {
		return nil, apperrors.BadRequest("invalid_status", "unknown session status")
	}
	if input.StartTime.IsZero() {
		input.StartTime = s.now().UTC()
	}
	if input.TotalTime < 0 || input.CompletedPomodoros < 0 || input.SkippedPomodoros < 0 {
		return nil, apperrors.BadRequest("invalid_counts", "counters must not be negative")
	}

	session := model.Session{
		UserID:             userID,
		StartTime:          input.StartTime,
		EndTime:            input.EndTime,
		Status:             input.Status,
		TotalTime:          input.TotalTime,
		CompletedPomodoros: input.CompletedPomodoros,
		SkippedPomodoros:   input.SkippedPomodoros,
		Tags:               model.JoinTags(model.SplitTags(input.Tags)),
	}
	if err := s.sessions.Create(ctx, &session); err != nil {
		return nil, apperrors.Internal("failed to create session")
	}
	return &session, nil
}

// Update applies only the fields present in update.
func (s *SessionService) Update(ctx context.Context, userID string, id int64, update model.SessionUpdate) (*model.Session, *apperrors.APIError) {
	if _, apiErr := s.owned(ctx, userID, id); apiErr != nil {
		return nil, apiErr
	}
	if update.Status != nil && !model.IsActiveStatus(*update.Status) && !model.IsTerminalStatus(*update.Status) {
		return nil, apperrors.BadRequest("invalid_status", "unknown session status")
	}
	if update.Tags != nil {
		normalized := model.JoinTags(model.SplitTags(*update.Tags))
		update.Tags = &normalized
	}

	if err := s.sessions.Update(ctx, id, update); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("session_not_found", "session not found")
		}
		return nil, apperrors.Internal("failed to update session")
	}
	return s.owned(ctx, userID, id)
}

func (s *SessionService) Delete(ctx context.Context, userID string, id int64) *apperrors.APIError {
	if _, apiErr := s.owned(ctx, userID, id); apiErr != nil {
		return apiErr
	}
	if err := s.sessions.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("session_not_found", "session not found")
		}
		return apperrors.Internal("failed to delete session")
	}
	return nil
}

// owned loads a session and checks that userID may touch it.
func (s *SessionService) owned(ctx context.Context, userID string, id int64) (*model.Session, *apperrors.APIError) {
	session, err := s.sessions.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("session_not_found", "session not found")
	}
	if err != nil {
		return nil, apperrors.Internal("failed to get session")
	}
	if session.UserID != userID {
		return nil, apperrors.Forbidden("you don't have permission to access this session")
	}
	return session, nil
}
