package service

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/syedzayyan/pomonotes/internal/errors"
	"github.com/syedzayyan/pomonotes/internal/model"
	"github.com/syedzayyan/pomonotes/internal/repository"
)

// IntervalService manages pomodoros and breaks inside sessions the caller owns.
type IntervalService struct {
	sessions  *SessionService
	intervals *repository.IntervalRepository
}

func NewIntervalService(sessions *SessionService, intervals *repository.IntervalRepository) *IntervalService {
	return &IntervalService{sessions: sessions, intervals: intervals}
}

func (s *IntervalService) CreatePomodoro(ctx context.Context, userID string, input model.Pomodoro) (*model.Pomodoro, *apperrors.APIError) {
	sessionID, apiErr := parseEntityID(input.SessionID, "invalid_session_id")
	if apiErr != nil {
		return nil, apiErr
	}
	if _, apiErr := s.sessions.owned(ctx, userID, sessionID); apiErr != nil {
		return nil, apiErr
	}
	if input.Number < 1 {
		return nil, apperrors.BadRequest("invalid_number", "number must be at least 1")
	}
	if input.Status == "" {
		input.Status = model.StatusRunning
	}
	if !model.IsIntervalStatus(input.Status) {
		return nil, apperrors.BadRequest("invalid_status", "unknown pomodoro status")
	}
	if input.StartTime.IsZero() {
		input.StartTime = time.Now().UTC()
	}

	pomodoro := model.Pomodoro{
		Number:    input.Number,
		StartTime: input.StartTime,
		EndTime:   input.EndTime,
		Duration:  input.Duration,
		Status:    input.Status,
	}
	if err := s.intervals.CreatePomodoro(ctx, sessionID, &pomodoro); err != nil {
		return nil, apperrors.Internal("failed to create pomodoro")
	}
	return &pomodoro, nil
}

func (s *IntervalService) ListPomodoros(ctx context.Context, userID string, sessionID int64) ([]model.Pomodoro, *apperrors.APIError) {
	if _, apiErr := s.sessions.owned(ctx, userID, sessionID); apiErr != nil {
		return nil, apiErr
	}
	pomodoros, err := s.intervals.ListPomodoros(ctx, sessionID)
	if err != nil {
		return nil, apperrors.Internal("failed to list pomodoros")
	}
	return pomodoros, nil
}

func (s *IntervalService) UpdatePomodoro(ctx context.Context, userID string, id int64, update model.IntervalUpdate) (*model.Pomodoro, *apperrors.APIError) {
	current, err := s.intervals.GetPomodoro(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("pomodoro_not_found", "pomodoro not found")
	}
	if err != nil {
		return nil, apperrors.Internal("failed to get pomodoro")
	}
	if apiErr := s.checkParent(ctx, userID, current.SessionID); apiErr != nil {
		return nil, apiErr
	}
	if apiErr := validateIntervalUpdate(update); apiErr != nil {
		return nil, apiErr
	}

	if err := s.intervals.UpdatePomodoro(ctx, id, update); err != nil {
		return nil, apperrors.Internal("failed to update pomodoro")
	}
	updated, err := s.intervals.GetPomodoro(ctx, id)
	if err != nil {
		return nil, apperrors.Internal("failed to get pomodoro")
	}
	return updated, nil
}

func (s *IntervalService) CreateBreak(ctx context.Context, userID string, input model.Break) (*model.Break, *apperrors.APIError) {
	sessionID, apiErr := parseEntityID(input.SessionID, "invalid_session_id")
	if apiErr != nil {
		return nil, apiErr
	}
	if _, apiErr := s.sessions.owned(ctx, userID, sessionID); apiErr != nil {
		return nil, apiErr
	}

	var pomodoroID *int64
	if !input.PomodoroID.IsZero() {
		id, apiErr := parseEntityID(input.PomodoroID, "invalid_pomodoro_id")
		if apiErr != nil {
			return nil, apiErr
		}
		pomodoroID = &id
	}
	if input.Type != model.BreakShort && input.Type != model.BreakLong {
		return nil, apperrors.BadRequest("invalid_break_type", "type must be short or long")
	}
	if input.Status == "" {
		input.Status = model.StatusRunning
	}
	if !model.IsIntervalStatus(input.Status) {
		return nil, apperrors.BadRequest("invalid_status", "unknown break status")
	}
	if input.StartTime.IsZero() {
		input.StartTime = time.Now().UTC()
	}

	brk := model.Break{
		Type:      input.Type,
		StartTime: input.StartTime,
		EndTime:   input.EndTime,
		Duration:  input.Duration,
		Status:    input.Status,
	}
	if err := s.intervals.CreateBreak(ctx, sessionID, pomodoroID, &brk); err != nil {
		return nil, apperrors.Internal("failed to create break")
	}
	return &brk, nil
}

func (s *IntervalService) ListBreaks(ctx context.Context, userID string, sessionID int64) ([]model.Break, *apperrors.APIError) {
	if _, apiErr := s.sessions.owned(ctx, userID, sessionID); apiErr != nil {
		return nil, apiErr
	}
	breaks, err := s.intervals.ListBreaks(ctx, sessionID)
	if err != nil {
		return nil, apperrors.Internal("failed to list breaks")
	}
	return breaks, nil
}

func (s *IntervalService) UpdateBreak(ctx context.Context, userID string, id int64, update model.IntervalUpdate) (*model.Break, *apperrors.APIError) {
	current, err := s.intervals.GetBreak(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("break_not_found", "break not found")
	}
	if err != nil {
		return nil, apperrors.Internal("failed to get break")
	}
	if apiErr := s.checkParent(ctx, userID, current.SessionID); apiErr != nil {
		return nil, apiErr
	}
	if apiErr := validateIntervalUpdate(update); apiErr != nil {
		return nil, apiErr
	}

	if err := s.intervals.UpdateBreak(ctx, id, update); err != nil {
		return nil, apperrors.Internal("failed to update break")
	}
	updated, err := s.intervals.GetBreak(ctx, id)
	if err != nil {
		return nil, apperrors.Internal("failed to get break")
	}
	return updated, nil
}

func (s *IntervalService) checkParent(ctx context.Context, userID string, sessionID model.ID) *apperrors.APIError {
	id, err := sessionID.Int64()
	if err != nil {
		return apperrors.Internal("corrupt session reference")
	}
	_, apiErr := s.sessions.owned(ctx, userID, id)
	return apiErr
}

func validateIntervalUpdate(update model.IntervalUpdate) *apperrors.APIError {
	if update.Status != nil && !model.IsIntervalStatus(*update.Status) {
		return apperrors.BadRequest("invalid_status", "unknown interval status")
	}
	if update.Duration != nil && *update.Duration < 0 {
		return apperrors.BadRequest("invalid_duration", "duration must not be negative")
	}
	return nil
}

// parseEntityID rejects temporary client ids that were never rewritten.
func parseEntityID(id model.ID, code string) (int64, *apperrors.APIError) {
	if id.IsZero() {
		return 0, apperrors.BadRequest(code, "id is required")
	}
	n, err := id.Int64()
	if err != nil {
		return 0, apperrors.BadRequest(code, "id must be a server-assigned integer")
	}
	return n, nil
}
