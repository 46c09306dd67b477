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

type NoteService struct {
	sessions *SessionService
	notes    *repository.NoteRepository
}

func NewNoteService(sessions *SessionService, notes *repository.NoteRepository) *NoteService {
	return &NoteService{sessions: sessions, notes: notes}
}

func (s *NoteService) Create(ctx context.Context, userID string, input model.Note) (*model.Note, *apperrors.APIError) {
	if strings.TrimSpace(input.Text) == "" {
		return nil, apperrors.BadRequest("empty_note", "note text is required")
	}
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

	note := model.Note{Text: input.Text, CreatedAt: time.Now().UTC()}
	if err := s.notes.Create(ctx, sessionID, pomodoroID, &note); err != nil {
		return nil, apperrors.Internal("failed to create note")
	}
	return &note, nil
}

// List returns the caller's notes, optionally limited to one session.
func (s *NoteService) List(ctx context.Context, userID string, sessionID *int64) ([]model.Note, *apperrors.APIError) {
	if sessionID != nil {
		if _, apiErr := s.sessions.owned(ctx, userID, *sessionID); apiErr != nil {
			return nil, apiErr
		}
	}
	notes, err := s.notes.List(ctx, userID, sessionID)
	if err != nil {
		return nil, apperrors.Internal("failed to list notes")
	}
	return notes, nil
}

func (s *NoteService) Get(ctx context.Context, userID string, id int64) (*model.Note, *apperrors.APIError) {
	note, err := s.notes.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("note_not_found", "note not found")
	}
	if err != nil {
		return nil, apperrors.Internal("failed to get note")
	}
	sessionID, err := note.SessionID.Int64()
	if err != nil {
		return nil, apperrors.Internal("corrupt session reference")
	}
	if _, apiErr := s.sessions.owned(ctx, userID, sessionID); apiErr != nil {
		return nil, apiErr
	}
	return note, nil
}

func (s *NoteService) Update(ctx context.Context, userID string, id int64, text string) (*model.Note, *apperrors.APIError) {
	if strings.TrimSpace(text) == "" {
		return nil, apperrors.BadRequest("empty_note", "note text is required")
	}
	note, apiErr := s.Get(ctx, userID, id)
	if apiErr != nil {
		return nil, apiErr
	}
	if err := s.notes.UpdateText(ctx, id, text); err != nil {
		return nil, apperrors.Internal("failed to update note")
	}
	note.Text = text
	return note, nil
}

func (s *NoteService) Delete(ctx context.Context, userID string, id int64) *apperrors.APIError {
	if _, apiErr := s.Get(ctx, userID, id); apiErr != nil {
		return apiErr
	}
	if err := s.notes.Delete(ctx, id); err != nil {
		return apperrors.Internal("failed to delete note")
	}
	return nil
}
