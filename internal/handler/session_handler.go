package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/syedzayyan/pomonotes/internal/middleware"
	"github.com/syedzayyan/pomonotes/internal/model"
	"github.com/syedzayyan/pomonotes/internal/service"
)

type SessionHandler struct {
	sessions  *service.SessionService
	intervals *service.IntervalService
	notes     *service.NoteService
}

func NewSessionHandler(sessions *service.SessionService, intervals *service.IntervalService, notes *service.NoteService) *SessionHandler {
	return &SessionHandler{sessions: sessions, intervals: intervals, notes: notes}
}

func (h *SessionHandler) List(c *gin.Context) {
	input := service.ListSessionsInput{
		Tag:   c.Query("tag"),
		Range: c.Query("range"),
	}
	if rawDays := c.Query("days"); rawDays != "" {
		if days, err := strconv.Atoi(rawDays); err == nil {
			input.Days = days
		}
	}

	sessions, apiErr := h.sessions.List(c.Request.Context(), middleware.UserID(c), input)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, sessions)
}

func (h *SessionHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "invalid_session_id")
	if !ok {
		return
	}

	session, apiErr := h.sessions.Get(c.Request.Context(), middleware.UserID(c), id)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *SessionHandler) Create(c *gin.Context) {
	var req model.Session
	if !bindJSON(c, &req) {
		return
	}

	session, apiErr := h.sessions.Create(c.Request.Context(), middleware.UserID(c), req)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusCreated, session)
}

func (h *SessionHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "invalid_session_id")
	if !ok {
		return
	}
	var req model.SessionUpdate
	if !bindJSON(c, &req) {
		return
	}

	session, apiErr := h.sessions.Update(c.Request.Context(), middleware.UserID(c), id, req)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *SessionHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "invalid_session_id")
	if !ok {
		return
	}

	if apiErr := h.sessions.Delete(c.Request.Context(), middleware.UserID(c), id); apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SessionHandler) Pomodoros(c *gin.Context) {
	id, ok := pathID(c, "invalid_session_id")
	if !ok {
		return
	}

	pomodoros, apiErr := h.intervals.ListPomodoros(c.Request.Context(), middleware.UserID(c), id)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, pomodoros)
}

func (h *SessionHandler) Breaks(c *gin.Context) {
	id, ok := pathID(c, "invalid_session_id")
	if !ok {
		return
	}

	breaks, apiErr := h.intervals.ListBreaks(c.Request.Context(), middleware.UserID(c), id)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, breaks)
}

func (h *SessionHandler) Notes(c *gin.Context) {
	id, ok := pathID(c, "invalid_session_id")
	if !ok {
		return
	}

	notes, apiErr := h.notes.List(c.Request.Context(), middleware.UserID(c), &id)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, notes)
}
