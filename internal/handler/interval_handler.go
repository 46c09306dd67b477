package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/syedzayyan/pomonotes/internal/middleware"
	"github.com/syedzayyan/pomonotes/internal/model"
	"github.com/syedzayyan/pomonotes/internal/service"
)

// IntervalHandler serves /api/pomodoros and /api/breaks.
type IntervalHandler struct {
	intervals *service.IntervalService
}

func NewIntervalHandler(intervals *service.IntervalService) *IntervalHandler {
	return &IntervalHandler{intervals: intervals}
}

func (h *IntervalHandler) CreatePomodoro(c *gin.Context) {
	var req model.Pomodoro
	if !bindJSON(c, &req) {
		return
	}

	pomodoro, apiErr := h.intervals.CreatePomodoro(c.Request.Context(), middleware.UserID(c), req)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusCreated, pomodoro)
}

func (h *IntervalHandler) UpdatePomodoro(c *gin.Context) {
	id, ok := pathID(c, "invalid_pomodoro_id")
	if !ok {
		return
	}
	var req model.IntervalUpdate
	if !bindJSON(c, &req) {
		return
	}

	pomodoro, apiErr := h.intervals.UpdatePomodoro(c.Request.Context(), middleware.UserID(c), id, req)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, pomodoro)
}

func (h *IntervalHandler) CreateBreak(c *gin.Context) {
	var req model.Break
	if !bindJSON(c, &req) {
		return
	}

	brk, apiErr := h.intervals.CreateBreak(c.Request.Context(), middleware.UserID(c), req)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusCreated, brk)
}

func (h *IntervalHandler) UpdateBreak(c *gin.Context) {
	id, ok := pathID(c, "invalid_break_id")
	if !ok {
		return
	}
	var req model.IntervalUpdate
	if !bindJSON(c, &req) {
		return
	}

	brk, apiErr := h.intervals.UpdateBreak(c.Request.Context(), middleware.UserID(c), id, req)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, brk)
}
