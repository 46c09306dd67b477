package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/syedzayyan/pomonotes/internal/middleware"
	"github.com/syedzayyan/pomonotes/internal/model"
	"github.com/syedzayyan/pomonotes/internal/service"
)

type NoteHandler struct {
	notes *service.NoteService
}

type updateNoteRequest struct {
	Note string `json:"note"`
}

func NewNoteHandler(notes *service.NoteService) *NoteHandler {
	return &NoteHandler{notes: notes}
}

func (h *NoteHandler) List(c *gin.Context) {
	sessionID, ok := queryID(c, "session_id", "invalid_session_id")
	if !ok {
		return
	}

	notes, apiErr := h.notes.List(c.Request.Context(), middleware.UserID(c), sessionID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, notes)
}

func (h *NoteHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "invalid_note_id")
	if !ok {
		return
	}

	note, apiErr := h.notes.Get(c.Request.Context(), middleware.UserID(c), id)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, note)
}

func (h *NoteHandler) Create(c *gin.Context) {
	var req model.Note
	if !bindJSON(c, &req) {
		return
	}

	note, apiErr := h.notes.Create(c.Request.Context(), middleware.UserID(c), req)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusCreated, note)
}

func (h *NoteHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "invalid_note_id")
	if !ok {
		return
	}
	var req updateNoteRequest
	if !bindJSON(c, &req) {
		return
	}

	note, apiErr := h.notes.Update(c.Request.Context(), middleware.UserID(c), id, req.Note)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, note)
}

func (h *NoteHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "invalid_note_id")
	if !ok {
		return
	}

	if apiErr := h.notes.Delete(c.Request.Context(), middleware.UserID(c), id); apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.Status(http.StatusNoContent)
}
