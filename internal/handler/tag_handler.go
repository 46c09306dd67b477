package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/syedzayyan/pomonotes/internal/model"
	"github.com/syedzayyan/pomonotes/internal/service"
)

type TagHandler struct {
	tags *service.TagService
}

func NewTagHandler(tags *service.TagService) *TagHandler {
	return &TagHandler{tags: tags}
}

func (h *TagHandler) List(c *gin.Context) {
	tags, apiErr := h.tags.List(c.Request.Context())
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, tags)
}

func (h *TagHandler) Create(c *gin.Context) {
	var req model.Tag
	if !bindJSON(c, &req) {
		return
	}

	tag, apiErr := h.tags.Create(c.Request.Context(), req)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusCreated, tag)
}

func (h *TagHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "invalid_tag_id")
	if !ok {
		return
	}
	var req model.Tag
	if !bindJSON(c, &req) {
		return
	}

	tag, apiErr := h.tags.Update(c.Request.Context(), id, req)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, tag)
}

func (h *TagHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "invalid_tag_id")
	if !ok {
		return
	}

	if apiErr := h.tags.Delete(c.Request.Context(), id); apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.Status(http.StatusNoContent)
}
