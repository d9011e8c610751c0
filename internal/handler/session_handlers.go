package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (h *Handler) startSession(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	var req startSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondValidation(c, "storyId, toneStyleId and timeFlavorId are required")
		return
	}

	session, chapter, err := h.sessionService.Start(c.Request.Context(), userID, req.StoryID, req.ToneStyleID, req.TimeFlavorID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, startSessionResponse{Session: session, Chapter: chapter})
}

func (h *Handler) advanceSession(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	sessionID, ok := h.pathID(c)
	if !ok {
		return
	}
	var req advanceSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondValidation(c, "invalid request body")
		return
	}

	chapter, err := h.sessionService.Advance(c.Request.Context(), userID, sessionID, req.Choice)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, chapter)
}

func (h *Handler) completeSession(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	sessionID, ok := h.pathID(c)
	if !ok {
		return
	}
	var req completeSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondValidation(c, "invalid request body")
		return
	}

	if err := h.sessionService.Complete(c.Request.Context(), userID, sessionID, req.Rating); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) abandonSession(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	sessionID, ok := h.pathID(c)
	if !ok {
		return
	}
	if err := h.sessionService.Abandon(c.Request.Context(), userID, sessionID); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) getSession(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	sessionID, ok := h.pathID(c)
	if !ok {
		return
	}
	session, err := h.sessionService.Get(c.Request.Context(), userID, sessionID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *Handler) listChapters(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	sessionID, ok := h.pathID(c)
	if !ok {
		return
	}
	chapters, err := h.sessionService.ListChapters(c.Request.Context(), userID, sessionID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, chapters)
}

func (h *Handler) listSessions(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	limit, offset := pagination(c)
	sessions, err := h.sessionService.ListByUser(c.Request.Context(), userID, limit, offset)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessions)
}

// pathID parses the :id path segment as a UUID.
func (h *Handler) pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.respondValidation(c, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}
