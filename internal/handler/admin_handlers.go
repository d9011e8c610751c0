package handler

import (
	"net/http"

	"storyrunner/internal/models"

	"github.com/gin-gonic/gin"
)

func (h *Handler) adminListStories(c *gin.Context) {
	limit, offset := pagination(c)
	stories, err := h.storyService.List(c.Request.Context(), limit, offset)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stories)
}

func (h *Handler) adminCreateStory(c *gin.Context) {
	var story models.Story
	if err := c.ShouldBindJSON(&story); err != nil {
		h.respondValidation(c, "invalid story body")
		return
	}
	if err := h.storyService.Create(c.Request.Context(), &story); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, story)
}

func (h *Handler) adminGetStory(c *gin.Context) {
	storyID, ok := h.pathID(c)
	if !ok {
		return
	}
	story, err := h.storyService.Get(c.Request.Context(), storyID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, story)
}

func (h *Handler) adminUpdateStory(c *gin.Context) {
	storyID, ok := h.pathID(c)
	if !ok {
		return
	}
	var story models.Story
	if err := c.ShouldBindJSON(&story); err != nil {
		h.respondValidation(c, "invalid story body")
		return
	}
	story.ID = storyID
	if err := h.storyService.Update(c.Request.Context(), &story); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, story)
}

func (h *Handler) adminPublishStory(c *gin.Context) {
	storyID, ok := h.pathID(c)
	if !ok {
		return
	}
	if err := h.storyService.Publish(c.Request.Context(), storyID); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) adminUnpublishStory(c *gin.Context) {
	storyID, ok := h.pathID(c)
	if !ok {
		return
	}
	if err := h.storyService.Unpublish(c.Request.Context(), storyID); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) adminGetStoryStats(c *gin.Context) {
	storyID, ok := h.pathID(c)
	if !ok {
		return
	}
	stats, err := h.storyService.GetStats(c.Request.Context(), storyID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"stats":         stats,
		"averageRating": stats.AverageRating(),
	})
}

func (h *Handler) adminListStats(c *gin.Context) {
	limit, offset := pagination(c)
	stats, err := h.storyService.ListStats(c.Request.Context(), limit, offset)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// flavorKind parses the :kind path segment.
func (h *Handler) flavorKind(c *gin.Context) (models.FlavorKind, bool) {
	switch c.Param("kind") {
	case string(models.FlavorKindTone):
		return models.FlavorKindTone, true
	case string(models.FlavorKindTime):
		return models.FlavorKindTime, true
	default:
		h.respondValidation(c, "flavor kind must be tone or time")
		return "", false
	}
}

func (h *Handler) adminListFlavors(c *gin.Context) {
	kind, ok := h.flavorKind(c)
	if !ok {
		return
	}
	flavors, err := h.settingsService.ListFlavors(c.Request.Context(), kind)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, flavors)
}

func (h *Handler) adminUpsertFlavor(c *gin.Context) {
	kind, ok := h.flavorKind(c)
	if !ok {
		return
	}
	var req upsertFlavorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondValidation(c, "id and label are required")
		return
	}
	option := models.FlavorOption{ID: req.ID, Label: req.Label, Description: req.Description}
	if err := h.settingsService.UpsertFlavor(c.Request.Context(), kind, option); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, option)
}

func (h *Handler) adminDeleteFlavor(c *gin.Context) {
	kind, ok := h.flavorKind(c)
	if !ok {
		return
	}
	if err := h.settingsService.DeleteFlavor(c.Request.Context(), kind, c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) adminListUsers(c *gin.Context) {
	limit, offset := pagination(c)
	users, err := h.authService.ListUsers(c.Request.Context(), limit, offset)
	if err != nil {
		h.respondError(c, err)
		return
	}
	responses := make([]userResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, toUserResponse(user))
	}
	c.JSON(http.StatusOK, responses)
}

func (h *Handler) adminListUserTransactions(c *gin.Context) {
	targetID, ok := h.pathID(c)
	if !ok {
		return
	}
	limit, offset := pagination(c)
	transactions, err := h.walletService.ListTransactions(c.Request.Context(), targetID, limit, offset)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, transactions)
}

// adminGrantCredits credits (or, with a negative amount, debits) a user's
// wallet by operator action.
func (h *Handler) adminGrantCredits(c *gin.Context) {
	targetID, ok := h.pathID(c)
	if !ok {
		return
	}
	var req grantCreditsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondValidation(c, "amount is required")
		return
	}

	var (
		txn *models.Transaction
		err error
	)
	if req.Amount > 0 {
		txn, err = h.walletService.Credit(c.Request.Context(), targetID, req.Amount, models.SourceAdminGrant)
	} else {
		txn, err = h.walletService.Debit(c.Request.Context(), targetID, -req.Amount, models.SourceAdminGrant)
	}
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, txn)
}
