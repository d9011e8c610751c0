package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) getSettingsCatalog(c *gin.Context) {
	catalog, err := h.settingsService.Catalog(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, catalog)
}

func (h *Handler) listStories(c *gin.Context) {
	limit, offset := pagination(c)
	stories, err := h.storyService.ListPublished(c.Request.Context(), limit, offset)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toStorySummaries(stories))
}

func (h *Handler) getStory(c *gin.Context) {
	storyID, ok := h.pathID(c)
	if !ok {
		return
	}
	story, err := h.storyService.GetPublished(c.Request.Context(), storyID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toStorySummary(story))
}

func (h *Handler) getWallet(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	balance, err := h.walletService.GetBalance(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, walletResponse{Balance: balance})
}

func (h *Handler) listTransactions(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	limit, offset := pagination(c)
	transactions, err := h.walletService.ListTransactions(c.Request.Context(), userID, limit, offset)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, transactions)
}
