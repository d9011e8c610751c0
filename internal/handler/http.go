// Package handler wires the HTTP surface: player API, admin API and the
// operational endpoints.
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"storyrunner/internal/authutils"
	"storyrunner/internal/middleware"
	"storyrunner/internal/models"
	"storyrunner/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// Handler holds the services behind the HTTP surface.
type Handler struct {
	authService     service.AuthService
	sessionService  service.SessionService
	storyService    service.StoryService
	settingsService service.SettingsService
	walletService   service.WalletService
	jwtManager      *authutils.JWTManager
	logger          *zap.Logger
}

// NewHandler creates the HTTP handler.
func NewHandler(
	authService service.AuthService,
	sessionService service.SessionService,
	storyService service.StoryService,
	settingsService service.SettingsService,
	walletService service.WalletService,
	jwtManager *authutils.JWTManager,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		authService:     authService,
		sessionService:  sessionService,
		storyService:    storyService,
		settingsService: settingsService,
		walletService:   walletService,
		jwtManager:      jwtManager,
		logger:          logger.Named("Handler"),
	}
}

// RegisterRoutes attaches all routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		api.POST("/auth/register", h.register)
		api.POST("/auth/login", h.login)

		authed := api.Group("")
		authed.Use(middleware.JWTAuth(h.jwtManager, h.logger))
		{
			authed.GET("/me", h.me)

			authed.GET("/settings", h.getSettingsCatalog)
			authed.GET("/stories", h.listStories)
			authed.GET("/stories/:id", h.getStory)

			authed.POST("/sessions", h.startSession)
			authed.GET("/sessions", h.listSessions)
			authed.GET("/sessions/:id", h.getSession)
			authed.GET("/sessions/:id/chapters", h.listChapters)
			authed.POST("/sessions/:id/advance", h.advanceSession)
			authed.POST("/sessions/:id/complete", h.completeSession)
			authed.POST("/sessions/:id/abandon", h.abandonSession)

			authed.GET("/wallet", h.getWallet)
			authed.GET("/wallet/transactions", h.listTransactions)
		}
	}

	admin := router.Group("/admin")
	admin.Use(middleware.JWTAuth(h.jwtManager, h.logger), middleware.RequireAdmin())
	{
		admin.GET("/stories", h.adminListStories)
		admin.POST("/stories", h.adminCreateStory)
		admin.GET("/stories/:id", h.adminGetStory)
		admin.PUT("/stories/:id", h.adminUpdateStory)
		admin.POST("/stories/:id/publish", h.adminPublishStory)
		admin.POST("/stories/:id/unpublish", h.adminUnpublishStory)
		admin.GET("/stories/:id/stats", h.adminGetStoryStats)
		admin.GET("/stats", h.adminListStats)

		admin.GET("/flavors/:kind", h.adminListFlavors)
		admin.PUT("/flavors/:kind", h.adminUpsertFlavor)
		admin.DELETE("/flavors/:kind/:id", h.adminDeleteFlavor)

		admin.GET("/users", h.adminListUsers)
		admin.POST("/users/:id/credits", h.adminGrantCredits)
		admin.GET("/users/:id/transactions", h.adminListUserTransactions)
	}
}

// respondError maps service errors to HTTP statuses with machine-readable
// codes.
func (h *Handler) respondError(c *gin.Context, err error) {
	var status int
	var code string

	switch {
	case errors.Is(err, models.ErrInvalidCredentials), errors.Is(err, models.ErrUnauthorized):
		status, code = http.StatusUnauthorized, "UNAUTHENTICATED"
	case errors.Is(err, models.ErrForbidden):
		status, code = http.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, models.ErrInsufficientCredits):
		status, code = http.StatusPaymentRequired, "INSUFFICIENT_CREDITS"
	case errors.Is(err, models.ErrSessionNotActive):
		status, code = http.StatusConflict, "SESSION_NOT_ACTIVE"
	case errors.Is(err, models.ErrSessionConflict):
		status, code = http.StatusConflict, "SESSION_CONFLICT"
	case errors.Is(err, models.ErrUserAlreadyExists), errors.Is(err, models.ErrEmailAlreadyExists):
		status, code = http.StatusConflict, "ALREADY_EXISTS"
	case errors.Is(err, models.ErrInvalidToneStyle),
		errors.Is(err, models.ErrInvalidTimeFlavor),
		errors.Is(err, models.ErrInvalidCast),
		errors.Is(err, models.ErrStoryNotPublished),
		errors.Is(err, models.ErrInvalidInput):
		status, code = http.StatusBadRequest, "VALIDATION_FAILED"
	case errors.Is(err, models.ErrGenerationFailed):
		status, code = http.StatusBadGateway, "GENERATION_FAILED"
	case errors.Is(err, models.ErrNotFound),
		errors.Is(err, models.ErrUserNotFound),
		errors.Is(err, models.ErrStoryNotFound):
		status, code = http.StatusNotFound, "NOT_FOUND"
	default:
		h.logger.Error("Unhandled service error", zap.Error(err), zap.String("path", c.Request.URL.Path))
		status, code = http.StatusInternalServerError, "SERVER_ERROR"
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal server error"
	}
	c.JSON(status, ErrorResponse{Code: code, Error: message})
}

func (h *Handler) respondValidation(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Code: "VALIDATION_FAILED", Error: message})
}

// currentUser pulls the authenticated user from the request context; JWTAuth
// guarantees it is present on authed routes, so a miss is a wiring bug.
func (h *Handler) currentUser(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := models.GetUserIDFromContext(c.Request.Context())
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Code: "UNAUTHENTICATED", Error: "missing identity"})
	}
	return userID, ok
}

// pagination parses limit/offset query params with sane bounds.
func pagination(c *gin.Context) (limit, offset int) {
	limit = defaultPageLimit
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	if raw := c.Query("offset"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	return limit, offset
}
