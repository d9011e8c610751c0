// Package middleware holds the gin middleware chain: request logging, JWT
// auth, role gating and rate limiting.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"storyrunner/internal/authutils"
	"storyrunner/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// JWTAuth verifies the bearer token and injects the user identity into the
// request context under models.UserContextKey / models.RoleContextKey.
func JWTAuth(jwtManager *authutils.JWTManager, logger *zap.Logger) gin.HandlerFunc {
	log := logger.Named("JWTAuth")
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code": "UNAUTHENTICATED", "error": "Authorization header missing",
			})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code": "UNAUTHENTICATED", "error": "Invalid Authorization header format",
			})
			return
		}

		claims, err := jwtManager.VerifyToken(c.Request.Context(), parts[1])
		if err != nil {
			log.Debug("Token rejected", zap.Error(err), zap.String("ip", c.ClientIP()))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code": "UNAUTHENTICATED", "error": "Invalid or expired token",
			})
			return
		}

		ctx := context.WithValue(c.Request.Context(), models.UserContextKey, claims.UserID)
		ctx = context.WithValue(ctx, models.RoleContextKey, models.UserRole(claims.Role))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireAdmin gates a route group to admin accounts. Must run after JWTAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := models.GetRoleFromContext(c.Request.Context())
		if !ok || role != models.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code": "FORBIDDEN", "error": "Admin role required",
			})
			return
		}
		c.Next()
	}
}
