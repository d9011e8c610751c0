// Package authutils issues and verifies the JWT access tokens used by the
// HTTP auth middleware.
package authutils

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storyrunner/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// JWTManager signs and verifies access tokens.
type JWTManager struct {
	jwtSecret string
	tokenTTL  time.Duration
	logger    *zap.Logger
}

// NewJWTManager creates a new JWTManager. A nil logger falls back to Noop.
func NewJWTManager(jwtSecret string, tokenTTL time.Duration, logger *zap.Logger) (*JWTManager, error) {
	if jwtSecret == "" {
		return nil, errors.New("JWT secret cannot be empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JWTManager{
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		logger:    logger.Named("JWTManager"),
	}, nil
}

// IssueToken creates a signed access token for the user.
func (m *JWTManager) IssueToken(userID uuid.UUID, role models.UserRole) (string, error) {
	now := time.Now().UTC()
	claims := &models.Claims{
		UserID: userID,
		Role:   string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.tokenTTL)),
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(m.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken checks the signature and validity of a token and returns its
// claims.
func (m *JWTManager) VerifyToken(ctx context.Context, tokenString string) (*models.Claims, error) {
	log := m.logger.With(zap.String("tokenSnippet", tokenSnippet(tokenString)))
	claims := &models.Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			log.Warn("Unexpected signing method", zap.Any("alg", token.Header["alg"]))
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(m.jwtSecret), nil
	})
	if err != nil {
		log.Warn("Failed to parse or verify token", zap.Error(err))
		return nil, models.ErrUnauthorized
	}
	if !token.Valid {
		log.Warn("Token is not valid")
		return nil, models.ErrUnauthorized
	}
	return claims, nil
}

// tokenSnippet returns a short prefix safe for logging.
func tokenSnippet(token string) string {
	if len(token) <= 8 {
		return token
	}
	return token[:8] + "..."
}
