package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"storyrunner/internal/authutils"
	"storyrunner/internal/interfaces"
	"storyrunner/internal/messaging"
	"storyrunner/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AuthService registers accounts and issues access tokens.
type AuthService interface {
	// Register creates the account and grants the signup credits in one
	// transaction, then returns the user with a fresh access token.
	Register(ctx context.Context, username, email, password string) (*models.User, string, error)
	Login(ctx context.Context, username, password string) (*models.User, string, error)
	GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error)
	// ListUsers backs the admin user listing.
	ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error)
}

type authServiceImpl struct {
	db          interfaces.DBTX
	txRunner    interfaces.TxRunner
	userRepo    interfaces.UserRepository
	walletRepo  interfaces.WalletRepository
	jwtManager  *authutils.JWTManager
	publisher   messaging.EventPublisher
	signupGrant int64
	logger      *zap.Logger
}

// NewAuthService creates the auth service.
func NewAuthService(
	db interfaces.DBTX,
	txRunner interfaces.TxRunner,
	userRepo interfaces.UserRepository,
	walletRepo interfaces.WalletRepository,
	jwtManager *authutils.JWTManager,
	publisher messaging.EventPublisher,
	signupGrant int64,
	logger *zap.Logger,
) AuthService {
	return &authServiceImpl{
		db:          db,
		txRunner:    txRunner,
		userRepo:    userRepo,
		walletRepo:  walletRepo,
		jwtManager:  jwtManager,
		publisher:   publisher,
		signupGrant: signupGrant,
		logger:      logger.Named("AuthService"),
	}
}

func (s *authServiceImpl) Register(ctx context.Context, username, email, password string) (*models.User, string, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if err := validateRegistration(username, email, password); err != nil {
		return nil, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         models.RoleUser,
	}

	var grantTxn *models.Transaction
	err = s.txRunner.WithTx(ctx, func(querier interfaces.DBTX) error {
		if txErr := s.userRepo.Create(ctx, querier, user); txErr != nil {
			return txErr
		}
		if s.signupGrant > 0 {
			var txErr error
			grantTxn, txErr = applyCredit(ctx, querier, s.walletRepo, user.ID, s.signupGrant, models.SourceSignupGrant)
			if txErr != nil {
				return txErr
			}
			user.Balance = grantTxn.BalanceAfter
		}
		return nil
	})
	if err != nil {
		return nil, "", err
	}

	token, err := s.jwtManager.IssueToken(user.ID, user.Role)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("User registered",
		zap.Stringer("userID", user.ID), zap.String("username", username), zap.Int64("signupGrant", s.signupGrant))
	if grantTxn != nil && s.publisher != nil {
		if pubErr := s.publisher.PublishWalletTransaction(ctx, messaging.WalletTransactionPayload{Transaction: *grantTxn}); pubErr != nil {
			s.logger.Warn("Failed to publish signup grant event", zap.Error(pubErr), zap.Stringer("userID", user.ID))
		}
	}
	return user, token, nil
}

func (s *authServiceImpl) Login(ctx context.Context, username, password string) (*models.User, string, error) {
	user, err := s.userRepo.GetByUsername(ctx, s.db, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return nil, "", models.ErrInvalidCredentials
		}
		return nil, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", models.ErrInvalidCredentials
	}

	token, err := s.jwtManager.IssueToken(user.ID, user.Role)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *authServiceImpl) GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	return s.userRepo.GetByID(ctx, s.db, userID)
}

func (s *authServiceImpl) ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error) {
	return s.userRepo.List(ctx, s.db, limit, offset)
}

func validateRegistration(username, email, password string) error {
	if len(username) < 3 || len(username) > 64 {
		return fmt.Errorf("%w: username must be 3-64 characters", models.ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("%w: invalid email address", models.ErrInvalidInput)
	}
	if len(password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", models.ErrInvalidInput)
	}
	return nil
}
