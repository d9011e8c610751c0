package service_test

import (
	"context"
	"testing"
	"time"

	"storyrunner/internal/authutils"
	interfaceMocks "storyrunner/internal/interfaces/mocks"
	messagingMocks "storyrunner/internal/messaging/mocks"
	"storyrunner/internal/models"
	"storyrunner/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func newTestJWTManager(t *testing.T) *authutils.JWTManager {
	t.Helper()
	manager, err := authutils.NewJWTManager("test-secret", time.Hour, zap.NewNop())
	require.NoError(t, err)
	return manager
}

func TestAuthServiceRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("Registration grants signup credits in the same transaction", func(t *testing.T) {
		mockUserRepo := new(interfaceMocks.UserRepository)
		mockWalletRepo := new(interfaceMocks.WalletRepository)
		mockPublisher := new(messagingMocks.EventPublisher)
		svc := service.NewAuthService(nil, stubTxRunner{}, mockUserRepo, mockWalletRepo,
			newTestJWTManager(t), mockPublisher, 100, zap.NewNop())

		mockUserRepo.On("Create", ctx, mock.Anything, mock.MatchedBy(func(u *models.User) bool {
			// The password is stored hashed; role defaults to player.
			return u.Username == "reader" && u.Role == models.RoleUser &&
				u.PasswordHash != "" && u.PasswordHash != "opensesame"
		})).Run(func(args mock.Arguments) {
			args.Get(2).(*models.User).ID = uuid.New()
		}).Return(nil).Once()
		mockWalletRepo.On("CreditBalance", ctx, mock.Anything, mock.Anything, int64(100)).Return(int64(100), nil).Once()
		mockWalletRepo.On("InsertTransaction", ctx, mock.Anything, mock.MatchedBy(func(txn *models.Transaction) bool {
			return txn.Source == models.SourceSignupGrant && txn.Amount == 100
		})).Return(nil).Once()
		mockPublisher.On("PublishWalletTransaction", ctx, mock.Anything).Return(nil).Once()

		user, token, err := svc.Register(ctx, "reader", "reader@example.com", "opensesame")

		assert.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.Equal(t, int64(100), user.Balance)
		mockUserRepo.AssertExpectations(t)
		mockWalletRepo.AssertExpectations(t)
	})

	t.Run("Zero grant skips the wallet entirely", func(t *testing.T) {
		mockUserRepo := new(interfaceMocks.UserRepository)
		mockWalletRepo := new(interfaceMocks.WalletRepository)
		svc := service.NewAuthService(nil, stubTxRunner{}, mockUserRepo, mockWalletRepo,
			newTestJWTManager(t), nil, 0, zap.NewNop())

		mockUserRepo.On("Create", ctx, mock.Anything, mock.Anything).Return(nil).Once()

		user, _, err := svc.Register(ctx, "reader", "reader@example.com", "opensesame")

		assert.NoError(t, err)
		assert.Equal(t, int64(0), user.Balance)
		mockWalletRepo.AssertNotCalled(t, "CreditBalance", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Invalid input never reaches the repository", func(t *testing.T) {
		mockUserRepo := new(interfaceMocks.UserRepository)
		svc := service.NewAuthService(nil, stubTxRunner{}, mockUserRepo, new(interfaceMocks.WalletRepository),
			newTestJWTManager(t), nil, 100, zap.NewNop())

		_, _, err := svc.Register(ctx, "ab", "reader@example.com", "opensesame")
		assert.ErrorIs(t, err, models.ErrInvalidInput)

		_, _, err = svc.Register(ctx, "reader", "not-an-email", "opensesame")
		assert.ErrorIs(t, err, models.ErrInvalidInput)

		_, _, err = svc.Register(ctx, "reader", "reader@example.com", "short")
		assert.ErrorIs(t, err, models.ErrInvalidInput)

		mockUserRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Duplicate username surfaces the conflict", func(t *testing.T) {
		mockUserRepo := new(interfaceMocks.UserRepository)
		svc := service.NewAuthService(nil, stubTxRunner{}, mockUserRepo, new(interfaceMocks.WalletRepository),
			newTestJWTManager(t), nil, 100, zap.NewNop())

		mockUserRepo.On("Create", ctx, mock.Anything, mock.Anything).Return(models.ErrUserAlreadyExists).Once()

		_, _, err := svc.Register(ctx, "reader", "reader@example.com", "opensesame")

		assert.ErrorIs(t, err, models.ErrUserAlreadyExists)
	})
}

func TestAuthServiceLogin(t *testing.T) {
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte("opensesame"), bcrypt.MinCost)
	require.NoError(t, err)
	storedUser := &models.User{
		ID:           uuid.New(),
		Username:     "reader",
		PasswordHash: string(hash),
		Role:         models.RoleUser,
	}

	t.Run("Valid credentials produce a verifiable token", func(t *testing.T) {
		mockUserRepo := new(interfaceMocks.UserRepository)
		manager := newTestJWTManager(t)
		svc := service.NewAuthService(nil, stubTxRunner{}, mockUserRepo, new(interfaceMocks.WalletRepository),
			manager, nil, 100, zap.NewNop())

		mockUserRepo.On("GetByUsername", ctx, mock.Anything, "reader").Return(storedUser, nil).Once()

		user, token, err := svc.Login(ctx, "reader", "opensesame")

		assert.NoError(t, err)
		assert.Equal(t, storedUser.ID, user.ID)

		claims, err := manager.VerifyToken(ctx, token)
		assert.NoError(t, err)
		assert.Equal(t, storedUser.ID, claims.UserID)
		assert.Equal(t, string(models.RoleUser), claims.Role)
	})

	t.Run("Wrong password and unknown user look identical", func(t *testing.T) {
		mockUserRepo := new(interfaceMocks.UserRepository)
		svc := service.NewAuthService(nil, stubTxRunner{}, mockUserRepo, new(interfaceMocks.WalletRepository),
			newTestJWTManager(t), nil, 100, zap.NewNop())

		mockUserRepo.On("GetByUsername", ctx, mock.Anything, "reader").Return(storedUser, nil).Once()
		mockUserRepo.On("GetByUsername", ctx, mock.Anything, "ghost").Return(nil, models.ErrUserNotFound).Once()

		_, _, err := svc.Login(ctx, "reader", "wrong")
		assert.ErrorIs(t, err, models.ErrInvalidCredentials)

		_, _, err = svc.Login(ctx, "ghost", "whatever")
		assert.ErrorIs(t, err, models.ErrInvalidCredentials)
	})
}
