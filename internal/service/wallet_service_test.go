package service_test

import (
	"context"
	"testing"

	"storyrunner/internal/interfaces"
	interfaceMocks "storyrunner/internal/interfaces/mocks"
	messagingMocks "storyrunner/internal/messaging/mocks"
	"storyrunner/internal/models"
	"storyrunner/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// stubTxRunner runs the callback directly, without a real transaction. The
// repository mocks accept the nil querier via mock.Anything.
type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(querier interfaces.DBTX) error) error {
	return fn(nil)
}

func TestWalletServiceDebit(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("Successful debit records balance snapshot", func(t *testing.T) {
		mockUserRepo := new(interfaceMocks.UserRepository)
		mockWalletRepo := new(interfaceMocks.WalletRepository)
		mockPublisher := new(messagingMocks.EventPublisher)
		svc := service.NewWalletService(nil, stubTxRunner{}, mockUserRepo, mockWalletRepo, mockPublisher, zap.NewNop())

		mockWalletRepo.On("DebitBalance", ctx, mock.Anything, userID, int64(10)).Return(int64(90), nil).Once()
		mockWalletRepo.On("InsertTransaction", ctx, mock.Anything, mock.MatchedBy(func(txn *models.Transaction) bool {
			return txn.UserID == userID &&
				txn.Type == models.TransactionDebit &&
				txn.Source == models.SourceChapterAdvance &&
				txn.Amount == 10 &&
				txn.BalanceAfter == 90
		})).Return(nil).Once()
		mockPublisher.On("PublishWalletTransaction", ctx, mock.Anything).Return(nil).Once()

		txn, err := svc.Debit(ctx, userID, 10, models.SourceChapterAdvance)

		assert.NoError(t, err)
		assert.Equal(t, int64(90), txn.BalanceAfter)
		mockWalletRepo.AssertExpectations(t)
		mockPublisher.AssertExpectations(t)
	})

	t.Run("Insufficient credits surfaces without audit row", func(t *testing.T) {
		mockUserRepo := new(interfaceMocks.UserRepository)
		mockWalletRepo := new(interfaceMocks.WalletRepository)
		mockPublisher := new(messagingMocks.EventPublisher)
		svc := service.NewWalletService(nil, stubTxRunner{}, mockUserRepo, mockWalletRepo, mockPublisher, zap.NewNop())

		mockWalletRepo.On("DebitBalance", ctx, mock.Anything, userID, int64(500)).Return(int64(0), models.ErrInsufficientCredits).Once()

		txn, err := svc.Debit(ctx, userID, 500, models.SourceSessionStart)

		assert.ErrorIs(t, err, models.ErrInsufficientCredits)
		assert.Nil(t, txn)
		mockWalletRepo.AssertNotCalled(t, "InsertTransaction", mock.Anything, mock.Anything, mock.Anything)
		mockPublisher.AssertNotCalled(t, "PublishWalletTransaction", mock.Anything, mock.Anything)
	})

	t.Run("Non-positive amount is rejected", func(t *testing.T) {
		mockUserRepo := new(interfaceMocks.UserRepository)
		mockWalletRepo := new(interfaceMocks.WalletRepository)
		svc := service.NewWalletService(nil, stubTxRunner{}, mockUserRepo, mockWalletRepo, nil, zap.NewNop())

		_, err := svc.Debit(ctx, userID, 0, models.SourceChapterAdvance)
		assert.ErrorIs(t, err, models.ErrInvalidInput)

		_, err = svc.Credit(ctx, userID, -5, models.SourceAdminGrant)
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})
}

func TestWalletServiceCreditAndRefund(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("Credit appends to the audit trail", func(t *testing.T) {
		mockUserRepo := new(interfaceMocks.UserRepository)
		mockWalletRepo := new(interfaceMocks.WalletRepository)
		mockPublisher := new(messagingMocks.EventPublisher)
		svc := service.NewWalletService(nil, stubTxRunner{}, mockUserRepo, mockWalletRepo, mockPublisher, zap.NewNop())

		mockWalletRepo.On("CreditBalance", ctx, mock.Anything, userID, int64(100)).Return(int64(100), nil).Once()
		mockWalletRepo.On("InsertTransaction", ctx, mock.Anything, mock.MatchedBy(func(txn *models.Transaction) bool {
			return txn.Type == models.TransactionCredit && txn.Source == models.SourceAdminGrant && txn.BalanceAfter == 100
		})).Return(nil).Once()
		mockPublisher.On("PublishWalletTransaction", ctx, mock.Anything).Return(nil).Once()

		txn, err := svc.Credit(ctx, userID, 100, models.SourceAdminGrant)

		assert.NoError(t, err)
		assert.Equal(t, int64(100), txn.BalanceAfter)
		mockWalletRepo.AssertExpectations(t)
	})

	t.Run("Refund forces the refund source prefix", func(t *testing.T) {
		mockUserRepo := new(interfaceMocks.UserRepository)
		mockWalletRepo := new(interfaceMocks.WalletRepository)
		mockPublisher := new(messagingMocks.EventPublisher)
		svc := service.NewWalletService(nil, stubTxRunner{}, mockUserRepo, mockWalletRepo, mockPublisher, zap.NewNop())

		mockWalletRepo.On("CreditBalance", ctx, mock.Anything, userID, int64(10)).Return(int64(110), nil).Once()
		mockWalletRepo.On("InsertTransaction", ctx, mock.Anything, mock.MatchedBy(func(txn *models.Transaction) bool {
			return txn.Source == "refund:manual_adjustment"
		})).Return(nil).Once()
		mockPublisher.On("PublishWalletTransaction", ctx, mock.Anything).Return(nil).Once()

		_, err := svc.Refund(ctx, userID, 10, "manual_adjustment")

		assert.NoError(t, err)
		mockWalletRepo.AssertExpectations(t)
	})
}

func TestWalletServiceGetBalance(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	mockUserRepo := new(interfaceMocks.UserRepository)
	mockWalletRepo := new(interfaceMocks.WalletRepository)
	svc := service.NewWalletService(nil, stubTxRunner{}, mockUserRepo, mockWalletRepo, nil, zap.NewNop())

	mockUserRepo.On("GetByID", ctx, mock.Anything, userID).Return(&models.User{ID: userID, Balance: 42}, nil).Once()

	balance, err := svc.GetBalance(ctx, userID)

	assert.NoError(t, err)
	assert.Equal(t, int64(42), balance)
	mockUserRepo.AssertExpectations(t)
}
