package service

import (
	"context"
	"fmt"
	"strings"

	"storyrunner/internal/interfaces"
	"storyrunner/internal/messaging"
	"storyrunner/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WalletService manages the per-user credit balance and its append-only
// transaction log.
type WalletService interface {
	Debit(ctx context.Context, userID uuid.UUID, amount int64, source string) (*models.Transaction, error)
	Credit(ctx context.Context, userID uuid.UUID, amount int64, source string) (*models.Transaction, error)
	// Refund is a credit tagged as a reversal of an earlier debit.
	Refund(ctx context.Context, userID uuid.UUID, amount int64, source string) (*models.Transaction, error)
	GetBalance(ctx context.Context, userID uuid.UUID) (int64, error)
	ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Transaction, error)
}

type walletServiceImpl struct {
	db         interfaces.DBTX
	txRunner   interfaces.TxRunner
	userRepo   interfaces.UserRepository
	walletRepo interfaces.WalletRepository
	publisher  messaging.EventPublisher
	logger     *zap.Logger
}

// NewWalletService creates the wallet service.
func NewWalletService(
	db interfaces.DBTX,
	txRunner interfaces.TxRunner,
	userRepo interfaces.UserRepository,
	walletRepo interfaces.WalletRepository,
	publisher messaging.EventPublisher,
	logger *zap.Logger,
) WalletService {
	return &walletServiceImpl{
		db:         db,
		txRunner:   txRunner,
		userRepo:   userRepo,
		walletRepo: walletRepo,
		publisher:  publisher,
		logger:     logger.Named("WalletService"),
	}
}

// applyDebit performs the conditional decrement and appends the audit row,
// all against the caller's querier so it composes into larger transactions.
func applyDebit(ctx context.Context, querier interfaces.DBTX, walletRepo interfaces.WalletRepository, userID uuid.UUID, amount int64, source string) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: debit amount must be positive", models.ErrInvalidInput)
	}
	newBalance, err := walletRepo.DebitBalance(ctx, querier, userID, amount)
	if err != nil {
		return nil, err
	}
	txn := &models.Transaction{
		UserID:       userID,
		Type:         models.TransactionDebit,
		Source:       source,
		Amount:       amount,
		BalanceAfter: newBalance,
	}
	if err := walletRepo.InsertTransaction(ctx, querier, txn); err != nil {
		return nil, err
	}
	return txn, nil
}

// applyCredit mirrors applyDebit for the credit direction.
func applyCredit(ctx context.Context, querier interfaces.DBTX, walletRepo interfaces.WalletRepository, userID uuid.UUID, amount int64, source string) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: credit amount must be positive", models.ErrInvalidInput)
	}
	newBalance, err := walletRepo.CreditBalance(ctx, querier, userID, amount)
	if err != nil {
		return nil, err
	}
	txn := &models.Transaction{
		UserID:       userID,
		Type:         models.TransactionCredit,
		Source:       source,
		Amount:       amount,
		BalanceAfter: newBalance,
	}
	if err := walletRepo.InsertTransaction(ctx, querier, txn); err != nil {
		return nil, err
	}
	return txn, nil
}

func (s *walletServiceImpl) Debit(ctx context.Context, userID uuid.UUID, amount int64, source string) (*models.Transaction, error) {
	log := s.logger.With(zap.Stringer("userID", userID), zap.Int64("amount", amount), zap.String("source", source))

	var txn *models.Transaction
	err := s.txRunner.WithTx(ctx, func(querier interfaces.DBTX) error {
		var txErr error
		txn, txErr = applyDebit(ctx, querier, s.walletRepo, userID, amount, source)
		return txErr
	})
	if err != nil {
		return nil, err
	}

	log.Info("Wallet debited", zap.Int64("balanceAfter", txn.BalanceAfter))
	s.publishTransaction(ctx, txn)
	return txn, nil
}

func (s *walletServiceImpl) Credit(ctx context.Context, userID uuid.UUID, amount int64, source string) (*models.Transaction, error) {
	log := s.logger.With(zap.Stringer("userID", userID), zap.Int64("amount", amount), zap.String("source", source))

	var txn *models.Transaction
	err := s.txRunner.WithTx(ctx, func(querier interfaces.DBTX) error {
		var txErr error
		txn, txErr = applyCredit(ctx, querier, s.walletRepo, userID, amount, source)
		return txErr
	})
	if err != nil {
		return nil, err
	}

	log.Info("Wallet credited", zap.Int64("balanceAfter", txn.BalanceAfter))
	s.publishTransaction(ctx, txn)
	return txn, nil
}

func (s *walletServiceImpl) Refund(ctx context.Context, userID uuid.UUID, amount int64, source string) (*models.Transaction, error) {
	if !strings.HasPrefix(source, "refund:") {
		source = "refund:" + source
	}
	return s.Credit(ctx, userID, amount, source)
}

func (s *walletServiceImpl) GetBalance(ctx context.Context, userID uuid.UUID) (int64, error) {
	user, err := s.userRepo.GetByID(ctx, s.db, userID)
	if err != nil {
		return 0, err
	}
	return user.Balance, nil
}

func (s *walletServiceImpl) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Transaction, error) {
	return s.walletRepo.ListTransactions(ctx, s.db, userID, limit, offset)
}

func (s *walletServiceImpl) publishTransaction(ctx context.Context, txn *models.Transaction) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishWalletTransaction(ctx, messaging.WalletTransactionPayload{Transaction: *txn}); err != nil {
		s.logger.Warn("Failed to publish wallet transaction event", zap.Error(err), zap.Stringer("txnID", txn.ID))
	}
}
