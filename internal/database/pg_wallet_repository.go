package database

import (
	"context"
	"errors"
	"time"

	"storyrunner/internal/interfaces"
	"storyrunner/internal/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

var _ interfaces.WalletRepository = (*pgWalletRepository)(nil)

type pgWalletRepository struct {
	logger *zap.Logger
}

// NewPgWalletRepository creates a repository over the user balance and the
// append-only transaction log.
func NewPgWalletRepository(logger *zap.Logger) interfaces.WalletRepository {
	return &pgWalletRepository{logger: logger.Named("PgWalletRepo")}
}

// debitBalanceQuery decrements only when the balance covers the amount; the
// conditional update keeps check-and-decrement a single atomic statement.
const debitBalanceQuery = `
UPDATE users
SET balance = balance - $2
WHERE id = $1 AND balance >= $2
RETURNING balance`

const creditBalanceQuery = `
UPDATE users
SET balance = balance + $2
WHERE id = $1
RETURNING balance`

const userExistsQuery = `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`

const insertTransactionQuery = `
INSERT INTO wallet_transactions (id, user_id, type, source, amount, balance_after, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

const listTransactionsQuery = `
SELECT id, user_id, type, source, amount, balance_after, created_at
FROM wallet_transactions
WHERE user_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3`

func (r *pgWalletRepository) DebitBalance(ctx context.Context, querier interfaces.DBTX, userID uuid.UUID, amount int64) (int64, error) {
	var newBalance int64
	err := querier.QueryRow(ctx, debitBalanceQuery, userID, amount).Scan(&newBalance)
	if err == nil {
		return newBalance, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		r.logger.Error("Failed to debit balance", zap.Error(err), zap.Stringer("userID", userID))
		return 0, err
	}

	// No row updated: distinguish a missing user from a refused debit.
	var exists bool
	if scanErr := querier.QueryRow(ctx, userExistsQuery, userID).Scan(&exists); scanErr != nil {
		r.logger.Error("Failed to check user existence after refused debit", zap.Error(scanErr), zap.Stringer("userID", userID))
		return 0, scanErr
	}
	if !exists {
		return 0, models.ErrUserNotFound
	}
	return 0, models.ErrInsufficientCredits
}

func (r *pgWalletRepository) CreditBalance(ctx context.Context, querier interfaces.DBTX, userID uuid.UUID, amount int64) (int64, error) {
	var newBalance int64
	err := querier.QueryRow(ctx, creditBalanceQuery, userID, amount).Scan(&newBalance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, models.ErrUserNotFound
		}
		r.logger.Error("Failed to credit balance", zap.Error(err), zap.Stringer("userID", userID))
		return 0, err
	}
	return newBalance, nil
}

func (r *pgWalletRepository) InsertTransaction(ctx context.Context, querier interfaces.DBTX, txn *models.Transaction) error {
	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = time.Now().UTC()
	}
	_, err := querier.Exec(ctx, insertTransactionQuery,
		txn.ID, txn.UserID, txn.Type, txn.Source, txn.Amount, txn.BalanceAfter, txn.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to insert wallet transaction", zap.Error(err),
			zap.Stringer("userID", txn.UserID), zap.String("source", txn.Source))
		return err
	}
	return nil
}

func (r *pgWalletRepository) ListTransactions(ctx context.Context, querier interfaces.DBTX, userID uuid.UUID, limit, offset int) ([]*models.Transaction, error) {
	transactions := make([]*models.Transaction, 0)
	if err := pgxscan.Select(ctx, querier, &transactions, listTransactionsQuery, userID, limit, offset); err != nil {
		r.logger.Error("Failed to list wallet transactions", zap.Error(err), zap.Stringer("userID", userID))
		return nil, err
	}
	return transactions, nil
}
