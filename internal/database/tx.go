package database

import (
	"context"
	"fmt"

	"storyrunner/internal/interfaces"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var _ interfaces.TxRunner = (*PoolTxRunner)(nil)

// PoolTxRunner implements interfaces.TxRunner over a pgx pool.
type PoolTxRunner struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPoolTxRunner creates a transaction runner for the given pool.
func NewPoolTxRunner(pool *pgxpool.Pool, logger *zap.Logger) *PoolTxRunner {
	return &PoolTxRunner{pool: pool, logger: logger}
}

// WithTx implements interfaces.TxRunner.
func (r *PoolTxRunner) WithTx(ctx context.Context, fn func(querier interfaces.DBTX) error) error {
	return WithTx(ctx, r.pool, r.logger, func(tx pgx.Tx) error {
		return fn(tx)
	})
}

// WithTx runs fn inside a transaction, rolling back on error or panic.
func WithTx(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger, fn func(tx pgx.Tx) error) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
				logger.Error("Failed to rollback transaction after panic",
					zap.Error(rollbackErr),
					zap.Any("panic", p))
			}
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && rollbackErr != pgx.ErrTxClosed {
			logger.Error("Failed to rollback transaction",
				zap.Error(rollbackErr),
				zap.NamedError("original_error", err))
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
