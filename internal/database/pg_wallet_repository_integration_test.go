package database_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"storyrunner/internal/database"
	"storyrunner/internal/interfaces"
	"storyrunner/internal/models"
	"storyrunner/migrations"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

// WalletIntegrationSuite runs the wallet repository against a real PostgreSQL
// instance so the conditional-update semantics are tested for real, not mocked.
type WalletIntegrationSuite struct {
	suite.Suite
	ctx         context.Context
	pgContainer *postgres.PostgresContainer
	pool        *pgxpool.Pool
	txRunner    interfaces.TxRunner
	userRepo    interfaces.UserRepository
	walletRepo  interfaces.WalletRepository
	logger      *zap.Logger
}

func (s *WalletIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()
	var err error

	s.logger, err = zap.NewDevelopment()
	require.NoError(s.T(), err, "Failed to create logger for tests")

	s.pgContainer, err = postgres.Run(s.ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("test_db"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Minute),
		),
	)
	require.NoError(s.T(), err, "Failed to start postgres container")

	connStr, err := s.pgContainer.ConnectionString(s.ctx, "sslmode=disable")
	require.NoError(s.T(), err, "Failed to get postgres connection string")

	s.pool, err = pgxpool.New(s.ctx, connStr)
	require.NoError(s.T(), err, "Failed to connect to test postgres")

	require.NoError(s.T(), database.RunMigrations(migrations.FS, connStr, s.logger),
		"Failed to run migrations")

	s.txRunner = database.NewPoolTxRunner(s.pool, s.logger)
	s.userRepo = database.NewPgUserRepository(s.logger)
	s.walletRepo = database.NewPgWalletRepository(s.logger)
}

func (s *WalletIntegrationSuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
	if s.pgContainer != nil {
		if err := s.pgContainer.Terminate(s.ctx); err != nil {
			s.logger.Error("Failed to terminate postgres container", zap.Error(err))
		}
	}
}

func (s *WalletIntegrationSuite) SetupTest() {
	_, err := s.pool.Exec(s.ctx, "TRUNCATE TABLE wallet_transactions, users CASCADE")
	require.NoError(s.T(), err, "Failed to truncate tables")
}

func (s *WalletIntegrationSuite) createUser(balance int64) *models.User {
	user := &models.User{
		Username:     "player-" + uuid.NewString()[:8],
		Email:        uuid.NewString()[:8] + "@example.com",
		PasswordHash: "irrelevant",
		Role:         models.RoleUser,
		Balance:      balance,
	}
	require.NoError(s.T(), s.userRepo.Create(s.ctx, s.pool, user))
	return user
}

func (s *WalletIntegrationSuite) TestDebitBalance_Success() {
	user := s.createUser(100)

	newBalance, err := s.walletRepo.DebitBalance(s.ctx, s.pool, user.ID, 30)
	s.Require().NoError(err)
	s.Equal(int64(70), newBalance)

	stored, err := s.userRepo.GetByID(s.ctx, s.pool, user.ID)
	s.Require().NoError(err)
	s.Equal(int64(70), stored.Balance)
}

func (s *WalletIntegrationSuite) TestDebitBalance_ExactBalanceGoesToZero() {
	user := s.createUser(50)

	newBalance, err := s.walletRepo.DebitBalance(s.ctx, s.pool, user.ID, 50)
	s.Require().NoError(err)
	s.Equal(int64(0), newBalance)
}

func (s *WalletIntegrationSuite) TestDebitBalance_Insufficient() {
	user := s.createUser(10)

	_, err := s.walletRepo.DebitBalance(s.ctx, s.pool, user.ID, 11)
	s.Require().ErrorIs(err, models.ErrInsufficientCredits)

	// The refused debit must not touch the balance.
	stored, err := s.userRepo.GetByID(s.ctx, s.pool, user.ID)
	s.Require().NoError(err)
	s.Equal(int64(10), stored.Balance)
}

func (s *WalletIntegrationSuite) TestDebitBalance_UnknownUser() {
	_, err := s.walletRepo.DebitBalance(s.ctx, s.pool, uuid.New(), 5)
	s.Require().ErrorIs(err, models.ErrUserNotFound)
}

func (s *WalletIntegrationSuite) TestCreditBalance() {
	user := s.createUser(0)

	newBalance, err := s.walletRepo.CreditBalance(s.ctx, s.pool, user.ID, 25)
	s.Require().NoError(err)
	s.Equal(int64(25), newBalance)

	_, err = s.walletRepo.CreditBalance(s.ctx, s.pool, uuid.New(), 25)
	s.Require().ErrorIs(err, models.ErrUserNotFound)
}

func (s *WalletIntegrationSuite) TestTransactionLog_OrderAndPaging() {
	user := s.createUser(100)

	for i, source := range []string{models.SourceSessionStart, models.SourceChapterAdvance, models.SourceChapterAdvance} {
		balance, err := s.walletRepo.DebitBalance(s.ctx, s.pool, user.ID, 10)
		s.Require().NoError(err)
		err = s.walletRepo.InsertTransaction(s.ctx, s.pool, &models.Transaction{
			UserID:       user.ID,
			Type:         models.TransactionDebit,
			Source:       source,
			Amount:       10,
			BalanceAfter: balance,
			CreatedAt:    time.Now().UTC().Add(time.Duration(i) * time.Millisecond),
		})
		s.Require().NoError(err)
	}

	// Newest first.
	transactions, err := s.walletRepo.ListTransactions(s.ctx, s.pool, user.ID, 10, 0)
	s.Require().NoError(err)
	s.Require().Len(transactions, 3)
	s.Equal(int64(70), transactions[0].BalanceAfter)
	s.Equal(int64(90), transactions[2].BalanceAfter)
	s.Equal(models.SourceSessionStart, transactions[2].Source)

	page, err := s.walletRepo.ListTransactions(s.ctx, s.pool, user.ID, 2, 2)
	s.Require().NoError(err)
	s.Require().Len(page, 1)
	s.Equal(models.SourceSessionStart, page[0].Source)
}

func (s *WalletIntegrationSuite) TestWithTx_RollbackLeavesBalanceUntouched() {
	user := s.createUser(100)
	boom := errors.New("boom")

	err := s.txRunner.WithTx(s.ctx, func(querier interfaces.DBTX) error {
		if _, err := s.walletRepo.DebitBalance(s.ctx, querier, user.ID, 40); err != nil {
			return err
		}
		return boom
	})
	s.Require().ErrorIs(err, boom)

	stored, err := s.userRepo.GetByID(s.ctx, s.pool, user.ID)
	s.Require().NoError(err)
	s.Equal(int64(100), stored.Balance)
}

func TestWalletIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	suite.Run(t, new(WalletIntegrationSuite))
}
