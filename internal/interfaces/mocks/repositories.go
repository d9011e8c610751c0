package mocks

import (
	"context"

	"storyrunner/internal/interfaces"
	"storyrunner/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// Mock UserRepository
type UserRepository struct {
	mock.Mock
}

func (m *UserRepository) Create(ctx context.Context, querier interfaces.DBTX, user *models.User) error {
	args := m.Called(ctx, querier, user)
	return args.Error(0)
}

func (m *UserRepository) GetByID(ctx context.Context, querier interfaces.DBTX, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, querier, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepository) GetByUsername(ctx context.Context, querier interfaces.DBTX, username string) (*models.User, error) {
	args := m.Called(ctx, querier, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepository) List(ctx context.Context, querier interfaces.DBTX, limit, offset int) ([]*models.User, error) {
	args := m.Called(ctx, querier, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

// Mock StoryRepository
type StoryRepository struct {
	mock.Mock
}

func (m *StoryRepository) Create(ctx context.Context, querier interfaces.DBTX, story *models.Story) error {
	args := m.Called(ctx, querier, story)
	return args.Error(0)
}

func (m *StoryRepository) Update(ctx context.Context, querier interfaces.DBTX, story *models.Story) error {
	args := m.Called(ctx, querier, story)
	return args.Error(0)
}

func (m *StoryRepository) GetByID(ctx context.Context, querier interfaces.DBTX, id uuid.UUID) (*models.Story, error) {
	args := m.Called(ctx, querier, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Story), args.Error(1)
}

func (m *StoryRepository) ListPublished(ctx context.Context, querier interfaces.DBTX, limit, offset int) ([]*models.Story, error) {
	args := m.Called(ctx, querier, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Story), args.Error(1)
}

func (m *StoryRepository) List(ctx context.Context, querier interfaces.DBTX, limit, offset int) ([]*models.Story, error) {
	args := m.Called(ctx, querier, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Story), args.Error(1)
}

func (m *StoryRepository) UpdateStatus(ctx context.Context, querier interfaces.DBTX, id uuid.UUID, status models.StoryStatus) error {
	args := m.Called(ctx, querier, id, status)
	return args.Error(0)
}

// Mock SettingsRepository
type SettingsRepository struct {
	mock.Mock
}

func (m *SettingsRepository) ListFlavors(ctx context.Context, querier interfaces.DBTX, kind models.FlavorKind) ([]models.FlavorOption, error) {
	args := m.Called(ctx, querier, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.FlavorOption), args.Error(1)
}

func (m *SettingsRepository) GetFlavor(ctx context.Context, querier interfaces.DBTX, kind models.FlavorKind, id string) (*models.FlavorOption, error) {
	args := m.Called(ctx, querier, kind, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FlavorOption), args.Error(1)
}

func (m *SettingsRepository) UpsertFlavor(ctx context.Context, querier interfaces.DBTX, kind models.FlavorKind, option models.FlavorOption) error {
	args := m.Called(ctx, querier, kind, option)
	return args.Error(0)
}

func (m *SettingsRepository) DeleteFlavor(ctx context.Context, querier interfaces.DBTX, kind models.FlavorKind, id string) error {
	args := m.Called(ctx, querier, kind, id)
	return args.Error(0)
}

// Mock SessionRepository
type SessionRepository struct {
	mock.Mock
}

func (m *SessionRepository) Create(ctx context.Context, querier interfaces.DBTX, session *models.Session) error {
	args := m.Called(ctx, querier, session)
	return args.Error(0)
}

func (m *SessionRepository) GetByID(ctx context.Context, querier interfaces.DBTX, id uuid.UUID) (*models.Session, error) {
	args := m.Called(ctx, querier, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *SessionRepository) ListByUser(ctx context.Context, querier interfaces.DBTX, userID uuid.UUID, limit, offset int) ([]*models.Session, error) {
	args := m.Called(ctx, querier, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Session), args.Error(1)
}

func (m *SessionRepository) AdvanceChapter(ctx context.Context, querier interfaces.DBTX, id uuid.UUID, expectedChapter int) error {
	args := m.Called(ctx, querier, id, expectedChapter)
	return args.Error(0)
}

func (m *SessionRepository) UpdateStatus(ctx context.Context, querier interfaces.DBTX, id uuid.UUID, status models.SessionStatus, rating *int) error {
	args := m.Called(ctx, querier, id, status, rating)
	return args.Error(0)
}

// Mock ChapterRepository
type ChapterRepository struct {
	mock.Mock
}

func (m *ChapterRepository) Create(ctx context.Context, querier interfaces.DBTX, chapter *models.Chapter) error {
	args := m.Called(ctx, querier, chapter)
	return args.Error(0)
}

func (m *ChapterRepository) ListBySession(ctx context.Context, querier interfaces.DBTX, sessionID uuid.UUID) ([]*models.Chapter, error) {
	args := m.Called(ctx, querier, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Chapter), args.Error(1)
}

func (m *ChapterRepository) GetBySessionAndIndex(ctx context.Context, querier interfaces.DBTX, sessionID uuid.UUID, idx int) (*models.Chapter, error) {
	args := m.Called(ctx, querier, sessionID, idx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Chapter), args.Error(1)
}

func (m *ChapterRepository) CountBySession(ctx context.Context, querier interfaces.DBTX, sessionID uuid.UUID) (int, error) {
	args := m.Called(ctx, querier, sessionID)
	return args.Int(0), args.Error(1)
}

// Mock WalletRepository
type WalletRepository struct {
	mock.Mock
}

func (m *WalletRepository) DebitBalance(ctx context.Context, querier interfaces.DBTX, userID uuid.UUID, amount int64) (int64, error) {
	args := m.Called(ctx, querier, userID, amount)
	return args.Get(0).(int64), args.Error(1)
}

func (m *WalletRepository) CreditBalance(ctx context.Context, querier interfaces.DBTX, userID uuid.UUID, amount int64) (int64, error) {
	args := m.Called(ctx, querier, userID, amount)
	return args.Get(0).(int64), args.Error(1)
}

func (m *WalletRepository) InsertTransaction(ctx context.Context, querier interfaces.DBTX, txn *models.Transaction) error {
	args := m.Called(ctx, querier, txn)
	return args.Error(0)
}

func (m *WalletRepository) ListTransactions(ctx context.Context, querier interfaces.DBTX, userID uuid.UUID, limit, offset int) ([]*models.Transaction, error) {
	args := m.Called(ctx, querier, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Transaction), args.Error(1)
}

// Mock StoryStatsRepository
type StoryStatsRepository struct {
	mock.Mock
}

func (m *StoryStatsRepository) IncrementSessionsStarted(ctx context.Context, querier interfaces.DBTX, storyID uuid.UUID) error {
	args := m.Called(ctx, querier, storyID)
	return args.Error(0)
}

func (m *StoryStatsRepository) IncrementChaptersGenerated(ctx context.Context, querier interfaces.DBTX, storyID uuid.UUID, creditsSpent int64) error {
	args := m.Called(ctx, querier, storyID, creditsSpent)
	return args.Error(0)
}

func (m *StoryStatsRepository) RecordSessionCompleted(ctx context.Context, querier interfaces.DBTX, storyID uuid.UUID, rating *int) error {
	args := m.Called(ctx, querier, storyID, rating)
	return args.Error(0)
}

func (m *StoryStatsRepository) Get(ctx context.Context, querier interfaces.DBTX, storyID uuid.UUID) (*models.StoryStats, error) {
	args := m.Called(ctx, querier, storyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.StoryStats), args.Error(1)
}

func (m *StoryStatsRepository) List(ctx context.Context, querier interfaces.DBTX, limit, offset int) ([]*models.StoryStats, error) {
	args := m.Called(ctx, querier, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.StoryStats), args.Error(1)
}
