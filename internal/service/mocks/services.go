package mocks

import (
	"context"

	"storyrunner/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// Mock AuthService
type AuthService struct {
	mock.Mock
}

func (m *AuthService) Register(ctx context.Context, username, email, password string) (*models.User, string, error) {
	args := m.Called(ctx, username, email, password)
	var user *models.User
	if args.Get(0) != nil {
		user = args.Get(0).(*models.User)
	}
	return user, args.String(1), args.Error(2)
}

func (m *AuthService) Login(ctx context.Context, username, password string) (*models.User, string, error) {
	args := m.Called(ctx, username, password)
	var user *models.User
	if args.Get(0) != nil {
		user = args.Get(0).(*models.User)
	}
	return user, args.String(1), args.Error(2)
}

func (m *AuthService) GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *AuthService) ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

// Mock SessionService
type SessionService struct {
	mock.Mock
}

func (m *SessionService) Start(ctx context.Context, userID, storyID uuid.UUID, toneStyleID, timeFlavorID string) (*models.Session, *models.Chapter, error) {
	args := m.Called(ctx, userID, storyID, toneStyleID, timeFlavorID)
	var session *models.Session
	if args.Get(0) != nil {
		session = args.Get(0).(*models.Session)
	}
	var chapter *models.Chapter
	if args.Get(1) != nil {
		chapter = args.Get(1).(*models.Chapter)
	}
	return session, chapter, args.Error(2)
}

func (m *SessionService) Advance(ctx context.Context, userID, sessionID uuid.UUID, choice string) (*models.Chapter, error) {
	args := m.Called(ctx, userID, sessionID, choice)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Chapter), args.Error(1)
}

func (m *SessionService) Complete(ctx context.Context, userID, sessionID uuid.UUID, rating *int) error {
	args := m.Called(ctx, userID, sessionID, rating)
	return args.Error(0)
}

func (m *SessionService) Abandon(ctx context.Context, userID, sessionID uuid.UUID) error {
	args := m.Called(ctx, userID, sessionID)
	return args.Error(0)
}

func (m *SessionService) Get(ctx context.Context, userID, sessionID uuid.UUID) (*models.Session, error) {
	args := m.Called(ctx, userID, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *SessionService) ListChapters(ctx context.Context, userID, sessionID uuid.UUID) ([]*models.Chapter, error) {
	args := m.Called(ctx, userID, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Chapter), args.Error(1)
}

func (m *SessionService) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Session, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Session), args.Error(1)
}

// Mock StoryService
type StoryService struct {
	mock.Mock
}

func (m *StoryService) ListPublished(ctx context.Context, limit, offset int) ([]*models.Story, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Story), args.Error(1)
}

func (m *StoryService) GetPublished(ctx context.Context, id uuid.UUID) (*models.Story, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Story), args.Error(1)
}

func (m *StoryService) Create(ctx context.Context, story *models.Story) error {
	args := m.Called(ctx, story)
	return args.Error(0)
}

func (m *StoryService) Update(ctx context.Context, story *models.Story) error {
	args := m.Called(ctx, story)
	return args.Error(0)
}

func (m *StoryService) Get(ctx context.Context, id uuid.UUID) (*models.Story, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Story), args.Error(1)
}

func (m *StoryService) List(ctx context.Context, limit, offset int) ([]*models.Story, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Story), args.Error(1)
}

func (m *StoryService) Publish(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *StoryService) Unpublish(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *StoryService) GetStats(ctx context.Context, id uuid.UUID) (*models.StoryStats, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.StoryStats), args.Error(1)
}

func (m *StoryService) ListStats(ctx context.Context, limit, offset int) ([]*models.StoryStats, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.StoryStats), args.Error(1)
}

// Mock SettingsService
type SettingsService struct {
	mock.Mock
}

func (m *SettingsService) Catalog(ctx context.Context) (*models.FlavorCatalog, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FlavorCatalog), args.Error(1)
}

func (m *SettingsService) ListFlavors(ctx context.Context, kind models.FlavorKind) ([]models.FlavorOption, error) {
	args := m.Called(ctx, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.FlavorOption), args.Error(1)
}

func (m *SettingsService) UpsertFlavor(ctx context.Context, kind models.FlavorKind, option models.FlavorOption) error {
	args := m.Called(ctx, kind, option)
	return args.Error(0)
}

func (m *SettingsService) DeleteFlavor(ctx context.Context, kind models.FlavorKind, id string) error {
	args := m.Called(ctx, kind, id)
	return args.Error(0)
}

// Mock WalletService
type WalletService struct {
	mock.Mock
}

func (m *WalletService) Debit(ctx context.Context, userID uuid.UUID, amount int64, source string) (*models.Transaction, error) {
	args := m.Called(ctx, userID, amount, source)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *WalletService) Credit(ctx context.Context, userID uuid.UUID, amount int64, source string) (*models.Transaction, error) {
	args := m.Called(ctx, userID, amount, source)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *WalletService) Refund(ctx context.Context, userID uuid.UUID, amount int64, source string) (*models.Transaction, error) {
	args := m.Called(ctx, userID, amount, source)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *WalletService) GetBalance(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *WalletService) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Transaction, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Transaction), args.Error(1)
}
