package interfaces

import (
	"context"

	"storyrunner/internal/models"

	"github.com/google/uuid"
)

// UserRepository persists user accounts. Balance mutations go through
// WalletRepository so every change leaves an audit row.
//
//go:generate mockery --name UserRepository --output ./mocks --outpkg mocks --case=underscore
type UserRepository interface {
	Create(ctx context.Context, querier DBTX, user *models.User) error
	GetByID(ctx context.Context, querier DBTX, id uuid.UUID) (*models.User, error)
	GetByUsername(ctx context.Context, querier DBTX, username string) (*models.User, error)
	List(ctx context.Context, querier DBTX, limit, offset int) ([]*models.User, error)
}

// StoryRepository persists the story catalog.
//
//go:generate mockery --name StoryRepository --output ./mocks --outpkg mocks --case=underscore
type StoryRepository interface {
	Create(ctx context.Context, querier DBTX, story *models.Story) error
	Update(ctx context.Context, querier DBTX, story *models.Story) error
	GetByID(ctx context.Context, querier DBTX, id uuid.UUID) (*models.Story, error)
	ListPublished(ctx context.Context, querier DBTX, limit, offset int) ([]*models.Story, error)
	List(ctx context.Context, querier DBTX, limit, offset int) ([]*models.Story, error)
	UpdateStatus(ctx context.Context, querier DBTX, id uuid.UUID, status models.StoryStatus) error
}

// SettingsRepository persists the tone-style and time-flavor catalogs.
//
//go:generate mockery --name SettingsRepository --output ./mocks --outpkg mocks --case=underscore
type SettingsRepository interface {
	ListFlavors(ctx context.Context, querier DBTX, kind models.FlavorKind) ([]models.FlavorOption, error)
	GetFlavor(ctx context.Context, querier DBTX, kind models.FlavorKind, id string) (*models.FlavorOption, error)
	UpsertFlavor(ctx context.Context, querier DBTX, kind models.FlavorKind, option models.FlavorOption) error
	DeleteFlavor(ctx context.Context, querier DBTX, kind models.FlavorKind, id string) error
}

// SessionRepository persists play sessions.
//
//go:generate mockery --name SessionRepository --output ./mocks --outpkg mocks --case=underscore
type SessionRepository interface {
	Create(ctx context.Context, querier DBTX, session *models.Session) error
	GetByID(ctx context.Context, querier DBTX, id uuid.UUID) (*models.Session, error)
	ListByUser(ctx context.Context, querier DBTX, userID uuid.UUID, limit, offset int) ([]*models.Session, error)
	// AdvanceChapter increments the chapter counter only if the session is
	// active and the counter still holds expectedChapter; otherwise it
	// returns models.ErrSessionConflict.
	AdvanceChapter(ctx context.Context, querier DBTX, id uuid.UUID, expectedChapter int) error
	// UpdateStatus moves an active session to a terminal status, recording
	// the rating when given; returns models.ErrSessionNotActive if the
	// session already left the active state.
	UpdateStatus(ctx context.Context, querier DBTX, id uuid.UUID, status models.SessionStatus, rating *int) error
}

// ChapterRepository persists the append-only chapter log.
//
//go:generate mockery --name ChapterRepository --output ./mocks --outpkg mocks --case=underscore
type ChapterRepository interface {
	Create(ctx context.Context, querier DBTX, chapter *models.Chapter) error
	ListBySession(ctx context.Context, querier DBTX, sessionID uuid.UUID) ([]*models.Chapter, error)
	GetBySessionAndIndex(ctx context.Context, querier DBTX, sessionID uuid.UUID, idx int) (*models.Chapter, error)
	CountBySession(ctx context.Context, querier DBTX, sessionID uuid.UUID) (int, error)
}

// WalletRepository persists the credit balance and its transaction log.
//
//go:generate mockery --name WalletRepository --output ./mocks --outpkg mocks --case=underscore
type WalletRepository interface {
	// DebitBalance atomically decrements the balance and returns the new
	// value; returns models.ErrInsufficientCredits when the balance does not
	// cover the amount.
	DebitBalance(ctx context.Context, querier DBTX, userID uuid.UUID, amount int64) (int64, error)
	CreditBalance(ctx context.Context, querier DBTX, userID uuid.UUID, amount int64) (int64, error)
	InsertTransaction(ctx context.Context, querier DBTX, txn *models.Transaction) error
	ListTransactions(ctx context.Context, querier DBTX, userID uuid.UUID, limit, offset int) ([]*models.Transaction, error)
}

// StoryStatsRepository persists the per-story analytics counters.
//
//go:generate mockery --name StoryStatsRepository --output ./mocks --outpkg mocks --case=underscore
type StoryStatsRepository interface {
	IncrementSessionsStarted(ctx context.Context, querier DBTX, storyID uuid.UUID) error
	IncrementChaptersGenerated(ctx context.Context, querier DBTX, storyID uuid.UUID, creditsSpent int64) error
	RecordSessionCompleted(ctx context.Context, querier DBTX, storyID uuid.UUID, rating *int) error
	Get(ctx context.Context, querier DBTX, storyID uuid.UUID) (*models.StoryStats, error)
	List(ctx context.Context, querier DBTX, limit, offset int) ([]*models.StoryStats, error)
}
