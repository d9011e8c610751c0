package service

import (
	"context"
	"fmt"

	"storyrunner/internal/interfaces"
	"storyrunner/internal/models"

	"go.uber.org/zap"
)

// SettingsService serves the flavor catalogs and their admin mutations. Reads
// go through the cache-wrapped repository, so the hot path (validation on
// session start) rarely touches Postgres.
type SettingsService interface {
	Catalog(ctx context.Context) (*models.FlavorCatalog, error)
	ListFlavors(ctx context.Context, kind models.FlavorKind) ([]models.FlavorOption, error)
	UpsertFlavor(ctx context.Context, kind models.FlavorKind, option models.FlavorOption) error
	DeleteFlavor(ctx context.Context, kind models.FlavorKind, id string) error
}

type settingsServiceImpl struct {
	db           interfaces.DBTX
	settingsRepo interfaces.SettingsRepository
	logger       *zap.Logger
}

// NewSettingsService creates the settings service.
func NewSettingsService(db interfaces.DBTX, settingsRepo interfaces.SettingsRepository, logger *zap.Logger) SettingsService {
	return &settingsServiceImpl{
		db:           db,
		settingsRepo: settingsRepo,
		logger:       logger.Named("SettingsService"),
	}
}

func (s *settingsServiceImpl) Catalog(ctx context.Context) (*models.FlavorCatalog, error) {
	toneStyles, err := s.settingsRepo.ListFlavors(ctx, s.db, models.FlavorKindTone)
	if err != nil {
		return nil, err
	}
	timeFlavors, err := s.settingsRepo.ListFlavors(ctx, s.db, models.FlavorKindTime)
	if err != nil {
		return nil, err
	}
	return &models.FlavorCatalog{ToneStyles: toneStyles, TimeFlavors: timeFlavors}, nil
}

func (s *settingsServiceImpl) ListFlavors(ctx context.Context, kind models.FlavorKind) ([]models.FlavorOption, error) {
	return s.settingsRepo.ListFlavors(ctx, s.db, kind)
}

func (s *settingsServiceImpl) UpsertFlavor(ctx context.Context, kind models.FlavorKind, option models.FlavorOption) error {
	if option.ID == "" {
		return fmt.Errorf("%w: flavor id is required", models.ErrInvalidInput)
	}
	if option.Label == "" {
		return fmt.Errorf("%w: flavor label is required", models.ErrInvalidInput)
	}
	if err := s.settingsRepo.UpsertFlavor(ctx, s.db, kind, option); err != nil {
		return err
	}
	s.logger.Info("Flavor upserted", zap.String("kind", string(kind)), zap.String("id", option.ID))
	return nil
}

func (s *settingsServiceImpl) DeleteFlavor(ctx context.Context, kind models.FlavorKind, id string) error {
	if err := s.settingsRepo.DeleteFlavor(ctx, s.db, kind, id); err != nil {
		return err
	}
	s.logger.Info("Flavor deleted", zap.String("kind", string(kind)), zap.String("id", id))
	return nil
}
