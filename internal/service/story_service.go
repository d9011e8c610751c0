package service

import (
	"context"
	"fmt"

	"storyrunner/internal/interfaces"
	"storyrunner/internal/models"
	"storyrunner/internal/prompt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StoryService exposes the story catalog: published reads for players, full
// CRUD plus publishing and analytics for the admin surface.
type StoryService interface {
	ListPublished(ctx context.Context, limit, offset int) ([]*models.Story, error)
	GetPublished(ctx context.Context, id uuid.UUID) (*models.Story, error)

	Create(ctx context.Context, story *models.Story) error
	Update(ctx context.Context, story *models.Story) error
	Get(ctx context.Context, id uuid.UUID) (*models.Story, error)
	List(ctx context.Context, limit, offset int) ([]*models.Story, error)
	// Publish validates the story once more and makes it visible to players.
	Publish(ctx context.Context, id uuid.UUID) error
	Unpublish(ctx context.Context, id uuid.UUID) error

	GetStats(ctx context.Context, id uuid.UUID) (*models.StoryStats, error)
	ListStats(ctx context.Context, limit, offset int) ([]*models.StoryStats, error)
}

type storyServiceImpl struct {
	db        interfaces.DBTX
	storyRepo interfaces.StoryRepository
	statsRepo interfaces.StoryStatsRepository
	logger    *zap.Logger
}

// NewStoryService creates the story catalog service.
func NewStoryService(
	db interfaces.DBTX,
	storyRepo interfaces.StoryRepository,
	statsRepo interfaces.StoryStatsRepository,
	logger *zap.Logger,
) StoryService {
	return &storyServiceImpl{
		db:        db,
		storyRepo: storyRepo,
		statsRepo: statsRepo,
		logger:    logger.Named("StoryService"),
	}
}

func (s *storyServiceImpl) ListPublished(ctx context.Context, limit, offset int) ([]*models.Story, error) {
	return s.storyRepo.ListPublished(ctx, s.db, limit, offset)
}

func (s *storyServiceImpl) GetPublished(ctx context.Context, id uuid.UUID) (*models.Story, error) {
	story, err := s.storyRepo.GetByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	// Drafts do not exist as far as players are concerned.
	if !story.IsPublished() {
		return nil, models.ErrStoryNotFound
	}
	return story, nil
}

func (s *storyServiceImpl) Create(ctx context.Context, story *models.Story) error {
	if err := validateStory(story); err != nil {
		return err
	}
	story.Status = models.StoryStatusDraft
	if err := s.storyRepo.Create(ctx, s.db, story); err != nil {
		return err
	}
	s.logger.Info("Story created", zap.Stringer("storyID", story.ID), zap.String("title", story.Title))
	return nil
}

func (s *storyServiceImpl) Update(ctx context.Context, story *models.Story) error {
	if err := validateStory(story); err != nil {
		return err
	}
	return s.storyRepo.Update(ctx, s.db, story)
}

func (s *storyServiceImpl) Get(ctx context.Context, id uuid.UUID) (*models.Story, error) {
	return s.storyRepo.GetByID(ctx, s.db, id)
}

func (s *storyServiceImpl) List(ctx context.Context, limit, offset int) ([]*models.Story, error) {
	return s.storyRepo.List(ctx, s.db, limit, offset)
}

func (s *storyServiceImpl) Publish(ctx context.Context, id uuid.UUID) error {
	story, err := s.storyRepo.GetByID(ctx, s.db, id)
	if err != nil {
		return err
	}
	if err := validateStory(story); err != nil {
		return err
	}
	if err := s.storyRepo.UpdateStatus(ctx, s.db, id, models.StoryStatusPublished); err != nil {
		return err
	}
	s.logger.Info("Story published", zap.Stringer("storyID", id))
	return nil
}

func (s *storyServiceImpl) Unpublish(ctx context.Context, id uuid.UUID) error {
	if err := s.storyRepo.UpdateStatus(ctx, s.db, id, models.StoryStatusDraft); err != nil {
		return err
	}
	s.logger.Info("Story unpublished", zap.Stringer("storyID", id))
	return nil
}

func (s *storyServiceImpl) GetStats(ctx context.Context, id uuid.UUID) (*models.StoryStats, error) {
	if _, err := s.storyRepo.GetByID(ctx, s.db, id); err != nil {
		return nil, err
	}
	return s.statsRepo.Get(ctx, s.db, id)
}

func (s *storyServiceImpl) ListStats(ctx context.Context, limit, offset int) ([]*models.StoryStats, error) {
	return s.statsRepo.List(ctx, s.db, limit, offset)
}

// validateStory checks everything that must hold before a story can face
// players: basic fields, cast consistency and template well-formedness.
func validateStory(story *models.Story) error {
	if story.Title == "" {
		return fmt.Errorf("%w: title is required", models.ErrInvalidInput)
	}
	if story.Template == "" {
		return fmt.Errorf("%w: template is required", models.ErrInvalidInput)
	}
	if story.CostPerChapter <= 0 {
		return fmt.Errorf("%w: cost per chapter must be positive", models.ErrInvalidInput)
	}
	if err := story.ValidateCast(); err != nil {
		return err
	}
	return validateTemplate(story.Template)
}

// validateTemplate rejects templates carrying tokens the compositor will never
// resolve. Every token known at composition time is substituted with a dummy
// value; anything left over is a typo in the template.
func validateTemplate(template string) error {
	placeholder := map[string]string{
		prompt.TokenToneStyle:             "x",
		prompt.TokenToneStyleDescription:  "x",
		prompt.TokenTimeFlavor:            "x",
		prompt.TokenTimeFlavorDescription: "x",
		prompt.TokenStoryTitle:            "x",
		prompt.TokenStoryAuthor:           "x",
		prompt.TokenStoryDescription:      "x",
		prompt.TokenOpeningBeats:          "x",
		prompt.TokenGuardrails:            "x",
		prompt.TokenChapterIndex:          "x",
		prompt.TokenPreviousChapter:       "x",
		prompt.TokenChosenBranch:          "x",
	}
	if _, err := prompt.ComposeStrict(template, placeholder); err != nil {
		return fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}
	return nil
}
