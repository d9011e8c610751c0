package database

import (
	"context"
	"errors"
	"time"

	"storyrunner/internal/interfaces"
	"storyrunner/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

var _ interfaces.StoryRepository = (*pgStoryRepository)(nil)

type pgStoryRepository struct {
	logger *zap.Logger
}

// NewPgStoryRepository creates a new story catalog repository.
func NewPgStoryRepository(logger *zap.Logger) interfaces.StoryRepository {
	return &pgStoryRepository{logger: logger.Named("PgStoryRepo")}
}

const storyColumns = `id, title, author, description, template, opening_beats, guardrails,
characters, roles, cast_entries, cost_per_chapter, status, created_at, updated_at`

const createStoryQuery = `
INSERT INTO stories (id, title, author, description, template, opening_beats, guardrails,
characters, roles, cast_entries, cost_per_chapter, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

const updateStoryQuery = `
UPDATE stories
SET title = $2, author = $3, description = $4, template = $5, opening_beats = $6,
    guardrails = $7, characters = $8, roles = $9, cast_entries = $10,
    cost_per_chapter = $11, updated_at = $12
WHERE id = $1`

const getStoryByIDQuery = `
SELECT ` + storyColumns + `
FROM stories
WHERE id = $1`

const listPublishedStoriesQuery = `
SELECT ` + storyColumns + `
FROM stories
WHERE status = 'published'
ORDER BY created_at DESC
LIMIT $1 OFFSET $2`

const listAllStoriesQuery = `
SELECT ` + storyColumns + `
FROM stories
ORDER BY created_at DESC
LIMIT $1 OFFSET $2`

const updateStoryStatusQuery = `
UPDATE stories SET status = $2, updated_at = $3 WHERE id = $1`

func (r *pgStoryRepository) Create(ctx context.Context, querier interfaces.DBTX, story *models.Story) error {
	if story.ID == uuid.Nil {
		story.ID = uuid.New()
	}
	now := time.Now().UTC()
	if story.CreatedAt.IsZero() {
		story.CreatedAt = now
	}
	story.UpdatedAt = now
	if story.Status == "" {
		story.Status = models.StoryStatusDraft
	}

	characters, roles, cast, err := story.MarshalCast()
	if err != nil {
		return err
	}
	_, err = querier.Exec(ctx, createStoryQuery,
		story.ID, story.Title, story.Author, story.Description, story.Template,
		pq.StringArray(story.OpeningBeats), pq.StringArray(story.Guardrails),
		characters, roles, cast, story.CostPerChapter, story.Status,
		story.CreatedAt, story.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to create story", zap.Error(err), zap.String("title", story.Title))
		return err
	}
	return nil
}

func (r *pgStoryRepository) Update(ctx context.Context, querier interfaces.DBTX, story *models.Story) error {
	story.UpdatedAt = time.Now().UTC()
	characters, roles, cast, err := story.MarshalCast()
	if err != nil {
		return err
	}
	tag, err := querier.Exec(ctx, updateStoryQuery,
		story.ID, story.Title, story.Author, story.Description, story.Template,
		pq.StringArray(story.OpeningBeats), pq.StringArray(story.Guardrails),
		characters, roles, cast, story.CostPerChapter, story.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to update story", zap.Error(err), zap.Stringer("storyID", story.ID))
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrStoryNotFound
	}
	return nil
}

func (r *pgStoryRepository) GetByID(ctx context.Context, querier interfaces.DBTX, id uuid.UUID) (*models.Story, error) {
	return r.scanStory(querier.QueryRow(ctx, getStoryByIDQuery, id))
}

func (r *pgStoryRepository) ListPublished(ctx context.Context, querier interfaces.DBTX, limit, offset int) ([]*models.Story, error) {
	return r.listStories(ctx, querier, listPublishedStoriesQuery, limit, offset)
}

func (r *pgStoryRepository) List(ctx context.Context, querier interfaces.DBTX, limit, offset int) ([]*models.Story, error) {
	return r.listStories(ctx, querier, listAllStoriesQuery, limit, offset)
}

func (r *pgStoryRepository) UpdateStatus(ctx context.Context, querier interfaces.DBTX, id uuid.UUID, status models.StoryStatus) error {
	tag, err := querier.Exec(ctx, updateStoryStatusQuery, id, status, time.Now().UTC())
	if err != nil {
		r.logger.Error("Failed to update story status", zap.Error(err), zap.Stringer("storyID", id))
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrStoryNotFound
	}
	return nil
}

func (r *pgStoryRepository) listStories(ctx context.Context, querier interfaces.DBTX, query string, limit, offset int) ([]*models.Story, error) {
	rows, err := querier.Query(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list stories", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	stories := make([]*models.Story, 0)
	for rows.Next() {
		story, err := r.scanStoryRow(rows)
		if err != nil {
			return nil, err
		}
		stories = append(stories, story)
	}
	return stories, rows.Err()
}

func (r *pgStoryRepository) scanStory(row pgx.Row) (*models.Story, error) {
	story, err := r.scanStoryRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrStoryNotFound
		}
		r.logger.Error("Failed to scan story", zap.Error(err))
		return nil, err
	}
	return story, nil
}

func (r *pgStoryRepository) scanStoryRow(row pgx.Row) (*models.Story, error) {
	story := &models.Story{}
	var openingBeats, guardrails pq.StringArray
	var characters, roles, cast []byte
	err := row.Scan(&story.ID, &story.Title, &story.Author, &story.Description,
		&story.Template, &openingBeats, &guardrails, &characters, &roles, &cast,
		&story.CostPerChapter, &story.Status, &story.CreatedAt, &story.UpdatedAt)
	if err != nil {
		return nil, err
	}
	story.OpeningBeats = openingBeats
	story.Guardrails = guardrails
	if err := story.UnmarshalCast(characters, roles, cast); err != nil {
		return nil, err
	}
	return story, nil
}
