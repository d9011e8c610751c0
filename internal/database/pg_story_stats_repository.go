package database

import (
	"context"
	"errors"

	"storyrunner/internal/interfaces"
	"storyrunner/internal/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

var _ interfaces.StoryStatsRepository = (*pgStoryStatsRepository)(nil)

type pgStoryStatsRepository struct {
	logger *zap.Logger
}

// NewPgStoryStatsRepository creates a repository over the per-story analytics
// counters maintained by the events consumer.
func NewPgStoryStatsRepository(logger *zap.Logger) interfaces.StoryStatsRepository {
	return &pgStoryStatsRepository{logger: logger.Named("PgStoryStatsRepo")}
}

const incrementSessionsStartedQuery = `
INSERT INTO story_stats (story_id, sessions_started)
VALUES ($1, 1)
ON CONFLICT (story_id) DO UPDATE SET sessions_started = story_stats.sessions_started + 1`

const incrementChaptersGeneratedQuery = `
INSERT INTO story_stats (story_id, chapters_generated, credits_spent)
VALUES ($1, 1, $2)
ON CONFLICT (story_id) DO UPDATE SET
    chapters_generated = story_stats.chapters_generated + 1,
    credits_spent = story_stats.credits_spent + EXCLUDED.credits_spent`

const recordSessionCompletedQuery = `
INSERT INTO story_stats (story_id, sessions_completed, rating_sum, rating_count)
VALUES ($1, 1, $2, $3)
ON CONFLICT (story_id) DO UPDATE SET
    sessions_completed = story_stats.sessions_completed + 1,
    rating_sum = story_stats.rating_sum + EXCLUDED.rating_sum,
    rating_count = story_stats.rating_count + EXCLUDED.rating_count`

const getStoryStatsQuery = `
SELECT story_id, sessions_started, sessions_completed, chapters_generated,
       credits_spent, rating_sum, rating_count
FROM story_stats
WHERE story_id = $1`

const listStoryStatsQuery = `
SELECT story_id, sessions_started, sessions_completed, chapters_generated,
       credits_spent, rating_sum, rating_count
FROM story_stats
ORDER BY sessions_started DESC
LIMIT $1 OFFSET $2`

func (r *pgStoryStatsRepository) IncrementSessionsStarted(ctx context.Context, querier interfaces.DBTX, storyID uuid.UUID) error {
	if _, err := querier.Exec(ctx, incrementSessionsStartedQuery, storyID); err != nil {
		r.logger.Error("Failed to increment sessions_started", zap.Error(err), zap.Stringer("storyID", storyID))
		return err
	}
	return nil
}

func (r *pgStoryStatsRepository) IncrementChaptersGenerated(ctx context.Context, querier interfaces.DBTX, storyID uuid.UUID, creditsSpent int64) error {
	if _, err := querier.Exec(ctx, incrementChaptersGeneratedQuery, storyID, creditsSpent); err != nil {
		r.logger.Error("Failed to increment chapters_generated", zap.Error(err), zap.Stringer("storyID", storyID))
		return err
	}
	return nil
}

func (r *pgStoryStatsRepository) RecordSessionCompleted(ctx context.Context, querier interfaces.DBTX, storyID uuid.UUID, rating *int) error {
	ratingSum := int64(0)
	ratingCount := int64(0)
	if rating != nil {
		ratingSum = int64(*rating)
		ratingCount = 1
	}
	if _, err := querier.Exec(ctx, recordSessionCompletedQuery, storyID, ratingSum, ratingCount); err != nil {
		r.logger.Error("Failed to record session completion", zap.Error(err), zap.Stringer("storyID", storyID))
		return err
	}
	return nil
}

func (r *pgStoryStatsRepository) Get(ctx context.Context, querier interfaces.DBTX, storyID uuid.UUID) (*models.StoryStats, error) {
	stats := &models.StoryStats{}
	err := querier.QueryRow(ctx, getStoryStatsQuery, storyID).Scan(
		&stats.StoryID, &stats.SessionsStarted, &stats.SessionsCompleted,
		&stats.ChaptersGenerated, &stats.CreditsSpent, &stats.RatingSum, &stats.RatingCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// No activity yet: return zeroed counters rather than an error.
			return &models.StoryStats{StoryID: storyID}, nil
		}
		r.logger.Error("Failed to get story stats", zap.Error(err), zap.Stringer("storyID", storyID))
		return nil, err
	}
	return stats, nil
}

func (r *pgStoryStatsRepository) List(ctx context.Context, querier interfaces.DBTX, limit, offset int) ([]*models.StoryStats, error) {
	stats := make([]*models.StoryStats, 0)
	if err := pgxscan.Select(ctx, querier, &stats, listStoryStatsQuery, limit, offset); err != nil {
		r.logger.Error("Failed to list story stats", zap.Error(err))
		return nil, err
	}
	return stats, nil
}
