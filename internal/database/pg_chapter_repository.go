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

var _ interfaces.ChapterRepository = (*pgChapterRepository)(nil)

type pgChapterRepository struct {
	logger *zap.Logger
}

// NewPgChapterRepository creates a new chapter repository. Chapters are
// append-only; there are no update or delete paths.
func NewPgChapterRepository(logger *zap.Logger) interfaces.ChapterRepository {
	return &pgChapterRepository{logger: logger.Named("PgChapterRepo")}
}

const createChapterQuery = `
INSERT INTO chapters (id, session_id, idx, prompt, title, body, choices, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

const listChaptersBySessionQuery = `
SELECT id, session_id, idx, prompt, title, body, choices, created_at
FROM chapters
WHERE session_id = $1
ORDER BY idx ASC`

const getChapterBySessionAndIndexQuery = `
SELECT id, session_id, idx, prompt, title, body, choices, created_at
FROM chapters
WHERE session_id = $1 AND idx = $2`

const countChaptersBySessionQuery = `
SELECT COUNT(*) FROM chapters WHERE session_id = $1`

func (r *pgChapterRepository) Create(ctx context.Context, querier interfaces.DBTX, chapter *models.Chapter) error {
	if chapter.ID == uuid.Nil {
		chapter.ID = uuid.New()
	}
	if chapter.CreatedAt.IsZero() {
		chapter.CreatedAt = time.Now().UTC()
	}
	_, err := querier.Exec(ctx, createChapterQuery,
		chapter.ID, chapter.SessionID, chapter.Index, chapter.Prompt,
		chapter.Title, chapter.Body, pq.StringArray(chapter.Choices), chapter.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to create chapter", zap.Error(err),
			zap.Stringer("sessionID", chapter.SessionID), zap.Int("idx", chapter.Index))
		return err
	}
	return nil
}

func (r *pgChapterRepository) ListBySession(ctx context.Context, querier interfaces.DBTX, sessionID uuid.UUID) ([]*models.Chapter, error) {
	rows, err := querier.Query(ctx, listChaptersBySessionQuery, sessionID)
	if err != nil {
		r.logger.Error("Failed to list chapters", zap.Error(err), zap.Stringer("sessionID", sessionID))
		return nil, err
	}
	defer rows.Close()

	chapters := make([]*models.Chapter, 0)
	for rows.Next() {
		chapter, err := scanChapter(rows)
		if err != nil {
			return nil, err
		}
		chapters = append(chapters, chapter)
	}
	return chapters, rows.Err()
}

func (r *pgChapterRepository) GetBySessionAndIndex(ctx context.Context, querier interfaces.DBTX, sessionID uuid.UUID, idx int) (*models.Chapter, error) {
	chapter, err := scanChapter(querier.QueryRow(ctx, getChapterBySessionAndIndexQuery, sessionID, idx))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get chapter", zap.Error(err),
			zap.Stringer("sessionID", sessionID), zap.Int("idx", idx))
		return nil, err
	}
	return chapter, nil
}

func (r *pgChapterRepository) CountBySession(ctx context.Context, querier interfaces.DBTX, sessionID uuid.UUID) (int, error) {
	var count int
	if err := querier.QueryRow(ctx, countChaptersBySessionQuery, sessionID).Scan(&count); err != nil {
		r.logger.Error("Failed to count chapters", zap.Error(err), zap.Stringer("sessionID", sessionID))
		return 0, err
	}
	return count, nil
}

func scanChapter(row pgx.Row) (*models.Chapter, error) {
	chapter := &models.Chapter{}
	var choices pq.StringArray
	err := row.Scan(&chapter.ID, &chapter.SessionID, &chapter.Index, &chapter.Prompt,
		&chapter.Title, &chapter.Body, &choices, &chapter.CreatedAt)
	if err != nil {
		return nil, err
	}
	chapter.Choices = choices
	return chapter, nil
}
