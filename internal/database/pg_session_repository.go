package database

import (
	"context"
	"errors"
	"time"

	"storyrunner/internal/interfaces"
	"storyrunner/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

var _ interfaces.SessionRepository = (*pgSessionRepository)(nil)

type pgSessionRepository struct {
	logger *zap.Logger
}

// NewPgSessionRepository creates a new play-session repository.
func NewPgSessionRepository(logger *zap.Logger) interfaces.SessionRepository {
	return &pgSessionRepository{logger: logger.Named("PgSessionRepo")}
}

const sessionColumns = `id, user_id, story_id, tone_style_id, time_flavor_id, initial_prompt,
status, current_chapter, chapters_generated, rating, created_at, updated_at`

const createSessionQuery = `
INSERT INTO sessions (id, user_id, story_id, tone_style_id, time_flavor_id, initial_prompt,
status, current_chapter, chapters_generated, rating, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

const getSessionByIDQuery = `
SELECT ` + sessionColumns + `
FROM sessions
WHERE id = $1`

const listSessionsByUserQuery = `
SELECT ` + sessionColumns + `
FROM sessions
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

// advanceChapterQuery moves the chapter counter forward only when the session
// is still active and the counter holds the value the caller observed. Zero
// rows affected means a concurrent advance won the race (or the session left
// the active state in between).
const advanceChapterQuery = `
UPDATE sessions
SET current_chapter = current_chapter + 1,
    chapters_generated = chapters_generated + 1,
    updated_at = $3
WHERE id = $1 AND status = 'active' AND current_chapter = $2`

const updateSessionStatusQuery = `
UPDATE sessions
SET status = $2, rating = COALESCE($3, rating), updated_at = $4
WHERE id = $1 AND status = 'active'`

func (r *pgSessionRepository) Create(ctx context.Context, querier interfaces.DBTX, session *models.Session) error {
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now
	if session.Status == "" {
		session.Status = models.SessionStatusActive
	}

	_, err := querier.Exec(ctx, createSessionQuery,
		session.ID, session.UserID, session.StoryID, session.ToneStyleID, session.TimeFlavorID,
		session.InitialPrompt, session.Status, session.CurrentChapter, session.ChaptersGenerated,
		session.Rating, session.CreatedAt, session.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to create session", zap.Error(err),
			zap.Stringer("userID", session.UserID), zap.Stringer("storyID", session.StoryID))
		return err
	}
	return nil
}

func (r *pgSessionRepository) GetByID(ctx context.Context, querier interfaces.DBTX, id uuid.UUID) (*models.Session, error) {
	session := &models.Session{}
	err := querier.QueryRow(ctx, getSessionByIDQuery, id).Scan(
		&session.ID, &session.UserID, &session.StoryID, &session.ToneStyleID, &session.TimeFlavorID,
		&session.InitialPrompt, &session.Status, &session.CurrentChapter, &session.ChaptersGenerated,
		&session.Rating, &session.CreatedAt, &session.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get session", zap.Error(err), zap.Stringer("sessionID", id))
		return nil, err
	}
	return session, nil
}

func (r *pgSessionRepository) ListByUser(ctx context.Context, querier interfaces.DBTX, userID uuid.UUID, limit, offset int) ([]*models.Session, error) {
	rows, err := querier.Query(ctx, listSessionsByUserQuery, userID, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list sessions", zap.Error(err), zap.Stringer("userID", userID))
		return nil, err
	}
	defer rows.Close()

	sessions := make([]*models.Session, 0)
	for rows.Next() {
		session := &models.Session{}
		if err := rows.Scan(
			&session.ID, &session.UserID, &session.StoryID, &session.ToneStyleID, &session.TimeFlavorID,
			&session.InitialPrompt, &session.Status, &session.CurrentChapter, &session.ChaptersGenerated,
			&session.Rating, &session.CreatedAt, &session.UpdatedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

func (r *pgSessionRepository) AdvanceChapter(ctx context.Context, querier interfaces.DBTX, id uuid.UUID, expectedChapter int) error {
	tag, err := querier.Exec(ctx, advanceChapterQuery, id, expectedChapter, time.Now().UTC())
	if err != nil {
		r.logger.Error("Failed to advance session chapter", zap.Error(err), zap.Stringer("sessionID", id))
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrSessionConflict
	}
	return nil
}

func (r *pgSessionRepository) UpdateStatus(ctx context.Context, querier interfaces.DBTX, id uuid.UUID, status models.SessionStatus, rating *int) error {
	tag, err := querier.Exec(ctx, updateSessionStatusQuery, id, status, rating, time.Now().UTC())
	if err != nil {
		r.logger.Error("Failed to update session status", zap.Error(err),
			zap.Stringer("sessionID", id), zap.String("status", string(status)))
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrSessionNotActive
	}
	return nil
}
