package handler

import (
	"time"

	"storyrunner/internal/models"

	"github.com/google/uuid"
)

// ErrorResponse is the uniform error body: a machine-readable code plus a
// human-readable message.
type ErrorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type userResponse struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Balance   int64     `json:"balance"`
	CreatedAt time.Time `json:"createdAt"`
}

func toUserResponse(user *models.User) userResponse {
	return userResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Role:      string(user.Role),
		Balance:   user.Balance,
		CreatedAt: user.CreatedAt,
	}
}

type startSessionRequest struct {
	StoryID      uuid.UUID `json:"storyId" binding:"required"`
	ToneStyleID  string    `json:"toneStyleId" binding:"required"`
	TimeFlavorID string    `json:"timeFlavorId" binding:"required"`
}

type startSessionResponse struct {
	Session *models.Session `json:"session"`
	Chapter *models.Chapter `json:"chapter"`
}

type advanceSessionRequest struct {
	Choice string `json:"choice"`
}

type completeSessionRequest struct {
	Rating *int `json:"rating"`
}

type walletResponse struct {
	Balance int64 `json:"balance"`
}

type grantCreditsRequest struct {
	Amount int64 `json:"amount" binding:"required"`
}

type upsertFlavorRequest struct {
	ID          string `json:"id" binding:"required"`
	Label       string `json:"label" binding:"required"`
	Description string `json:"description"`
}

// storySummary is the player-facing catalog entry: no template, no guardrails,
// no cast internals.
type storySummary struct {
	ID             uuid.UUID `json:"id"`
	Title          string    `json:"title"`
	Author         string    `json:"author"`
	Description    string    `json:"description"`
	CostPerChapter int64     `json:"costPerChapter"`
}

func toStorySummary(story *models.Story) storySummary {
	return storySummary{
		ID:             story.ID,
		Title:          story.Title,
		Author:         story.Author,
		Description:    story.Description,
		CostPerChapter: story.CostPerChapter,
	}
}

func toStorySummaries(stories []*models.Story) []storySummary {
	summaries := make([]storySummary, 0, len(stories))
	for _, story := range stories {
		summaries = append(summaries, toStorySummary(story))
	}
	return summaries
}
