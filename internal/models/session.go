package models

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus is the lifecycle state of a play session.
type SessionStatus string

const (
	SessionStatusActive    SessionStatus = "active"
	SessionStatusFinished  SessionStatus = "finished"
	SessionStatusAbandoned SessionStatus = "abandoned"
)

// Session is one playthrough of a story by one user. CurrentChapter is the
// index of the latest persisted chapter; 0 means no chapter exists yet.
type Session struct {
	ID                uuid.UUID     `json:"id"`
	UserID            uuid.UUID     `json:"userId"`
	StoryID           uuid.UUID     `json:"storyId"`
	ToneStyleID       string        `json:"toneStyleId"`
	TimeFlavorID      string        `json:"timeFlavorId"`
	InitialPrompt     string        `json:"-"`
	Status            SessionStatus `json:"status"`
	CurrentChapter    int           `json:"currentChapter"`
	ChaptersGenerated int           `json:"chaptersGenerated"`
	Rating            *int          `json:"rating,omitempty"`
	CreatedAt         time.Time     `json:"createdAt"`
	UpdatedAt         time.Time     `json:"updatedAt"`
}

// IsActive reports whether the session can still be advanced.
func (s *Session) IsActive() bool {
	return s.Status == SessionStatusActive
}
