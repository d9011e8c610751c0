package models

import (
	"time"

	"github.com/google/uuid"
)

// Chapter is one generated step of a session. Rows are immutable: the prompt
// column keeps the exact instruction text the chapter was produced from.
type Chapter struct {
	ID        uuid.UUID `json:"id"`
	SessionID uuid.UUID `json:"sessionId"`
	Index     int       `json:"index"`
	Prompt    string    `json:"-"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Choices   []string  `json:"choices"`
	CreatedAt time.Time `json:"createdAt"`
}

// GeneratedChapter is the parsed output of the generation client before it is
// bound to a session.
type GeneratedChapter struct {
	Title   string   `json:"title"`
	Body    string   `json:"body"`
	Choices []string `json:"choices"`
}
