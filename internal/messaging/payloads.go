package messaging

import (
	"encoding/json"
	"time"

	"storyrunner/internal/models"

	"github.com/google/uuid"
)

// EventType identifies the kind of event carried in an envelope.
type EventType string

const (
	EventSessionStarted    EventType = "session.started"
	EventChapterGenerated  EventType = "chapter.generated"
	EventSessionCompleted  EventType = "session.completed"
	EventWalletTransaction EventType = "wallet.transaction"
)

// EventEnvelope is the wire format on the events queue: a type tag plus the
// type-specific payload.
type EventEnvelope struct {
	Type       EventType       `json:"type"`
	OccurredAt time.Time       `json:"occurredAt"`
	Payload    json.RawMessage `json:"payload"`
}

// SessionStartedPayload is published once per successful session start.
type SessionStartedPayload struct {
	SessionID uuid.UUID `json:"sessionId"`
	UserID    uuid.UUID `json:"userId"`
	StoryID   uuid.UUID `json:"storyId"`
}

// ChapterGeneratedPayload is published once per persisted chapter.
type ChapterGeneratedPayload struct {
	SessionID    uuid.UUID `json:"sessionId"`
	StoryID      uuid.UUID `json:"storyId"`
	ChapterIndex int       `json:"chapterIndex"`
	CreditsSpent int64     `json:"creditsSpent"`
}

// SessionCompletedPayload is published when a session reaches a terminal
// status.
type SessionCompletedPayload struct {
	SessionID uuid.UUID `json:"sessionId"`
	StoryID   uuid.UUID `json:"storyId"`
	Rating    *int      `json:"rating,omitempty"`
}

// WalletTransactionPayload carries the full audit record of one wallet
// mutation. It embeds the transaction row unchanged; reporting consumers
// depend on it round-tripping exactly.
type WalletTransactionPayload struct {
	Transaction models.Transaction `json:"transaction"`
}
