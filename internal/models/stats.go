package models

import "github.com/google/uuid"

// StoryStats are the per-story analytics counters maintained by the events
// consumer. They are eventually consistent with the session and wallet tables.
type StoryStats struct {
	StoryID           uuid.UUID `json:"storyId" db:"story_id"`
	SessionsStarted   int64     `json:"sessionsStarted" db:"sessions_started"`
	SessionsCompleted int64     `json:"sessionsCompleted" db:"sessions_completed"`
	ChaptersGenerated int64     `json:"chaptersGenerated" db:"chapters_generated"`
	CreditsSpent      int64     `json:"creditsSpent" db:"credits_spent"`
	RatingSum         int64     `json:"ratingSum" db:"rating_sum"`
	RatingCount       int64     `json:"ratingCount" db:"rating_count"`
}

// AverageRating returns the mean of recorded ratings, or 0 when none exist.
func (s *StoryStats) AverageRating() float64 {
	if s.RatingCount == 0 {
		return 0
	}
	return float64(s.RatingSum) / float64(s.RatingCount)
}
