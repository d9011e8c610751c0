package messaging_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"storyrunner/internal/interfaces/mocks"
	"storyrunner/internal/messaging"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func encodeEvent(t *testing.T, eventType messaging.EventType, payload interface{}) []byte {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	body, err := json.Marshal(messaging.EventEnvelope{
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Payload:    raw,
	})
	require.NoError(t, err)
	return body
}

func TestAnalyticsProcessor_SessionStarted(t *testing.T) {
	statsRepo := new(mocks.StoryStatsRepository)
	processor := messaging.NewAnalyticsProcessor(statsRepo, nil, zap.NewNop())
	storyID := uuid.New()

	statsRepo.On("IncrementSessionsStarted", mock.Anything, nil, storyID).Return(nil).Once()

	body := encodeEvent(t, messaging.EventSessionStarted, messaging.SessionStartedPayload{
		SessionID: uuid.New(),
		UserID:    uuid.New(),
		StoryID:   storyID,
	})
	err := processor.Process(context.Background(), body)

	assert.NoError(t, err)
	statsRepo.AssertExpectations(t)
}

func TestAnalyticsProcessor_ChapterGenerated(t *testing.T) {
	statsRepo := new(mocks.StoryStatsRepository)
	processor := messaging.NewAnalyticsProcessor(statsRepo, nil, zap.NewNop())
	storyID := uuid.New()

	statsRepo.On("IncrementChaptersGenerated", mock.Anything, nil, storyID, int64(5)).Return(nil).Once()

	body := encodeEvent(t, messaging.EventChapterGenerated, messaging.ChapterGeneratedPayload{
		SessionID:    uuid.New(),
		StoryID:      storyID,
		ChapterIndex: 3,
		CreditsSpent: 5,
	})
	err := processor.Process(context.Background(), body)

	assert.NoError(t, err)
	statsRepo.AssertExpectations(t)
}

func TestAnalyticsProcessor_SessionCompletedWithRating(t *testing.T) {
	statsRepo := new(mocks.StoryStatsRepository)
	processor := messaging.NewAnalyticsProcessor(statsRepo, nil, zap.NewNop())
	storyID := uuid.New()
	rating := 4

	statsRepo.On("RecordSessionCompleted", mock.Anything, nil, storyID, mock.MatchedBy(func(r *int) bool {
		return r != nil && *r == rating
	})).Return(nil).Once()

	body := encodeEvent(t, messaging.EventSessionCompleted, messaging.SessionCompletedPayload{
		SessionID: uuid.New(),
		StoryID:   storyID,
		Rating:    &rating,
	})
	err := processor.Process(context.Background(), body)

	assert.NoError(t, err)
	statsRepo.AssertExpectations(t)
}

func TestAnalyticsProcessor_WalletTransactionNeedsNoAggregation(t *testing.T) {
	statsRepo := new(mocks.StoryStatsRepository)
	processor := messaging.NewAnalyticsProcessor(statsRepo, nil, zap.NewNop())

	body := encodeEvent(t, messaging.EventWalletTransaction, messaging.WalletTransactionPayload{})
	err := processor.Process(context.Background(), body)

	assert.NoError(t, err)
	statsRepo.AssertNotCalled(t, "IncrementSessionsStarted", mock.Anything, mock.Anything, mock.Anything)
}

func TestAnalyticsProcessor_UnknownEventTypeIsAcked(t *testing.T) {
	statsRepo := new(mocks.StoryStatsRepository)
	processor := messaging.NewAnalyticsProcessor(statsRepo, nil, zap.NewNop())

	body := encodeEvent(t, messaging.EventType("something.else"), map[string]string{"k": "v"})
	err := processor.Process(context.Background(), body)

	assert.NoError(t, err)
}

func TestAnalyticsProcessor_MalformedEnvelope(t *testing.T) {
	processor := messaging.NewAnalyticsProcessor(new(mocks.StoryStatsRepository), nil, zap.NewNop())

	err := processor.Process(context.Background(), []byte("{not json"))

	assert.Error(t, err)
}
