package mocks

import (
	"context"

	"storyrunner/internal/messaging"

	"github.com/stretchr/testify/mock"
)

// Mock EventPublisher
type EventPublisher struct {
	mock.Mock
}

func (m *EventPublisher) PublishSessionStarted(ctx context.Context, payload messaging.SessionStartedPayload) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}

func (m *EventPublisher) PublishChapterGenerated(ctx context.Context, payload messaging.ChapterGeneratedPayload) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}

func (m *EventPublisher) PublishSessionCompleted(ctx context.Context, payload messaging.SessionCompletedPayload) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}

func (m *EventPublisher) PublishWalletTransaction(ctx context.Context, payload messaging.WalletTransactionPayload) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}
