package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// EventPublisher publishes domain events to the analytics/audit queue.
// Publishing is best-effort from the caller's point of view: services log
// failures but never fail a user operation over them.
//
//go:generate mockery --name EventPublisher --output ./mocks --outpkg mocks --case=underscore
type EventPublisher interface {
	PublishSessionStarted(ctx context.Context, payload SessionStartedPayload) error
	PublishChapterGenerated(ctx context.Context, payload ChapterGeneratedPayload) error
	PublishSessionCompleted(ctx context.Context, payload SessionCompletedPayload) error
	PublishWalletTransaction(ctx context.Context, payload WalletTransactionPayload) error
}

type rabbitMQPublisher struct {
	channel   *amqp.Channel
	queueName string
	logger    *zap.Logger
}

// NewRabbitMQPublisher creates a publisher for the events queue. The queue is
// declared durable here so publisher and consumer can start in either order.
func NewRabbitMQPublisher(conn *amqp.Connection, queueName string, logger *zap.Logger) (EventPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("event publisher: failed to open channel: %w", err)
	}
	_, err = ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("event publisher: failed to declare queue %s: %w", queueName, err)
	}
	return &rabbitMQPublisher{
		channel:   ch,
		queueName: queueName,
		logger:    logger.Named("EventPublisher"),
	}, nil
}

func (p *rabbitMQPublisher) PublishSessionStarted(ctx context.Context, payload SessionStartedPayload) error {
	return p.publish(ctx, EventSessionStarted, payload)
}

func (p *rabbitMQPublisher) PublishChapterGenerated(ctx context.Context, payload ChapterGeneratedPayload) error {
	return p.publish(ctx, EventChapterGenerated, payload)
}

func (p *rabbitMQPublisher) PublishSessionCompleted(ctx context.Context, payload SessionCompletedPayload) error {
	return p.publish(ctx, EventSessionCompleted, payload)
}

func (p *rabbitMQPublisher) PublishWalletTransaction(ctx context.Context, payload WalletTransactionPayload) error {
	return p.publish(ctx, EventWalletTransaction, payload)
}

func (p *rabbitMQPublisher) publish(ctx context.Context, eventType EventType, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}
	envelope, err := json.Marshal(EventEnvelope{
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Payload:    body,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal %s envelope: %w", eventType, err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = p.channel.PublishWithContext(pubCtx,
		"",          // default exchange
		p.queueName, // routing key = queue name
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         envelope,
		})
	if err != nil {
		p.logger.Error("Failed to publish event", zap.Error(err), zap.String("eventType", string(eventType)))
		return fmt.Errorf("failed to publish %s: %w", eventType, err)
	}
	return nil
}
