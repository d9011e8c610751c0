package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"storyrunner/internal/interfaces"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// AnalyticsProcessor applies domain events to the per-story aggregate
// counters. Separate from the AMQP plumbing so it can be tested directly.
type AnalyticsProcessor struct {
	statsRepo interfaces.StoryStatsRepository
	db        interfaces.DBTX
	logger    *zap.Logger
}

// NewAnalyticsProcessor creates a processor writing through statsRepo.
func NewAnalyticsProcessor(statsRepo interfaces.StoryStatsRepository, db interfaces.DBTX, logger *zap.Logger) *AnalyticsProcessor {
	return &AnalyticsProcessor{
		statsRepo: statsRepo,
		db:        db,
		logger:    logger.Named("AnalyticsProcessor"),
	}
}

// Process handles one event envelope. A nil return acks the message; any
// error nacks it without requeue (counters are best-effort, a poisoned
// message must not wedge the queue).
func (p *AnalyticsProcessor) Process(ctx context.Context, body []byte) error {
	var envelope EventEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("failed to decode event envelope: %w", err)
	}

	log := p.logger.With(zap.String("eventType", string(envelope.Type)))

	switch envelope.Type {
	case EventSessionStarted:
		var payload SessionStartedPayload
		if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
			return fmt.Errorf("failed to decode %s payload: %w", envelope.Type, err)
		}
		return p.statsRepo.IncrementSessionsStarted(ctx, p.db, payload.StoryID)

	case EventChapterGenerated:
		var payload ChapterGeneratedPayload
		if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
			return fmt.Errorf("failed to decode %s payload: %w", envelope.Type, err)
		}
		return p.statsRepo.IncrementChaptersGenerated(ctx, p.db, payload.StoryID, payload.CreditsSpent)

	case EventSessionCompleted:
		var payload SessionCompletedPayload
		if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
			return fmt.Errorf("failed to decode %s payload: %w", envelope.Type, err)
		}
		return p.statsRepo.RecordSessionCompleted(ctx, p.db, payload.StoryID, payload.Rating)

	case EventWalletTransaction:
		// The durable audit row already lives in Postgres; the event exists
		// for external reporting consumers. Nothing to aggregate here.
		log.Debug("Wallet transaction event observed")
		return nil

	default:
		log.Warn("Unknown event type, acking without processing")
		return nil
	}
}

// AnalyticsConsumer consumes the events queue and feeds the processor.
type AnalyticsConsumer struct {
	conn      *amqp.Connection
	queueName string
	processor *AnalyticsProcessor
	logger    *zap.Logger
}

// NewAnalyticsConsumer creates a consumer. The pool is used directly; stats
// updates are single-statement upserts and need no surrounding transaction.
func NewAnalyticsConsumer(conn *amqp.Connection, queueName string, statsRepo interfaces.StoryStatsRepository, pool *pgxpool.Pool, logger *zap.Logger) *AnalyticsConsumer {
	return &AnalyticsConsumer{
		conn:      conn,
		queueName: queueName,
		processor: NewAnalyticsProcessor(statsRepo, pool, logger),
		logger:    logger.Named("AnalyticsConsumer"),
	}
}

// StartConsuming blocks until ctx is cancelled or the channel closes.
func (c *AnalyticsConsumer) StartConsuming(ctx context.Context) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("analytics consumer: failed to open channel: %w", err)
	}
	defer ch.Close()

	if _, err := ch.QueueDeclare(c.queueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("analytics consumer: failed to declare queue %s: %w", c.queueName, err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("analytics consumer: failed to set QoS: %w", err)
	}

	deliveries, err := ch.Consume(
		c.queueName,
		"",    // consumer tag
		false, // autoAck: we ack manually after processing
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,
	)
	if err != nil {
		return fmt.Errorf("analytics consumer: failed to start consuming: %w", err)
	}

	c.logger.Info("Analytics consumer started", zap.String("queue", c.queueName))

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Analytics consumer stopping")
			return ctx.Err()
		case delivery, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("analytics consumer: delivery channel closed")
			}
			c.handleDelivery(ctx, delivery)
		}
	}
}

func (c *AnalyticsConsumer) handleDelivery(ctx context.Context, delivery amqp.Delivery) {
	processCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	if err := c.processor.Process(processCtx, delivery.Body); err != nil {
		c.logger.Error("Failed to process event", zap.Error(err))
		if nackErr := delivery.Nack(false, false); nackErr != nil {
			c.logger.Error("Failed to nack event", zap.Error(nackErr))
		}
		return
	}
	if ackErr := delivery.Ack(false); ackErr != nil {
		c.logger.Error("Failed to ack event", zap.Error(ackErr))
	}
}
