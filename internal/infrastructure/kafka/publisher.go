package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/dokani/risk-service/internal/domain/port"
	"github.com/dokani/risk-service/pkg/events"
	pkgkafka "github.com/dokani/risk-service/pkg/kafka"
)

// MessageProducer is the subset of *pkgkafka.Producer used by Publisher.
type MessageProducer interface {
	Publish(ctx context.Context, topic string, messages ...pkgkafka.Message) error
}

// Publisher implements port.EventPublisher using Kafka.
type Publisher struct {
	producer MessageProducer
	logger   *slog.Logger
	topic    string
}

var _ port.EventPublisher = (*Publisher)(nil)

// NewPublisher creates a new Kafka event publisher.
func NewPublisher(producer MessageProducer, topic string, logger *slog.Logger) *Publisher {
	return &Publisher{
		producer: producer,
		topic:    topic,
		logger:   logger,
	}
}

// Publish sends domain events to Kafka keyed by aggregate id, so every event
// of one profile lands on the same partition.
func (p *Publisher) Publish(ctx context.Context, domainEvents ...events.DomainEvent) error {
	messages := make([]pkgkafka.Message, 0, len(domainEvents))
	for _, evt := range domainEvents {
		eventType := evt.EventType()

		payload, err := json.Marshal(evt)
		if err != nil {
			return fmt.Errorf("failed to marshal event %s: %w", eventType, err)
		}

		p.logger.DebugContext(ctx, "publishing event",
			slog.String("event_type", eventType),
			slog.String("topic", p.topic),
			slog.Int("payload_size", len(payload)),
		)

		messages = append(messages, pkgkafka.Message{
			Key:   []byte(evt.AggregateID().String()),
			Value: payload,
			Headers: map[string]string{
				"event_type": eventType,
				"event_id":   evt.EventID().String(),
			},
		})
	}

	if len(messages) == 0 {
		return nil
	}

	if err := p.producer.Publish(ctx, p.topic, messages...); err != nil {
		return fmt.Errorf("failed to publish events to topic %s: %w", p.topic, err)
	}

	return nil
}

// LogPublisher writes events to the log instead of a broker. It is used when
// no Kafka brokers are configured.
type LogPublisher struct {
	logger *slog.Logger
}

var _ port.EventPublisher = (*LogPublisher)(nil)

// NewLogPublisher creates a LogPublisher.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish logs each event at info level.
func (p *LogPublisher) Publish(ctx context.Context, domainEvents ...events.DomainEvent) error {
	for _, evt := range domainEvents {
		p.logger.InfoContext(ctx, "domain event",
			slog.String("event_type", evt.EventType()),
			slog.String("event_id", evt.EventID().String()),
			slog.String("aggregate_id", evt.AggregateID().String()),
		)
	}
	return nil
}
