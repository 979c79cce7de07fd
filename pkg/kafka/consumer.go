package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	kafkago "github.com/segmentio/kafka-go"
)

// Handler processes a consumed Kafka message.
type Handler func(ctx context.Context, msg Message) error

// Consumer reads one topic as part of a consumer group and commits each
// message once its handler succeeds.
type Consumer struct {
	reader     messageReader
	handler    Handler
	logger     *slog.Logger
	newBackOff func() backoff.BackOff
}

// messageReader is the subset of *kafkago.Reader the consumer uses.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
	Config() kafkago.ReaderConfig
	Close() error
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 0
	return b
}

// NewConsumer creates a Consumer for topic.
func NewConsumer(cfg Config, topic string, handler Handler, logger *slog.Logger) (*Consumer, error) {
	if cfg.ConsumerGroup == "" {
		return nil, fmt.Errorf("kafka: consumer group is required")
	}

	mechanism, err := cfg.saslMechanism()
	if err != nil {
		return nil, err
	}

	readerCfg := kafkago.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    topic,
		GroupID:  cfg.ConsumerGroup,
		MinBytes: 1,
		MaxBytes: 10 * 1024 * 1024,
	}
	if cfg.TLS || mechanism != nil {
		readerCfg.Dialer = &kafkago.Dialer{
			TLS:           cfg.tlsConfig(),
			SASLMechanism: mechanism,
		}
	}

	return &Consumer{
		reader:     kafkago.NewReader(readerCfg),
		handler:    handler,
		logger:     logger,
		newBackOff: defaultBackOff,
	}, nil
}

// Start consumes until ctx is cancelled. Offsets are committed cumulatively,
// so a failing message is retried with backoff and never skipped: nothing
// after it is fetched or committed until its handler succeeds.
func (c *Consumer) Start(ctx context.Context) error {
	cfg := c.reader.Config()
	c.logger.Info("consumer starting", "topic", cfg.Topic, "group", cfg.GroupID)

	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				c.logger.Info("consumer stopping", "topic", cfg.Topic)
				return nil
			}
			return fmt.Errorf("fetching message: %w", err)
		}

		if err := c.handle(ctx, m); err != nil {
			c.logger.Info("consumer stopping with uncommitted message",
				"topic", m.Topic,
				"partition", m.Partition,
				"offset", m.Offset,
			)
			return nil
		}

		if err := c.reader.CommitMessages(ctx, m); err != nil {
			c.logger.Error("commit error",
				"topic", m.Topic,
				"partition", m.Partition,
				"offset", m.Offset,
				"error", err,
			)
		}
	}
}

// handle runs the handler until it succeeds. It only fails when ctx ends.
func (c *Consumer) handle(ctx context.Context, m kafkago.Message) error {
	attempt := 0
	return backoff.RetryNotify(
		func() error {
			attempt++
			return c.handler(ctx, toMessage(m))
		},
		backoff.WithContext(c.newBackOff(), ctx),
		func(err error, wait time.Duration) {
			c.logger.Error("handler error, retrying",
				"topic", m.Topic,
				"partition", m.Partition,
				"offset", m.Offset,
				"attempt", attempt,
				"retry_in", wait,
				"error", err,
			)
		},
	)
}

// Close closes the reader.
func (c *Consumer) Close() error {
	if err := c.reader.Close(); err != nil {
		return fmt.Errorf("closing kafka reader: %w", err)
	}
	return nil
}

func toMessage(m kafkago.Message) Message {
	msg := Message{
		Key:     m.Key,
		Value:   m.Value,
		Headers: make(map[string]string, len(m.Headers)),
	}
	for _, h := range m.Headers {
		msg.Headers[h.Key] = string(h.Value)
	}
	return msg
}
