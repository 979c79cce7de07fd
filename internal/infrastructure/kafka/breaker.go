package kafka

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/dokani/risk-service/internal/domain/port"
	"github.com/dokani/risk-service/pkg/events"
)

// ErrPublisherUnavailable is returned while the breaker is open.
var ErrPublisherUnavailable = errors.New("event publisher unavailable")

// BreakerSettings tunes BreakerPublisher. Zero values fall back to 5
// consecutive failures and a 30s open period.
type BreakerSettings struct {
	Name             string
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

// BreakerPublisher fails fast once the wrapped publisher keeps failing, so a
// dead broker does not add its timeout to every scoring request.
type BreakerPublisher struct {
	next    port.EventPublisher
	breaker *gobreaker.CircuitBreaker
}

// NewBreakerPublisher wraps next with a circuit breaker.
func NewBreakerPublisher(next port.EventPublisher, settings BreakerSettings, logger *slog.Logger) *BreakerPublisher {
	if settings.Name == "" {
		settings.Name = "risk-events"
	}
	if settings.FailureThreshold == 0 {
		settings.FailureThreshold = 5
	}
	if settings.OpenTimeout <= 0 {
		settings.OpenTimeout = 30 * time.Second
	}
	threshold := settings.FailureThreshold

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        settings.Name,
		MaxRequests: 1,
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("publisher circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})

	return &BreakerPublisher{next: next, breaker: cb}
}

// Publish forwards to the wrapped publisher unless the breaker is open.
func (p *BreakerPublisher) Publish(ctx context.Context, domainEvents ...events.DomainEvent) error {
	_, err := p.breaker.Execute(func() (interface{}, error) {
		return nil, p.next.Publish(ctx, domainEvents...)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrPublisherUnavailable
	}
	return err
}

// State reports the breaker state, for tests and diagnostics.
func (p *BreakerPublisher) State() string {
	return p.breaker.State().String()
}
