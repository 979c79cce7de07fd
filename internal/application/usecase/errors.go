package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dokani/risk-service/internal/domain/port"
	"github.com/dokani/risk-service/pkg/events"
	"github.com/dokani/risk-service/pkg/validation"
)

var (
	// ErrInvalidInput marks caller errors (missing identity, negative order value).
	ErrInvalidInput = errors.New("invalid input")

	// ErrDependency marks storage or broker failures.
	ErrDependency = errors.New("dependency failure")

	// ErrConcurrentUpdate is returned when another writer saved the profile
	// between our read and our write. Callers may retry the whole request.
	ErrConcurrentUpdate = errors.New("concurrent profile update")
)

// MaxOrderValue is the largest order value accepted for scoring and intake.
var MaxOrderValue = decimal.New(1, 15)

// DefaultRecentWindow is the trailing window used for recent-return counts.
const DefaultRecentWindow = 30 * 24 * time.Hour

var tracer = otel.Tracer("github.com/dokani/risk-service/internal/application/usecase")

// Option configures the use cases in this package.
type Option func(*settings)

type settings struct {
	now          func() time.Time
	metrics      port.RiskMetrics
	logger       *slog.Logger
	recentWindow time.Duration
}

func newSettings(opts []Option) settings {
	s := settings{
		now:          time.Now,
		metrics:      nopMetrics{},
		logger:       slog.Default(),
		recentWindow: DefaultRecentWindow,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *settings) { s.now = now }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m port.RiskMetrics) Option {
	return func(s *settings) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRecentWindow sets the trailing window for recent-return counts.
func WithRecentWindow(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.recentWindow = d
		}
	}
}

type nopMetrics struct{}

func (nopMetrics) RecordCalculation(context.Context, string, float64) {}
func (nopMetrics) RecordProfileUpdate(context.Context)                {}

func invalid(ve *validation.ValidationError) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, ve.Error())
}

func checkOrderValue(ve *validation.ValidationError, v decimal.Decimal) {
	switch {
	case v.IsNegative():
		ve.AddError("order_value", "order_value must not be negative")
	case v.GreaterThan(MaxOrderValue):
		ve.AddError("order_value", "order_value must not exceed "+MaxOrderValue.String())
	}
}

func storeError(op string, err error) error {
	if errors.Is(err, port.ErrVersionConflict) {
		return fmt.Errorf("%s: %w", op, ErrConcurrentUpdate)
	}
	return fmt.Errorf("%w: %s: %w", ErrDependency, op, err)
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// publish sends events best-effort. The state change is already committed,
// so a failure is logged rather than surfaced to the caller.
func publish(ctx context.Context, s settings, publisher port.EventPublisher, evts []events.DomainEvent) {
	if publisher == nil || len(evts) == 0 {
		return
	}
	if err := publisher.Publish(ctx, evts...); err != nil {
		s.logger.WarnContext(ctx, "failed to publish risk events",
			"events", len(evts),
			"error", err,
		)
	}
}
