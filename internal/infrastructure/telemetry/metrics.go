package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/dokani/risk-service/internal/domain/port"
)

const meterName = "github.com/dokani/risk-service"

// RiskMetrics records calculation outcomes through an OpenTelemetry meter.
type RiskMetrics struct {
	calculations   metric.Int64Counter
	scores         metric.Float64Histogram
	profileUpdates metric.Int64Counter
}

var _ port.RiskMetrics = (*RiskMetrics)(nil)

// NewRiskMetrics registers the instruments on provider.
func NewRiskMetrics(provider metric.MeterProvider) (*RiskMetrics, error) {
	meter := provider.Meter(meterName)

	calculations, err := meter.Int64Counter("risk_calculations_total",
		metric.WithDescription("Risk calculations by recommendation."),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: risk_calculations_total: %w", err)
	}

	scores, err := meter.Float64Histogram("risk_score",
		metric.WithDescription("Distribution of calculated risk scores."),
		metric.WithExplicitBucketBoundaries(0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: risk_score: %w", err)
	}

	profileUpdates, err := meter.Int64Counter("risk_profile_updates_total",
		metric.WithDescription("Manual risk profile updates."),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: risk_profile_updates_total: %w", err)
	}

	return &RiskMetrics{
		calculations:   calculations,
		scores:         scores,
		profileUpdates: profileUpdates,
	}, nil
}

// RecordCalculation counts one calculation and observes its score.
func (m *RiskMetrics) RecordCalculation(ctx context.Context, recommendation string, score float64) {
	attrs := metric.WithAttributes(attribute.String("recommendation", recommendation))
	m.calculations.Add(ctx, 1, attrs)
	m.scores.Record(ctx, score, attrs)
}

// RecordProfileUpdate counts one manual update.
func (m *RiskMetrics) RecordProfileUpdate(ctx context.Context) {
	m.profileUpdates.Add(ctx, 1)
}
