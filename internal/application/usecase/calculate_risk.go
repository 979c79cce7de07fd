package usecase

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/dokani/risk-service/internal/application/dto"
	"github.com/dokani/risk-service/internal/domain/model"
	"github.com/dokani/risk-service/internal/domain/port"
	"github.com/dokani/risk-service/internal/domain/service"
	"github.com/dokani/risk-service/internal/domain/valueobject"
	"github.com/dokani/risk-service/pkg/validation"
)

// CalculateRisk is the use case for scoring a return request against the
// customer's profile.
type CalculateRisk struct {
	profiles  port.ProfileRepository
	activity  port.ReturnActivityQuery
	publisher port.EventPublisher
	scorer    service.Scorer
	settings  settings
}

// NewCalculateRisk creates a new CalculateRisk use case.
func NewCalculateRisk(
	profiles port.ProfileRepository,
	activity port.ReturnActivityQuery,
	publisher port.EventPublisher,
	scorer service.Scorer,
	opts ...Option,
) *CalculateRisk {
	return &CalculateRisk{
		profiles:  profiles,
		activity:  activity,
		publisher: publisher,
		scorer:    scorer,
		settings:  newSettings(opts),
	}
}

// Execute scores the request, records the outcome on the profile (one more
// return, new score, diagnostics) and publishes the resulting events.
func (uc *CalculateRisk) Execute(ctx context.Context, req dto.CalculateRiskRequest) (dto.CalculateRiskResponse, error) {
	ctx, span := tracer.Start(ctx, "CalculateRisk.Execute")
	defer span.End()

	// 1. Validate.
	ve := validation.Struct(req)
	checkOrderValue(ve, req.OrderValue)
	if ve.HasErrors() {
		return dto.CalculateRiskResponse{}, fail(span, invalid(ve))
	}
	key, err := model.NewProfileKey(req.CustomerEmail, req.BusinessID)
	if err != nil {
		return dto.CalculateRiskResponse{}, fail(span, fmt.Errorf("%w: %w", ErrInvalidInput, err))
	}
	span.SetAttributes(attribute.String("business_id", key.BusinessID))

	// 2. Load or lazily create the profile.
	profile, err := uc.profiles.GetOrCreate(ctx, key)
	if err != nil {
		return dto.CalculateRiskResponse{}, fail(span, storeError("load profile", err))
	}

	// 3. Count recent returns in the trailing window.
	now := uc.settings.now().UTC()
	recent, err := uc.activity.CountRecentReturns(ctx, key, now.Add(-uc.settings.recentWindow))
	if err != nil {
		return dto.CalculateRiskResponse{}, fail(span, storeError("count recent returns", err))
	}

	// 4. Score with the frequency as stored before this call.
	out := uc.scorer.Score(service.RiskInput{
		ReturnFrequency: profile.ReturnFrequency(),
		OrderValue:      req.OrderValue,
		ReturnReason:    req.ReturnReason,
		RecentReturns:   recent,
	})
	recommendation := valueobject.RecommendationFromScore(out.Score)

	// 5. Apply to the aggregate.
	if _, err := profile.RecordAssessment(model.AssessmentResult{
		RiskScore:      out.Score,
		Recommendation: recommendation,
		Factors:        out.Factors,
		OrderValue:     req.OrderValue,
		ReturnReason:   req.ReturnReason,
		RecentReturns:  recent,
	}, now); err != nil {
		return dto.CalculateRiskResponse{}, fail(span, fmt.Errorf("record assessment: %w", err))
	}

	// 6. Persist with a version check.
	if err := uc.profiles.Save(ctx, profile); err != nil {
		return dto.CalculateRiskResponse{}, fail(span, storeError("save profile", err))
	}

	score := out.Score.InexactFloat64()
	uc.settings.metrics.RecordCalculation(ctx, recommendation.String(), score)
	span.SetAttributes(
		attribute.String("recommendation", recommendation.String()),
		attribute.Float64("risk_score", score),
	)
	uc.settings.logger.InfoContext(ctx, "risk calculated",
		"business_id", key.BusinessID,
		"risk_score", out.Score.String(),
		"recommendation", recommendation.String(),
		"recent_returns", recent,
	)

	// 7. Publish.
	publish(ctx, uc.settings, uc.publisher, profile.Drain())

	factors := out.Factors
	if factors == nil {
		factors = []string{}
	}
	return dto.CalculateRiskResponse{
		RiskScore:      score,
		RiskFactors:    factors,
		Recommendation: recommendation.String(),
	}, nil
}
