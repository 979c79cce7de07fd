package usecase

import (
	"context"
	"fmt"
	"maps"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/dokani/risk-service/internal/application/dto"
	"github.com/dokani/risk-service/internal/domain/model"
	"github.com/dokani/risk-service/internal/domain/port"
	"github.com/dokani/risk-service/pkg/validation"
)

// UpdateProfile is the use case for manually flagging indicators or
// attaching behavior data to a profile.
type UpdateProfile struct {
	profiles  port.ProfileRepository
	publisher port.EventPublisher
	settings  settings
}

// NewUpdateProfile creates a new UpdateProfile use case.
func NewUpdateProfile(profiles port.ProfileRepository, publisher port.EventPublisher, opts ...Option) *UpdateProfile {
	return &UpdateProfile{
		profiles:  profiles,
		publisher: publisher,
		settings:  newSettings(opts),
	}
}

// Execute merge-patches the profile, creating it first if needed. Keys the
// request does not mention are preserved.
func (uc *UpdateProfile) Execute(ctx context.Context, req dto.UpdateProfileRequest) (dto.ProfileResponse, error) {
	ctx, span := tracer.Start(ctx, "UpdateProfile.Execute")
	defer span.End()

	ve := validation.Struct(req)
	if validation.ContainsNUL(req.FraudIndicators) {
		ve.AddError("fraud_indicators", "fraud_indicators must not contain NUL characters")
	}
	if validation.ContainsNUL(req.BehaviorData) {
		ve.AddError("behavior_data", "behavior_data must not contain NUL characters")
	}
	if ve.HasErrors() {
		return dto.ProfileResponse{}, fail(span, invalid(ve))
	}
	key, err := model.NewProfileKey(req.CustomerEmail, req.BusinessID)
	if err != nil {
		return dto.ProfileResponse{}, fail(span, fmt.Errorf("%w: %w", ErrInvalidInput, err))
	}
	span.SetAttributes(attribute.String("business_id", key.BusinessID))

	indicators := maps.Clone(req.FraudIndicators)
	if name := strings.TrimSpace(req.FraudIndicator); name != "" {
		if indicators == nil {
			indicators = make(map[string]bool, 1)
		}
		indicators[name] = true
	}

	profile, err := uc.profiles.GetOrCreate(ctx, key)
	if err != nil {
		return dto.ProfileResponse{}, fail(span, storeError("load profile", err))
	}

	if profile.Merge(indicators, req.BehaviorData, uc.settings.now()) {
		if err := uc.profiles.Save(ctx, profile); err != nil {
			return dto.ProfileResponse{}, fail(span, storeError("save profile", err))
		}
		uc.settings.metrics.RecordProfileUpdate(ctx)
		uc.settings.logger.InfoContext(ctx, "risk profile updated",
			"business_id", key.BusinessID,
			"indicators", len(indicators),
			"behavior_keys", len(req.BehaviorData),
		)
		publish(ctx, uc.settings, uc.publisher, profile.Drain())
	}

	return dto.FromModel(profile), nil
}
