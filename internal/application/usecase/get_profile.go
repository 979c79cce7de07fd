package usecase

import (
	"context"
	"fmt"

	"github.com/dokani/risk-service/internal/application/dto"
	"github.com/dokani/risk-service/internal/domain/model"
	"github.com/dokani/risk-service/internal/domain/port"
	"github.com/dokani/risk-service/pkg/validation"
)

// GetProfile is the use case for reading a profile without side effects.
type GetProfile struct {
	profiles port.ProfileRepository
}

// NewGetProfile creates a new GetProfile use case.
func NewGetProfile(profiles port.ProfileRepository) *GetProfile {
	return &GetProfile{profiles: profiles}
}

// Execute returns nil, nil when the customer has no profile with the business.
func (uc *GetProfile) Execute(ctx context.Context, req dto.GetProfileRequest) (*dto.ProfileResponse, error) {
	ctx, span := tracer.Start(ctx, "GetProfile.Execute")
	defer span.End()

	if ve := validation.Struct(req); ve.HasErrors() {
		return nil, fail(span, invalid(ve))
	}
	key, err := model.NewProfileKey(req.CustomerEmail, req.BusinessID)
	if err != nil {
		return nil, fail(span, fmt.Errorf("%w: %w", ErrInvalidInput, err))
	}

	profile, err := uc.profiles.FindByKey(ctx, key)
	if err != nil {
		return nil, fail(span, storeError("find profile", err))
	}
	if profile == nil {
		return nil, nil
	}

	resp := dto.FromModel(profile)
	return &resp, nil
}
