package grpc

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dokani/risk-service/internal/application/dto"
	"github.com/dokani/risk-service/internal/application/usecase"
	"github.com/dokani/risk-service/pkg/auth"
)

// RiskCalculator is satisfied by *usecase.CalculateRisk.
type RiskCalculator interface {
	Execute(ctx context.Context, req dto.CalculateRiskRequest) (dto.CalculateRiskResponse, error)
}

// ProfileUpdater is satisfied by *usecase.UpdateProfile.
type ProfileUpdater interface {
	Execute(ctx context.Context, req dto.UpdateProfileRequest) (dto.ProfileResponse, error)
}

// ProfileReader is satisfied by *usecase.GetProfile.
type ProfileReader interface {
	Execute(ctx context.Context, req dto.GetProfileRequest) (*dto.ProfileResponse, error)
}

// Compile-time assertion that RiskAssessmentHandler implements RiskAssessmentServiceServer.
var _ RiskAssessmentServiceServer = (*RiskAssessmentHandler)(nil)

// RiskAssessmentHandler implements the gRPC RiskAssessmentServiceServer interface.
type RiskAssessmentHandler struct {
	UnimplementedRiskAssessmentServiceServer
	calculate RiskCalculator
	update    ProfileUpdater
	profile   ProfileReader
	logger    *slog.Logger
}

// NewRiskAssessmentHandler creates a new gRPC handler.
func NewRiskAssessmentHandler(
	calculate RiskCalculator,
	update ProfileUpdater,
	profile ProfileReader,
	logger *slog.Logger,
) *RiskAssessmentHandler {
	return &RiskAssessmentHandler{
		calculate: calculate,
		update:    update,
		profile:   profile,
		logger:    logger,
	}
}

// Request/response message types.

// CalculateRiskRequest carries order_value as a decimal string; empty means zero.
type CalculateRiskRequest struct {
	CustomerEmail string `json:"customer_email"`
	BusinessID    string `json:"business_id"`
	OrderValue    string `json:"order_value"`
	ReturnReason  string `json:"return_reason"`
}

// CalculateRiskResponse is the scoring outcome.
type CalculateRiskResponse struct {
	RiskFactors    []string `json:"risk_factors"`
	Recommendation string   `json:"recommendation"`
	RiskScore      float64  `json:"risk_score"`
}

// UpdateProfileRequest patches indicators and behavior data.
type UpdateProfileRequest struct {
	FraudIndicators map[string]bool `json:"fraud_indicators"`
	BehaviorData    map[string]any  `json:"behavior_data"`
	CustomerEmail   string          `json:"customer_email"`
	BusinessID      string          `json:"business_id"`
	FraudIndicator  string          `json:"fraud_indicator"`
}

// ProfileMsg is the wire form of a risk profile.
type ProfileMsg struct {
	FraudIndicators  map[string]bool `json:"fraud_indicators"`
	BehaviorPatterns map[string]any  `json:"behavior_patterns"`
	ID               string          `json:"id"`
	CustomerEmail    string          `json:"customer_email"`
	BusinessID       string          `json:"business_id"`
	LastUpdated      string          `json:"last_updated"`
	CreatedAt        string          `json:"created_at"`
	RiskScore        float64         `json:"risk_score"`
	ReturnFrequency  int32           `json:"return_frequency"`
	Version          int32           `json:"version"`
}

// UpdateProfileResponse wraps the updated profile.
type UpdateProfileResponse struct {
	Profile *ProfileMsg `json:"profile"`
}

// GetProfileRequest identifies a profile.
type GetProfileRequest struct {
	CustomerEmail string `json:"customer_email"`
	BusinessID    string `json:"business_id"`
}

// GetProfileResponse has a nil Profile when none exists.
type GetProfileResponse struct {
	Profile *ProfileMsg `json:"profile"`
	Found   bool        `json:"found"`
}

// CalculateRisk scores a return request.
func (h *RiskAssessmentHandler) CalculateRisk(ctx context.Context, req *CalculateRiskRequest) (*CalculateRiskResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	if err := authorize(ctx, req.BusinessID); err != nil {
		return nil, err
	}

	orderValue := decimal.Zero
	if v := strings.TrimSpace(req.OrderValue); v != "" {
		var err error
		orderValue, err = decimal.NewFromString(v)
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "invalid order_value: %v", err)
		}
	}

	result, err := h.calculate.Execute(ctx, dto.CalculateRiskRequest{
		CustomerEmail: req.CustomerEmail,
		BusinessID:    req.BusinessID,
		OrderValue:    orderValue,
		ReturnReason:  req.ReturnReason,
	})
	if err != nil {
		return nil, h.toStatus(ctx, "CalculateRisk", err)
	}

	return &CalculateRiskResponse{
		RiskScore:      result.RiskScore,
		RiskFactors:    result.RiskFactors,
		Recommendation: result.Recommendation,
	}, nil
}

// UpdateProfile merge-patches a profile.
func (h *RiskAssessmentHandler) UpdateProfile(ctx context.Context, req *UpdateProfileRequest) (*UpdateProfileResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	if err := authorize(ctx, req.BusinessID); err != nil {
		return nil, err
	}

	result, err := h.update.Execute(ctx, dto.UpdateProfileRequest{
		CustomerEmail:   req.CustomerEmail,
		BusinessID:      req.BusinessID,
		FraudIndicator:  req.FraudIndicator,
		FraudIndicators: req.FraudIndicators,
		BehaviorData:    req.BehaviorData,
	})
	if err != nil {
		return nil, h.toStatus(ctx, "UpdateProfile", err)
	}

	return &UpdateProfileResponse{Profile: toProfileMsg(result)}, nil
}

// GetProfile reads a profile without side effects.
func (h *RiskAssessmentHandler) GetProfile(ctx context.Context, req *GetProfileRequest) (*GetProfileResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	if err := authorize(ctx, req.BusinessID); err != nil {
		return nil, err
	}

	result, err := h.profile.Execute(ctx, dto.GetProfileRequest{
		CustomerEmail: req.CustomerEmail,
		BusinessID:    req.BusinessID,
	})
	if err != nil {
		return nil, h.toStatus(ctx, "GetProfile", err)
	}
	if result == nil {
		return &GetProfileResponse{}, nil
	}

	return &GetProfileResponse{Profile: toProfileMsg(*result), Found: true}, nil
}

// authorize leaves a blank business id to request validation so the caller
// gets InvalidArgument rather than PermissionDenied.
func authorize(ctx context.Context, businessID string) error {
	businessID = strings.TrimSpace(businessID)
	if businessID == "" {
		return nil
	}
	if err := auth.AuthorizeBusiness(ctx, businessID); err != nil {
		return status.Error(codes.PermissionDenied, "access to business denied")
	}
	return nil
}

func (h *RiskAssessmentHandler) toStatus(ctx context.Context, method string, err error) error {
	switch {
	case errors.Is(err, usecase.ErrInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, usecase.ErrConcurrentUpdate):
		return status.Error(codes.Aborted, "profile was modified concurrently, retry the request")
	default:
		h.logger.ErrorContext(ctx, "risk rpc failed",
			slog.String("method", method),
			slog.String("error", err.Error()),
		)
		return status.Error(codes.Internal, "internal error")
	}
}

func toProfileMsg(p dto.ProfileResponse) *ProfileMsg {
	return &ProfileMsg{
		ID:               p.ID.String(),
		CustomerEmail:    p.CustomerEmail,
		BusinessID:       p.BusinessID,
		RiskScore:        p.RiskScore,
		ReturnFrequency:  int32(p.ReturnFrequency),
		FraudIndicators:  p.FraudIndicators,
		BehaviorPatterns: p.BehaviorPatterns,
		Version:          int32(p.Version),
		LastUpdated:      p.LastUpdated.Format(time.RFC3339Nano),
		CreatedAt:        p.CreatedAt.Format(time.RFC3339Nano),
	}
}
