package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dokani/risk-service/internal/domain/model"
)

// CalculateRiskRequest is the input DTO for the CalculateRisk use case.
// A missing order_value is treated as zero.
type CalculateRiskRequest struct {
	OrderValue    decimal.Decimal `json:"order_value"`
	CustomerEmail string          `json:"customer_email" validate:"notblank,max=320,nonul"`
	BusinessID    string          `json:"business_id" validate:"notblank,max=128,nonul"`
	ReturnReason  string          `json:"return_reason" validate:"max=2000,nonul"`
}

// CalculateRiskResponse is the output DTO of a calculation.
type CalculateRiskResponse struct {
	RiskFactors    []string `json:"risk_factors"`
	Recommendation string   `json:"recommendation"`
	RiskScore      float64  `json:"risk_score"`
}

// UpdateProfileRequest is the input DTO for manual profile updates.
// FraudIndicator is shorthand for setting a single indicator to true.
type UpdateProfileRequest struct {
	FraudIndicators map[string]bool `json:"fraud_indicators"`
	BehaviorData    map[string]any  `json:"behavior_data"`
	CustomerEmail   string          `json:"customer_email" validate:"notblank,max=320,nonul"`
	BusinessID      string          `json:"business_id" validate:"notblank,max=128,nonul"`
	FraudIndicator  string          `json:"fraud_indicator" validate:"max=128,nonul"`
}

// GetProfileRequest identifies the profile to read.
type GetProfileRequest struct {
	CustomerEmail string `json:"customer_email" validate:"notblank,max=320,nonul"`
	BusinessID    string `json:"business_id" validate:"notblank,max=128,nonul"`
}

// RecordReturnRequest is one return-intake message.
type RecordReturnRequest struct {
	CreatedAt     *time.Time      `json:"created_at"`
	OrderValue    decimal.Decimal `json:"order_value"`
	ID            uuid.UUID       `json:"id"`
	CustomerEmail string          `json:"customer_email" validate:"notblank,max=320,nonul"`
	BusinessID    string          `json:"business_id" validate:"notblank,max=128,nonul"`
	OrderID       string          `json:"order_id" validate:"max=128,nonul"`
	Reason        string          `json:"reason" validate:"max=2000,nonul"`
}

// ProfileResponse is the external view of a CustomerRiskProfile.
type ProfileResponse struct {
	LastUpdated      time.Time       `json:"last_updated"`
	CreatedAt        time.Time       `json:"created_at"`
	FraudIndicators  map[string]bool `json:"fraud_indicators"`
	BehaviorPatterns map[string]any  `json:"behavior_patterns"`
	ID               uuid.UUID       `json:"id"`
	CustomerEmail    string          `json:"customer_email"`
	BusinessID       string          `json:"business_id"`
	RiskScore        float64         `json:"risk_score"`
	ReturnFrequency  int             `json:"return_frequency"`
	Version          int             `json:"version"`
}

// FromModel maps a domain profile to the response DTO.
func FromModel(p *model.CustomerRiskProfile) ProfileResponse {
	return ProfileResponse{
		ID:               p.ID(),
		CustomerEmail:    p.CustomerEmail(),
		BusinessID:       p.BusinessID(),
		RiskScore:        p.RiskScore().InexactFloat64(),
		ReturnFrequency:  p.ReturnFrequency(),
		FraudIndicators:  p.FraudIndicators(),
		BehaviorPatterns: p.BehaviorPatterns(),
		Version:          p.Version(),
		LastUpdated:      p.LastUpdated(),
		CreatedAt:        p.CreatedAt(),
	}
}
