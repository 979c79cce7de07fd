package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/dokani/risk-service/pkg/events"
)

const (
	// EventTypeRiskScoreCalculated is emitted every time a profile is rescored.
	EventTypeRiskScoreCalculated = "risk.score.calculated"

	// EventTypeHighRiskDetected is emitted when a score lands in high_risk_review.
	EventTypeHighRiskDetected = "risk.high_risk.detected"

	// EventTypeFraudIndicatorFlagged is emitted when an indicator is set on a profile.
	EventTypeFraudIndicatorFlagged = "risk.fraud_indicator.flagged"

	aggregateType = "CustomerRiskProfile"
)

// RiskScoreCalculated is published after a calculation has been persisted.
type RiskScoreCalculated struct {
	events.BaseEvent
	BusinessID      string   `json:"business_id"`
	CustomerEmail   string   `json:"customer_email"`
	RiskScore       string   `json:"risk_score"`
	Recommendation  string   `json:"recommendation"`
	RiskFactors     []string `json:"risk_factors"`
	ReturnFrequency int      `json:"return_frequency"`
}

// NewRiskScoreCalculated builds a RiskScoreCalculated event.
func NewRiskScoreCalculated(
	profileID uuid.UUID,
	businessID, customerEmail, riskScore, recommendation string,
	factors []string,
	returnFrequency int,
	at time.Time,
) RiskScoreCalculated {
	return RiskScoreCalculated{
		BaseEvent:       events.NewBaseEvent(EventTypeRiskScoreCalculated, profileID, aggregateType, at),
		BusinessID:      businessID,
		CustomerEmail:   customerEmail,
		RiskScore:       riskScore,
		Recommendation:  recommendation,
		RiskFactors:     factors,
		ReturnFrequency: returnFrequency,
	}
}

// HighRiskDetected is published alongside RiskScoreCalculated when the
// recommendation is high_risk_review, so the dashboard can alert reviewers.
type HighRiskDetected struct {
	events.BaseEvent
	BusinessID    string   `json:"business_id"`
	CustomerEmail string   `json:"customer_email"`
	RiskScore     string   `json:"risk_score"`
	RiskFactors   []string `json:"risk_factors"`
}

// NewHighRiskDetected builds a HighRiskDetected event.
func NewHighRiskDetected(
	profileID uuid.UUID,
	businessID, customerEmail, riskScore string,
	factors []string,
	at time.Time,
) HighRiskDetected {
	return HighRiskDetected{
		BaseEvent:     events.NewBaseEvent(EventTypeHighRiskDetected, profileID, aggregateType, at),
		BusinessID:    businessID,
		CustomerEmail: customerEmail,
		RiskScore:     riskScore,
		RiskFactors:   factors,
	}
}

// FraudIndicatorFlagged is published when a manual update raises an indicator.
type FraudIndicatorFlagged struct {
	events.BaseEvent
	BusinessID    string `json:"business_id"`
	CustomerEmail string `json:"customer_email"`
	Indicator     string `json:"indicator"`
}

// NewFraudIndicatorFlagged builds a FraudIndicatorFlagged event.
func NewFraudIndicatorFlagged(profileID uuid.UUID, businessID, customerEmail, indicator string, at time.Time) FraudIndicatorFlagged {
	return FraudIndicatorFlagged{
		BaseEvent:     events.NewBaseEvent(EventTypeFraudIndicatorFlagged, profileID, aggregateType, at),
		BusinessID:    businessID,
		CustomerEmail: customerEmail,
		Indicator:     indicator,
	}
}
