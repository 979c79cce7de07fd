package valueobject

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Recommendation is an immutable value object representing the triage outcome
// derived from a risk score.
type Recommendation struct {
	value string
}

var (
	RecommendationAutoApprove    = Recommendation{value: "auto_approve"}
	RecommendationManualReview   = Recommendation{value: "manual_review"}
	RecommendationHighRiskReview = Recommendation{value: "high_risk_review"}
)

var (
	autoApproveBelow = decimal.RequireFromString("0.3")
	highRiskFrom     = decimal.RequireFromString("0.7")
)

// RecommendationFromString reconstructs a recommendation from its string representation.
func RecommendationFromString(s string) (Recommendation, error) {
	switch s {
	case "auto_approve":
		return RecommendationAutoApprove, nil
	case "manual_review":
		return RecommendationManualReview, nil
	case "high_risk_review":
		return RecommendationHighRiskReview, nil
	default:
		return Recommendation{}, fmt.Errorf("invalid recommendation: %s", s)
	}
}

// RecommendationFromScore maps a score in [0, 1] onto the three
// non-overlapping bands [0, 0.3), [0.3, 0.7) and [0.7, 1].
func RecommendationFromScore(score decimal.Decimal) Recommendation {
	switch {
	case score.LessThan(autoApproveBelow):
		return RecommendationAutoApprove
	case score.LessThan(highRiskFrom):
		return RecommendationManualReview
	default:
		return RecommendationHighRiskReview
	}
}

// String returns the string representation.
func (r Recommendation) String() string {
	return r.value
}

// IsZero returns true if the recommendation has not been set.
func (r Recommendation) IsZero() bool {
	return r.value == ""
}

// Equal checks equality with another Recommendation.
func (r Recommendation) Equal(other Recommendation) bool {
	return r.value == other.value
}

// IsHighRisk returns true for high_risk_review.
func (r Recommendation) IsHighRisk() bool {
	return r.value == "high_risk_review"
}
