package service

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Rule groups. Rules in the same group are mutually exclusive and the first
// matching rule in table order wins.
const (
	GroupFrequency = "frequency"
)

// Rule is one named, weighted entry of the scoring table.
type Rule struct {
	Applies func(RiskInput) bool
	Weight  decimal.Decimal
	Name    string
	Group   string
	Factor  string
}

var suspiciousReasonPhrases = []string{"wrong item", "not as described", "defective"}

var highOrderValue = decimal.NewFromInt(500)

// DefaultRules returns the production scoring table in evaluation order.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:    "high_return_frequency",
			Group:   GroupFrequency,
			Weight:  decimal.RequireFromString("0.20"),
			Factor:  "High return frequency",
			Applies: func(in RiskInput) bool { return in.ReturnFrequency > 5 },
		},
		{
			Name:    "moderate_return_frequency",
			Group:   GroupFrequency,
			Weight:  decimal.RequireFromString("0.10"),
			Factor:  "Moderate return frequency",
			Applies: func(in RiskInput) bool { return in.ReturnFrequency > 2 },
		},
		{
			Name:   "high_value_with_history",
			Weight: decimal.RequireFromString("0.15"),
			Factor: "High value + return history",
			Applies: func(in RiskInput) bool {
				return in.OrderValue.GreaterThan(highOrderValue) && in.ReturnFrequency > 1
			},
		},
		{
			Name:    "suspicious_reason",
			Weight:  decimal.RequireFromString("0.05"),
			Factor:  "Potentially suspicious reason",
			Applies: func(in RiskInput) bool { return IsSuspiciousReason(in.ReturnReason) },
		},
		{
			Name:    "multiple_recent_returns",
			Weight:  decimal.RequireFromString("0.20"),
			Factor:  "Multiple recent returns",
			Applies: func(in RiskInput) bool { return in.RecentReturns > 2 },
		},
	}
}

// IsSuspiciousReason reports whether a free-text return reason contains one
// of the phrases commonly used to force a no-fault return.
func IsSuspiciousReason(reason string) bool {
	lower := strings.ToLower(reason)
	for _, phrase := range suspiciousReasonPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
