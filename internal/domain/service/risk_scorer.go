package service

import (
	"github.com/shopspring/decimal"
)

// RiskInput contains the data required for risk scoring.
type RiskInput struct {
	OrderValue      decimal.Decimal
	ReturnReason    string
	ReturnFrequency int
	RecentReturns   int
}

// RiskOutput contains the result of risk scoring.
type RiskOutput struct {
	Score   decimal.Decimal
	Factors []string
}

// BaseScore is where every calculation starts, regardless of the stored score.
var BaseScore = decimal.RequireFromString("0.5")

var (
	minScore = decimal.Zero
	maxScore = decimal.NewFromInt(1)
)

// RiskScorer is a domain service that calculates return risk with a
// weighted rule table.
type RiskScorer struct {
	rules []Rule
}

// Option configures a RiskScorer.
type Option func(*RiskScorer)

// WithRules replaces the scoring table.
func WithRules(rules []Rule) Option {
	return func(s *RiskScorer) {
		s.rules = rules
	}
}

// NewRiskScorer creates a RiskScorer using DefaultRules unless overridden.
func NewRiskScorer(opts ...Option) *RiskScorer {
	s := &RiskScorer{rules: DefaultRules()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score starts at BaseScore, adds the weight of every applicable rule and
// clamps the result to [0, 1]. Factors are reported in table order.
func (s *RiskScorer) Score(input RiskInput) RiskOutput {
	score := BaseScore
	factors := make([]string, 0, len(s.rules))
	matchedGroups := make(map[string]bool)

	for _, rule := range s.rules {
		if rule.Group != "" && matchedGroups[rule.Group] {
			continue
		}
		if rule.Applies == nil || !rule.Applies(input) {
			continue
		}
		if rule.Group != "" {
			matchedGroups[rule.Group] = true
		}
		score = score.Add(rule.Weight)
		factors = append(factors, rule.Factor)
	}

	return RiskOutput{
		Score:   clamp(score),
		Factors: factors,
	}
}

func clamp(score decimal.Decimal) decimal.Decimal {
	if score.LessThan(minScore) {
		return minScore
	}
	if score.GreaterThan(maxScore) {
		return maxScore
	}
	return score
}
