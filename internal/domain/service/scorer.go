package service

// Scorer defines the interface for return risk scoring strategies.
type Scorer interface {
	Score(input RiskInput) RiskOutput
}
