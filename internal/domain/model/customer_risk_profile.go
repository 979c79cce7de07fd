package model

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dokani/risk-service/internal/domain/event"
	"github.com/dokani/risk-service/internal/domain/valueobject"
	"github.com/dokani/risk-service/pkg/events"
)

// ErrInvalidProfile is returned for identity or state violations.
var ErrInvalidProfile = errors.New("invalid risk profile")

// Keys written into behavior_patterns by a calculation.
const (
	BehaviorLastRiskFactors    = "last_risk_factors"
	BehaviorLastCalculatedAt   = "last_calculated_at"
	BehaviorLastRecommendation = "last_recommendation"
)

// DefaultRiskScore is the score of a freshly created profile.
var DefaultRiskScore = decimal.RequireFromString("0.5")

// ProfileKey identifies a profile: one per customer per business.
type ProfileKey struct {
	CustomerEmail string
	BusinessID    string
}

// NewProfileKey trims and validates both halves of the identity.
func NewProfileKey(customerEmail, businessID string) (ProfileKey, error) {
	key := ProfileKey{
		CustomerEmail: strings.TrimSpace(customerEmail),
		BusinessID:    strings.TrimSpace(businessID),
	}
	if key.CustomerEmail == "" {
		return ProfileKey{}, fmt.Errorf("%w: customer_email is required", ErrInvalidProfile)
	}
	if key.BusinessID == "" {
		return ProfileKey{}, fmt.Errorf("%w: business_id is required", ErrInvalidProfile)
	}
	return key, nil
}

// CustomerRiskProfile is the aggregate root holding cumulative risk state
// for one (customer_email, business_id) pair.
type CustomerRiskProfile struct {
	events.EventCollector

	createdAt        time.Time
	lastUpdated      time.Time
	riskScore        decimal.Decimal
	fraudIndicators  map[string]bool
	behaviorPatterns map[string]any
	assessments      []Assessment
	key              ProfileKey
	returnFrequency  int
	version          int
	dirty            bool
	id               uuid.UUID
}

// Assessment is the audit record of one calculation.
type Assessment struct {
	AssessedAt      time.Time
	RiskScore       decimal.Decimal
	OrderValue      decimal.Decimal
	Recommendation  valueobject.Recommendation
	ReturnReason    string
	Factors         []string
	ReturnFrequency int
	RecentReturns   int
	ID              uuid.UUID
	ProfileID       uuid.UUID
}

// AssessmentResult is what the scorer produced for one return request.
type AssessmentResult struct {
	RiskScore      decimal.Decimal
	OrderValue     decimal.Decimal
	Recommendation valueobject.Recommendation
	ReturnReason   string
	Factors        []string
	RecentReturns  int
}

// NewCustomerRiskProfile creates a profile with the documented defaults:
// score 0.5, no returns, empty indicator and behavior maps.
func NewCustomerRiskProfile(key ProfileKey, now time.Time) (*CustomerRiskProfile, error) {
	key, err := NewProfileKey(key.CustomerEmail, key.BusinessID)
	if err != nil {
		return nil, err
	}

	now = now.UTC()
	return &CustomerRiskProfile{
		id:               uuid.New(),
		key:              key,
		riskScore:        DefaultRiskScore,
		returnFrequency:  0,
		fraudIndicators:  make(map[string]bool),
		behaviorPatterns: make(map[string]any),
		version:          1,
		createdAt:        now,
		lastUpdated:      now,
	}, nil
}

// ProfileState is the persisted shape of a profile, used to rebuild it.
type ProfileState struct {
	CreatedAt        time.Time
	LastUpdated      time.Time
	RiskScore        decimal.Decimal
	FraudIndicators  map[string]bool
	BehaviorPatterns map[string]any
	CustomerEmail    string
	BusinessID       string
	ReturnFrequency  int
	Version          int
	ID               uuid.UUID
}

// Reconstruct rebuilds a profile from persisted data (no validation, no events).
func Reconstruct(s ProfileState) *CustomerRiskProfile {
	indicators := s.FraudIndicators
	if indicators == nil {
		indicators = make(map[string]bool)
	}
	behavior := s.BehaviorPatterns
	if behavior == nil {
		behavior = make(map[string]any)
	}

	return &CustomerRiskProfile{
		id:               s.ID,
		key:              ProfileKey{CustomerEmail: s.CustomerEmail, BusinessID: s.BusinessID},
		riskScore:        s.RiskScore,
		returnFrequency:  s.ReturnFrequency,
		fraudIndicators:  indicators,
		behaviorPatterns: behavior,
		version:          s.Version,
		createdAt:        s.CreatedAt,
		lastUpdated:      s.LastUpdated,
	}
}

// RecordAssessment applies a calculation: it stores the score, counts one
// more return, writes the diagnostics into behavior_patterns and raises the
// matching events. The returned Assessment is also buffered for persistence.
func (p *CustomerRiskProfile) RecordAssessment(r AssessmentResult, at time.Time) (Assessment, error) {
	if r.RiskScore.IsNegative() || r.RiskScore.GreaterThan(decimal.NewFromInt(1)) {
		return Assessment{}, fmt.Errorf("%w: risk score must be within [0, 1], got %s", ErrInvalidProfile, r.RiskScore)
	}
	if r.Recommendation.IsZero() {
		return Assessment{}, fmt.Errorf("%w: recommendation is required", ErrInvalidProfile)
	}

	at = at.UTC()
	factors := slices.Clone(r.Factors)
	if factors == nil {
		factors = []string{}
	}

	assessment := Assessment{
		ID:              uuid.New(),
		ProfileID:       p.id,
		RiskScore:       r.RiskScore,
		Recommendation:  r.Recommendation,
		Factors:         factors,
		OrderValue:      r.OrderValue,
		ReturnReason:    r.ReturnReason,
		ReturnFrequency: p.returnFrequency,
		RecentReturns:   r.RecentReturns,
		AssessedAt:      at,
	}

	p.riskScore = r.RiskScore
	p.returnFrequency++
	p.behaviorPatterns[BehaviorLastRiskFactors] = factors
	p.behaviorPatterns[BehaviorLastCalculatedAt] = at.Format(time.RFC3339Nano)
	p.behaviorPatterns[BehaviorLastRecommendation] = r.Recommendation.String()
	p.assessments = append(p.assessments, assessment)
	p.touch(at)

	p.Record(event.NewRiskScoreCalculated(
		p.id, p.key.BusinessID, p.key.CustomerEmail,
		r.RiskScore.String(), r.Recommendation.String(),
		factors, p.returnFrequency, at,
	))
	if r.Recommendation.IsHighRisk() {
		p.Record(event.NewHighRiskDetected(
			p.id, p.key.BusinessID, p.key.CustomerEmail,
			r.RiskScore.String(), factors, at,
		))
	}

	return assessment, nil
}

// Merge patches fraud indicators and behavior data onto the profile. Keys
// not mentioned are left untouched. It reports whether anything changed.
func (p *CustomerRiskProfile) Merge(indicators map[string]bool, behavior map[string]any, at time.Time) bool {
	changed := false
	at = at.UTC()

	for _, raw := range slices.Sorted(maps.Keys(indicators)) {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		flag := indicators[raw]
		prev, existed := p.fraudIndicators[name]
		if existed && prev == flag {
			continue
		}
		p.fraudIndicators[name] = flag
		changed = true
		if flag {
			p.Record(event.NewFraudIndicatorFlagged(p.id, p.key.BusinessID, p.key.CustomerEmail, name, at))
		}
	}

	for k, v := range behavior {
		if strings.TrimSpace(k) == "" {
			continue
		}
		p.behaviorPatterns[k] = v
		changed = true
	}

	if changed {
		p.touch(at)
	}
	return changed
}

// PendingAssessments returns the assessments recorded since the last persist.
func (p *CustomerRiskProfile) PendingAssessments() []Assessment {
	return p.assessments
}

// ExpectedVersion is the version the store must still hold for a save to win.
func (p *CustomerRiskProfile) ExpectedVersion() int {
	if p.dirty {
		return p.version - 1
	}
	return p.version
}

// MarkPersisted is called by repositories after a successful save.
func (p *CustomerRiskProfile) MarkPersisted() {
	p.dirty = false
	p.assessments = nil
}

// IsDirty reports whether the profile has unsaved changes.
func (p *CustomerRiskProfile) IsDirty() bool { return p.dirty }

func (p *CustomerRiskProfile) touch(at time.Time) {
	if !p.dirty {
		p.version++
		p.dirty = true
	}
	p.lastUpdated = at
}

// --- Accessors ---

func (p *CustomerRiskProfile) ID() uuid.UUID              { return p.id }
func (p *CustomerRiskProfile) Key() ProfileKey            { return p.key }
func (p *CustomerRiskProfile) CustomerEmail() string      { return p.key.CustomerEmail }
func (p *CustomerRiskProfile) BusinessID() string         { return p.key.BusinessID }
func (p *CustomerRiskProfile) RiskScore() decimal.Decimal { return p.riskScore }
func (p *CustomerRiskProfile) ReturnFrequency() int       { return p.returnFrequency }
func (p *CustomerRiskProfile) Version() int               { return p.version }
func (p *CustomerRiskProfile) CreatedAt() time.Time       { return p.createdAt }
func (p *CustomerRiskProfile) LastUpdated() time.Time     { return p.lastUpdated }

// FraudIndicators returns a copy of the indicator flags.
func (p *CustomerRiskProfile) FraudIndicators() map[string]bool {
	return maps.Clone(p.fraudIndicators)
}

// BehaviorPatterns returns a shallow copy of the behavior map.
func (p *CustomerRiskProfile) BehaviorPatterns() map[string]any {
	return maps.Clone(p.behaviorPatterns)
}
