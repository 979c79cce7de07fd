package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dokani/risk-service/internal/domain/model"
	"github.com/dokani/risk-service/internal/domain/port"
)

// Store is an in-process implementation of the profile and return-activity
// ports. Profiles are stored as snapshots so callers never share state.
type Store struct {
	profiles    map[model.ProfileKey]model.ProfileState
	returns     map[uuid.UUID]port.ReturnRequest
	assessments []model.Assessment
	now         func() time.Time
	mu          sync.RWMutex
}

// Compile-time interface checks.
var (
	_ port.ProfileRepository      = (*Store)(nil)
	_ port.ReturnActivityQuery    = (*Store)(nil)
	_ port.ReturnActivityRecorder = (*Store)(nil)
)

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		profiles: make(map[model.ProfileKey]model.ProfileState),
		returns:  make(map[uuid.UUID]port.ReturnRequest),
		now:      time.Now,
	}
}

// GetOrCreate returns the stored profile or inserts a default one.
func (s *Store) GetOrCreate(_ context.Context, key model.ProfileKey) (*model.CustomerRiskProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if state, ok := s.profiles[key]; ok {
		return model.Reconstruct(cloneState(state)), nil
	}

	profile, err := model.NewCustomerRiskProfile(key, s.now())
	if err != nil {
		return nil, err
	}
	s.profiles[profile.Key()] = snapshot(profile)
	return profile, nil
}

// FindByKey returns nil, nil when the profile does not exist.
func (s *Store) FindByKey(_ context.Context, key model.ProfileKey) (*model.CustomerRiskProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.profiles[key]
	if !ok {
		return nil, nil
	}
	return model.Reconstruct(cloneState(state)), nil
}

// Save writes the profile if the stored version still matches.
func (s *Store) Save(_ context.Context, profile *model.CustomerRiskProfile) error {
	if !profile.IsDirty() {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.profiles[profile.Key()]
	if !ok || current.Version != profile.ExpectedVersion() {
		return port.ErrVersionConflict
	}

	s.profiles[profile.Key()] = snapshot(profile)
	s.assessments = append(s.assessments, profile.PendingAssessments()...)
	profile.MarkPersisted()
	return nil
}

// Assessments returns every assessment saved for the given profile, oldest first.
func (s *Store) Assessments(profileID uuid.UUID) []model.Assessment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Assessment
	for _, a := range s.assessments {
		if a.ProfileID == profileID {
			out = append(out, a)
		}
	}
	return out
}

// CountRecentReturns counts returns for key created at or after since.
func (s *Store) CountRecentReturns(_ context.Context, key model.ProfileKey, since time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, r := range s.returns {
		if r.CustomerEmail == key.CustomerEmail && r.BusinessID == key.BusinessID && !r.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

// RecordReturn stores the request, ignoring duplicates by ID.
func (s *Store) RecordReturn(_ context.Context, req port.ReturnRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.returns[req.ID]; !exists {
		s.returns[req.ID] = req
	}
	return nil
}

func snapshot(p *model.CustomerRiskProfile) model.ProfileState {
	return model.ProfileState{
		ID:               p.ID(),
		CustomerEmail:    p.CustomerEmail(),
		BusinessID:       p.BusinessID(),
		RiskScore:        p.RiskScore(),
		ReturnFrequency:  p.ReturnFrequency(),
		FraudIndicators:  p.FraudIndicators(),
		BehaviorPatterns: p.BehaviorPatterns(),
		Version:          p.Version(),
		CreatedAt:        p.CreatedAt(),
		LastUpdated:      p.LastUpdated(),
	}
}

func cloneState(s model.ProfileState) model.ProfileState {
	out := s
	out.FraudIndicators = make(map[string]bool, len(s.FraudIndicators))
	for k, v := range s.FraudIndicators {
		out.FraudIndicators[k] = v
	}
	out.BehaviorPatterns = make(map[string]any, len(s.BehaviorPatterns))
	for k, v := range s.BehaviorPatterns {
		out.BehaviorPatterns[k] = v
	}
	return out
}
