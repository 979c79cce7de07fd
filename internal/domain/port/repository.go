package port

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dokani/risk-service/internal/domain/model"
	"github.com/dokani/risk-service/pkg/events"
)

// ErrVersionConflict is returned by Save when the stored version no longer
// matches the version the profile was loaded at.
var ErrVersionConflict = errors.New("profile version conflict")

// ProfileRepository defines the persistence port for customer risk profiles.
type ProfileRepository interface {
	// GetOrCreate returns the profile for key, inserting a default one if
	// none exists. Concurrent callers observe the same row.
	GetOrCreate(ctx context.Context, key model.ProfileKey) (*model.CustomerRiskProfile, error)

	// FindByKey returns nil, nil when no profile exists.
	FindByKey(ctx context.Context, key model.ProfileKey) (*model.CustomerRiskProfile, error)

	// Save persists a dirty profile and its pending assessments atomically,
	// guarded by the profile version.
	Save(ctx context.Context, profile *model.CustomerRiskProfile) error
}

// ReturnRequest is one recorded return used for the trailing activity count.
type ReturnRequest struct {
	CreatedAt     time.Time
	OrderValue    decimal.Decimal
	CustomerEmail string
	BusinessID    string
	OrderID       string
	Reason        string
	ID            uuid.UUID
}

// ReturnActivityQuery counts recent returns for a profile key.
type ReturnActivityQuery interface {
	// CountRecentReturns counts returns created at or after since.
	CountRecentReturns(ctx context.Context, key model.ProfileKey, since time.Time) (int, error)
}

// ReturnActivityRecorder stores return requests fed by the intake stream.
type ReturnActivityRecorder interface {
	// RecordReturn is idempotent on the request ID.
	RecordReturn(ctx context.Context, req ReturnRequest) error
}

// EventPublisher defines the port for publishing domain events.
type EventPublisher interface {
	Publish(ctx context.Context, evts ...events.DomainEvent) error
}

// RiskMetrics records calculation outcomes.
type RiskMetrics interface {
	RecordCalculation(ctx context.Context, recommendation string, score float64)
	RecordProfileUpdate(ctx context.Context)
}
