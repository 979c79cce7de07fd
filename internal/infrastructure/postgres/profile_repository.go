package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/dokani/risk-service/internal/domain/model"
	"github.com/dokani/risk-service/internal/domain/port"
	pkgpostgres "github.com/dokani/risk-service/pkg/postgres"
)

// DB is satisfied by *pgxpool.Pool.
type DB interface {
	pkgpostgres.Querier
	pkgpostgres.TxBeginner
}

// ProfileRepository implements port.ProfileRepository using PostgreSQL.
type ProfileRepository struct {
	db DB
}

var _ port.ProfileRepository = (*ProfileRepository)(nil)

// NewProfileRepository creates a new PostgreSQL-backed profile repository.
func NewProfileRepository(db DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

const selectProfile = `
	SELECT id, customer_email, business_id, risk_score, return_frequency,
		fraud_indicators, behavior_patterns, version, created_at, last_updated
	FROM customer_risk_profiles
	WHERE customer_email = $1 AND business_id = $2
`

// GetOrCreate inserts a default profile unless one exists, then reads it
// back. Concurrent callers converge on the row that won the unique
// (customer_email, business_id) constraint.
func (r *ProfileRepository) GetOrCreate(ctx context.Context, key model.ProfileKey) (*model.CustomerRiskProfile, error) {
	fresh, err := model.NewCustomerRiskProfile(key, time.Now())
	if err != nil {
		return nil, err
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO customer_risk_profiles (
			id, customer_email, business_id, risk_score, return_frequency,
			fraud_indicators, behavior_patterns, version, created_at, last_updated
		) VALUES ($1, $2, $3, $4, $5, '{}'::jsonb, '{}'::jsonb, $6, $7, $8)
		ON CONFLICT (customer_email, business_id) DO NOTHING
	`,
		fresh.ID(),
		fresh.CustomerEmail(),
		fresh.BusinessID(),
		fresh.RiskScore(),
		fresh.ReturnFrequency(),
		fresh.Version(),
		fresh.CreatedAt(),
		fresh.LastUpdated(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert profile: %w", err)
	}

	profile, err := r.FindByKey(ctx, fresh.Key())
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, fmt.Errorf("profile %s/%s vanished after insert", key.BusinessID, fresh.ID())
	}
	return profile, nil
}

// FindByKey returns nil, nil when the profile does not exist.
func (r *ProfileRepository) FindByKey(ctx context.Context, key model.ProfileKey) (*model.CustomerRiskProfile, error) {
	return scanProfile(r.db.QueryRow(ctx, selectProfile, key.CustomerEmail, key.BusinessID))
}

// Save writes the profile and its pending assessments in one transaction.
// The update only matches while the row still holds ExpectedVersion.
func (r *ProfileRepository) Save(ctx context.Context, profile *model.CustomerRiskProfile) error {
	if !profile.IsDirty() {
		return nil
	}

	indicators, err := json.Marshal(profile.FraudIndicators())
	if err != nil {
		return fmt.Errorf("failed to encode fraud indicators: %w", err)
	}
	behavior, err := json.Marshal(profile.BehaviorPatterns())
	if err != nil {
		return fmt.Errorf("failed to encode behavior patterns: %w", err)
	}

	err = pkgpostgres.WithTransaction(ctx, r.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE customer_risk_profiles SET
				risk_score = $1,
				return_frequency = $2,
				fraud_indicators = $3,
				behavior_patterns = $4,
				version = $5,
				last_updated = $6
			WHERE id = $7 AND version = $8
		`,
			profile.RiskScore(),
			profile.ReturnFrequency(),
			indicators,
			behavior,
			profile.Version(),
			profile.LastUpdated(),
			profile.ID(),
			profile.ExpectedVersion(),
		)
		if err != nil {
			return fmt.Errorf("failed to update profile: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return port.ErrVersionConflict
		}

		for _, a := range profile.PendingAssessments() {
			if err := insertAssessment(ctx, tx, a); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	profile.MarkPersisted()
	return nil
}

func insertAssessment(ctx context.Context, q pkgpostgres.Querier, a model.Assessment) error {
	factors, err := json.Marshal(a.Factors)
	if err != nil {
		return fmt.Errorf("failed to encode risk factors: %w", err)
	}

	_, err = q.Exec(ctx, `
		INSERT INTO risk_assessments (
			id, profile_id, risk_score, recommendation, risk_factors,
			order_value, return_reason, return_frequency, recent_returns, assessed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		a.ID,
		a.ProfileID,
		a.RiskScore,
		a.Recommendation.String(),
		factors,
		a.OrderValue,
		a.ReturnReason,
		a.ReturnFrequency,
		a.RecentReturns,
		a.AssessedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save assessment: %w", err)
	}
	return nil
}

func scanProfile(row pgx.Row) (*model.CustomerRiskProfile, error) {
	var (
		id              uuid.UUID
		customerEmail   string
		businessID      string
		riskScore       decimal.Decimal
		returnFrequency int
		indicatorsRaw   []byte
		behaviorRaw     []byte
		version         int
		createdAt       time.Time
		lastUpdated     time.Time
	)

	err := row.Scan(
		&id, &customerEmail, &businessID, &riskScore, &returnFrequency,
		&indicatorsRaw, &behaviorRaw, &version, &createdAt, &lastUpdated,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan profile: %w", err)
	}

	indicators := make(map[string]bool)
	if len(indicatorsRaw) > 0 {
		if err := json.Unmarshal(indicatorsRaw, &indicators); err != nil {
			return nil, fmt.Errorf("failed to decode fraud indicators: %w", err)
		}
	}
	behavior := make(map[string]any)
	if len(behaviorRaw) > 0 {
		if err := json.Unmarshal(behaviorRaw, &behavior); err != nil {
			return nil, fmt.Errorf("failed to decode behavior patterns: %w", err)
		}
	}

	return model.Reconstruct(model.ProfileState{
		ID:               id,
		CustomerEmail:    customerEmail,
		BusinessID:       businessID,
		RiskScore:        riskScore,
		ReturnFrequency:  returnFrequency,
		FraudIndicators:  indicators,
		BehaviorPatterns: behavior,
		Version:          version,
		CreatedAt:        createdAt.UTC(),
		LastUpdated:      lastUpdated.UTC(),
	}), nil
}
