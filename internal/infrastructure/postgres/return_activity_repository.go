package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/dokani/risk-service/internal/domain/model"
	"github.com/dokani/risk-service/internal/domain/port"
	pkgpostgres "github.com/dokani/risk-service/pkg/postgres"
)

// ReturnActivityRepository implements the return-activity ports over the
// return_requests table.
type ReturnActivityRepository struct {
	db pkgpostgres.Querier
}

var (
	_ port.ReturnActivityQuery    = (*ReturnActivityRepository)(nil)
	_ port.ReturnActivityRecorder = (*ReturnActivityRepository)(nil)
)

// NewReturnActivityRepository creates a new ReturnActivityRepository.
func NewReturnActivityRepository(db pkgpostgres.Querier) *ReturnActivityRepository {
	return &ReturnActivityRepository{db: db}
}

// CountRecentReturns counts returns created at or after since.
func (r *ReturnActivityRepository) CountRecentReturns(ctx context.Context, key model.ProfileKey, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT count(*)
		FROM return_requests
		WHERE business_id = $1 AND customer_email = $2 AND created_at >= $3
	`, key.BusinessID, key.CustomerEmail, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count recent returns: %w", err)
	}
	return count, nil
}

// RecordReturn inserts the request; redelivered IDs are ignored.
func (r *ReturnActivityRepository) RecordReturn(ctx context.Context, req port.ReturnRequest) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO return_requests (
			id, customer_email, business_id, order_id, reason, order_value, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING
	`,
		req.ID,
		req.CustomerEmail,
		req.BusinessID,
		req.OrderID,
		req.Reason,
		req.OrderValue,
		req.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record return: %w", err)
	}
	return nil
}
