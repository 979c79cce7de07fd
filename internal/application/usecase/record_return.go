package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/dokani/risk-service/internal/application/dto"
	"github.com/dokani/risk-service/internal/domain/model"
	"github.com/dokani/risk-service/internal/domain/port"
	"github.com/dokani/risk-service/pkg/validation"
)

// returnNamespace seeds deterministic IDs for messages that carry an order
// id but no return id, so redeliveries stay idempotent.
var returnNamespace = uuid.MustParse("6f1c7a52-3b0e-4d7e-9a55-0c4b8d2e91f3")

// RecordReturn is the use case for storing a return from the intake stream.
type RecordReturn struct {
	recorder port.ReturnActivityRecorder
	settings settings
}

// NewRecordReturn creates a new RecordReturn use case.
func NewRecordReturn(recorder port.ReturnActivityRecorder, opts ...Option) *RecordReturn {
	return &RecordReturn{
		recorder: recorder,
		settings: newSettings(opts),
	}
}

// Execute validates and stores the return.
func (uc *RecordReturn) Execute(ctx context.Context, req dto.RecordReturnRequest) error {
	ctx, span := tracer.Start(ctx, "RecordReturn.Execute")
	defer span.End()

	ve := validation.Struct(req)
	checkOrderValue(ve, req.OrderValue)
	if ve.HasErrors() {
		return fail(span, invalid(ve))
	}
	key, err := model.NewProfileKey(req.CustomerEmail, req.BusinessID)
	if err != nil {
		return fail(span, fmt.Errorf("%w: %w", ErrInvalidInput, err))
	}
	span.SetAttributes(attribute.String("business_id", key.BusinessID))

	id := req.ID
	if id == uuid.Nil {
		if req.OrderID != "" {
			id = returnID(key.BusinessID, req.OrderID)
		} else {
			id = uuid.New()
		}
	}
	createdAt := uc.settings.now().UTC()
	if req.CreatedAt != nil && !req.CreatedAt.IsZero() {
		createdAt = req.CreatedAt.UTC()
	}

	if err := uc.recorder.RecordReturn(ctx, port.ReturnRequest{
		ID:            id,
		CustomerEmail: key.CustomerEmail,
		BusinessID:    key.BusinessID,
		OrderID:       req.OrderID,
		Reason:        req.Reason,
		OrderValue:    req.OrderValue,
		CreatedAt:     createdAt,
	}); err != nil {
		return fail(span, storeError("record return", err))
	}
	return nil
}

// returnID derives a stable id per (business, order). Each field gets its own
// hash step, so no separator can make two pairs collide.
func returnID(businessID, orderID string) uuid.UUID {
	return uuid.NewSHA1(uuid.NewSHA1(returnNamespace, []byte(businessID)), []byte(orderID))
}
