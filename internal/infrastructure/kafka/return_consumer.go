package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/dokani/risk-service/internal/application/dto"
	"github.com/dokani/risk-service/internal/application/usecase"
	pkgkafka "github.com/dokani/risk-service/pkg/kafka"
)

// ReturnRecorder is satisfied by *usecase.RecordReturn.
type ReturnRecorder interface {
	Execute(ctx context.Context, req dto.RecordReturnRequest) error
}

// ReturnIntakeHandler turns return-intake messages into recorded returns.
type ReturnIntakeHandler struct {
	recorder ReturnRecorder
	logger   *slog.Logger
}

// NewReturnIntakeHandler creates a ReturnIntakeHandler.
func NewReturnIntakeHandler(recorder ReturnRecorder, logger *slog.Logger) *ReturnIntakeHandler {
	return &ReturnIntakeHandler{recorder: recorder, logger: logger}
}

// Handle implements pkgkafka.Handler. Malformed or invalid messages are
// logged and acknowledged; storage failures are returned to the consumer,
// which retries the same message before committing anything past it.
func (h *ReturnIntakeHandler) Handle(ctx context.Context, msg pkgkafka.Message) error {
	var req dto.RecordReturnRequest
	if err := json.Unmarshal(msg.Value, &req); err != nil {
		h.logger.WarnContext(ctx, "skipping malformed return message",
			"key", string(msg.Key),
			"error", err,
		)
		return nil
	}

	if err := h.recorder.Execute(ctx, req); err != nil {
		if errors.Is(err, usecase.ErrInvalidInput) {
			h.logger.WarnContext(ctx, "skipping invalid return message",
				"business_id", req.BusinessID,
				"error", err,
			)
			return nil
		}
		return err
	}

	h.logger.DebugContext(ctx, "return recorded",
		"business_id", req.BusinessID,
		"order_id", req.OrderID,
	)
	return nil
}
