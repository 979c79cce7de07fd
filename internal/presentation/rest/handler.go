package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dokani/risk-service/internal/application/dto"
	"github.com/dokani/risk-service/internal/application/usecase"
	"github.com/dokani/risk-service/pkg/auth"
)

const maxBodyBytes = 1 << 20

// RiskCalculator is satisfied by *usecase.CalculateRisk.
type RiskCalculator interface {
	Execute(ctx context.Context, req dto.CalculateRiskRequest) (dto.CalculateRiskResponse, error)
}

// ProfileUpdater is satisfied by *usecase.UpdateProfile.
type ProfileUpdater interface {
	Execute(ctx context.Context, req dto.UpdateProfileRequest) (dto.ProfileResponse, error)
}

// ProfileReader is satisfied by *usecase.GetProfile.
type ProfileReader interface {
	Execute(ctx context.Context, req dto.GetProfileRequest) (*dto.ProfileResponse, error)
}

// RiskHandler serves the /risk-assessment endpoints.
type RiskHandler struct {
	calculate RiskCalculator
	update    ProfileUpdater
	profile   ProfileReader
	logger    *slog.Logger
}

// NewRiskHandler creates a new RiskHandler.
func NewRiskHandler(calculate RiskCalculator, update ProfileUpdater, profile ProfileReader, logger *slog.Logger) *RiskHandler {
	return &RiskHandler{
		calculate: calculate,
		update:    update,
		profile:   profile,
		logger:    logger,
	}
}

// RegisterRoutes registers the risk endpoints on the provided ServeMux.
func (h *RiskHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /risk-assessment/calculate", h.Calculate)
	mux.HandleFunc("POST /risk-assessment/update", h.Update)
	mux.HandleFunc("GET /risk-assessment/profile", h.Profile)
}

// Calculate scores a return request.
func (h *RiskHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	var req dto.CalculateRiskRequest
	if !h.decode(w, r, &req) || !h.authorize(w, r, req.BusinessID) {
		return
	}

	resp, err := h.calculate.Execute(r.Context(), req)
	if err != nil {
		h.writeUseCaseError(w, r, "calculate", err)
		return
	}
	writeSuccess(w, resp)
}

// Update merge-patches fraud indicators and behavior data.
func (h *RiskHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateProfileRequest
	if !h.decode(w, r, &req) || !h.authorize(w, r, req.BusinessID) {
		return
	}

	resp, err := h.update.Execute(r.Context(), req)
	if err != nil {
		h.writeUseCaseError(w, r, "update", err)
		return
	}
	writeSuccess(w, resp)
}

// Profile returns the stored profile, or data:null when there is none.
func (h *RiskHandler) Profile(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := dto.GetProfileRequest{
		CustomerEmail: q.Get("customer_email"),
		BusinessID:    q.Get("business_id"),
	}
	if !h.authorize(w, r, req.BusinessID) {
		return
	}

	resp, err := h.profile.Execute(r.Context(), req)
	if err != nil {
		h.writeUseCaseError(w, r, "profile", err)
		return
	}
	if resp == nil {
		writeSuccess(w, nil)
		return
	}
	writeSuccess(w, resp)
}

func (h *RiskHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// authorize checks the caller may act for businessID. A blank id is left to
// request validation, which rejects it with 400 before any data is touched.
func (h *RiskHandler) authorize(w http.ResponseWriter, r *http.Request, businessID string) bool {
	businessID = strings.TrimSpace(businessID)
	if businessID == "" {
		return true
	}
	if err := auth.AuthorizeBusiness(r.Context(), businessID); err != nil {
		writeError(w, http.StatusForbidden, "access to business denied")
		return false
	}
	return true
}

func (h *RiskHandler) writeUseCaseError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, usecase.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, usecase.ErrConcurrentUpdate):
		writeError(w, http.StatusConflict, "profile was modified concurrently, retry the request")
	default:
		h.logger.ErrorContext(r.Context(), "risk request failed",
			slog.String("operation", op),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
