package rest_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dokani/risk-service/internal/application/dto"
	"github.com/dokani/risk-service/internal/application/usecase"
	"github.com/dokani/risk-service/internal/domain/service"
	"github.com/dokani/risk-service/internal/infrastructure/memory"
	"github.com/dokani/risk-service/internal/presentation/rest"
	"github.com/dokani/risk-service/pkg/auth"
	"github.com/dokani/risk-service/pkg/events"
)

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, ...events.DomainEvent) error { return nil }

type mockCalculator struct {
	err error
}

func (m *mockCalculator) Execute(context.Context, dto.CalculateRiskRequest) (dto.CalculateRiskResponse, error) {
	return dto.CalculateRiskResponse{}, m.err
}

type envelope struct {
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Success bool            `json:"success"`
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

type routerOpts struct {
	calculator rest.RiskCalculator
	jwt        *auth.JWTService
	checks     map[string]rest.ReadinessCheck
}

func newRouter(t *testing.T, opts routerOpts) http.Handler {
	t.Helper()
	store := memory.NewStore()
	logger := testLogger()

	calc := opts.calculator
	if calc == nil {
		calc = usecase.NewCalculateRisk(store, store, nopPublisher{}, service.NewRiskScorer(), usecase.WithLogger(logger))
	}
	risk := rest.NewRiskHandler(
		calc,
		usecase.NewUpdateProfile(store, nopPublisher{}, usecase.WithLogger(logger)),
		usecase.NewGetProfile(store),
		logger,
	)

	return rest.NewRouter(rest.RouterConfig{
		Risk:    risk,
		Health:  rest.NewHealthHandler("risk-service", logger, opts.checks),
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("# metrics")) }),
		JWT:     opts.jwt,
		Logger:  logger,
	})
}

func do(t *testing.T, h http.Handler, method, target, body string, headers ...string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func TestCalculate(t *testing.T) {
	h := newRouter(t, routerOpts{})

	t.Run("fresh customer", func(t *testing.T) {
		rec, env := do(t, h, http.MethodPost, "/risk-assessment/calculate",
			`{"customer_email":"a@b.co","business_id":"biz_0001","order_value":40,"return_reason":"too big"}`)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, env.Success)
		assert.JSONEq(t, `{"risk_score":0.5,"risk_factors":[],"recommendation":"manual_review"}`, string(env.Data))
	})

	t.Run("order value may be omitted or a string", func(t *testing.T) {
		rec, _ := do(t, h, http.MethodPost, "/risk-assessment/calculate",
			`{"customer_email":"c@d.co","business_id":"biz_0001"}`)
		assert.Equal(t, http.StatusOK, rec.Code)

		rec, _ = do(t, h, http.MethodPost, "/risk-assessment/calculate",
			`{"customer_email":"c@d.co","business_id":"biz_0001","order_value":"650.00"}`)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("malformed json", func(t *testing.T) {
		rec, env := do(t, h, http.MethodPost, "/risk-assessment/calculate", `{"customer_email":`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.False(t, env.Success)
		assert.Equal(t, "invalid JSON body", env.Error)
	})

	t.Run("missing identity", func(t *testing.T) {
		rec, env := do(t, h, http.MethodPost, "/risk-assessment/calculate", `{"business_id":"biz_0001"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.False(t, env.Success)
		assert.Contains(t, env.Error, "customer_email is required")
	})

	t.Run("negative order value", func(t *testing.T) {
		rec, env := do(t, h, http.MethodPost, "/risk-assessment/calculate",
			`{"customer_email":"a@b.co","business_id":"biz_0001","order_value":-3}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, env.Error, "order_value")
	})

	t.Run("wrong method", func(t *testing.T) {
		rec, _ := do(t, h, http.MethodGet, "/risk-assessment/calculate", "")
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestCalculate_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{
			name:       "concurrent update",
			err:        fmt.Errorf("save profile: %w", usecase.ErrConcurrentUpdate),
			wantStatus: http.StatusConflict,
			wantError:  "profile was modified concurrently, retry the request",
		},
		{
			name:       "dependency failure hides details",
			err:        fmt.Errorf("%w: load profile: %w", usecase.ErrDependency, errors.New("pq: password authentication failed")),
			wantStatus: http.StatusInternalServerError,
			wantError:  "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newRouter(t, routerOpts{calculator: &mockCalculator{err: tt.err}})

			rec, env := do(t, h, http.MethodPost, "/risk-assessment/calculate",
				`{"customer_email":"a@b.co","business_id":"biz_0001"}`)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.False(t, env.Success)
			assert.Equal(t, tt.wantError, env.Error)
		})
	}
}

func TestUpdateAndProfile(t *testing.T) {
	h := newRouter(t, routerOpts{})

	t.Run("absent profile is null", func(t *testing.T) {
		rec, env := do(t, h, http.MethodGet, "/risk-assessment/profile?customer_email=a@b.co&business_id=biz_0001", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, env.Success)
		assert.Equal(t, "null", string(env.Data))
	})

	t.Run("update creates and merges", func(t *testing.T) {
		rec, env := do(t, h, http.MethodPost, "/risk-assessment/update",
			`{"customer_email":"a@b.co","business_id":"biz_0001","fraud_indicator":"wardrobing","behavior_data":{"channel":"web"}}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, env.Success)

		rec, env = do(t, h, http.MethodPost, "/risk-assessment/update",
			`{"customer_email":"a@b.co","business_id":"biz_0001","fraud_indicators":{"chargeback":true}}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var profile dto.ProfileResponse
		require.NoError(t, json.Unmarshal(env.Data, &profile))
		assert.Equal(t, map[string]bool{"wardrobing": true, "chargeback": true}, profile.FraudIndicators)
		assert.Equal(t, "web", profile.BehaviorPatterns["channel"])
	})

	t.Run("profile reflects calculation", func(t *testing.T) {
		rec, _ := do(t, h, http.MethodPost, "/risk-assessment/calculate",
			`{"customer_email":"a@b.co","business_id":"biz_0001","return_reason":"Defective"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		rec, env := do(t, h, http.MethodGet, "/risk-assessment/profile?customer_email=a@b.co&business_id=biz_0001", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var profile dto.ProfileResponse
		require.NoError(t, json.Unmarshal(env.Data, &profile))
		assert.Equal(t, 1, profile.ReturnFrequency)
		assert.InDelta(t, 0.55, profile.RiskScore, 1e-9)
		assert.Equal(t, []any{"Potentially suspicious reason"}, profile.BehaviorPatterns["last_risk_factors"])
		assert.True(t, profile.FraudIndicators["wardrobing"])
	})

	t.Run("profile requires identity", func(t *testing.T) {
		rec, env := do(t, h, http.MethodGet, "/risk-assessment/profile?business_id=biz_0001", "")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.False(t, env.Success)
	})
}

func TestHealthAndMetrics(t *testing.T) {
	t.Run("healthz", func(t *testing.T) {
		h := newRouter(t, routerOpts{})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"status":"healthy"`)
	})

	t.Run("readyz reports failing checks", func(t *testing.T) {
		h := newRouter(t, routerOpts{checks: map[string]rest.ReadinessCheck{
			"database": func(context.Context) error { return errors.New("down") },
			"kafka":    func(context.Context) error { return nil },
		}})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		var resp rest.ReadinessResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "not_ready", resp.Status)
		assert.Equal(t, map[string]string{"database": "unavailable", "kafka": "ok"}, resp.Checks)
	})

	t.Run("metrics", func(t *testing.T) {
		h := newRouter(t, routerOpts{})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "# metrics", rec.Body.String())
	})
}

func TestAuthentication(t *testing.T) {
	svc, err := auth.NewJWTService(auth.JWTConfig{Secret: "rest-test-secret", Issuer: "dokani", Expiration: time.Minute})
	require.NoError(t, err)
	h := newRouter(t, routerOpts{jwt: svc})

	merchantToken, err := svc.GenerateToken("user-1", "biz_0001", []string{auth.RoleMerchant})
	require.NoError(t, err)

	body := `{"customer_email":"a@b.co","business_id":"biz_0001"}`

	t.Run("missing token", func(t *testing.T) {
		rec, env := do(t, h, http.MethodPost, "/risk-assessment/calculate", body)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, env.Success)
	})

	t.Run("own business", func(t *testing.T) {
		rec, _ := do(t, h, http.MethodPost, "/risk-assessment/calculate", body, "Authorization", "Bearer "+merchantToken)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("other business", func(t *testing.T) {
		rec, env := do(t, h, http.MethodPost, "/risk-assessment/calculate",
			`{"customer_email":"a@b.co","business_id":"biz_0002"}`, "Authorization", "Bearer "+merchantToken)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "access to business denied", env.Error)
	})

	t.Run("missing business id is a validation error", func(t *testing.T) {
		rec, env := do(t, h, http.MethodPost, "/risk-assessment/calculate",
			`{"customer_email":"a@b.co"}`, "Authorization", "Bearer "+merchantToken)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, env.Error, "business_id is required")

		rec, _ = do(t, h, http.MethodGet, "/risk-assessment/profile?customer_email=a@b.co", "", "Authorization", "Bearer "+merchantToken)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("health is public", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
