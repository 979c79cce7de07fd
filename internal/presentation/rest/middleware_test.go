package rest

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dokani/risk-service/pkg/observability"
)

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiter(5)

	for i := 0; i < 5; i++ {
		require.True(t, rl.Allow(), "request %d should have been allowed", i+1)
	}
	assert.False(t, rl.Allow(), "6th request should have been denied")
}

func TestRateLimiter_Refill(t *testing.T) {
	rl := NewRateLimiter(10)
	for i := 0; i < 10; i++ {
		rl.Allow()
	}
	require.False(t, rl.Allow())

	rl.mu.Lock()
	rl.lastRefill = time.Now().Add(-time.Second)
	rl.mu.Unlock()

	assert.True(t, rl.Allow())
}

func TestRateLimiter_MaxTokensCapped(t *testing.T) {
	rl := NewRateLimiter(5)

	rl.mu.Lock()
	rl.lastRefill = time.Now().Add(-10 * time.Second)
	rl.mu.Unlock()

	allowed := 0
	for i := 0; i < 10; i++ {
		if rl.Allow() {
			allowed++
		}
	}
	assert.Equal(t, 5, allowed)
}

func TestRateLimitMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := RateLimitMiddleware(NewRateLimiter(1))(ok)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "rate limit exceeded")
}

func TestRouter_RateLimitSkipsHealth(t *testing.T) {
	logger := observability.NopLogger()
	router := NewRouter(RouterConfig{
		Risk:         NewRiskHandler(nil, nil, nil, logger),
		Health:       NewHealthHandler("risk-service", logger, nil),
		Logger:       logger,
		RateLimitRPS: 1,
	})

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	panicking := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})
	handler := RecoveryMiddleware(observability.NopLogger())(panicking)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/risk-assessment/calculate", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"internal server error"}`, rec.Body.String())
}

func TestLoggingMiddleware_PassesStatusThrough(t *testing.T) {
	teapot := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	handler := LoggingMiddleware(observability.NopLogger())(teapot)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}
