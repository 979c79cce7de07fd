package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitMetrics_ExposesRecordedInstruments(t *testing.T) {
	provider, handler, err := InitMetrics(MetricsConfig{ServiceName: "risk-service"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	counter, err := provider.Meter("test").Int64Counter("sample_total")
	require.NoError(t, err)
	counter.Add(context.Background(), 3)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "sample_total")
}

func TestInitMetrics_RepeatedInitDoesNotConflict(t *testing.T) {
	for i := 0; i < 2; i++ {
		provider, _, err := InitMetrics(MetricsConfig{ServiceName: "risk-service"})
		require.NoError(t, err)
		require.NoError(t, provider.Shutdown(context.Background()))
	}
}

func TestInitTracer_RequiresEndpoint(t *testing.T) {
	_, err := InitTracer(context.Background(), TracingConfig{ServiceName: "risk-service"})
	require.Error(t, err)
}
