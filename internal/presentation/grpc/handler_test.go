package grpc

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/dokani/risk-service/internal/application/dto"
	"github.com/dokani/risk-service/internal/application/usecase"
	"github.com/dokani/risk-service/internal/domain/service"
	"github.com/dokani/risk-service/internal/infrastructure/memory"
	"github.com/dokani/risk-service/pkg/auth"
	"github.com/dokani/risk-service/pkg/events"
)

// --- Mock implementations ---

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, ...events.DomainEvent) error { return nil }

type mockCalculator struct {
	err error
}

func (m mockCalculator) Execute(context.Context, dto.CalculateRiskRequest) (dto.CalculateRiskResponse, error) {
	return dto.CalculateRiskResponse{}, m.err
}

// --- Helpers ---

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func buildTestHandler() *RiskAssessmentHandler {
	store := memory.NewStore()
	publisher := nopPublisher{}
	return NewRiskAssessmentHandler(
		usecase.NewCalculateRisk(store, store, publisher, service.NewRiskScorer()),
		usecase.NewUpdateProfile(store, publisher),
		usecase.NewGetProfile(store),
		testLogger(),
	)
}

func merchantContext(businessID string) context.Context {
	return auth.ContextWithClaims(context.Background(), &auth.Claims{
		UserID:     "user-1",
		BusinessID: businessID,
		Roles:      []string{auth.RoleMerchant},
	})
}

func requireGRPCCode(t *testing.T, err error, code codes.Code) {
	t.Helper()
	require.Error(t, err)
	st, ok := status.FromError(err)
	require.True(t, ok, "expected gRPC status error, got %v", err)
	assert.Equal(t, code, st.Code())
}

// --- Tests ---

func TestCalculateRisk_Success(t *testing.T) {
	h := buildTestHandler()

	resp, err := h.CalculateRisk(context.Background(), &CalculateRiskRequest{
		CustomerEmail: "shopper@example.com",
		BusinessID:    "biz_0001",
		OrderValue:    "120.50",
		ReturnReason:  "Item was DEFECTIVE",
	})
	require.NoError(t, err)
	assert.InDelta(t, 0.55, resp.RiskScore, 1e-9)
	assert.Equal(t, []string{"Potentially suspicious reason"}, resp.RiskFactors)
	assert.Equal(t, "manual_review", resp.Recommendation)
}

func TestCalculateRisk_EmptyOrderValueDefaultsToZero(t *testing.T) {
	h := buildTestHandler()

	resp, err := h.CalculateRisk(context.Background(), &CalculateRiskRequest{
		CustomerEmail: "shopper@example.com",
		BusinessID:    "biz_0001",
	})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, resp.RiskScore, 1e-9)
	assert.NotNil(t, resp.RiskFactors)
	assert.Empty(t, resp.RiskFactors)
}

func TestCalculateRisk_InvalidArgument(t *testing.T) {
	h := buildTestHandler()

	tests := []struct {
		name string
		req  *CalculateRiskRequest
	}{
		{name: "nil request", req: nil},
		{name: "missing email", req: &CalculateRiskRequest{BusinessID: "biz_0001"}},
		{name: "missing business", req: &CalculateRiskRequest{CustomerEmail: "shopper@example.com"}},
		{name: "unparseable order value", req: &CalculateRiskRequest{
			CustomerEmail: "shopper@example.com", BusinessID: "biz_0001", OrderValue: "ten",
		}},
		{name: "negative order value", req: &CalculateRiskRequest{
			CustomerEmail: "shopper@example.com", BusinessID: "biz_0001", OrderValue: "-1",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.CalculateRisk(context.Background(), tt.req)
			requireGRPCCode(t, err, codes.InvalidArgument)
		})
	}
}

func TestCalculateRisk_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code codes.Code
	}{
		{name: "concurrent update", err: usecase.ErrConcurrentUpdate, code: codes.Aborted},
		{name: "dependency", err: errors.Join(usecase.ErrDependency, errors.New("db down")), code: codes.Internal},
		{name: "invalid input", err: usecase.ErrInvalidInput, code: codes.InvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewRiskAssessmentHandler(mockCalculator{err: tt.err}, nil, nil, testLogger())
			_, err := h.CalculateRisk(context.Background(), &CalculateRiskRequest{
				CustomerEmail: "shopper@example.com",
				BusinessID:    "biz_0001",
			})
			requireGRPCCode(t, err, tt.code)
			if tt.code == codes.Internal {
				assert.NotContains(t, err.Error(), "db down")
			}
		})
	}
}

func TestCalculateRisk_PermissionDenied(t *testing.T) {
	h := buildTestHandler()

	_, err := h.CalculateRisk(merchantContext("biz_0002"), &CalculateRiskRequest{
		CustomerEmail: "shopper@example.com",
		BusinessID:    "biz_0001",
	})
	requireGRPCCode(t, err, codes.PermissionDenied)

	_, err = h.CalculateRisk(merchantContext("biz_0001"), &CalculateRiskRequest{
		CustomerEmail: "shopper@example.com",
		BusinessID:    "biz_0001",
	})
	require.NoError(t, err)
}

func TestMissingBusinessID_IsInvalidArgumentForScopedCaller(t *testing.T) {
	h := buildTestHandler()
	ctx := merchantContext("biz_0001")

	_, err := h.CalculateRisk(ctx, &CalculateRiskRequest{CustomerEmail: "shopper@example.com", BusinessID: "  "})
	requireGRPCCode(t, err, codes.InvalidArgument)

	_, err = h.UpdateProfile(ctx, &UpdateProfileRequest{CustomerEmail: "shopper@example.com"})
	requireGRPCCode(t, err, codes.InvalidArgument)

	_, err = h.GetProfile(ctx, &GetProfileRequest{CustomerEmail: "shopper@example.com"})
	requireGRPCCode(t, err, codes.InvalidArgument)
}

func TestUpdateAndGetProfile(t *testing.T) {
	h := buildTestHandler()
	ctx := context.Background()

	got, err := h.GetProfile(ctx, &GetProfileRequest{CustomerEmail: "shopper@example.com", BusinessID: "biz_0001"})
	require.NoError(t, err)
	assert.False(t, got.Found)
	assert.Nil(t, got.Profile)

	updated, err := h.UpdateProfile(ctx, &UpdateProfileRequest{
		CustomerEmail:  "shopper@example.com",
		BusinessID:     "biz_0001",
		FraudIndicator: "chargeback",
		BehaviorData:   map[string]any{"channel": "web"},
	})
	require.NoError(t, err)
	require.NotNil(t, updated.Profile)
	assert.True(t, updated.Profile.FraudIndicators["chargeback"])
	assert.Equal(t, "web", updated.Profile.BehaviorPatterns["channel"])
	assert.InDelta(t, 0.5, updated.Profile.RiskScore, 1e-9)

	got, err = h.GetProfile(ctx, &GetProfileRequest{CustomerEmail: "shopper@example.com", BusinessID: "biz_0001"})
	require.NoError(t, err)
	assert.True(t, got.Found)
	assert.Equal(t, updated.Profile.ID, got.Profile.ID)
	assert.Equal(t, int32(0), got.Profile.ReturnFrequency)
}

func TestUpdateProfile_InvalidArgument(t *testing.T) {
	h := buildTestHandler()

	_, err := h.UpdateProfile(context.Background(), &UpdateProfileRequest{BusinessID: "biz_0001"})
	requireGRPCCode(t, err, codes.InvalidArgument)

	_, err = h.GetProfile(context.Background(), &GetProfileRequest{CustomerEmail: "shopper@example.com"})
	requireGRPCCode(t, err, codes.InvalidArgument)
}

func TestServer_JSONCodecRoundTrip(t *testing.T) {
	lis := bufconn.Listen(1 << 20)
	srv := NewServer(buildTestHandler(), "bufnet", testLogger(), ServerOptions{})
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpclib.NewClient("passthrough:///bufnet",
		grpclib.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpclib.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	ctx := context.Background()

	var resp CalculateRiskResponse
	err = conn.Invoke(ctx, "/"+ServiceName+"/CalculateRisk", &CalculateRiskRequest{
		CustomerEmail: "shopper@example.com",
		BusinessID:    "biz_0001",
		OrderValue:    "40",
	}, &resp, grpclib.CallContentSubtype(CodecName))
	require.NoError(t, err)
	assert.InDelta(t, 0.5, resp.RiskScore, 1e-9)
	assert.Equal(t, "manual_review", resp.Recommendation)

	health, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, health.GetStatus())
}

func TestServer_RequiresTokenWhenJWTConfigured(t *testing.T) {
	jwtSvc, err := auth.NewJWTService(auth.JWTConfig{Secret: "test-secret-key-for-grpc", Issuer: "dokani"})
	require.NoError(t, err)

	lis := bufconn.Listen(1 << 20)
	srv := NewServer(buildTestHandler(), "bufnet", testLogger(), ServerOptions{JWT: jwtSvc})
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpclib.NewClient("passthrough:///bufnet",
		grpclib.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpclib.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	var resp GetProfileResponse
	err = conn.Invoke(context.Background(), "/"+ServiceName+"/GetProfile", &GetProfileRequest{
		CustomerEmail: "shopper@example.com",
		BusinessID:    "biz_0001",
	}, &resp, grpclib.CallContentSubtype(CodecName))
	requireGRPCCode(t, err, codes.Unauthenticated)

	_, err = healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
}
