package rest

import (
	"log/slog"
	"net/http"

	"github.com/dokani/risk-service/pkg/auth"
)

// RouterConfig collects what NewRouter wires together.
type RouterConfig struct {
	Risk         *RiskHandler
	Health       *HealthHandler
	Metrics      http.Handler
	JWT          *auth.JWTService
	Logger       *slog.Logger
	RateLimitRPS int
}

// publicPaths bypass authentication and rate limiting.
var publicPaths = []string{"/healthz", "/readyz", "/metrics"}

// NewRouter builds the HTTP handler: routes, then auth, rate limiting,
// logging and panic recovery from the inside out.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()
	cfg.Health.RegisterRoutes(mux)
	cfg.Risk.RegisterRoutes(mux)
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics)
	}

	var handler http.Handler = mux
	if cfg.JWT != nil {
		handler = auth.HTTPMiddleware(cfg.JWT, publicPaths)(handler)
	}
	if cfg.RateLimitRPS > 0 {
		limited := RateLimitMiddleware(NewRateLimiter(cfg.RateLimitRPS))(handler)
		handler = skipFor(publicPaths, handler, limited)
	}
	handler = LoggingMiddleware(cfg.Logger)(handler)
	return RecoveryMiddleware(cfg.Logger)(handler)
}

func skipFor(paths []string, plain, wrapped http.Handler) http.Handler {
	skip := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		skip[p] = struct{}{}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := skip[r.URL.Path]; ok {
			plain.ServeHTTP(w, r)
			return
		}
		wrapped.ServeHTTP(w, r)
	})
}
