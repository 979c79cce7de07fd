package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dokani/risk-service/internal/application/usecase"
	"github.com/dokani/risk-service/internal/domain/port"
	"github.com/dokani/risk-service/internal/domain/service"
	"github.com/dokani/risk-service/internal/infrastructure/config"
	riskkafka "github.com/dokani/risk-service/internal/infrastructure/kafka"
	"github.com/dokani/risk-service/internal/infrastructure/memory"
	"github.com/dokani/risk-service/internal/infrastructure/postgres"
	"github.com/dokani/risk-service/internal/infrastructure/telemetry"
	grpcpresentation "github.com/dokani/risk-service/internal/presentation/grpc"
	"github.com/dokani/risk-service/internal/presentation/rest"
	"github.com/dokani/risk-service/pkg/auth"
	pkgkafka "github.com/dokani/risk-service/pkg/kafka"
	"github.com/dokani/risk-service/pkg/observability"
	pkgpostgres "github.com/dokani/risk-service/pkg/postgres"
)

type stores struct {
	profiles port.ProfileRepository
	activity port.ReturnActivityQuery
	recorder port.ReturnActivityRecorder
	checks   map[string]rest.ReadinessCheck
	close    func()
}

func main() {
	if err := run(); err != nil {
		slog.Error("risk-service exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := observability.InitLogger(observability.LogConfig{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: cfg.ServiceName,
	})
	slog.SetDefault(logger)

	logger.Info("starting risk-service",
		"http_port", cfg.HTTPPort,
		"grpc_port", cfg.GRPCPort,
		"store", cfg.StoreDriver,
	)

	// Tracing is optional.
	if cfg.OTLPEndpoint != "" {
		shutdown, err := observability.InitTracer(ctx, observability.TracingConfig{
			ServiceName: cfg.ServiceName,
			Endpoint:    cfg.OTLPEndpoint,
			Insecure:    !cfg.IsProduction(),
		})
		if err != nil {
			logger.Warn("failed to initialize tracer, continuing without tracing", "error", err)
		} else {
			defer func() { _ = shutdown(context.Background()) }()
		}
	}

	meterProvider, metricsHandler, err := observability.InitMetrics(observability.MetricsConfig{
		ServiceName: cfg.ServiceName,
	})
	if err != nil {
		return err
	}
	defer func() { _ = meterProvider.Shutdown(context.Background()) }()

	riskMetrics, err := telemetry.NewRiskMetrics(meterProvider)
	if err != nil {
		return err
	}

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.close()

	// Event publishing.
	var publisher port.EventPublisher = riskkafka.NewLogPublisher(logger)
	if cfg.KafkaEnabled() {
		producer, err := pkgkafka.NewProducer(cfg.Kafka)
		if err != nil {
			return fmt.Errorf("kafka producer: %w", err)
		}
		defer func() { _ = producer.Close() }()
		publisher = riskkafka.NewBreakerPublisher(
			riskkafka.NewPublisher(producer, cfg.RiskEventsTopic, logger),
			riskkafka.BreakerSettings{
				FailureThreshold: uint32(cfg.BreakerFailures),
				OpenTimeout:      cfg.BreakerTimeout,
			},
			logger,
		)
	} else {
		logger.Warn("no kafka brokers configured, risk events will only be logged")
	}

	// Wire use cases.
	opts := []usecase.Option{
		usecase.WithLogger(logger),
		usecase.WithMetrics(riskMetrics),
		usecase.WithRecentWindow(cfg.RecentWindow),
	}
	calculateUC := usecase.NewCalculateRisk(st.profiles, st.activity, publisher, service.NewRiskScorer(), opts...)
	updateUC := usecase.NewUpdateProfile(st.profiles, publisher, opts...)
	profileUC := usecase.NewGetProfile(st.profiles)
	recordUC := usecase.NewRecordReturn(st.recorder, opts...)

	var jwtSvc *auth.JWTService
	if cfg.AuthEnabled() {
		jwtSvc, err = auth.NewJWTService(auth.JWTConfig{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer})
		if err != nil {
			return err
		}
	} else {
		logger.Warn("JWT_SECRET not set, authentication disabled")
	}

	// gRPC server.
	grpcHandler := grpcpresentation.NewRiskAssessmentHandler(calculateUC, updateUC, profileUC, logger)
	grpcServer := grpcpresentation.NewServer(grpcHandler, cfg.GRPCAddress(), logger, grpcpresentation.ServerOptions{
		JWT:        jwtSvc,
		Reflection: cfg.EnableReflection,
	})

	// HTTP server.
	router := rest.NewRouter(rest.RouterConfig{
		Risk:         rest.NewRiskHandler(calculateUC, updateUC, profileUC, logger),
		Health:       rest.NewHealthHandler(cfg.ServiceName, logger, st.checks),
		Metrics:      metricsHandler,
		JWT:          jwtSvc,
		Logger:       logger,
		RateLimitRPS: cfg.RateLimitRPS,
	})
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 3)

	go func() {
		if err := grpcServer.Start(); err != nil {
			errCh <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	go func() {
		logger.Info("HTTP server starting", "address", cfg.HTTPAddress())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	if cfg.KafkaEnabled() {
		intake := riskkafka.NewReturnIntakeHandler(recordUC, logger)
		consumer, err := pkgkafka.NewConsumer(cfg.Kafka, cfg.ReturnEventsTopic, intake.Handle, logger)
		if err != nil {
			return fmt.Errorf("kafka consumer: %w", err)
		}
		defer func() { _ = consumer.Close() }()

		go func() {
			if err := consumer.Start(ctx); err != nil {
				errCh <- fmt.Errorf("return intake consumer error: %w", err)
			}
		}()
	}

	logger.Info("risk-service started",
		"grpc_address", cfg.GRPCAddress(),
		"http_address", cfg.HTTPAddress(),
		"environment", cfg.Environment,
	)

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		logger.Error("server error", "error", err)
	}

	logger.Info("shutting down risk-service")
	cancel()

	grpcServer.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	logger.Info("risk-service stopped")
	return nil
}

func openStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*stores, error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		logger.Warn("using in-memory store, data is lost on restart")
		store := memory.NewStore()
		return &stores{
			profiles: store,
			activity: store,
			recorder: store,
			close:    func() {},
		}, nil
	}

	if err := pkgpostgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsDir); err != nil {
		return nil, err
	}

	dbCtx, dbCancel := context.WithTimeout(ctx, 10*time.Second)
	defer dbCancel()

	pool, err := pkgpostgres.NewPool(dbCtx, pkgpostgres.Config{URL: cfg.DatabaseURL})
	if err != nil {
		return nil, err
	}
	logger.Info("connected to database")

	returns := postgres.NewReturnActivityRepository(pool)
	return &stores{
		profiles: postgres.NewProfileRepository(pool),
		activity: returns,
		recorder: returns,
		checks: map[string]rest.ReadinessCheck{
			"postgres": func(ctx context.Context) error { return pkgpostgres.HealthCheck(ctx, pool) },
		},
		close: pool.Close,
	}, nil
}
