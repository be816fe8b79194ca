package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	httpapi "keystone/internal/http"
	jwttoken "keystone/internal/jwt_token"
	"keystone/internal/onboarding/events"
	"keystone/internal/onboarding/handler"
	onboardingmetrics "keystone/internal/onboarding/metrics"
	"keystone/internal/onboarding/models"
	"keystone/internal/onboarding/progress"
	"keystone/internal/onboarding/remote"
	"keystone/internal/onboarding/schema"
	"keystone/internal/onboarding/service"
	"keystone/internal/onboarding/store/state"
	"keystone/internal/onboarding/wizard"
	"keystone/internal/platform/config"
	"keystone/internal/platform/httpserver"
	"keystone/internal/platform/kafka"
	"keystone/internal/platform/logger"
	httpmetrics "keystone/internal/platform/metrics"
	"keystone/internal/platform/postgres"
	"keystone/internal/platform/ratelimit"
	"keystone/internal/platform/redis"
	"keystone/internal/platform/tracing"
)

const (
	topicPartitions  = 3
	topicReplication = 1
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing, cfg.Server.Environment)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Warn("tracer shutdown failed", "error", err)
		}
	}()

	checks := map[string]httpapi.HealthCheck{}
	backend, closeBackend, err := buildBackend(ctx, cfg, log, checks)
	if err != nil {
		return err
	}
	defer closeBackend()

	mode, err := progress.ParseMode(cfg.Progress.Mode)
	if err != nil {
		return err
	}
	synchronizer := progress.New(mode, progress.WithSectionsPerPhase(cfg.Progress.SectionsPerPhase))
	onboardingMetrics := onboardingmetrics.New(prometheus.DefaultRegisterer)

	var listener wizard.Listener
	producer, err := kafka.NewProducer(cfg.Kafka, log)
	if err != nil {
		return err
	}
	if producer != nil {
		defer kafka.Close(context.Background(), producer)
		if err := kafka.EnsureTopic(ctx, producer, cfg.Kafka.Topic, topicPartitions, topicReplication); err != nil {
			log.Warn("could not ensure progress topic", "topic", cfg.Kafka.Topic, "error", err)
		}
		publisher := events.New(producer, cfg.Kafka.Topic,
			events.WithLogger(log),
			events.WithMetrics(onboardingMetrics),
		)
		listener = publisher.Listener()
		checks["kafka"] = producer.Ping
	}

	catalog, err := schema.NewCatalog()
	if err != nil {
		return fmt.Errorf("load schemas: %w", err)
	}
	registries := wizard.Registries{}
	for _, role := range models.Roles() {
		sch, err := catalog.Get(role)
		if err != nil {
			return err
		}
		registries[role] = wizard.NewRegistry(role, sch, backend,
			wizard.WithStoreOptions(wizard.WithSynchronizer(synchronizer), wizard.WithLogger(log)),
			wizard.WithListener(listener),
			wizard.WithRegistryLogger(log),
		)
	}

	remoteClient := remote.New(cfg.Remote.URL,
		remote.WithTimeout(cfg.Remote.Timeout),
		remote.WithLogger(log),
	)
	svc := service.New(registries, remoteClient,
		service.WithMetrics(onboardingMetrics),
		service.WithLogger(log),
	)

	var limiter *ratelimit.Window
	if cfg.RateLimit.Enabled() {
		limiter = ratelimit.NewWindow(cfg.RateLimit.Requests, cfg.RateLimit.Window)
		go limiter.SweepEvery(ctx, cfg.RateLimit.Window)
	}

	router := httpapi.NewRouter(httpapi.Options{
		Logger:         log,
		Metrics:        httpmetrics.New(prometheus.DefaultRegisterer),
		Identity:       jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.JWTIssuer, cfg.Auth.JWTAudience),
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		RequestTimeout: cfg.Server.RequestTimeout,
		RateLimit:      limiter,
		HealthChecks:   checks,
	}, handler.New(svc, log))

	log.Info("starting onboarding service",
		"addr", cfg.Server.Addr,
		"environment", cfg.Server.Environment,
		"state_backend", cfg.State.Backend,
		"progress_mode", mode,
		"events", producer != nil,
	)
	return httpserver.Serve(ctx, httpserver.New(cfg.Server.Addr, router), cfg.Server.ShutdownTimeout, log)
}

// buildBackend opens the configured state backend and registers its health
// check.
func buildBackend(ctx context.Context, cfg config.Config, log *slog.Logger, checks map[string]httpapi.HealthCheck) (state.Store, func(), error) {
	switch cfg.State.Backend {
	case config.BackendRedis:
		client, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		checks["redis"] = client.Health
		return state.NewRedis(client.Client, state.WithTTL(cfg.State.TTL)), func() { _ = client.Close() }, nil
	case config.BackendPostgres:
		db, err := postgres.Open(ctx, cfg.Postgres)
		if err != nil {
			return nil, nil, err
		}
		if err := postgres.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		checks["postgres"] = db.PingContext
		return state.NewPostgres(db), closeDB(db, log), nil
	default:
		return state.NewInMemory(), func() {}, nil
	}
}

func closeDB(db *sql.DB, log *slog.Logger) func() {
	return func() {
		if err := db.Close(); err != nil {
			log.Warn("closing database", "error", err)
		}
	}
}
