// Package app wires the service together and owns its lifecycle.
package app

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

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/astrozeneka/review-dashboard-flex-living/internal/auth"
	"github.com/astrozeneka/review-dashboard-flex-living/internal/cache"
	"github.com/astrozeneka/review-dashboard-flex-living/internal/config"
	"github.com/astrozeneka/review-dashboard-flex-living/internal/event"
	handlerhttp "github.com/astrozeneka/review-dashboard-flex-living/internal/handler/http"
	"github.com/astrozeneka/review-dashboard-flex-living/internal/hostaway"
	"github.com/astrozeneka/review-dashboard-flex-living/internal/places"
	"github.com/astrozeneka/review-dashboard-flex-living/internal/repository/postgres"
	"github.com/astrozeneka/review-dashboard-flex-living/internal/service"
	"github.com/astrozeneka/review-dashboard-flex-living/migrations"
	"github.com/astrozeneka/review-dashboard-flex-living/pkg/database"
	"github.com/astrozeneka/review-dashboard-flex-living/pkg/health"
	"github.com/astrozeneka/review-dashboard-flex-living/pkg/kafka"
	"github.com/astrozeneka/review-dashboard-flex-living/pkg/middleware"
	"github.com/astrozeneka/review-dashboard-flex-living/pkg/tracing"
)

// App is the assembled service.
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	pool           *pgxpool.Pool
	redisClient    *redis.Client
	producer       *kafka.Producer
	tracerShutdown func(context.Context) error
	server         *http.Server
}

// New builds the application: database, cache, broker, clients, services,
// and the HTTP server. Redis and Kafka are optional; the dashboard degrades
// to uncached, event-less operation without them.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{cfg: cfg, logger: logger}

	pgCfg := cfg.Postgres()
	pool, err := database.NewPostgresPoolWithLogger(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	a.pool = pool
	database.RegisterPoolMetrics(pool, cfg.ServiceName)

	if err := database.RunMigrations(ctx, pool, migrations.Files, logger); err != nil {
		a.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	if cfg.RedisEnabled {
		client, err := database.NewRedisClient(ctx, cfg.Redis())
		if err != nil {
			logger.Warn("redis unavailable, stats caching disabled", slog.String("error", err.Error()))
		} else {
			a.redisClient = client
		}
	}

	if cfg.KafkaEnabled {
		a.producer = kafka.NewProducer(kafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
	}

	shutdown, err := tracing.InitTracer(ctx, cfg.Tracing())
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	a.tracerShutdown = shutdown

	reviewRepo := postgres.NewReviewRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	mappingRepo := postgres.NewMappingRepository(pool)

	statsCache := cache.NewStatsCache(a.redisClient, cfg.StatsCacheTTL)
	publisher := event.NewPublisher(a.producer, logger)

	hostawayClient := hostaway.NewClient(cfg.Hostaway, logger)
	placesClient := places.NewClient(cfg.Places, logger)

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiry)

	reviewSvc := service.NewReviewService(reviewRepo, statsCache, publisher, logger)
	userSvc := service.NewUserService(userRepo, jwtManager)
	listingSvc := service.NewListingService(hostawayClient, reviewRepo, reviewSvc, logger)
	syncSvc := service.NewSyncService(mappingRepo, reviewRepo, placesClient, statsCache, publisher, logger)

	healthHandler := health.NewHandler()
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	if a.redisClient != nil {
		healthHandler.Register("redis", func(ctx context.Context) error {
			return a.redisClient.Ping(ctx).Err()
		})
	}
	if a.producer != nil {
		healthHandler.Register("kafka", a.producer.Ping)
	}

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.CORSOrigins
	corsCfg.Environment = cfg.Environment

	router := handlerhttp.NewRouter(handlerhttp.RouterConfig{
		Logger:         logger,
		ServiceName:    cfg.ServiceName,
		CORS:           corsCfg,
		TokenValidator: auth.NewTokenValidator(jwtManager, userSvc),
		Reviews:        handlerhttp.NewReviewHandler(reviewSvc, logger),
		Users:          handlerhttp.NewUserHandler(userSvc, logger),
		Listings:       handlerhttp.NewListingHandler(listingSvc, reviewSvc, logger),
		Sync:           handlerhttp.NewSyncHandler(syncSvc, logger),
		Health:         healthHandler,
	})

	a.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return a, nil
}

// Run starts the HTTP server and blocks until SIGINT/SIGTERM or a fatal
// server error, then shuts down in dependency order: HTTP first so no new
// work arrives, then tracer flush, broker, and finally the pool.
func (a *App) Run() error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", slog.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case sig := <-stop:
		a.logger.Info("shutting down", slog.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		a.logger.Error("http shutdown failed", slog.String("error", err.Error()))
	}

	a.Close()
	return nil
}

// Close releases all resources. Safe to call more than once.
func (a *App) Close() {
	if a.tracerShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.tracerShutdown(ctx); err != nil {
			a.logger.Warn("tracer shutdown failed", slog.String("error", err.Error()))
		}
		cancel()
		a.tracerShutdown = nil
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Warn("kafka producer close failed", slog.String("error", err.Error()))
		}
		a.producer = nil
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("redis close failed", slog.String("error", err.Error()))
		}
		a.redisClient = nil
	}
	if a.pool != nil {
		a.pool.Close()
		a.pool = nil
	}
}
