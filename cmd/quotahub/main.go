package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/platinummonkey/quotahub/pkg/api"
	"github.com/platinummonkey/quotahub/pkg/auth"
	"github.com/platinummonkey/quotahub/pkg/config"
	"github.com/platinummonkey/quotahub/pkg/observability"
	"github.com/platinummonkey/quotahub/pkg/quota"
	"github.com/platinummonkey/quotahub/pkg/quota/quotacache"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)

	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Error("Server exited with error")
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *observability.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown := observability.NewShutdownManager(logger, cfg.Server.ShutdownTimeout)

	// Metrics
	registry := prometheus.NewRegistry()
	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(registry)
	}

	// Tracing
	if cfg.Observability.OTelEnabled {
		providers, err := observability.InitOTel(ctx, observability.OTelConfig{
			Enabled:        true,
			Endpoint:       cfg.Observability.OTelEndpoint,
			ServiceName:    cfg.Observability.OTelServiceName,
			ServiceVersion: cfg.Observability.OTelServiceVersion,
			Insecure:       cfg.Observability.OTelInsecure,
		}, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
		}
		shutdown.Register(func(ctx context.Context) error {
			return observability.ShutdownOTel(ctx, providers, logger)
		})
	}

	// Database
	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.Database.MaxConns)
	db.SetMaxIdleConns(cfg.Database.MinConns)
	db.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Database.Timeout)
	err = db.PingContext(pingCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	shutdown.Register(func(context.Context) error { return db.Close() })

	pgStore := quota.NewPostgresStore(db)
	if err := pgStore.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	logger.Info("Database connected, schema ready")

	var store quota.Store = pgStore
	if metrics != nil {
		registry.MustRegister(observability.NewDBStatsCollector(db))
		store = quota.NewMeteredStore(pgStore, "postgres", metrics)
	}

	// Optional Redis-backed read cache
	var redisClient *redis.Client
	if cfg.Cache.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisURL,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		shutdown.Register(func(context.Context) error { return redisClient.Close() })

		store = quotacache.New(store, quotacache.Options{
			TTL:       cfg.Cache.TTL,
			LocalSize: cfg.Cache.L1Size,
			Redis:     redisClient,
			Metrics:   metrics,
		})
		logger.WithField("redis", cfg.Cache.RedisURL).Info("Quota read cache enabled")
	}

	// Quota components
	defaults := cfg.Defaults()
	assembler := quota.NewAssembler(store, defaults)
	enforcer := quota.NewEnforcer(store, defaults)
	mutator := quota.NewMutator(store, defaults)

	identities := cfg.Identities()
	if len(identities) == 0 {
		logger.Warn("No API tokens configured, every request will be rejected")
	}
	resolver := auth.NewStaticResolver(identities)

	server := api.NewServer(api.ServerOptions{
		Assembler: assembler,
		Enforcer:  enforcer,
		Mutator:   mutator,
		Resolver:  resolver,
		Metrics:   metrics,
	})

	// Background window sweeper
	if cfg.Quota.SweepSchedule != "" {
		sweeper := cron.New()
		_, err := sweeper.AddFunc(cfg.Quota.SweepSchedule, func() {
			defer observability.RecoverPanic(logger, "quota sweep")
			sweepCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()

			now := time.Now()
			swept, err := store.SweepExpiredWindows(sweepCtx, now, now.Add(defaults.ResetPeriod))
			if err != nil {
				logger.WithError(err).Error("Quota sweep failed")
				return
			}
			if metrics != nil {
				metrics.SweptWindowsTotal.Add(float64(swept))
			}
			if swept > 0 {
				logger.WithField("windows", swept).Info("Rolled over expired quota windows")
			}
		})
		if err != nil {
			return fmt.Errorf("invalid sweep schedule %q: %w", cfg.Quota.SweepSchedule, err)
		}
		sweeper.Start()
		shutdown.Register(func(ctx context.Context) error {
			select {
			case <-sweeper.Stop().Done():
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		logger.WithField("schedule", cfg.Quota.SweepSchedule).Info("Quota sweeper started")
	}

	// Health and metrics server on a separate port for probes
	healthMux := http.NewServeMux()
	observability.RegisterHealthRoutes(healthMux, observability.NewHealthChecker(db, redisClient))
	if cfg.Observability.MetricsEnabled {
		observability.RegisterMetricsEndpoint(healthMux, registry)
	}

	apiServer := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      server,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	healthServer := &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.HealthPort,
		Handler: healthMux,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.WithField("addr", apiServer.Addr).Info("Starting API server")
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("API server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		logger.WithField("addr", healthServer.Addr).Info("Starting health server")
		if err := healthServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("health server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down")

		stopCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := apiServer.Shutdown(stopCtx); err != nil {
			logger.WithError(err).Error("API server shutdown failed")
		}
		if err := healthServer.Shutdown(stopCtx); err != nil {
			logger.WithError(err).Error("Health server shutdown failed")
		}
		return shutdown.Shutdown()
	})

	return g.Wait()
}
