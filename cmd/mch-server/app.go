package main

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/Yamojr001/lip-sub002/internal/config"
	"github.com/Yamojr001/lip-sub002/internal/domain/child"
	"github.com/Yamojr001/lip-sub002/internal/domain/location"
	"github.com/Yamojr001/lip-sub002/internal/domain/patient"
	"github.com/Yamojr001/lip-sub002/internal/domain/statistics"
	"github.com/Yamojr001/lip-sub002/internal/platform/cache"
	"github.com/Yamojr001/lip-sub002/internal/platform/db"
	"github.com/Yamojr001/lip-sub002/internal/platform/metrics"
)

const metricsNamespace = "mch"

func newLogger(env string) zerolog.Logger {
	if env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// app holds the wired services shared by the server and the CLI commands.
type app struct {
	cfg     *config.Config
	logger  zerolog.Logger
	pool    *pgxpool.Pool
	cache   *cache.Cache
	metrics *metrics.Metrics

	locations  *location.Service
	patients   *patient.Service
	children   *child.Service
	statistics *statistics.Service
}

func loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, newLogger(os.Getenv("ENV")), err
	}
	logger := newLogger(cfg.Env)
	if err := cfg.Validate(); err != nil {
		return nil, logger, err
	}
	return cfg, logger, nil
}

func openPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	return db.NewPool(ctx, db.PoolConfig{
		DatabaseURL: cfg.DatabaseURL,
		MaxConns:    cfg.DBMaxConns,
		MinConns:    cfg.DBMinConns,
	})
}

// newApp connects to postgres and, when configured, redis, then wires the
// domain services. Writes to patients or children drop cached dashboards.
func newApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*app, error) {
	pool, err := openPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	logger.Info().Msg("connected to database")

	a := &app{cfg: cfg, logger: logger, pool: pool}
	if cfg.MetricsEnabled {
		a.metrics = metrics.New(metricsNamespace, prometheus.NewRegistry())
	}

	if cfg.CacheEnabled() {
		c, err := cache.New(ctx, cfg.RedisURL, cfg.StatsCacheTTL, logger)
		if err != nil {
			// Dashboards are still served, just computed on every request.
			logger.Warn().Err(err).Msg("stats cache unavailable, continuing without it")
		} else {
			if a.metrics != nil {
				c.WithMetrics(a.metrics)
			}
			a.cache = c
			logger.Info().Dur("ttl", cfg.StatsCacheTTL).Msg("stats cache enabled")
		}
	}

	a.locations = location.NewService(
		location.NewLGARepoPG(pool),
		location.NewWardRepoPG(pool),
		location.NewFacilityRepoPG(pool),
	)
	a.patients = patient.NewService(patient.NewRepoPG(pool), a.locations, db.PoolTransactor{Pool: pool})
	a.children = child.NewService(child.NewChildRepoPG(pool), child.NewNutritionRepoPG(pool), a.locations, a.patients)

	a.statistics = statistics.NewService(a.patients, a.children, a.locations, logger).
		WithWorkers(runtime.NumCPU())
	if a.cache != nil {
		a.statistics.WithCache(a.cache)
	}
	if a.metrics != nil {
		a.statistics.WithMetrics(a.metrics)
	}
	a.patients.OnChange(a.statistics.Invalidate)
	a.children.OnChange(a.statistics.Invalidate)

	return a, nil
}

func (a *app) Close() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("close cache")
		}
	}
	a.pool.Close()
}

func withApp(fn func(ctx context.Context, a *app) error) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	ctx := context.Background()
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}
