package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/Yamojr001/lip-sub002/internal/domain/child"
	"github.com/Yamojr001/lip-sub002/internal/domain/location"
	"github.com/Yamojr001/lip-sub002/internal/domain/patient"
	"github.com/Yamojr001/lip-sub002/internal/domain/statistics"
	"github.com/Yamojr001/lip-sub002/internal/export"
	"github.com/Yamojr001/lip-sub002/internal/platform/auth"
	"github.com/Yamojr001/lip-sub002/internal/platform/db"
	"github.com/Yamojr001/lip-sub002/internal/platform/jobs"
	"github.com/Yamojr001/lip-sub002/internal/platform/middleware"
	"github.com/Yamojr001/lip-sub002/internal/platform/sandbox"
)

const (
	requestTimeout = 30 * time.Second
	warmTimeout    = 2 * time.Minute
	poolStatsEvery = 15 * time.Second
)

func runServer() error {
	cfg, logger, err := loadConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.IsDev() {
		logger.Warn().Msg("development mode: requests without a token run as admin")
	}

	ctx := context.Background()
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to start")
	}
	defer a.Close()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.SecurityHeaders(!cfg.IsDev()))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))
	if a.metrics != nil {
		e.Use(middleware.Metrics(a.metrics))
	}

	// Auth middleware
	jwtCfg := auth.JWTConfig{
		Issuer:   cfg.AuthIssuer,
		Audience: cfg.AuthAudience,
		JWKSURL:  cfg.AuthJWKSURL,
		Skipper:  auth.AuthSkipper,
	}
	if cfg.AuthSigningKey != "" {
		jwtCfg.SigningKey = []byte(cfg.AuthSigningKey)
	}
	if cfg.IsDev() {
		e.Use(auth.DevAuthMiddleware(jwtCfg))
	} else {
		e.Use(auth.JWTMiddleware(jwtCfg))
	}

	// Public endpoints
	checks := map[string]db.Check{}
	if a.cache != nil {
		checks["redis"] = a.cache.Health
	}
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/health/ready", db.HealthHandler(a.pool, checks))
	if a.metrics != nil {
		e.GET("/metrics", echo.WrapHandler(a.metrics.Handler()))
	}

	apiV1 := e.Group("/api/v1")
	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
		IdleTTL:           10 * time.Minute,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))
	apiV1.Use(middleware.RequestTimeout(requestTimeout, "/api/v1/export/"))
	var auditors []middleware.AuditRecorder
	if a.metrics != nil {
		auditors = append(auditors, middleware.MetricsAuditRecorder(a.metrics))
	}
	apiV1.Use(middleware.Audit(logger, auditors...))

	location.NewHandler(a.locations).RegisterRoutes(apiV1)
	patient.NewHandler(a.patients).RegisterRoutes(apiV1)
	child.NewHandler(a.children).RegisterRoutes(apiV1)
	statistics.NewHandler(a.statistics).RegisterRoutes(apiV1)
	export.NewHandler(a.patients, logger).RegisterRoutes(apiV1)
	if cfg.IsDev() {
		sandbox.NewSeedHandler(a.locations, a.patients, a.children, logger).RegisterRoutes(apiV1)
	}

	// Background work
	stop := make(chan struct{})
	defer close(stop)
	if a.metrics != nil {
		go reportPoolStats(a, stop)
	}
	if a.cache != nil && cfg.StatsWarmSchedule != "" {
		warmer, err := jobs.NewWarmer(cfg.StatsWarmSchedule, a.statistics, warmTimeout, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to schedule stats warming")
		}
		if a.metrics != nil {
			warmer.WithMetrics(a.metrics)
		}
		warmer.Start()
		defer warmer.Stop()
	}

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

func reportPoolStats(a *app, stop <-chan struct{}) {
	t := time.NewTicker(poolStatsEvery)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			s := a.pool.Stat()
			a.metrics.UpdateDBStats(s.IdleConns(), s.AcquiredConns(), s.TotalConns())
		}
	}
}
