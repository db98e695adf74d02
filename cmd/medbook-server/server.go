package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/medbook/medbook/internal/config"
	"github.com/medbook/medbook/internal/domain/booking"
	"github.com/medbook/medbook/internal/domain/directory"
	"github.com/medbook/medbook/internal/domain/family"
	"github.com/medbook/medbook/internal/domain/scheduling"
	"github.com/medbook/medbook/internal/platform/api"
	"github.com/medbook/medbook/internal/platform/auth"
	"github.com/medbook/medbook/internal/platform/cache"
	"github.com/medbook/medbook/internal/platform/db"
	"github.com/medbook/medbook/internal/platform/middleware"
	"github.com/medbook/medbook/internal/platform/websocket"
)

const version = "0.1.0"

// newServer wires every domain onto a fresh echo instance. The returned
// cleanup releases the directory cache.
func newServer(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, logger zerolog.Logger) (*echo.Echo, func(), error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = api.ErrorHandler(logger)

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	jwt := auth.JWTMiddleware(auth.JWTConfig{
		Issuer:     cfg.JWTIssuer,
		SigningKey: []byte(cfg.JWTSecret),
		Skipper:    auth.AuthSkipper,
	})
	if cfg.IsDev() {
		e.Use(auth.DevAuthMiddleware(jwt))
	} else {
		e.Use(jwt)
	}

	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))
	e.Use(middleware.BodyLimit("1M"))
	e.Use(middleware.Audit(logger))

	apiV1 := e.Group("/api/v1")
	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	dirCache, cleanup, err := directoryCache(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	// Directory
	var dirRepo directory.Repository = directory.NewRepoPG(pool)
	if dirCache != nil {
		dirRepo = directory.NewCachedDirectory(dirRepo, dirCache, cfg.DirectoryCacheTTL, logger)
	}
	dirSvc := directory.NewService(dirRepo)
	directory.NewHandler(dirSvc).RegisterRoutes(apiV1)

	// Dependents
	familySvc := family.NewService(family.NewRepoPG(pool), logger)
	family.NewHandler(familySvc).RegisterRoutes(apiV1)

	// Slots
	slotSvc := scheduling.NewService(scheduling.NewRepoPG(pool), dirSvc, logger)
	scheduling.NewHandler(slotSvc).RegisterRoutes(apiV1)

	// Queue board
	hub := websocket.NewHub(logger)
	websocket.NewQueueBoardHandler(hub).RegisterRoutes(e)

	// Bookings
	bookingSvc := booking.NewService(booking.Deps{
		Repo:       booking.NewRepoPG(pool),
		Counter:    booking.NewQueueCounterPG(pool),
		Slots:      slotSvc,
		Doctors:    dirSvc,
		Dependents: familySvc,
		Tx:         db.NewTxManager(pool),
		Events:     hub,
		Codes:      booking.NewCodeGenerator(),
		Logger:     logger,
	}, booking.Options{
		QueuePrefix: cfg.QueuePrefix,
		DefaultFee:  cfg.DefaultFee,
	})
	booking.NewHandler(bookingSvc).RegisterRoutes(apiV1)

	return e, cleanup, nil
}

// directoryCache picks Redis when REDIS_URL is set, otherwise an in-process
// LRU. A size of 0 without Redis disables caching.
func directoryCache(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (cache.Cache, func(), error) {
	if cfg.RedisURL != "" {
		r, err := cache.NewRedis(ctx, cfg.RedisURL, "medbook:directory:")
		if err != nil {
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		logger.Info().Msg("directory cache: redis")
		return r, func() { _ = r.Close() }, nil
	}
	if cfg.DirectoryCacheLRU > 0 {
		logger.Info().Int("size", cfg.DirectoryCacheLRU).Msg("directory cache: in-process lru")
		return cache.NewLRU(cfg.DirectoryCacheLRU, cfg.DirectoryCacheTTL), func() {}, nil
	}
	return nil, func() {}, nil
}
