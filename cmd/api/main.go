package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/formsink/formsink/internal/config"
	"github.com/formsink/formsink/internal/dashboard"
	"github.com/formsink/formsink/internal/logger"
	"github.com/formsink/formsink/internal/metrics"
	"github.com/formsink/formsink/internal/platform/postgres"
	"github.com/formsink/formsink/internal/platform/validation"
	"github.com/formsink/formsink/internal/submissions"
	tsvc "github.com/formsink/formsink/internal/tenants/service"
	"github.com/formsink/formsink/internal/tenants/source"
)

func main() {
	if handleCLICommand(os.Args[1:]) {
		return
	}

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.AppEnv)
	log.Info().Str("addr", cfg.AppAddr).Str("configs", cfg.ConfigDir).Msg("starting api server")

	// Operations database, used by healthz. Tenant stores are dialed lazily.
	pgCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid DATABASE_URL")
	}
	pgPool, err := pgxpool.NewWithConfig(context.Background(), pgCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("unable to create pg pool")
	}
	defer pgPool.Close()

	pools := postgres.NewPools()
	defer pools.Close()

	resolver := tsvc.New(source.NewDir(cfg.ConfigDir), log)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middlewares
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger())
	e.Use(middleware.Secure())
	e.Use(metrics.HTTPMiddleware())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		// Attach the service logger to the request context for log.Ctx users.
		return func(c echo.Context) error {
			req := c.Request()
			c.SetRequest(req.WithContext(log.WithContext(req.Context())))
			return next(c)
		}
	})

	// Validator
	e.Validator = validation.New()

	// Register domain routes via factories
	submissions.Register(e, resolver, pools, cfg, log)
	dashboard.Register(e, resolver, pools, cfg, log)

	// Health endpoint pings the operations DB
	e.GET("/healthz", func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 500*time.Millisecond)
		defer cancel()

		dbStatus := "ok"
		start := time.Now()
		if err := pgPool.Ping(ctx); err != nil {
			dbStatus = "down"
		}
		metrics.SetDBUp(dbStatus == "ok")
		metrics.ObserveDBPing(time.Since(start).Seconds())

		return c.JSON(http.StatusOK, map[string]any{
			"status": "ok",
			"time":   time.Now().UTC().Format(time.RFC3339),
			"db":     dbStatus,
		})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Start server
	go func() {
		if err := e.Start(cfg.AppAddr); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
	log.Info().Msg("server stopped")
}
