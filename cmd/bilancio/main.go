package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"bilancio/internal/amqp"
	"bilancio/internal/cache"
	"bilancio/internal/cli"
	"bilancio/internal/config"
	"bilancio/internal/core"
	apphttp "bilancio/internal/http"
	"bilancio/internal/log"
	"bilancio/internal/services"
	"bilancio/internal/session"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig((*config.Config).ValidateWeb)
	logger := cli.SetupLogger(cfg.LogLevel, "web")

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)

	// Dashboard and series caches, invalidated per user on every write
	cacheManager := cache.NewManager(logger.WithComponent(log.ComponentCache).Slog())
	dashboards := cache.NewLRUCache[services.Dashboard](500, 5*time.Minute)
	series := cache.NewLRUCache[[]core.MonthTotal](500, 5*time.Minute)
	cacheManager.Register(dashboards)
	cacheManager.Register(series)
	cacheManager.StartCleanup(time.Minute)

	aggregator := services.NewAggregator(repo, time.Now).WithCache(dashboards, series)

	var (
		publisher  services.Publisher
		amqpClient *amqp.Client
	)
	if cfg.AMQPEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			// Change events are optional; the web app runs without them.
			logger.Warn("AMQP unavailable, change events disabled", log.FieldError, err)
		} else {
			amqpClient = client
			publisher = client
			logger.Info("AMQP publisher ready", "exchange", cfg.AMQPExchange)
		}
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	notifier := services.NewNotifier(publisher, aggregator, logger)
	sessions := session.NewManager(cfg.SessionSecret, cfg.SessionTTL, cfg.CookieSecure)

	srv, err := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Auth:         services.NewAuthService(repo, cfg.BcryptCost, logger),
		Categories:   services.NewCategoryService(repo, notifier, logger),
		Transactions: services.NewTransactionService(repo, notifier, logger),
		Aggregator:   aggregator,
		Sessions:     sessions,
		Ready:        repo.Ping,
		Logger:       logger,
	})
	if err != nil {
		logger.Error("Failed to initialize HTTP server", log.FieldError, err)
		os.Exit(1)
	}

	// Configure server timeouts and limits; exports need more than a page.
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Warn("AMQP close error", log.FieldError, err)
			}
		}
		cacheManager.Stop()
		if err := repo.Close(); err != nil {
			logger.Warn("Database close error", log.FieldError, err)
		}
	})

	logger.Info("Starting bilancio server", "port", cfg.Port, "amqp", cfg.AMQPEnabled())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
