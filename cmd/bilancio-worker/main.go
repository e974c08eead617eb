package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"bilancio/internal/amqp"
	"bilancio/internal/cli"
	"bilancio/internal/config"
	"bilancio/internal/log"
	"bilancio/internal/services"
	"bilancio/internal/sheets"
	gsheet "bilancio/internal/sheets/google"
	mem "bilancio/internal/sheets/memory"
	"bilancio/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig((*config.Config).ValidateWorker)
	logger := cli.SetupLogger(cfg.LogLevel, "worker")

	logger.Info("Starting bilancio-worker")

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)

	// Uncached: every event must see the rows just committed.
	aggregator := services.NewAggregator(repo, time.Now)

	var writer sheets.StatementWriter
	if cfg.SheetsEnabled() {
		creds, err := cfg.ServiceAccountJSON()
		if err != nil {
			logger.Error("Failed to load Google credentials", log.FieldError, err)
			os.Exit(1)
		}
		client, err := gsheet.New(context.Background(), cfg.GoogleSpreadsheetID, creds, logger)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
			os.Exit(1)
		}
		writer = client
		logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		writer = mem.New()
		logger.Info("Google Sheets disabled - mirroring to memory")
	}

	var amqpClient *amqp.Client
	if cfg.AMQPEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		amqpClient = client
	} else {
		logger.Info("AMQP disabled - relying on periodic resync only")
	}

	mirror := worker.NewMirrorWorker(aggregator, repo, writer, logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) {
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Warn("AMQP close error", log.FieldError, err)
			}
		}
	})

	g, gctx := errgroup.WithContext(ctx)
	if amqpClient != nil {
		g.Go(func() error {
			return amqpClient.ConsumeChanges(gctx, mirror.HandleChange)
		})
	}
	g.Go(func() error {
		mirror.RunPeriodic(gctx, cfg.SyncInterval)
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
		_ = repo.Close()
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	if err := repo.Close(); err != nil {
		logger.Warn("Database close error", log.FieldError, err)
	}
	logger.Info("Worker stopped")
}
