package main

import (
	"context"
	"errors"
	"os"
	"time"

	"taxis/internal/amqp"
	"taxis/internal/cli"
	"taxis/internal/log"
	"taxis/internal/observability/metrics"
	"taxis/internal/services"
	"taxis/internal/sheets"
	gsheet "taxis/internal/sheets/google"
	"taxis/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentWorker)
	logger.Info("Starting taxis-worker", log.FieldOperation, log.OpStartup)

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the export worker")
		os.Exit(1)
	}
	metrics.Init()

	ctx := context.Background()
	store := cli.InitStore(ctx, logger, cfg)
	if store.Cleanup != nil {
		defer store.Cleanup()
	}

	reloader := services.NewReloadProcessor(store.Store, services.ReloadProcessorConfig{
		Path:         cfg.DataFile,
		PollInterval: cfg.ReloadInterval,
	})
	if err := cli.InitialLoad(ctx, logger, reloader, store.Store); err != nil {
		logger.Error("Initial data load failed", log.FieldError, err, log.FieldFile, cfg.DataFile)
		os.Exit(1)
	}

	var rollupSheet sheets.RollupWriter
	if cfg.SheetsEnabled() {
		client, err := gsheet.New(ctx, gsheet.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
			os.Exit(1)
		}
		rollupSheet = client
		logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	reports := services.NewReportService(store.Store, cfg.Columns)
	exports := services.NewExportService(reports, nil)
	exportWorker := worker.NewExportWorker(reports, exports, rollupSheet, cfg.ExportDir)

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if reloader.IsRunning() {
			if err := reloader.Stop(ctx); err != nil {
				logger.Error("Reload processor stop error", log.FieldError, err)
			}
		}
	})

	if cfg.ReloadInterval > 0 {
		if err := reloader.Start(shutdownCtx); err != nil {
			logger.Error("Failed to start reload processor", log.FieldError, err)
		}
	}

	err = amqpClient.ConsumeExportRequests(shutdownCtx, exportWorker.HandleExportRequest)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Worker shutdown complete")
}
