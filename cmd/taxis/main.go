package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"taxis/internal/amqp"
	"taxis/internal/cli"
	apphttp "taxis/internal/http"
	"taxis/internal/log"
	"taxis/internal/observability/metrics"
	"taxis/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)
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
		// The dashboard still starts; /readyz stays unavailable until a reload succeeds.
		logger.Error("Initial data load failed", log.FieldError, err, log.FieldFile, cfg.DataFile)
	}

	var publisher services.Publisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, export queue disabled", log.FieldError, err)
		} else {
			defer client.Close()
			publisher = client
			logger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	reports := services.NewReportService(store.Store, cfg.Columns)
	exports := services.NewExportService(reports, publisher)

	srv := apphttp.NewServer(apphttp.Options{
		Addr:      ":" + cfg.Port,
		Reports:   reports,
		Exports:   exports,
		Reloader:  reloader,
		Logger:    logger,
		CacheSize: cfg.CacheSize,
		CacheTTL:  cfg.CacheTTL,
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	if cfg.ReloadInterval > 0 {
		if err := reloader.Start(ctx); err != nil {
			logger.Error("Failed to start reload processor", log.FieldError, err)
		}
	}

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if reloader.IsRunning() {
			if err := reloader.Stop(ctx); err != nil {
				logger.Error("Reload processor stop error", log.FieldError, err)
			}
		}
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	})

	logger.Info("Starting taxis server", log.FieldOperation, log.OpStartup, "port", cfg.Port, "backend", cfg.DataBackend, log.FieldFile, cfg.DataFile)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Server stopped gracefully")
}
