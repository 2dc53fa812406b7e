// Package cli holds the start-up steps shared by cmd/taxis,
// cmd/taxis-worker and cmd/taxis-report.
package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"taxis/internal/backend"
	"taxis/internal/config"
	"taxis/internal/log"
	"taxis/internal/services"
	"taxis/internal/trips"
)

// SetupLogger builds the text logger for component at the given level and
// installs it as the slog default.
func SetupLogger(level, component string) *log.Logger {
	logger := log.New(log.Config{
		Level:     log.ParseLevel(level),
		Component: component,
		Output:    os.Stdout,
	})
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads the environment, applies the TAXIS_CONFIG
// overlay when set, and validates the result. Exits on failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if cfg.ConfigFile != "" {
		if err := cfg.ApplyFile(cfg.ConfigFile); err != nil {
			logger.Error("Failed to apply config file", log.FieldError, err, log.FieldFile, cfg.ConfigFile)
			os.Exit(1)
		}
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// InitStore creates the configured record store. Exits on failure.
func InitStore(ctx context.Context, logger *log.Logger, cfg *config.Config) *backend.Result {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize record store", log.FieldError, err, "backend", bcfg.Type)
		os.Exit(1)
	}
	return res
}

// snapshotInfo is implemented by stores that persist the snapshot.
type snapshotInfo interface {
	SnapshotInfo(ctx context.Context) (path string, loadedAt time.Time, records int64, ok bool, err error)
}

// InitialLoad loads the data file. A missing file is tolerated when the
// store already holds a snapshot (SQLite keeps the last one across restarts);
// that snapshot is then marked as loaded on reloader.
func InitialLoad(ctx context.Context, logger *log.Logger, reloader *services.ReloadProcessor, store trips.Reader) error {
	err := reloader.Reload(ctx)
	if err == nil || !errors.Is(err, trips.ErrNotFound) {
		return err
	}
	dests, derr := store.UniqueDestinations(ctx)
	if derr != nil || len(dests) == 0 {
		return err
	}

	var loadedAt time.Time
	records := -1
	if si, ok := store.(snapshotInfo); ok {
		if _, at, n, found, serr := si.SnapshotInfo(ctx); serr == nil && found {
			loadedAt, records = at, int(n)
		}
	}
	if records < 0 {
		all, aerr := store.AllRecords(ctx)
		if aerr != nil {
			return aerr
		}
		records = len(all)
	}
	reloader.MarkLoaded(loadedAt, records)

	logger.Warn("Data file missing, serving stored snapshot",
		log.FieldError, err,
		"destinations", len(dests),
		log.FieldRecords, records)
	return nil
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when shutdown is complete.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", log.FieldOperation, log.OpShutdown, "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		cancel()
		if cleanup != nil {
			cleanup(shutdownCtx)
		}

		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		} else {
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
