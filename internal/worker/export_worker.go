package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"taxis/internal/amqp"
	"taxis/internal/export"
	"taxis/internal/log"
	"taxis/internal/observability/metrics"
	"taxis/internal/services"
	"taxis/internal/sheets"
)

// ExportWorker renders queued export requests into the export directory
// and, for the rollup, into the configured spreadsheet.
type ExportWorker struct {
	reports   *services.ReportService
	exports   *services.ExportService
	sheets    sheets.RollupWriter
	exportDir string
}

// NewExportWorker returns a worker writing files under exportDir.
// rollupSheet may be nil.
func NewExportWorker(reports *services.ReportService, exports *services.ExportService, rollupSheet sheets.RollupWriter, exportDir string) *ExportWorker {
	return &ExportWorker{
		reports:   reports,
		exports:   exports,
		sheets:    rollupSheet,
		exportDir: exportDir,
	}
}

// HandleExportRequest processes one export request from AMQP. Requests
// that can never succeed are reported with amqp.ErrInvalidMessage so they
// are not requeued.
func (w *ExportWorker) HandleExportRequest(ctx context.Context, msg *amqp.ExportRequestMessage) (err error) {
	defer func() { metrics.IncQueueMessage("consume", err) }()

	slog.InfoContext(ctx, "Processing export request",
		log.FieldScope, msg.Scope,
		log.FieldDestination, msg.Destination,
		log.FieldFormat, msg.Format,
		log.FieldRequestID, msg.RequestID)

	f, err := export.ParseFormat(msg.Format)
	if err != nil {
		return fmt.Errorf("%w: %v", amqp.ErrInvalidMessage, err)
	}

	switch msg.Scope {
	case amqp.ScopeDestination:
		return w.exportDestination(ctx, msg.Destination, f)
	case amqp.ScopeGlobal:
		if !f.SupportsGlobal() {
			return fmt.Errorf("%w: format %q has no global rendering", amqp.ErrInvalidMessage, f)
		}
		return w.exportGlobal(ctx, f)
	default:
		return fmt.Errorf("%w: unknown scope %q", amqp.ErrInvalidMessage, msg.Scope)
	}
}

func (w *ExportWorker) exportDestination(ctx context.Context, destination string, f export.Format) error {
	path, err := w.exports.SaveReport(ctx, w.exportDir, destination, f)
	if errors.Is(err, services.ErrNoData) {
		return fmt.Errorf("%w: %v", amqp.ErrInvalidMessage, err)
	}
	if err != nil {
		return fmt.Errorf("export %q: %w", destination, err)
	}
	slog.InfoContext(ctx, "Destination export written", log.FieldDestination, destination, log.FieldFile, path)
	return nil
}

// exportGlobal builds the rollup once and fans it out to the file and
// spreadsheet sinks.
func (w *ExportWorker) exportGlobal(ctx context.Context, f export.Format) error {
	reports, err := w.reports.Rollup(ctx)
	if err != nil {
		return fmt.Errorf("build rollup: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		path, err := w.exports.SaveRollup(gctx, w.exportDir, reports, f)
		if err != nil {
			return fmt.Errorf("write rollup file: %w", err)
		}
		slog.InfoContext(gctx, "Global export written", log.FieldFile, path, "destinations", len(reports))
		return nil
	})
	if w.sheets != nil {
		g.Go(func() error {
			if err := w.sheets.WriteGlobal(gctx, reports); err != nil {
				return fmt.Errorf("write rollup sheet: %w", err)
			}
			return nil
		})
	}
	return g.Wait()
}
