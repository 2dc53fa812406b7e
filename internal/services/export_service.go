package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"taxis/internal/amqp"
	"taxis/internal/core"
	"taxis/internal/export"
	"taxis/internal/log"
	"taxis/internal/observability/metrics"
)

// ErrQueueDisabled is returned by Enqueue when no broker is configured.
var ErrQueueDisabled = errors.New("export queue not configured")

// Publisher sends export requests to the worker.
type Publisher interface {
	PublishExportRequest(ctx context.Context, msg *amqp.ExportRequestMessage) error
}

// ExportService renders reports into documents, either inline, into a
// directory, or by handing the request to the export worker.
type ExportService struct {
	reports   *ReportService
	publisher Publisher
}

// NewExportService returns a service backed by reports. publisher may be nil.
func NewExportService(reports *ReportService, publisher Publisher) *ExportService {
	return &ExportService{
		reports:   reports,
		publisher: publisher,
	}
}

// QueueEnabled reports whether Enqueue can reach a worker.
func (s *ExportService) QueueEnabled() bool {
	return s.publisher != nil
}

// RenderReport writes the report for destination to w.
func (s *ExportService) RenderReport(ctx context.Context, destination string, f export.Format, w io.Writer) error {
	r, err := s.reports.ForDestination(ctx, destination)
	if err != nil {
		return err
	}
	return observeExport(f, func() error { return export.WriteReport(w, *r, f) })
}

// RenderGlobal writes the rollup to w.
func (s *ExportService) RenderGlobal(ctx context.Context, f export.Format, w io.Writer) error {
	if !f.SupportsGlobal() {
		return fmt.Errorf("%w: %q for global rollup", export.ErrUnsupportedFormat, f)
	}
	reports, err := s.reports.Rollup(ctx)
	if err != nil {
		return err
	}
	return observeExport(f, func() error { return export.WriteGlobal(w, reports, f) })
}

// SaveReport writes the report for destination into dir.
func (s *ExportService) SaveReport(ctx context.Context, dir, destination string, f export.Format) (string, error) {
	r, err := s.reports.ForDestination(ctx, destination)
	if err != nil {
		return "", err
	}
	var path string
	err = observeExport(f, func() error {
		var err error
		path, err = export.SaveReport(dir, *r, f)
		return err
	})
	if err != nil {
		return "", err
	}
	slog.InfoContext(ctx, "Report exported", log.FieldDestination, destination, log.FieldFormat, f, log.FieldFile, path)
	return path, nil
}

// SaveGlobal builds the rollup and writes it into dir.
func (s *ExportService) SaveGlobal(ctx context.Context, dir string, f export.Format) (string, error) {
	if !f.SupportsGlobal() {
		return "", fmt.Errorf("%w: %q for global rollup", export.ErrUnsupportedFormat, f)
	}
	reports, err := s.reports.Rollup(ctx)
	if err != nil {
		return "", err
	}
	return s.SaveRollup(ctx, dir, reports, f)
}

// SaveRollup writes an already built rollup into dir.
func (s *ExportService) SaveRollup(ctx context.Context, dir string, reports []core.Report, f export.Format) (string, error) {
	var path string
	err := observeExport(f, func() error {
		var err error
		path, err = export.SaveGlobal(dir, reports, f)
		return err
	})
	if err != nil {
		return "", err
	}
	slog.InfoContext(ctx, "Global report exported", log.FieldFormat, f, "destinations", len(reports), log.FieldFile, path)
	return path, nil
}

// Enqueue validates msg and publishes it for the export worker.
func (s *ExportService) Enqueue(ctx context.Context, msg *amqp.ExportRequestMessage) error {
	f, err := export.ParseFormat(msg.Format)
	if err != nil {
		return err
	}
	if msg.Scope == amqp.ScopeGlobal && !f.SupportsGlobal() {
		return fmt.Errorf("%w: %q for global rollup", export.ErrUnsupportedFormat, f)
	}
	if s.publisher == nil {
		slog.WarnContext(ctx, "AMQP client not available, dropping export request",
			log.FieldOperation, log.OpEnqueue, log.FieldScope, msg.Scope, log.FieldFormat, msg.Format)
		return ErrQueueDisabled
	}
	msg.Format = string(f)

	err = s.publisher.PublishExportRequest(ctx, msg)
	metrics.IncQueueMessage("publish", err)
	if err != nil {
		return fmt.Errorf("publish export request: %w", err)
	}
	return nil
}

func observeExport(f export.Format, render func() error) error {
	start := time.Now()
	err := render()
	metrics.ObserveExport(string(f), err, time.Since(start))
	return err
}
