package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"taxis/internal/amqp"
	"taxis/internal/export"
	"taxis/internal/log"
	"taxis/internal/middleware/trace"
	"taxis/internal/services"
)

// handleExportReport downloads one destination report.
func (s *Server) handleExportReport(w http.ResponseWriter, r *http.Request) {
	destination := strings.TrimSpace(r.URL.Query().Get("destination"))
	if destination == "" {
		http.Error(w, "missing destination", http.StatusBadRequest)
		return
	}
	f, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.download(w, r, destination, f, func(ctx context.Context, buf *bytes.Buffer) error {
		return s.exports.RenderReport(ctx, destination, f, buf)
	})
}

// handleExportGlobal downloads the rollup of every destination.
func (s *Server) handleExportGlobal(w http.ResponseWriter, r *http.Request) {
	f, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.download(w, r, "", f, func(ctx context.Context, buf *bytes.Buffer) error {
		return s.exports.RenderGlobal(ctx, f, buf)
	})
}

// download renders into a buffer first so failures still get a proper status.
func (s *Server) download(w http.ResponseWriter, r *http.Request, destination string, f export.Format, render func(context.Context, *bytes.Buffer) error) {
	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()

	var buf bytes.Buffer
	if err := render(ctx, &buf); err != nil {
		status := exportStatus(err)
		logger := log.FromContext(r.Context())
		if status >= http.StatusInternalServerError {
			logger.ErrorContext(r.Context(), "Export failed", log.FieldError, err,
				log.FieldDestination, destination, log.FieldFormat, f)
		} else {
			logger.WarnContext(r.Context(), "Export rejected", log.FieldError, err,
				log.FieldDestination, destination, log.FieldFormat, f)
		}
		http.Error(w, http.StatusText(status), status)
		return
	}

	name := export.FileName(destination, f)
	w.Header().Set("Content-Type", f.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func exportStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrNoData):
		return http.StatusNotFound
	case errors.Is(err, export.ErrUnsupportedFormat):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// handleQueueExport asks the worker to write an export. Without a
// destination the rollup is queued.
func (s *Server) handleQueueExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	format := r.URL.Query().Get("format")
	destination := strings.TrimSpace(r.URL.Query().Get("destination"))
	requestID := trace.GetRequestID(ctx)

	msg := amqp.NewGlobalExportRequest(format, requestID)
	if destination != "" {
		msg = amqp.NewDestinationExportRequest(destination, format, requestID)
	}

	err := s.exports.Enqueue(ctx, msg)
	switch {
	case err == nil:
	case errors.Is(err, services.ErrQueueDisabled):
		http.Error(w, "export queue not configured", http.StatusServiceUnavailable)
		return
	case errors.Is(err, export.ErrUnsupportedFormat), errors.Is(err, amqp.ErrInvalidMessage):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	default:
		log.FromContext(ctx).ErrorContext(ctx, "Enqueue export failed", log.FieldError, err, log.FieldFormat, format)
		http.Error(w, "could not queue export", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusAccepted)
	_, _ = w.Write([]byte(`<div class="success">Export queued (` + template.HTMLEscapeString(msg.Format) + `)</div>`))
}
