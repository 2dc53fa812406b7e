package log

import (
	"context"
	"log/slog"
	"net/http"
)

type ContextKey string

const LoggerContextKey ContextKey = "logger"

// Middleware stores logger in the request context.
func Middleware(logger *Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), LoggerContextKey, logger)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// FromContext extracts a logger from the request context, falling back to
// the default slog logger.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger
	}
	return &Logger{
		Logger:    slog.Default(),
		component: "unknown",
	}
}

// RequestIDMiddleware adds the request ID to the context logger
func RequestIDMiddleware(extractRequestID func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := extractRequestID(r)
			logger := FromContext(r.Context()).With(FieldRequestID, requestID)
			ctx := context.WithValue(r.Context(), LoggerContextKey, logger)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// StructuredLogger provides domain events on top of Logger
type StructuredLogger struct {
	logger *Logger
}

func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{logger: logger}
}

// LogReportBuilt logs a finished aggregation. destination is empty for the rollup.
func (sl *StructuredLogger) LogReportBuilt(ctx context.Context, destination string, trips int) {
	op := OpAggregate
	if destination == "" {
		op = OpRollup
	}
	fields := NewFields().
		WithReport(destination, trips).
		WithOperation(op)
	sl.logger.WithComponent(ComponentReport).InfoContext(ctx, "Report built", fields.ToSlice()...)
}

// LogExportWritten logs a rendered export.
func (sl *StructuredLogger) LogExportWritten(ctx context.Context, destination, format, file string, bytes int) {
	fields := NewFields().
		WithExport(format, file, bytes).
		WithOperation(OpExport)
	if destination != "" {
		fields[FieldDestination] = destination
	} else {
		fields[FieldScope] = "global"
	}
	sl.logger.WithComponent(ComponentExport).InfoContext(ctx, "Export written", fields.ToSlice()...)
}

// LogError logs an error with structured context
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, component string, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	allFields := fields.
		WithError(err).
		WithOperation(operation)
	sl.logger.WithComponent(component).ErrorContext(ctx, msg, allFields.ToSlice()...)
}
