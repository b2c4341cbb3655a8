// Package observability configures the process-wide logging pipeline.
//
// Logs always go to stderr through a slog text or JSON handler. When an
// OpenTelemetry log exporter is configured through the standard OTEL_*
// environment variables, records are additionally bridged into an OTLP
// pipeline so a collector can pick them up.
package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/contrib/processors/minsev"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

const instrumentationName = "github.com/calebmarchent/vagrant"

// Instrument installs the default slog handler for the given level and
// format ("text" or "json"), bridging into OpenTelemetry when an exporter is
// configured in the environment.
func Instrument(level slog.Level, format string) error {
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch format {
	case "", "text":
		handler = slog.NewTextHandler(os.Stderr, opts)
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	default:
		return fmt.Errorf("unsupported log format: %s", format)
	}

	exporter, err := newLogExporter(context.Background())
	if err != nil {
		return fmt.Errorf("failed to create log exporter: %w", err)
	}

	if exporter != nil {
		// Simple (synchronous) processor: the process is a short-lived CLI,
		// so records must be exported before exit without an explicit flush.
		provider := sdklog.NewLoggerProvider(
			sdklog.WithProcessor(minsev.NewLogProcessor(sdklog.NewSimpleProcessor(exporter), minSeverity(level))),
		)
		global.SetLoggerProvider(provider)

		handler = newTeeHandler(handler, otelslog.NewHandler(instrumentationName, otelslog.WithLoggerProvider(provider)))
	}

	slog.SetDefault(slog.New(handler))
	return nil
}

// newLogExporter selects a log exporter from the environment. Returns nil
// when none is configured.
func newLogExporter(ctx context.Context) (sdklog.Exporter, error) {
	if os.Getenv("OTEL_LOG_EXPORTER") == "stdout" {
		return stdoutlog.New()
	}

	if os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") == "" {
		return nil, nil
	}

	if os.Getenv("OTEL_EXPORTER_OTLP_PROTOCOL") == "grpc" {
		return otlploggrpc.New(ctx)
	}
	return otlploghttp.New(ctx)
}

// minSeverity maps a slog level to the minimum OpenTelemetry severity
// forwarded to the exporter.
func minSeverity(level slog.Level) minsev.Severity {
	switch {
	case level <= slog.LevelDebug:
		return minsev.SeverityDebug
	case level <= slog.LevelInfo:
		return minsev.SeverityInfo
	case level <= slog.LevelWarn:
		return minsev.SeverityWarn
	default:
		return minsev.SeverityError
	}
}

// teeHandler fans records out to multiple handlers.
type teeHandler struct {
	handlers []slog.Handler
}

// Compile-time check that teeHandler implements slog.Handler.
var _ slog.Handler = (*teeHandler)(nil)

func newTeeHandler(handlers ...slog.Handler) *teeHandler {
	return &teeHandler{handlers: handlers}
}

func (t *teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range t.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (t *teeHandler) Handle(ctx context.Context, record slog.Record) error {
	var errs []error
	for _, h := range t.handlers {
		if !h.Enabled(ctx, record.Level) {
			continue
		}
		if err := h.Handle(ctx, record.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (t *teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(t.handlers))
	for i, h := range t.handlers {
		handlers[i] = h.WithAttrs(attrs)
	}
	return &teeHandler{handlers: handlers}
}

func (t *teeHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(t.handlers))
	for i, h := range t.handlers {
		handlers[i] = h.WithGroup(name)
	}
	return &teeHandler{handlers: handlers}
}
