// pkg/telemetry/telemetry.go
package telemetry

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	cerr "github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// EnvTelemetryFile enables span export; spans are appended to the named file as JSON lines.
const EnvTelemetryFile = "SALT_PLUGIN_TELEMETRY_FILE"

var (
	tracer   trace.Tracer = noop.NewTracerProvider().Tracer("salt-plugin")
	shutdown              = func(context.Context) error { return nil }
)

// Init configures OpenTelemetry; call this early in main().
// Without $SALT_PLUGIN_TELEMETRY_FILE a noop tracer is installed.
func Init(service string) error {
	path := os.Getenv(EnvTelemetryFile)
	if path == "" {
		tp := noop.NewTracerProvider()
		otel.SetTracerProvider(tp)
		tracer = tp.Tracer(service)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return cerr.Wrap(err, "failed to create telemetry directory")
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		return cerr.Wrap(err, "failed to open telemetry file")
	}
	return InitWithWriter(service, file)
}

// InitWithWriter exports spans synchronously to w.
func InitWithWriter(service string, w io.Writer) error {
	exp, err := stdouttrace.New(
		stdouttrace.WithWriter(w),
		stdouttrace.WithoutTimestamps(),
	)
	if err != nil {
		return cerr.Wrap(err, "failed to create file exporter")
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exp),
		sdktrace.WithResource(
			sdkresource.NewWithAttributes(
				semconv.SchemaURL,
				attribute.String("service.name", service),
				attribute.String("host.name", hostname()),
				attribute.String("service.instance.id", AnonTelemetryID()),
			),
		),
	)

	otel.SetTracerProvider(tp)
	tracer = tp.Tracer(service)
	shutdown = tp.Shutdown
	return nil
}

// Shutdown flushes and stops the tracer provider installed by Init.
func Shutdown(ctx context.Context) error {
	return shutdown(ctx)
}

// Start a telemetry span with optional attributes.
func Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func hostname() string {
	if h, err := os.Hostname(); err == nil {
		return h
	}
	return "unknown"
}

// TruncateArgs joins args for a span attribute, capped at 256 bytes.
func TruncateArgs(args []string) string {
	full := strings.Join(args, " ")
	if len(full) > 256 {
		return full[:256] + "..."
	}
	return full
}

// AnonTelemetryID returns a random per-user ID, created on first use.
func AnonTelemetryID() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "anon-" + uuid.New().String()
	}
	path := filepath.Join(home, ".salt-plugin", "telemetry_id")

	if data, err := os.ReadFile(path); err == nil {
		return strings.TrimSpace(string(data))
	}

	id := "anon-" + uuid.New().String()
	_ = os.MkdirAll(filepath.Dir(path), 0o700)
	_ = os.WriteFile(path, []byte(id), 0o600)

	return id
}
