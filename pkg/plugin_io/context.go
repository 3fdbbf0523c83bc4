// pkg/plugin_io/context.go

package plugin_io

import (
	"context"
	"os"
	"runtime"
	"time"

	"github.com/CodeMonkeyCybersecurity/salt-plugin/pkg/logger"
	"github.com/CodeMonkeyCybersecurity/salt-plugin/pkg/plugin_err"
	"github.com/CodeMonkeyCybersecurity/salt-plugin/pkg/telemetry"
	cerr "github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Version is stamped at build time with -ldflags "-X ...plugin_io.Version=...".
var Version = "dev"

type RuntimeContext struct {
	Ctx        context.Context
	Log        *zap.Logger
	Timestamp  time.Time
	Span       trace.Span
	Command    string
	Component  string
	Attributes map[string]string

	cancel context.CancelFunc
}

// NewComponentContext starts a span for cmdName and derives a logger
// tagged with the component and the trace ID.
func NewComponentContext(parent context.Context, comp, cmdName string) *RuntimeContext {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	ctx, span := telemetry.Start(ctx, cmdName)

	log := logger.L().With(
		zap.String("component", comp),
		zap.String("action", cmdName),
		zap.String("trace_id", span.SpanContext().TraceID().String()),
	).Named(comp)

	return &RuntimeContext{
		Ctx:        ctx,
		Log:        log,
		Timestamp:  time.Now(),
		Span:       span,
		Command:    cmdName,
		Component:  comp,
		Attributes: make(map[string]string),
		cancel:     cancel,
	}
}

// HandlePanic recovers panics, logs them, and converts to an error.
func (rc *RuntimeContext) HandlePanic(errPtr *error) {
	if r := recover(); r != nil {
		*errPtr = cerr.AssertionFailedf("panic: %v", r)
		rc.Log.Error("panic recovered", zap.Any("panic", r))
	}
}

// End logs the outcome, records it on the span and releases the context.
func (rc *RuntimeContext) End(errPtr *error) {
	defer rc.cancel()
	defer rc.Span.End()

	var err error
	if errPtr != nil {
		err = *errPtr
	}
	duration := time.Since(rc.Timestamp)

	if err == nil {
		rc.Log.Info("Command completed", zap.Duration("duration", duration))
	} else {
		category, _ := plugin_err.CategoryOf(err)
		rc.Log.Error("Command failed",
			zap.Duration("duration", duration),
			zap.String("category", category.String()),
			zap.Error(err))
		rc.Span.RecordError(err)
	}

	attrs := []attribute.KeyValue{
		attribute.Bool("success", err == nil),
		attribute.Int64("duration_ms", duration.Milliseconds()),
		attribute.String("os", runtime.GOOS),
		attribute.String("version", Version),
		attribute.String("error_type", classifyError(err)),
	}
	if len(os.Args) > 1 {
		attrs = append(attrs, attribute.String("args", telemetry.TruncateArgs(os.Args[1:])))
	}
	for k, v := range rc.Attributes {
		attrs = append(attrs, attribute.String(k, v))
	}
	rc.Span.SetAttributes(attrs...)

	logger.Sync()
}

func classifyError(err error) string {
	switch {
	case err == nil:
		return ""
	case plugin_err.IsExpectedUserError(err):
		return "user"
	case plugin_err.IsRecoverable(err):
		return "recoverable"
	default:
		return "system"
	}
}
