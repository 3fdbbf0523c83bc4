// pkg/logger/logger.go

package logger

import (
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

var log *zap.Logger

// L returns the process logger, building the fallback logger on first use.
func L() *zap.Logger {
	if log == nil {
		SetLogger(NewFallbackLogger(""))
	}
	return log
}

// SetLogger installs l as the process logger and as the zap and otelzap
// globals, so otelzap.Ctx(ctx) resolves to it.
func SetLogger(l *zap.Logger) {
	log = l
	zap.ReplaceGlobals(l)
	otelzap.ReplaceGlobals(otelzap.New(l))
}

// Sync flushes any buffered log entries. Should be called before the application exits.
func Sync() {
	if log == nil {
		return
	}
	// stdout/stderr return EINVAL on some platforms; nothing useful to do with it.
	_ = log.Sync()
}
