/* pkg/logger/fallback.go */

package logger

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewFallbackLogger logs to stderr only. An empty level falls back to $LOG_LEVEL.
func NewFallbackLogger(level string) *zap.Logger {
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(DefaultConsoleEncoderConfig()),
		zapcore.Lock(os.Stderr),
		ParseLogLevel(level),
	)
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
}

// InitializeWithFallback installs a logger writing human-readable lines to
// stderr and JSON lines to the first writable log file. Without a writable
// path it logs to stderr only.
func InitializeWithFallback(level string) {
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	lvl := ParseLogLevel(level)

	path, err := FindWritableLogPath()
	if err != nil {
		fmt.Fprintln(os.Stderr, "No writable log path found. Logging to console only.")
		SetLogger(NewFallbackLogger(level))
		return
	}

	writer, err := GetLogFileWriter(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Could not write to log file, logging to console only:", err)
		SetLogger(NewFallbackLogger(level))
		return
	}

	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewConsoleEncoder(DefaultConsoleEncoderConfig()), zapcore.Lock(os.Stderr), lvl),
		zapcore.NewCore(zapcore.NewJSONEncoder(defaultJSONEncoderConfig()), writer, lvl),
	)

	SetLogger(zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)))
	log.Debug("Logger initialized",
		zap.String("log_level", lvl.String()),
		zap.String("log_path", path),
	)
}
