package logger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLogLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"":         zapcore.InfoLevel,
		"debug":    zapcore.DebugLevel,
		"TRACE":    zapcore.DebugLevel,
		"warning":  zapcore.WarnLevel,
		"WARN":     zapcore.WarnLevel,
		"critical": zapcore.ErrorLevel,
		"error":    zapcore.ErrorLevel,
		"nonsense": zapcore.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLogLevel(in), "level %q", in)
	}
}

func TestFindWritableLogPath_Override(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "plugin.log")
	t.Setenv(LogPathEnv, path)

	got, err := FindWritableLogPath()
	require.NoError(t, err)
	assert.Equal(t, path, got)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestInitializeWithFallback_WritesJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plugin.log")
	t.Setenv(LogPathEnv, path)

	prev := log
	t.Cleanup(func() {
		if prev != nil {
			SetLogger(prev)
		}
	})

	InitializeWithFallback("info")
	L().Info("hello from test", zap.String("minion", "web1"))
	Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello from test"`)
	assert.Contains(t, string(data), `"minion":"web1"`)
}

func TestSetLogger_ReplacesGlobals(t *testing.T) {
	prev := log
	t.Cleanup(func() {
		if prev != nil {
			SetLogger(prev)
		}
	})

	core, logs := observer.New(zapcore.InfoLevel)
	SetLogger(zap.New(core))

	zap.L().Info("via zap")
	otelzap.Ctx(context.Background()).Info("via otelzap")

	assert.Equal(t, 1, logs.FilterMessage("via zap").Len())
	assert.Equal(t, 1, logs.FilterMessage("via otelzap").Len())
}
