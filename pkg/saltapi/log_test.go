package saltapi_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/CodeMonkeyCybersecurity/salt-plugin/pkg/saltapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{in: "debug", want: zapcore.DebugLevel},
		{in: "INFO", want: zapcore.InfoLevel},
		{in: "warning", want: zapcore.WarnLevel},
		{in: "error", want: zapcore.ErrorLevel},
		{in: "critical", want: zapcore.ErrorLevel},
		{in: "trace", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := saltapi.ParseLogLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestManager_LogsAuthDataCovered(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	tests := []struct {
		name string
		show bool
	}{
		{name: "covered", show: false},
		{name: "shown", show: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			m, err := saltapi.New(saltapi.Config{
				APIURL:       server.URL,
				Logger:       zap.New(core),
				LogLevel:     "debug",
				ShowAuthData: tt.show,
			})
			require.NoError(t, err)

			_, _, err = m.LogIn(context.Background(), &saltapi.AuthData{EAuth: "pam", Username: "u", Password: "hunter2"}, nil)
			require.NoError(t, err)

			entries := logs.FilterMessage("log in: logging in").All()
			require.Len(t, entries, 1)
			assert.Equal(t, saltapi.LoggerName, entries[0].LoggerName)

			auth := entries[0].ContextMap()["auth_data"]
			if tt.show {
				assert.Equal(t, "hunter2", auth.(*saltapi.AuthData).Password)
			} else {
				assert.Equal(t, map[string]string{"eauth": "***", "username": "***", "password": "***"}, auth)
			}
		})
	}
}

func TestManager_LogLevelOverride(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	m, err := saltapi.New(saltapi.Config{
		APIURL:   "http://salt:8000",
		Logger:   zap.New(core),
		LogLevel: "critical",
	})
	require.NoError(t, err)

	require.Error(t, m.ClearToken(saltapi.Throw))
	require.NoError(t, m.ClearToken(saltapi.SilentlyIgnore))

	assert.Equal(t, 1, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
	assert.Zero(t, logs.FilterLevelExact(zapcore.WarnLevel).Len())
}

func TestManager_LogLevelOverrideAppliesToEveryTeedCore(t *testing.T) {
	infoCore, infoLogs := observer.New(zapcore.InfoLevel)
	debugCore, debugLogs := observer.New(zapcore.DebugLevel)
	m, err := saltapi.New(saltapi.Config{
		APIURL:   "http://127.0.0.1:1",
		Logger:   zap.New(zapcore.NewTee(infoCore, debugCore)),
		LogLevel: "debug",
	})
	require.NoError(t, err)

	resp, _, err := m.Call(context.Background(), saltapi.Command{Function: "test.ping"}, saltapi.DefaultAction, true)
	require.NoError(t, err)
	assert.False(t, resp.OK())

	assert.NotZero(t, debugLogs.FilterLevelExact(zapcore.DebugLevel).Len())
	assert.Equal(t, debugLogs.Len(), infoLogs.Len())
}
