package telemetry

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestInit_NoopWithoutFile(t *testing.T) {
	t.Setenv(EnvTelemetryFile, "")
	require.NoError(t, Init("salt-plugin-test"))

	_, span := Start(context.Background(), "noop")
	assert.False(t, span.IsRecording())
	span.End()
}

func TestInitWithWriter_ExportsSpans(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	var buf bytes.Buffer
	require.NoError(t, InitWithWriter("salt-plugin-test", &buf))
	t.Cleanup(func() { _ = Shutdown(context.Background()) })

	_, span := Start(context.Background(), "salt.ping", attribute.String("minion", "web1"))
	assert.True(t, span.IsRecording())
	span.End()

	require.NoError(t, Shutdown(context.Background()))
	assert.Contains(t, buf.String(), `"Name":"salt.ping"`)
	assert.Contains(t, buf.String(), "web1")
}

func TestAnonTelemetryID_Stable(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	first := AnonTelemetryID()
	assert.True(t, strings.HasPrefix(first, "anon-"))
	assert.Equal(t, first, AnonTelemetryID())
}

func TestTruncateArgs(t *testing.T) {
	assert.Equal(t, "salt ping web1", TruncateArgs([]string{"salt", "ping", "web1"}))

	long := TruncateArgs([]string{strings.Repeat("x", 300)})
	assert.Len(t, long, 259)
	assert.True(t, strings.HasSuffix(long, "..."))
}
