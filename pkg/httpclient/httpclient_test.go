// pkg/httpclient/httpclient_test.go
package httpclient

import (
	"context"
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
		errMsg  string
	}{
		{
			name:   "default config",
			config: DefaultConfig(),
		},
		{
			name:   "nil config uses default",
			config: nil,
		},
		{
			name: "negative timeout",
			config: &Config{
				Timeout: -1 * time.Second,
			},
			wantErr: true,
			errMsg:  "Timeout",
		},
		{
			name: "insecure TLS for self-signed salt-api",
			config: &Config{
				TLSConfig: &TLSConfig{InsecureSkipVerify: true},
			},
		},
		{
			name: "with rate limiter",
			config: &Config{
				RateLimitConfig: &RateLimitConfig{RequestsPerSecond: 10, BurstSize: 5},
			},
		},
		{
			name: "invalid rate limit",
			config: &Config{
				RateLimitConfig: &RateLimitConfig{RequestsPerSecond: 0, BurstSize: 5},
			},
			wantErr: true,
			errMsg:  "RequestsPerSecond",
		},
		{
			name: "with invalid CA file",
			config: &Config{
				TLSConfig: &TLSConfig{RootCAFile: "/nonexistent/ca.pem"},
			},
			wantErr: true,
			errMsg:  "failed to build TLS config",
		},
		{
			name: "client cert without key",
			config: &Config{
				TLSConfig: &TLSConfig{ClientCertFile: "/tmp/cert.pem"},
			},
			wantErr: true,
			errMsg:  "must be set together",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.config)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				assert.Nil(t, client)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, client)
		})
	}
}

func TestMerge(t *testing.T) {
	var nilCfg *Config
	merged := nilCfg.Merge()
	assert.Equal(t, DefaultConfig().Timeout, merged.Timeout)

	cfg := &Config{
		Timeout:   3 * time.Second,
		Headers:   map[string]string{"X-Extra": "1"},
		TLSConfig: &TLSConfig{InsecureSkipVerify: true},
	}
	merged = cfg.Merge()
	assert.Equal(t, 3*time.Second, merged.Timeout)
	assert.Equal(t, "1", merged.Headers["X-Extra"])
	assert.True(t, merged.TLSConfig.InsecureSkipVerify)
	assert.Equal(t, uint16(tls.VersionTLS12), merged.TLSConfig.MinVersion)
	assert.NotNil(t, merged.PoolConfig)
	assert.Nil(t, merged.RateLimitConfig)
}

func TestClientSendsConfiguredHeaders(t *testing.T) {
	var gotUA, gotExtra, gotAccept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotExtra = r.Header.Get("X-Extra")
		gotAccept = r.Header.Get("Accept")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, err := NewClient(&Config{
		UserAgent: "test-agent",
		Headers:   map[string]string{"X-Extra": "extra", "Accept": "text/plain"},
	})
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	require.NoError(t, err)
	req.Header.Set("Accept", "application/x-yaml")

	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "test-agent", gotUA)
	assert.Equal(t, "extra", gotExtra)
	assert.Equal(t, "application/x-yaml", gotAccept, "request headers win over static headers")
}

func TestRateLimitedClient(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, err := NewClient(&Config{
		RateLimitConfig: &RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1},
	})
	require.NoError(t, err)

	// The first request consumes the burst; the second cannot be admitted
	// before the context deadline.
	req, _ := http.NewRequest(http.MethodGet, server.URL, nil)
	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req, _ = http.NewRequestWithContext(ctx, http.MethodGet, server.URL, nil)
	_, err = client.Do(req)
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))

	client.CloseIdleConnections()
}
