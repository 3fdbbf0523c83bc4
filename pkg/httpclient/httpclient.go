// pkg/httpclient/httpclient.go

package httpclient

import (
	"net"
	"net/http"

	cerr "github.com/cockroachdb/errors"
	"golang.org/x/time/rate"
)

// NewClient builds an *http.Client from session options.
// A nil config is treated as DefaultConfig.
func NewClient(config *Config) (*http.Client, error) {
	cfg := config.Merge()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	tlsConfig, err := buildTLSConfig(cfg.TLSConfig)
	if err != nil {
		return nil, cerr.Wrap(err, "failed to build TLS config")
	}

	pool := cfg.PoolConfig
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		TLSClientConfig:     tlsConfig,
		MaxIdleConns:        pool.MaxIdleConns,
		MaxIdleConnsPerHost: pool.MaxIdleConnsPerHost,
		IdleConnTimeout:     pool.IdleConnTimeout,
		DialContext: (&net.Dialer{
			Timeout:   pool.DialTimeout,
			KeepAlive: pool.KeepAlive,
		}).DialContext,
	}

	var rt http.RoundTripper = transport
	rt = &headerTransport{next: rt, userAgent: cfg.UserAgent, headers: cfg.Headers}
	if rl := cfg.RateLimitConfig; rl != nil {
		rt = &rateLimitedTransport{
			next:    rt,
			limiter: rate.NewLimiter(rate.Limit(rl.RequestsPerSecond), rl.BurstSize),
		}
	}

	return &http.Client{
		Timeout:   cfg.Timeout,
		Transport: rt,
	}, nil
}

// headerTransport adds the configured static headers to every request
type headerTransport struct {
	next      http.RoundTripper
	userAgent string
	headers   map[string]string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	if t.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", t.userAgent)
	}
	for k, v := range t.headers {
		if req.Header.Get(k) == "" {
			req.Header.Set(k, v)
		}
	}
	return t.next.RoundTrip(req)
}

// rateLimitedTransport blocks until the limiter admits the request
type rateLimitedTransport struct {
	next    http.RoundTripper
	limiter *rate.Limiter
}

func (t *rateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, cerr.Wrap(err, "rate limiter")
	}
	return t.next.RoundTrip(req)
}

// CloseIdleConnections forwards to the wrapped transport so that
// http.Client.CloseIdleConnections reaches the connection pool.
func (t *headerTransport) CloseIdleConnections() {
	if c, ok := t.next.(interface{ CloseIdleConnections() }); ok {
		c.CloseIdleConnections()
	}
}

func (t *rateLimitedTransport) CloseIdleConnections() {
	if c, ok := t.next.(interface{ CloseIdleConnections() }); ok {
		c.CloseIdleConnections()
	}
}
