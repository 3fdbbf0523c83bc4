package httpclient

import (
	"crypto/tls"
	"fmt"
	"time"
)

// Config represents HTTP session options for talking to salt-api
type Config struct {
	Timeout   time.Duration     `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
	UserAgent string            `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
	Headers   map[string]string `json:"headers" yaml:"headers" mapstructure:"headers"`

	// TLS configuration
	TLSConfig *TLSConfig `json:"tls" yaml:"tls" mapstructure:"tls"`

	// Rate limiting configuration
	RateLimitConfig *RateLimitConfig `json:"rate_limit" yaml:"rate_limit" mapstructure:"rate_limit"`

	// Connection pool configuration
	PoolConfig *PoolConfig `json:"pool" yaml:"pool" mapstructure:"pool"`
}

// TLSConfig defines TLS security settings
type TLSConfig struct {
	InsecureSkipVerify bool   `json:"insecure_skip_verify" yaml:"insecure_skip_verify" mapstructure:"insecure_skip_verify"`
	MinVersion         uint16 `json:"min_version" yaml:"min_version" mapstructure:"min_version"`
	RootCAFile         string `json:"root_ca_file" yaml:"root_ca_file" mapstructure:"root_ca_file"`
	ClientCertFile     string `json:"client_cert_file" yaml:"client_cert_file" mapstructure:"client_cert_file"`
	ClientKeyFile      string `json:"client_key_file" yaml:"client_key_file" mapstructure:"client_key_file"`
}

// RateLimitConfig defines rate limiting behavior. A nil config disables limiting.
type RateLimitConfig struct {
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `json:"burst_size" yaml:"burst_size" mapstructure:"burst_size"`
}

// PoolConfig defines connection pool settings
type PoolConfig struct {
	MaxIdleConns        int           `json:"max_idle_conns" yaml:"max_idle_conns" mapstructure:"max_idle_conns"`
	MaxIdleConnsPerHost int           `json:"max_idle_conns_per_host" yaml:"max_idle_conns_per_host" mapstructure:"max_idle_conns_per_host"`
	IdleConnTimeout     time.Duration `json:"idle_conn_timeout" yaml:"idle_conn_timeout" mapstructure:"idle_conn_timeout"`
	DialTimeout         time.Duration `json:"dial_timeout" yaml:"dial_timeout" mapstructure:"dial_timeout"`
	KeepAlive           time.Duration `json:"keep_alive" yaml:"keep_alive" mapstructure:"keep_alive"`
}

// DefaultConfig returns a secure default configuration
func DefaultConfig() *Config {
	return &Config{
		Timeout:   30 * time.Second,
		UserAgent: "salt-plugin/1.0",
		Headers:   make(map[string]string),

		TLSConfig: &TLSConfig{
			InsecureSkipVerify: false,
			MinVersion:         tls.VersionTLS12,
		},

		PoolConfig: &PoolConfig{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 2,
			IdleConnTimeout:     90 * time.Second,
			DialTimeout:         5 * time.Second,
			KeepAlive:           30 * time.Second,
		},
	}
}

// Merge returns a copy of DefaultConfig with every non-zero field of c applied.
// A nil receiver yields the defaults.
func (c *Config) Merge() *Config {
	out := DefaultConfig()
	if c == nil {
		return out
	}
	if c.Timeout != 0 {
		out.Timeout = c.Timeout
	}
	if c.UserAgent != "" {
		out.UserAgent = c.UserAgent
	}
	for k, v := range c.Headers {
		out.Headers[k] = v
	}
	if c.TLSConfig != nil {
		tlsCfg := *c.TLSConfig
		if tlsCfg.MinVersion == 0 {
			tlsCfg.MinVersion = out.TLSConfig.MinVersion
		}
		out.TLSConfig = &tlsCfg
	}
	if c.RateLimitConfig != nil {
		rl := *c.RateLimitConfig
		out.RateLimitConfig = &rl
	}
	if c.PoolConfig != nil {
		pool := *c.PoolConfig
		out.PoolConfig = &pool
	}
	return out
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return &ConfigError{Field: "Timeout", Message: "must be positive"}
	}

	if c.RateLimitConfig != nil {
		if c.RateLimitConfig.RequestsPerSecond <= 0 {
			return &ConfigError{Field: "RateLimitConfig.RequestsPerSecond", Message: "must be positive"}
		}
		if c.RateLimitConfig.BurstSize <= 0 {
			return &ConfigError{Field: "RateLimitConfig.BurstSize", Message: "must be positive"}
		}
	}

	if c.TLSConfig != nil {
		if (c.TLSConfig.ClientCertFile == "") != (c.TLSConfig.ClientKeyFile == "") {
			return &ConfigError{Field: "TLSConfig.ClientCertFile", Message: "client certificate and key must be set together"}
		}
	}

	return nil
}

// ConfigError represents a configuration validation error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config field %s: %s", e.Field, e.Message)
}
