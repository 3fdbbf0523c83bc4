package httpclient

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
)

// SecureTLSConfig creates a TLS configuration with certificate validation,
// optionally trusting an extra CA bundle.
func SecureTLSConfig(caCertPath string) (*tls.Config, error) {
	tlsConfig := &tls.Config{
		MinVersion: tls.VersionTLS12,
	}

	if caCertPath != "" {
		caCert, err := os.ReadFile(caCertPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA certificate from %s: %w", caCertPath, err)
		}

		caCertPool := x509.NewCertPool()
		if !caCertPool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("failed to parse CA certificate from %s", caCertPath)
		}

		tlsConfig.RootCAs = caCertPool
	}

	return tlsConfig, nil
}

func buildTLSConfig(cfg *TLSConfig) (*tls.Config, error) {
	tlsConfig, err := SecureTLSConfig(cfg.RootCAFile)
	if err != nil {
		return nil, err
	}
	if cfg.MinVersion != 0 {
		tlsConfig.MinVersion = cfg.MinVersion
	}
	// salt-api is commonly deployed with a self-signed certificate
	tlsConfig.InsecureSkipVerify = cfg.InsecureSkipVerify

	if cfg.ClientCertFile != "" {
		cert, err := tls.LoadX509KeyPair(cfg.ClientCertFile, cfg.ClientKeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load client certificate: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	return tlsConfig, nil
}
