// Package config provides gateway configuration: a JSON file as the base,
// environment variables as overrides. Credential material itself is not
// loaded here; the config carries file paths for the embedding
// application to read.
package config

import (
	"encoding/json"
	"os"

	"github.com/caarlos0/env/v11"

	"github.com/c360/fdrgateway/errors"
)

// TransportConfig configures the SOAP transport client.
type TransportConfig struct {
	Endpoint           string  `json:"endpoint"             env:"FDR_ENDPOINT"`
	OpenTimeoutSecs    int     `json:"open_timeout_secs"    env:"FDR_OPEN_TIMEOUT_SECS"`
	ReadTimeoutSecs    int     `json:"read_timeout_secs"    env:"FDR_READ_TIMEOUT_SECS"`
	RateLimitPerSecond float64 `json:"rate_limit_per_second" env:"FDR_RATE_LIMIT"`
}

// SecurityConfig points at the credential material for auth headers and
// the mutual-TLS client certificate.
type SecurityConfig struct {
	CertificateFile string   `json:"certificate_file" env:"FDR_CERTIFICATE_FILE"`
	KeyFile         string   `json:"key_file"         env:"FDR_KEY_FILE"`
	CAFiles         []string `json:"ca_files"         env:"FDR_CA_FILES" envSeparator:","`
	Namespace       string   `json:"namespace"        env:"FDR_SECURITY_NAMESPACE"`
}

// NATSConfig configures the async job queue broker.
type NATSConfig struct {
	URL     string `json:"url"     env:"FDR_NATS_URL"`
	Stream  string `json:"stream"  env:"FDR_NATS_STREAM"`
	Subject string `json:"subject" env:"FDR_NATS_SUBJECT"`
	Durable string `json:"durable" env:"FDR_NATS_DURABLE"`
}

// Config represents the complete gateway configuration.
type Config struct {
	Transport TransportConfig `json:"transport"`
	Security  SecurityConfig  `json:"security"`
	NATS      NATSConfig      `json:"nats"`
}

// DefaultConfig returns a configuration with conservative timeouts and the
// local NATS default.
func DefaultConfig() Config {
	return Config{
		Transport: TransportConfig{
			OpenTimeoutSecs: 10,
			ReadTimeoutSecs: 30,
		},
		NATS: NATSConfig{
			URL:     "nats://127.0.0.1:4222",
			Stream:  "FDR_JOBS",
			Subject: "fdr.jobs",
			Durable: "fdr-gateway-worker",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Transport.Endpoint == "" {
		return errors.WrapConfiguration(
			errors.ErrMissingConfig, "Config", "Validate", "transport endpoint is required")
	}
	if c.Transport.OpenTimeoutSecs < 0 || c.Transport.ReadTimeoutSecs < 0 {
		return errors.WrapConfiguration(
			errors.ErrInvalidConfig, "Config", "Validate", "timeouts must not be negative")
	}
	if c.Transport.RateLimitPerSecond < 0 {
		return errors.WrapConfiguration(
			errors.ErrInvalidConfig, "Config", "Validate", "rate limit must not be negative")
	}
	if c.Security.CertificateFile == "" || c.Security.KeyFile == "" {
		return errors.WrapConfiguration(
			errors.ErrMissingConfig, "Config", "Validate", "credential file paths are required")
	}
	return nil
}

// Load reads configuration from an optional JSON file and applies
// environment overrides on top of it. An empty path starts from defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errors.WrapConfiguration(err, "Config", "Load", "config file read")
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Config{}, errors.WrapConfiguration(err, "Config", "Load", "config file parse")
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, errors.WrapConfiguration(err, "Config", "Load", "environment overrides")
	}

	return cfg, nil
}
