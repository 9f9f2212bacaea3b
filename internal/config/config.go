// Package config loads the CLI configuration from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// envPrefix scopes every variable, e.g. GATEWAY_EXCHANGE.
const envPrefix = "GATEWAY"

// Config is the process-level configuration. Per-exchange credentials are
// read separately through the adapter settings contract; this only carries
// what the CLI itself needs.
type Config struct {
	Exchange    string        `envconfig:"EXCHANGE" default:"binance"`
	LogLevel    string        `envconfig:"LOG_LEVEL" default:"info"`
	Timeout     time.Duration `envconfig:"TIMEOUT" default:"30s"`
	MetricsAddr string        `envconfig:"METRICS_ADDR"`
	ExportDir   string        `envconfig:"EXPORT_DIR" default:"reports"`
}

// Load reads .env when present, then the process environment. Missing .env
// is not an error; explicit environment always wins.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}
	if cfg.Exchange == "" {
		return nil, fmt.Errorf("%s_EXCHANGE must not be empty", envPrefix)
	}
	return &cfg, nil
}

// ExchangeSettings collects the selected venue's settings map from the
// environment, keyed the way the adapter settings contract expects. The
// variables are venue-scoped, e.g. GATEWAY_BINANCE_API_KEY.
func (c *Config) ExchangeSettings(readEnv func(string) string) map[string]string {
	prefix := fmt.Sprintf("%s_%s_", envPrefix, strings.ToUpper(c.Exchange))

	settings := make(map[string]string)
	for _, key := range []string{"api_key", "api_secret", "base_url", "timeout", "testnet", "demo", "recv_window"} {
		if value := readEnv(prefix + strings.ToUpper(key)); value != "" {
			settings[key] = value
		}
	}
	if _, ok := settings["timeout"]; !ok && c.Timeout > 0 {
		settings["timeout"] = c.Timeout.String()
	}
	return settings
}
