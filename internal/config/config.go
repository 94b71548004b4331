// Package config loads and validates app config from env and an optional
// .env file using Viper.
package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// DatabaseURL is the Postgres DSN.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
	// InvitationTTL is the invitation lifetime (e.g. "168h"). Zero or
	// invalid values fall back to the 7-day default.
	InvitationTTL string `mapstructure:"INVITATION_TTL"`

	// OTelEndpoint is the OTLP gRPC endpoint for event delivery (e.g.
	// http://localhost:4317). Empty disables export.
	OTelEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// OTelServiceName is the service.name resource attribute.
	OTelServiceName string `mapstructure:"OTEL_SERVICE_NAME"`
	// OTelInsecure forces plaintext OTLP even for https endpoints
	// (standard OTEL_EXPORTER_OTLP_INSECURE behavior).
	OTelInsecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
}

// Load reads .env (if present), then builds and validates Config from the
// environment via Viper. Missing .env is ignored (e.g. in CI). Env vars
// override .env.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("APP_ENV", "")
	v.SetDefault("INVITATION_TTL", "168h") // 7d
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_SERVICE_NAME", "tenant-control-plane")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.OTelServiceName == "" {
		return nil, errors.New("config: OTEL_SERVICE_NAME must be set")
	}

	return &cfg, nil
}

// InvitationLifetime parses InvitationTTL as a time.Duration. Returns 168h
// if unset or invalid.
func (c *Config) InvitationLifetime() time.Duration {
	d, err := time.ParseDuration(c.InvitationTTL)
	if err != nil || d <= 0 {
		return 168 * time.Hour
	}
	return d
}
