package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/telimanlogistique/telimanshare/internal/email"
	"github.com/telimanlogistique/telimanshare/internal/preview"
	"github.com/telimanlogistique/telimanshare/pkg/accounts"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// This function is called after loading configuration from file and
// environment variables to fill in any missing values.
//
// Default Strategy:
//   - Zero values (0, "", false, nil) are replaced with defaults
//   - Explicit values are preserved
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyShutdownTimeoutDefaults(cfg)
	applyAccountsDefaults(&cfg.Accounts)
	applyStorageDefaults(&cfg.Storage)
	applyEmailDefaults(&cfg.Email)
	applyPreviewDefaults(&cfg.Preview)
	applyMetricsDefaults(&cfg.Metrics)
	applyAdminDefaults(&cfg.Admin)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	// Normalize log level to uppercase for consistent internal representation
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

// applyTelemetryDefaults sets OpenTelemetry defaults.
func applyTelemetryDefaults(cfg *TelemetryConfig) {
	// Enabled defaults to false (opt-in for telemetry)

	// Default endpoint is localhost:4317 (standard OTLP gRPC port)
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}

	// Default sample rate is 1.0 (sample all traces)
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}

	applyProfilingDefaults(&cfg.Profiling)
}

// applyProfilingDefaults sets Pyroscope profiling defaults.
func applyProfilingDefaults(cfg *ProfilingConfig) {
	// Default endpoint is localhost:4040 (standard Pyroscope port)
	if cfg.Endpoint == "" {
		cfg.Endpoint = "http://localhost:4040"
	}

	if len(cfg.ProfileTypes) == 0 {
		cfg.ProfileTypes = []string{
			"cpu",
			"alloc_objects",
			"alloc_space",
			"inuse_objects",
			"inuse_space",
			"goroutines",
		}
	}
}

// applyShutdownTimeoutDefaults sets shutdown timeout defaults.
func applyShutdownTimeoutDefaults(cfg *Config) {
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
}

// applyAccountsDefaults sets accounts database defaults.
func applyAccountsDefaults(cfg *accounts.Config) {
	cfg.ApplyDefaults()
}

// applyStorageDefaults sets storage backend defaults.
func applyStorageDefaults(cfg *StorageConfig) {
	if cfg.Objects.Type == "" {
		cfg.Objects.Type = "s3"
	}
	if cfg.Meta.Type == "" {
		cfg.Meta.Type = "badger"
	}
	if cfg.Meta.Type == "badger" && cfg.Meta.Badger.Path == "" && !cfg.Meta.Badger.InMemory {
		cfg.Meta.Badger.Path = filepath.Join(getConfigDir(), "meta")
	}
}

// applyEmailDefaults sets email notification defaults.
func applyEmailDefaults(cfg *email.Config) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = email.DefaultEndpoint
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
}

// applyPreviewDefaults sets preview conversion defaults.
func applyPreviewDefaults(cfg *preview.Config) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = preview.DefaultEndpoint
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 90 * time.Second
	}
}

// applyMetricsDefaults sets metrics defaults.
func applyMetricsDefaults(cfg *MetricsConfig) {
	// Enabled defaults to false (opt-in for metrics)
	// Port defaults to 9090 if metrics are enabled
	if cfg.Enabled && cfg.Port == 0 {
		cfg.Port = 9090
	}
}

// applyAdminDefaults sets admin user defaults.
func applyAdminDefaults(cfg *AdminConfig) {
	if cfg.Email == "" {
		cfg.Email = "admin@localhost"
	}
}

// GetDefaultConfig returns a Config struct with all default values applied.
//
// This is useful for:
//   - Generating sample configuration files
//   - Testing
//   - Documentation
func GetDefaultConfig() *Config {
	cfg := &Config{
		Logging: LoggingConfig{},
		Accounts: accounts.Config{
			Type: accounts.DatabaseTypeSQLite, // Default to SQLite for single-node
		},
	}

	ApplyDefaults(cfg)
	return cfg
}
