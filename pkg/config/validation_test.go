package config

import (
	"testing"
)

// validConfig returns a fully valid configuration for mutation in tests.
func validConfig() *Config {
	cfg := GetDefaultConfig()
	cfg.Storage.Objects.S3.Bucket = "documents"
	return cfg
}

func TestValidate_ValidConfig(t *testing.T) {
	cfg := validConfig()

	if err := Validate(cfg); err != nil {
		t.Errorf("Expected valid config to pass validation, got: %v", err)
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Level = "TRACE"

	if err := Validate(cfg); err == nil {
		t.Error("Expected validation error for invalid log level")
	}
}

func TestValidate_InvalidLogFormat(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Format = "xml"

	if err := Validate(cfg); err == nil {
		t.Error("Expected validation error for invalid log format")
	}
}

func TestValidate_InvalidAPIPort(t *testing.T) {
	cfg := validConfig()
	cfg.API.Port = 70000

	if err := Validate(cfg); err == nil {
		t.Error("Expected validation error for out-of-range port")
	}
}

func TestValidate_MissingBucket(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.Objects.S3.Bucket = ""

	if err := Validate(cfg); err == nil {
		t.Error("Expected validation error for missing S3 bucket")
	}
}

func TestValidate_UnknownMetaStore(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.Meta.Type = "cassandra"

	if err := Validate(cfg); err == nil {
		t.Error("Expected validation error for unknown metadata store type")
	}
}

func TestValidate_ShortJWTSecret(t *testing.T) {
	cfg := validConfig()
	cfg.API.JWT.Secret = "too-short"

	if err := Validate(cfg); err == nil {
		t.Error("Expected validation error for short JWT secret")
	}
}

func TestValidate_EmailEnabledWithoutCredentials(t *testing.T) {
	cfg := validConfig()
	cfg.Email.Enabled = true

	if err := Validate(cfg); err == nil {
		t.Error("Expected validation error for email without credentials")
	}
}

func TestValidate_PreviewEnabledWithoutSecret(t *testing.T) {
	cfg := validConfig()
	cfg.Preview.Enabled = true

	if err := Validate(cfg); err == nil {
		t.Error("Expected validation error for preview without secret")
	}
}

func TestValidate_TelemetrySampleRate(t *testing.T) {
	cfg := validConfig()
	cfg.Telemetry.SampleRate = 1.5

	if err := Validate(cfg); err == nil {
		t.Error("Expected validation error for sample rate above 1.0")
	}
}

func TestValidate_LogLevelNormalization(t *testing.T) {
	for _, level := range []string{"debug", "Info", "WARN", "error"} {
		cfg := validConfig()
		cfg.Logging.Level = level
		ApplyDefaults(cfg)

		if err := Validate(cfg); err != nil {
			t.Errorf("Expected level %q to validate after normalization, got: %v", level, err)
		}
	}
}
