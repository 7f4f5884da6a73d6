package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Validate checks the configuration for errors.
//
// Struct tags (validate:"...") cover field-level constraints; the checks
// below cover cross-field rules the tags cannot express.
func Validate(cfg *Config) error {
	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := cfg.Accounts.Validate(); err != nil {
		return fmt.Errorf("invalid accounts configuration: %w", err)
	}

	if err := validateStorage(&cfg.Storage); err != nil {
		return err
	}

	if cfg.Telemetry.Enabled && cfg.Telemetry.Endpoint == "" {
		return fmt.Errorf("telemetry is enabled but no endpoint is configured")
	}

	if secret := cfg.API.GetJWTSecret(); secret != "" && len(secret) < 32 {
		return fmt.Errorf("api jwt secret must be at least 32 characters, got %d", len(secret))
	}

	if cfg.Email.Enabled {
		if cfg.Email.ServiceID == "" || cfg.Email.PublicKey == "" {
			return fmt.Errorf("email is enabled but service_id or public_key is missing")
		}
		if cfg.Email.AdminEmail == "" {
			return fmt.Errorf("email is enabled but admin_email is not set")
		}
	}

	if cfg.Preview.Enabled && cfg.Preview.Secret == "" {
		return fmt.Errorf("preview conversion is enabled but no secret is configured")
	}

	return nil
}

func validateStorage(cfg *StorageConfig) error {
	switch cfg.Objects.Type {
	case "s3":
		if cfg.Objects.S3.Bucket == "" {
			return fmt.Errorf("s3 object store requires bucket to be set")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown object store type: %q", cfg.Objects.Type)
	}

	switch cfg.Meta.Type {
	case "badger":
		if cfg.Meta.Badger.Path == "" && !cfg.Meta.Badger.InMemory {
			return fmt.Errorf("badger metadata store requires path to be set")
		}
	case "postgres":
		if cfg.Meta.Postgres.Host == "" {
			return fmt.Errorf("postgres metadata store requires host to be set")
		}
		if cfg.Meta.Postgres.Database == "" {
			return fmt.Errorf("postgres metadata store requires database to be set")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown metadata store type: %q", cfg.Meta.Type)
	}

	return nil
}
