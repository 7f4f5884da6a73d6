package config

import (
	"context"
	"fmt"

	"github.com/telimanlogistique/telimanshare/pkg/store/meta"
	badgermeta "github.com/telimanlogistique/telimanshare/pkg/store/meta/badger"
	metamemory "github.com/telimanlogistique/telimanshare/pkg/store/meta/memory"
	"github.com/telimanlogistique/telimanshare/pkg/store/meta/postgres"
	"github.com/telimanlogistique/telimanshare/pkg/store/object"
	objectmemory "github.com/telimanlogistique/telimanshare/pkg/store/object/memory"
	objects3 "github.com/telimanlogistique/telimanshare/pkg/store/object/s3"
)

// StorageConfig configures the two persistence backends of the share
// service: the object store holding file bytes and the metadata store
// holding permission records.
type StorageConfig struct {
	Objects ObjectStoreConfig `mapstructure:"objects" yaml:"objects"`
	Meta    MetaStoreConfig   `mapstructure:"meta" yaml:"meta"`
}

// ObjectStoreConfig selects and configures the object store backend.
type ObjectStoreConfig struct {
	// Type selects the backend.
	// Valid values: s3, memory
	// Default: s3
	Type string `mapstructure:"type" yaml:"type"`

	// S3 contains S3-specific configuration (used when Type is "s3").
	S3 objects3.Config `mapstructure:"s3" yaml:"s3,omitempty"`
}

// MetaStoreConfig selects and configures the permission metadata backend.
type MetaStoreConfig struct {
	// Type selects the backend.
	// Valid values: badger, postgres, memory
	// Default: badger
	Type string `mapstructure:"type" yaml:"type"`

	// Badger contains Badger-specific configuration (used when Type is "badger").
	Badger badgermeta.Config `mapstructure:"badger" yaml:"badger,omitempty"`

	// Postgres contains PostgreSQL-specific configuration (used when Type is "postgres").
	Postgres postgres.Config `mapstructure:"postgres" yaml:"postgres,omitempty"`
}

// CreateObjectStore creates the object store instance from configuration.
func CreateObjectStore(ctx context.Context, cfg ObjectStoreConfig) (object.Store, error) {
	switch cfg.Type {
	case "s3", "":
		if cfg.S3.Bucket == "" {
			return nil, fmt.Errorf("s3 object store requires bucket to be set")
		}
		return objects3.New(ctx, cfg.S3)
	case "memory":
		return objectmemory.New(), nil
	default:
		return nil, fmt.Errorf("unknown object store type: %q", cfg.Type)
	}
}

// CreateMetaStore creates the permission metadata store instance from
// configuration.
func CreateMetaStore(ctx context.Context, cfg MetaStoreConfig) (meta.Store, error) {
	switch cfg.Type {
	case "badger", "":
		return badgermeta.New(cfg.Badger)
	case "postgres":
		return postgres.New(ctx, cfg.Postgres)
	case "memory":
		return metamemory.New(), nil
	default:
		return nil, fmt.Errorf("unknown metadata store type: %q", cfg.Type)
	}
}
