// Package badger implements a Badger-backed metadata store.
//
// Records are stored under "meta:<key>" with JSON-encoded values. This
// backend is the single-node default for persistent deployments that do not
// run PostgreSQL.
package badger

import (
	"context"
	"encoding/json"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/telimanlogistique/telimanshare/pkg/store/meta"
)

const keyPrefix = "meta:"

// BadgerMetaStore implements meta.Store backed by BadgerDB.
type BadgerMetaStore struct {
	db *badger.DB
}

// Config contains Badger metadata store configuration.
type Config struct {
	// Path is the directory for the Badger database files.
	Path string `mapstructure:"path" yaml:"path"`

	// InMemory runs Badger without disk persistence (tests only).
	InMemory bool `mapstructure:"in_memory" yaml:"in_memory,omitempty"`
}

// New opens (or creates) the Badger database at cfg.Path.
func New(cfg Config) (*BadgerMetaStore, error) {
	if cfg.Path == "" && !cfg.InMemory {
		return nil, fmt.Errorf("badger path is required")
	}

	opts := badger.DefaultOptions(cfg.Path).
		WithInMemory(cfg.InMemory).
		WithLogger(nil) // Badger's own logger is too chatty; errors surface via return values

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}

	return &BadgerMetaStore{db: db}, nil
}

func recordKey(key string) []byte {
	return []byte(keyPrefix + key)
}

func (s *BadgerMetaStore) Get(ctx context.Context, key string) (*meta.MetaRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var record *meta.MetaRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(recordKey(key))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return meta.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var r meta.MetaRecord
			if err := json.Unmarshal(val, &r); err != nil {
				return fmt.Errorf("failed to decode meta record %q: %w", key, err)
			}
			record = &r
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (s *BadgerMetaStore) Put(ctx context.Context, record *meta.MetaRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	val, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode meta record %q: %w", record.FilePath, err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(recordKey(record.FilePath), val)
	})
}

func (s *BadgerMetaStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete(recordKey(key))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		return err
	})
}

func (s *BadgerMetaStore) List(ctx context.Context, prefix string) ([]*meta.MetaRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]*meta.MetaRecord, 0)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		opts.Prefix = recordKey(prefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		// Badger iterates keys in ascending byte order, which matches the
		// names-ascending contract.
		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			err := it.Item().Value(func(val []byte) error {
				var r meta.MetaRecord
				if err := json.Unmarshal(val, &r); err != nil {
					return fmt.Errorf("failed to decode meta record: %w", err)
				}
				out = append(out, &r)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *BadgerMetaStore) Close() error {
	return s.db.Close()
}
