// Package memory implements an in-memory metadata store.
//
// Used by unit tests and as a zero-dependency default for development. All
// records live in a map guarded by a RWMutex; contents are lost on restart.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/telimanlogistique/telimanshare/pkg/store/meta"
)

// MemoryMetaStore implements meta.Store backed by a map.
type MemoryMetaStore struct {
	mu      sync.RWMutex
	records map[string]*meta.MetaRecord
}

// New creates an empty in-memory metadata store.
func New() *MemoryMetaStore {
	return &MemoryMetaStore{
		records: make(map[string]*meta.MetaRecord),
	}
}

func (s *MemoryMetaStore) Get(ctx context.Context, key string) (*meta.MetaRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[key]
	if !ok {
		return nil, meta.ErrNotFound
	}
	return record.Clone(), nil
}

func (s *MemoryMetaStore) Put(ctx context.Context, record *meta.MetaRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[record.FilePath] = record.Clone()
	return nil
}

func (s *MemoryMetaStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, key)
	return nil
}

func (s *MemoryMetaStore) List(ctx context.Context, prefix string) ([]*meta.MetaRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*meta.MetaRecord, 0)
	for key, record := range s.records {
		if strings.HasPrefix(key, prefix) {
			out = append(out, record.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FilePath < out[j].FilePath })
	return out, nil
}

func (s *MemoryMetaStore) Close() error {
	return nil
}
