// Package memory implements an in-memory object store for tests and
// local development.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/telimanlogistique/telimanshare/pkg/store/object"
)

type storedObject struct {
	data         []byte
	contentType  string
	lastModified time.Time
	custom       map[string]string
}

// MemoryObjectStore implements object.Store backed by a map.
type MemoryObjectStore struct {
	mu      sync.RWMutex
	objects map[string]storedObject

	// failPaths forces Write errors for specific paths (tests only).
	failPaths map[string]bool
}

// New creates an empty in-memory object store.
func New() *MemoryObjectStore {
	return &MemoryObjectStore{
		objects:   make(map[string]storedObject),
		failPaths: make(map[string]bool),
	}
}

// FailWrites makes future Write calls to path return an error. Tests use
// this to exercise per-item failure isolation.
func (s *MemoryObjectStore) FailWrites(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failPaths[path] = true
}

func (s *MemoryObjectStore) List(ctx context.Context, prefix string) (*object.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	prefixSet := make(map[string]bool)
	listing := &object.Listing{}

	for path, obj := range s.objects {
		if !strings.HasPrefix(path, prefix) {
			continue
		}
		rest := path[len(prefix):]
		if idx := strings.IndexByte(rest, '/'); idx >= 0 {
			prefixSet[prefix+rest[:idx+1]] = true
			continue
		}
		listing.Objects = append(listing.Objects, infoFor(path, obj))
	}

	for p := range prefixSet {
		listing.Prefixes = append(listing.Prefixes, p)
	}
	sort.Strings(listing.Prefixes)
	sort.Slice(listing.Objects, func(i, j int) bool {
		return listing.Objects[i].Path < listing.Objects[j].Path
	})
	return listing, nil
}

func (s *MemoryObjectStore) Stat(ctx context.Context, path string) (*object.Info, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[path]
	if !ok {
		return nil, object.ErrNotFound
	}
	info := infoFor(path, obj)
	return &info, nil
}

func (s *MemoryObjectStore) Read(ctx context.Context, path string) ([]byte, *object.Info, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[path]
	if !ok {
		return nil, nil, object.ErrNotFound
	}
	info := infoFor(path, obj)
	return append([]byte(nil), obj.data...), &info, nil
}

func (s *MemoryObjectStore) Write(ctx context.Context, path string, data []byte, contentType string, custom map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failPaths[path] {
		return fmt.Errorf("write rejected for %q", path)
	}

	customCopy := make(map[string]string, len(custom))
	for k, v := range custom {
		customCopy[k] = v
	}
	s.objects[path] = storedObject{
		data:         append([]byte(nil), data...),
		contentType:  contentType,
		lastModified: time.Now().UTC(),
		custom:       customCopy,
	}
	return nil
}

func (s *MemoryObjectStore) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.objects, path)
	return nil
}

func (s *MemoryObjectStore) PresignURL(ctx context.Context, path string, expiry time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.objects[path]; !ok {
		return "", object.ErrNotFound
	}
	return "memory://" + path, nil
}

func infoFor(path string, obj storedObject) object.Info {
	custom := make(map[string]string, len(obj.custom))
	for k, v := range obj.custom {
		custom[k] = v
	}
	return object.Info{
		Path:         path,
		Size:         int64(len(obj.data)),
		ContentType:  obj.contentType,
		LastModified: obj.lastModified,
		Custom:       custom,
	}
}
