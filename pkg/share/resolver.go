package share

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/telimanlogistique/telimanshare/pkg/store/meta"
)

// Identity is the authenticated caller of a share operation.
type Identity struct {
	// Email is the lowercase account email.
	Email string

	IsAdmin bool
}

// NewIdentity builds an Identity, lowercasing the email.
func NewIdentity(email string, isAdmin bool) Identity {
	return Identity{Email: strings.ToLower(email), IsAdmin: isAdmin}
}

// Resolver computes the effective permission record for paths by walking
// from the exact key up through its ancestor folders.
//
// A Resolver carries a private cache and is scoped to one operation (one
// request, one folder listing). It is not safe for concurrent use; create
// one per operation instead of sharing.
type Resolver struct {
	store meta.Store
	cache map[string]*meta.MetaRecord
}

// NewResolver creates a resolver with an empty cache.
func NewResolver(store meta.Store) *Resolver {
	return &Resolver{
		store: store,
		cache: make(map[string]*meta.MetaRecord),
	}
}

// EffectiveMeta returns the record governing path: the exact key's record
// if present, otherwise the nearest ancestor folder's. A nil record with a
// nil error means no record governs the path (default-deny).
//
// Hits populate the cache under both the queried key and the matched
// ancestor key. Misses are not cached, so a permission granted after a
// miss is visible to the same resolver.
func (r *Resolver) EffectiveMeta(ctx context.Context, path string) (*meta.MetaRecord, error) {
	key := NormalizeKey(path)
	if key == "" {
		return nil, nil
	}

	if record, ok := r.cache[key]; ok {
		return record, nil
	}

	for _, candidate := range append([]string{key}, AncestorKeys(key)...) {
		if record, ok := r.cache[candidate]; ok {
			r.cache[key] = record
			return record, nil
		}

		record, err := r.store.Get(ctx, candidate)
		if errors.Is(err, meta.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to resolve permissions for %q: %w", path, err)
		}

		r.cache[key] = record
		r.cache[candidate] = record
		return record, nil
	}
	return nil, nil
}

// Invalidate drops the cache entries for key and every cached descendant,
// after a permission change.
func (r *Resolver) Invalidate(key string) {
	for cached := range r.cache {
		if cached == key || strings.HasPrefix(cached, key) {
			delete(r.cache, cached)
		}
	}
}

// CanRead reports whether id may read content governed by record. A nil
// record denies everyone except admins.
func CanRead(record *meta.MetaRecord, id Identity) bool {
	if id.IsAdmin {
		return true
	}
	if record == nil {
		return false
	}
	if record.IsPublic {
		return true
	}
	if record.OwnerEmail != "" && record.OwnerEmail == id.Email {
		return true
	}
	return record.Allows(id.Email)
}

// CanManage reports whether id may change sharing or delete content
// governed by record. Admins manage everything; otherwise only the owner.
func CanManage(record *meta.MetaRecord, id Identity) bool {
	if id.IsAdmin {
		return true
	}
	if record == nil {
		return false
	}
	return record.OwnerEmail != "" && record.OwnerEmail == id.Email
}
