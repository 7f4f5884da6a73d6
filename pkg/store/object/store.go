// Package object defines the object-storage port for TelimanShare.
//
// Objects are blobs addressed by slash-delimited paths inside one bucket.
// Three path namespaces exist: "files/" for live objects, "previews/" for
// generated PDF previews, and "trash/" for soft-deleted copies. Backends
// implement Store: an in-memory map (tests) and S3-compatible storage.
package object

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no object exists at the requested path.
var ErrNotFound = errors.New("object not found")

// Well-known custom metadata keys carried on stored objects.
const (
	MetaKeyOwner     = "owner"
	MetaKeyOrigPath  = "orig_path"
	MetaKeyDeletedBy = "deleted_by"
	MetaKeyDeletedAt = "deleted_at"
)

// Info describes a stored object without its bytes.
type Info struct {
	// Path is the full object path, e.g. "files/BL/invoice.pdf".
	Path string

	Size         int64
	ContentType  string
	LastModified time.Time

	// Custom is backend-native string metadata attached to the object.
	Custom map[string]string
}

// Name returns the last path segment.
func (i Info) Name() string {
	for idx := len(i.Path) - 1; idx >= 0; idx-- {
		if i.Path[idx] == '/' {
			return i.Path[idx+1:]
		}
	}
	return i.Path
}

// Listing is the result of listing one level of a prefix.
type Listing struct {
	// Prefixes are the immediate sub-folder prefixes, each ending in "/".
	Prefixes []string

	// Objects are the immediate child objects.
	Objects []Info
}

// Store is the object-storage port. Implementations must be safe for
// concurrent use by multiple goroutines.
type Store interface {
	// List returns the immediate children of prefix (delimiter "/"),
	// names ascending where the backend sorts.
	List(ctx context.Context, prefix string) (*Listing, error)

	// Stat returns object info without reading the bytes, or ErrNotFound.
	Stat(ctx context.Context, path string) (*Info, error)

	// Read returns the object's bytes and info, or ErrNotFound.
	Read(ctx context.Context, path string) ([]byte, *Info, error)

	// Write stores data at path with the given content type and custom
	// metadata, replacing any existing object.
	Write(ctx context.Context, path string, data []byte, contentType string, custom map[string]string) error

	// Delete removes the object at path. Deleting a missing object is not
	// an error.
	Delete(ctx context.Context, path string) error

	// PresignURL returns a time-limited URL for downloading the object.
	PresignURL(ctx context.Context, path string, expiry time.Duration) (string, error)
}
