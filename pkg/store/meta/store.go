// Package meta defines the metadata-store port for TelimanShare.
//
// A MetaRecord is the access-control and descriptive record attached to a
// normalized storage key. File keys ("BL/invoice.pdf") and folder keys
// ("BL/") share one namespace; a folder record governs every descendant
// that lacks its own record. Backends implement Store: an in-memory map
// (tests), Badger (single-node) and PostgreSQL (HA).
package meta

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrNotFound is returned by Get when no record exists for the key.
var ErrNotFound = errors.New("meta record not found")

// MetaRecord is the per-key access-control record.
//
// Invariant: at most one record per normalized key. Absence of a record
// (directly and via ancestor folders) means default-deny.
type MetaRecord struct {
	// FilePath is the normalized key. Folder keys end in "/".
	FilePath string `json:"file_path"`

	// IsPublic grants read access to every authenticated, approved user.
	IsPublic bool `json:"is_public"`

	// AllowedEmails is the read allow-list (lowercase).
	AllowedEmails []string `json:"allowed_emails"`

	// OwnerEmail is the uploader/creator (lowercase).
	OwnerEmail string `json:"owner_email"`

	// PreviewPDFPath points at a generated PDF preview artifact, if any.
	PreviewPDFPath string `json:"preview_pdf_path,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// Allows reports whether email is on the allow-list.
func (m *MetaRecord) Allows(email string) bool {
	email = strings.ToLower(email)
	for _, e := range m.AllowedEmails {
		if e == email {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the record.
func (m *MetaRecord) Clone() *MetaRecord {
	if m == nil {
		return nil
	}
	out := *m
	out.AllowedEmails = append([]string(nil), m.AllowedEmails...)
	return &out
}

// Store is the metadata port. Implementations must be safe for concurrent
// use by multiple goroutines.
type Store interface {
	// Get returns the record for the exact key, or ErrNotFound.
	Get(ctx context.Context, key string) (*MetaRecord, error)

	// Put creates or replaces the record for record.FilePath.
	Put(ctx context.Context, record *MetaRecord) error

	// Delete removes the record for the key. Deleting a missing key is not
	// an error.
	Delete(ctx context.Context, key string) error

	// List returns all records whose key starts with prefix, names
	// ascending. An empty prefix returns every record.
	List(ctx context.Context, prefix string) ([]*MetaRecord, error)

	// Close releases backend resources.
	Close() error
}
