package share

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/telimanlogistique/telimanshare/internal/telemetry"
)

// Entry is one visible child of a browsed folder.
type Entry struct {
	// Name is the entry's own name; folder names carry no slash.
	Name string `json:"name"`

	// Path is the entry's normalized key.
	Path string `json:"path"`

	IsFolder     bool      `json:"is_folder"`
	Size         int64     `json:"size,omitempty"`
	ContentType  string    `json:"content_type,omitempty"`
	LastModified time.Time `json:"last_modified,omitempty"`

	// Sharing summary from the effective permission record.
	IsPublic   bool   `json:"is_public"`
	OwnerEmail string `json:"owner_email,omitempty"`

	// CanManage reports whether the browsing identity may change sharing
	// or delete this entry.
	CanManage bool `json:"can_manage"`

	// HasPreview is true when a PDF preview artifact exists.
	HasPreview bool `json:"has_preview"`
}

// ListFolder returns the children of path that id may read, names
// ascending with folders first. Placeholder objects are hidden. A path
// with no children yields an empty list, not an error.
//
// One resolver serves the whole listing, so siblings governed by the same
// folder record cost a single metadata lookup.
func (s *Service) ListFolder(ctx context.Context, path string, id Identity) ([]Entry, error) {
	key := NormalizeKey(path)
	if key != "" && !IsFolderKey(key) {
		return nil, fmt.Errorf("%w: %q is not a folder path", ErrNotFound, path)
	}

	ctx, span := telemetry.StartShareSpan(ctx, "browse", key, id.Email)
	defer span.End()

	listing, err := s.objects.List(ctx, FilesPrefix+key)
	if err != nil {
		err = fmt.Errorf("failed to list folder %q: %w", key, err)
		telemetry.RecordError(ctx, err)
		return nil, err
	}

	resolver := s.NewResolver()
	entries := make([]Entry, 0, len(listing.Prefixes)+len(listing.Objects))

	for _, prefix := range listing.Prefixes {
		childKey := strings.TrimPrefix(prefix, FilesPrefix)
		record, err := resolver.EffectiveMeta(ctx, childKey)
		if err != nil {
			return nil, err
		}
		if !CanRead(record, id) {
			continue
		}

		entry := Entry{
			Name:      strings.TrimSuffix(strings.TrimPrefix(childKey, key), "/"),
			Path:      childKey,
			IsFolder:  true,
			CanManage: CanManage(record, id),
		}
		if record != nil {
			entry.IsPublic = record.IsPublic
			entry.OwnerEmail = record.OwnerEmail
		}
		entries = append(entries, entry)
	}

	for _, info := range listing.Objects {
		if info.Name() == FolderPlaceholder {
			continue
		}
		childKey := strings.TrimPrefix(info.Path, FilesPrefix)
		record, err := resolver.EffectiveMeta(ctx, childKey)
		if err != nil {
			return nil, err
		}
		if !CanRead(record, id) {
			continue
		}

		entry := Entry{
			Name:         info.Name(),
			Path:         childKey,
			Size:         info.Size,
			ContentType:  info.ContentType,
			LastModified: info.LastModified,
			CanManage:    CanManage(record, id),
		}
		if record != nil {
			entry.IsPublic = record.IsPublic
			entry.OwnerEmail = record.OwnerEmail
			// Preview pointers only count on the file's own record, not
			// one inherited from a folder.
			entry.HasPreview = record.FilePath == childKey && record.PreviewPDFPath != ""
		}
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].IsFolder != entries[j].IsFolder {
			return entries[i].IsFolder
		}
		return entries[i].Name < entries[j].Name
	})
	telemetry.SetAttributes(ctx, telemetry.EntryCount(len(entries)))
	return entries, nil
}

// SharedEntry is one path another user has explicitly shared with the
// caller.
type SharedEntry struct {
	// Name is the entry's own name; folder names carry no slash.
	Name string `json:"name"`

	// Path is the entry's normalized key.
	Path string `json:"path"`

	IsFolder   bool      `json:"is_folder"`
	OwnerEmail string    `json:"owner_email,omitempty"`
	SharedAt   time.Time `json:"shared_at,omitempty"`
}

// SharedWithMe returns every path whose permission record names id on its
// allow-list, paths ascending. Paths the caller owns and public paths are
// not "shared with" them, so both are excluded.
func (s *Service) SharedWithMe(ctx context.Context, id Identity) ([]SharedEntry, error) {
	ctx, span := telemetry.StartShareSpan(ctx, "shared-with-me", "", id.Email)
	defer span.End()

	records, err := s.meta.List(ctx, "")
	if err != nil {
		err = fmt.Errorf("failed to list shared paths: %w", err)
		telemetry.RecordError(ctx, err)
		return nil, err
	}

	entries := make([]SharedEntry, 0)
	for _, record := range records {
		if record.OwnerEmail == id.Email || !record.Allows(id.Email) {
			continue
		}

		key := record.FilePath
		name := key
		if IsFolderKey(key) {
			name = strings.TrimSuffix(key, "/")
		}
		if idx := strings.LastIndexByte(name, '/'); idx >= 0 {
			name = name[idx+1:]
		}

		entries = append(entries, SharedEntry{
			Name:       name,
			Path:       key,
			IsFolder:   IsFolderKey(key),
			OwnerEmail: record.OwnerEmail,
			SharedAt:   record.UpdatedAt,
		})
	}

	telemetry.SetAttributes(ctx, telemetry.EntryCount(len(entries)))
	return entries, nil
}
