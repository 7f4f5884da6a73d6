package share

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/telimanlogistique/telimanshare/internal/telemetry"
	"github.com/telimanlogistique/telimanshare/pkg/metrics"
	"github.com/telimanlogistique/telimanshare/pkg/store/meta"
	"github.com/telimanlogistique/telimanshare/pkg/store/object"
)

// TrashEntry describes one soft-deleted object.
type TrashEntry struct {
	// TrashPath addresses the trashed copy inside the trash namespace.
	TrashPath string `json:"trash_path"`

	// OrigPath is the key the object lived at, empty for damaged entries.
	OrigPath string `json:"orig_path,omitempty"`

	Size      int64     `json:"size"`
	DeletedBy string    `json:"deleted_by,omitempty"`
	DeletedAt time.Time `json:"deleted_at,omitempty"`
}

// DeleteOutcome is the per-child result of a folder soft-delete.
type DeleteOutcome struct {
	Path      string `json:"path"`
	TrashPath string `json:"trash_path,omitempty"`
	Error     string `json:"error,omitempty"`
}

// trashStamp builds the unique per-deletion trash folder segment. The
// timestamp keeps entries human-sortable; the uuid suffix disambiguates
// deletions landing in the same second.
func (s *Service) trashStamp() string {
	ts := s.now().UTC().Format("2006-01-02T15-04-05Z")
	return ts + "-" + uuid.NewString()[:8]
}

// SoftDeleteFile moves the file at path to the trash. Requires manage
// rights on the effective record. The trashed copy carries the live
// object's custom metadata plus its origin and deletion audit fields; the
// permission record is left in place so a restore keeps its sharing.
//
// The copy is written before the live object is deleted, so a failure at
// any step leaves the file readable at its original path.
func (s *Service) SoftDeleteFile(ctx context.Context, path string, id Identity) (string, error) {
	key := NormalizeKey(path)
	if key == "" || IsFolderKey(key) {
		return "", fmt.Errorf("%w: %q is not a file path", ErrNotFound, path)
	}

	ctx, span := telemetry.StartShareSpan(ctx, "delete", key, id.Email)
	defer span.End()

	record, err := s.NewResolver().EffectiveMeta(ctx, key)
	if err != nil {
		return "", err
	}
	if !CanManage(record, id) {
		metrics.PermissionDenialsTotal.WithLabelValues("delete").Inc()
		err := fmt.Errorf("%w: manage %q", ErrPermissionDenied, key)
		telemetry.RecordError(ctx, err)
		return "", err
	}

	trashPath, err := s.moveToTrash(ctx, key, s.trashStamp(), id)
	if err != nil {
		telemetry.RecordError(ctx, err)
		return "", err
	}
	telemetry.SetAttributes(ctx, telemetry.TrashPath(trashPath))

	s.recordActivity(ctx, "delete", key, id.Email)
	return trashPath, nil
}

// SoftDeleteFolder moves every object under the folder at path to the
// trash, each under its own stamp so entries restore independently.
// Children fail in isolation; the error is non-nil iff any child failed.
func (s *Service) SoftDeleteFolder(ctx context.Context, path string, id Identity) ([]DeleteOutcome, error) {
	key := NormalizeKey(path)
	if key == "" {
		return nil, fmt.Errorf("cannot delete the root")
	}
	if !IsFolderKey(key) {
		key += "/"
	}

	ctx, span := telemetry.StartShareSpan(ctx, "delete-folder", key, id.Email)
	defer span.End()

	record, err := s.NewResolver().EffectiveMeta(ctx, key)
	if err != nil {
		return nil, err
	}
	if !CanManage(record, id) {
		metrics.PermissionDenialsTotal.WithLabelValues("delete").Inc()
		err := fmt.Errorf("%w: manage %q", ErrPermissionDenied, key)
		telemetry.RecordError(ctx, err)
		return nil, err
	}

	paths, err := s.listRecursive(ctx, FilesPrefix+key)
	if err != nil {
		return nil, err
	}

	outcomes := make([]DeleteOutcome, 0, len(paths))
	failed := 0
	for _, objPath := range paths {
		childKey := strings.TrimPrefix(objPath, FilesPrefix)
		trashPath, err := s.moveToTrash(ctx, childKey, s.trashStamp(), id)
		if err != nil {
			failed++
			outcomes = append(outcomes, DeleteOutcome{Path: childKey, Error: err.Error()})
			continue
		}
		outcomes = append(outcomes, DeleteOutcome{Path: childKey, TrashPath: trashPath})
	}

	s.recordActivity(ctx, "delete", key, id.Email)
	if failed > 0 {
		err := fmt.Errorf("%d of %d objects could not be trashed", failed, len(paths))
		telemetry.RecordError(ctx, err)
		return outcomes, err
	}
	return outcomes, nil
}

// moveToTrash copies one live object into the trash under stamp, then
// deletes the original. Reads complete before any write.
func (s *Service) moveToTrash(ctx context.Context, key, stamp string, id Identity) (string, error) {
	data, info, err := s.objects.Read(ctx, FilesPrefix+key)
	if errors.Is(err, object.ErrNotFound) {
		return "", fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %q: %w", key, err)
	}

	custom := make(map[string]string, len(info.Custom)+3)
	for k, v := range info.Custom {
		custom[k] = v
	}
	custom[object.MetaKeyOrigPath] = key
	custom[object.MetaKeyDeletedBy] = id.Email
	custom[object.MetaKeyDeletedAt] = s.now().UTC().Format(time.RFC3339)

	trashPath := TrashPrefix + stamp + "/" + key
	if err := s.objects.Write(ctx, trashPath, data, info.ContentType, custom); err != nil {
		return "", fmt.Errorf("failed to write trash copy of %q: %w", key, err)
	}
	if err := s.objects.Delete(ctx, FilesPrefix+key); err != nil {
		return "", fmt.Errorf("failed to remove live object %q: %w", key, err)
	}

	metrics.SoftDeletesTotal.Inc()
	return trashPath, nil
}

// ListTrash returns every trashed object, newest stamp first.
func (s *Service) ListTrash(ctx context.Context) ([]TrashEntry, error) {
	paths, err := s.listRecursive(ctx, TrashPrefix)
	if err != nil {
		return nil, err
	}

	entries := make([]TrashEntry, 0, len(paths))
	for _, path := range paths {
		info, err := s.objects.Stat(ctx, path)
		if errors.Is(err, object.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to stat trash entry %q: %w", path, err)
		}

		entry := TrashEntry{
			TrashPath: path,
			OrigPath:  info.Custom[object.MetaKeyOrigPath],
			Size:      info.Size,
			DeletedBy: info.Custom[object.MetaKeyDeletedBy],
		}
		if ts, err := time.Parse(time.RFC3339, info.Custom[object.MetaKeyDeletedAt]); err == nil {
			entry.DeletedAt = ts
		}
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].TrashPath > entries[j].TrashPath
	})
	return entries, nil
}

// Restore moves a trashed object back to its original path and removes
// the trash copy. The permission record was never touched by the delete,
// so sharing survives the round trip. Entries without an origin cannot be
// restored.
func (s *Service) Restore(ctx context.Context, trashPath string, id Identity) (string, error) {
	if !strings.HasPrefix(trashPath, TrashPrefix) {
		return "", fmt.Errorf("%w: %q is not a trash path", ErrNotFound, trashPath)
	}

	ctx, span := telemetry.StartShareSpan(ctx, "restore", "", id.Email,
		telemetry.TrashPath(trashPath))
	defer span.End()

	data, info, err := s.objects.Read(ctx, trashPath)
	if errors.Is(err, object.ErrNotFound) {
		return "", fmt.Errorf("%w: %q", ErrNotFound, trashPath)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read trash entry %q: %w", trashPath, err)
	}

	origPath := info.Custom[object.MetaKeyOrigPath]
	if origPath == "" {
		return "", fmt.Errorf("%w: %q", ErrMissingOrigPath, trashPath)
	}

	custom := make(map[string]string, len(info.Custom))
	for k, v := range info.Custom {
		switch k {
		case object.MetaKeyOrigPath, object.MetaKeyDeletedBy, object.MetaKeyDeletedAt:
		default:
			custom[k] = v
		}
	}

	if err := s.objects.Write(ctx, FilesPrefix+origPath, data, info.ContentType, custom); err != nil {
		return "", fmt.Errorf("failed to restore %q: %w", origPath, err)
	}
	if err := s.objects.Delete(ctx, trashPath); err != nil {
		return "", fmt.Errorf("failed to remove trash entry %q: %w", trashPath, err)
	}

	metrics.RestoresTotal.Inc()
	s.recordActivity(ctx, "restore", origPath, id.Email)
	return origPath, nil
}

// DestroyForever permanently deletes a trash entry. When the original key
// has no live object anymore, its orphaned permission record is removed
// too.
func (s *Service) DestroyForever(ctx context.Context, trashPath string, id Identity) error {
	if !strings.HasPrefix(trashPath, TrashPrefix) {
		return fmt.Errorf("%w: %q is not a trash path", ErrNotFound, trashPath)
	}

	ctx, span := telemetry.StartShareSpan(ctx, "destroy", "", id.Email,
		telemetry.TrashPath(trashPath))
	defer span.End()

	info, err := s.objects.Stat(ctx, trashPath)
	if errors.Is(err, object.ErrNotFound) {
		return fmt.Errorf("%w: %q", ErrNotFound, trashPath)
	}
	if err != nil {
		return fmt.Errorf("failed to stat trash entry %q: %w", trashPath, err)
	}

	if err := s.objects.Delete(ctx, trashPath); err != nil {
		return fmt.Errorf("failed to destroy trash entry %q: %w", trashPath, err)
	}

	if origPath := info.Custom[object.MetaKeyOrigPath]; origPath != "" {
		if _, err := s.objects.Stat(ctx, FilesPrefix+origPath); errors.Is(err, object.ErrNotFound) {
			if err := s.meta.Delete(ctx, NormalizeKey(origPath)); err != nil && !errors.Is(err, meta.ErrNotFound) {
				return fmt.Errorf("failed to remove permissions for %q: %w", origPath, err)
			}
		}
	}

	s.recordActivity(ctx, "destroy", trashPath, id.Email)
	return nil
}

// listRecursive walks the one-level List down the whole subtree under
// prefix and returns every object path, ascending.
func (s *Service) listRecursive(ctx context.Context, prefix string) ([]string, error) {
	listing, err := s.objects.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list %q: %w", prefix, err)
	}

	out := make([]string, 0, len(listing.Objects))
	for _, info := range listing.Objects {
		out = append(out, info.Path)
	}
	for _, sub := range listing.Prefixes {
		children, err := s.listRecursive(ctx, sub)
		if err != nil {
			return nil, err
		}
		out = append(out, children...)
	}
	sort.Strings(out)
	return out, nil
}
