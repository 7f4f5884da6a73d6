package share

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/telimanlogistique/telimanshare/internal/logger"
	"github.com/telimanlogistique/telimanshare/internal/telemetry"
	"github.com/telimanlogistique/telimanshare/pkg/metrics"
	"github.com/telimanlogistique/telimanshare/pkg/store/meta"
	"github.com/telimanlogistique/telimanshare/pkg/store/object"
)

// Object-store namespaces. Every live object lives under FilesPrefix;
// soft-deleted copies under TrashPrefix; generated previews under
// PreviewsPrefix.
const (
	FilesPrefix    = "files/"
	TrashPrefix    = "trash/"
	PreviewsPrefix = "previews/"

	// FolderPlaceholder is the zero-byte object marking an empty folder.
	FolderPlaceholder = ".folder"
)

var (
	// ErrPermissionDenied is returned when the resolver refuses an operation.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotFound is returned when the addressed path has no object.
	ErrNotFound = errors.New("path not found")

	// ErrMissingOrigPath is returned when a trash entry cannot be restored
	// because it does not record where it came from.
	ErrMissingOrigPath = errors.New("trash entry has no original path")
)

// ActivityRecorder persists audit entries. Implementations must tolerate
// high write rates; failures are logged and swallowed by the service.
type ActivityRecorder interface {
	RecordActivity(ctx context.Context, action, target, actorEmail string) error
}

// PreviewRequester converts an office document to a PDF preview artifact.
type PreviewRequester interface {
	RequestPreview(ctx context.Context, path string) error
}

// Service implements the share operations on top of an object store and a
// metadata store. Safe for concurrent use.
type Service struct {
	objects  object.Store
	meta     meta.Store
	activity ActivityRecorder
	preview  PreviewRequester

	signTTL        time.Duration
	previewTimeout time.Duration
	now            func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithActivityRecorder enables best-effort activity logging.
func WithActivityRecorder(r ActivityRecorder) Option {
	return func(s *Service) { s.activity = r }
}

// WithPreviewRequester enables async office-document preview conversion.
func WithPreviewRequester(p PreviewRequester) Option {
	return func(s *Service) { s.preview = p }
}

// WithSignTTL sets the lifetime of presigned download URLs.
func WithSignTTL(ttl time.Duration) Option {
	return func(s *Service) { s.signTTL = ttl }
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a share service.
func NewService(objects object.Store, metaStore meta.Store, opts ...Option) *Service {
	s := &Service{
		objects:        objects,
		meta:           metaStore,
		signTTL:        15 * time.Minute,
		previewTimeout: 2 * time.Minute,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewResolver creates a permission resolver bound to the metadata store,
// scoped to one operation.
func (s *Service) NewResolver() *Resolver {
	return NewResolver(s.meta)
}

// CreateFolder creates the folder at path by writing its placeholder
// object, and attaches a default-private permission record owned by id
// unless the key already has one.
func (s *Service) CreateFolder(ctx context.Context, path string, id Identity) (string, error) {
	key := NormalizeKey(path)
	if key == "" {
		return "", fmt.Errorf("folder path is empty")
	}
	if !IsFolderKey(key) {
		key += "/"
	}

	ctx, span := telemetry.StartShareSpan(ctx, "folder-create", key, id.Email)
	defer span.End()

	custom := map[string]string{object.MetaKeyOwner: id.Email}
	if err := s.objects.Write(ctx, FilesPrefix+key+FolderPlaceholder, nil, "", custom); err != nil {
		err = fmt.Errorf("failed to create folder %q: %w", key, err)
		telemetry.RecordError(ctx, err)
		return "", err
	}

	if err := s.ensureMeta(ctx, key, id); err != nil {
		return "", err
	}

	s.recordActivity(ctx, "folder-create", key, id.Email)
	return key, nil
}

// DownloadURL issues a time-limited URL for the file at path after a read
// check against the effective permissions.
func (s *Service) DownloadURL(ctx context.Context, path string, id Identity) (string, error) {
	key := NormalizeKey(path)
	if key == "" || IsFolderKey(key) {
		return "", fmt.Errorf("%w: %q is not a file path", ErrNotFound, path)
	}

	ctx, span := telemetry.StartShareSpan(ctx, "download", key, id.Email)
	defer span.End()

	record, err := s.NewResolver().EffectiveMeta(ctx, key)
	if err != nil {
		return "", err
	}
	if !CanRead(record, id) {
		metrics.PermissionDenialsTotal.WithLabelValues("download").Inc()
		err := fmt.Errorf("%w: read %q", ErrPermissionDenied, key)
		telemetry.RecordError(ctx, err)
		return "", err
	}

	url, err := s.objects.PresignURL(ctx, FilesPrefix+key, s.signTTL)
	if errors.Is(err, object.ErrNotFound) {
		return "", fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	if err != nil {
		return "", fmt.Errorf("failed to sign download URL for %q: %w", key, err)
	}

	metrics.DownloadsTotal.Inc()
	s.recordActivity(ctx, "download", key, id.Email)
	return url, nil
}

// PreviewURL issues a time-limited URL for the PDF preview of path, if one
// has been generated. Read access follows the source document.
func (s *Service) PreviewURL(ctx context.Context, path string, id Identity) (string, error) {
	key := NormalizeKey(path)

	record, err := s.NewResolver().EffectiveMeta(ctx, key)
	if err != nil {
		return "", err
	}
	if !CanRead(record, id) {
		metrics.PermissionDenialsTotal.WithLabelValues("preview").Inc()
		return "", fmt.Errorf("%w: read %q", ErrPermissionDenied, key)
	}
	if record == nil || record.FilePath != key || record.PreviewPDFPath == "" {
		return "", fmt.Errorf("%w: no preview for %q", ErrNotFound, key)
	}

	url, err := s.objects.PresignURL(ctx, record.PreviewPDFPath, s.signTTL)
	if err != nil {
		return "", fmt.Errorf("failed to sign preview URL for %q: %w", key, err)
	}
	return url, nil
}

// RequestPreview triggers an office-to-PDF conversion for path after a
// read check. The conversion itself runs synchronously in the requester.
func (s *Service) RequestPreview(ctx context.Context, path string, id Identity) error {
	key := NormalizeKey(path)
	if s.preview == nil {
		return fmt.Errorf("preview conversion is not configured")
	}

	ctx, span := telemetry.StartShareSpan(ctx, "preview", key, id.Email)
	defer span.End()

	record, err := s.NewResolver().EffectiveMeta(ctx, key)
	if err != nil {
		return err
	}
	if !CanRead(record, id) {
		metrics.PermissionDenialsTotal.WithLabelValues("preview").Inc()
		err := fmt.Errorf("%w: read %q", ErrPermissionDenied, key)
		telemetry.RecordError(ctx, err)
		return err
	}

	if err := s.preview.RequestPreview(ctx, key); err != nil {
		err = fmt.Errorf("preview conversion failed for %q: %w", key, err)
		telemetry.RecordError(ctx, err)
		return err
	}
	return nil
}

// Access is the sharing state of a key as seen by a manager.
type Access struct {
	Path          string   `json:"path"`
	IsPublic      bool     `json:"is_public"`
	AllowedEmails []string `json:"allowed_emails"`
	OwnerEmail    string   `json:"owner_email"`

	// Inherited is true when the record comes from an ancestor folder
	// rather than the key itself.
	Inherited bool `json:"inherited"`
}

// GetAccess returns the effective sharing state of path. Requires manage
// rights on the effective record.
func (s *Service) GetAccess(ctx context.Context, path string, id Identity) (*Access, error) {
	key := NormalizeKey(path)

	record, err := s.NewResolver().EffectiveMeta(ctx, key)
	if err != nil {
		return nil, err
	}
	if !CanManage(record, id) {
		metrics.PermissionDenialsTotal.WithLabelValues("access-view").Inc()
		return nil, fmt.Errorf("%w: manage %q", ErrPermissionDenied, key)
	}

	access := &Access{Path: key, AllowedEmails: []string{}}
	if record != nil {
		access.IsPublic = record.IsPublic
		access.AllowedEmails = append(access.AllowedEmails, record.AllowedEmails...)
		access.OwnerEmail = record.OwnerEmail
		access.Inherited = record.FilePath != key
	}
	return access, nil
}

// UpdateAccess replaces the sharing state of path. Requires manage rights
// on the current effective record. Emails are lowercased and deduplicated;
// ownership is preserved from the existing record, or assigned to the
// caller when the key had none.
func (s *Service) UpdateAccess(ctx context.Context, path string, isPublic bool, allowedEmails []string, id Identity) (*Access, error) {
	key := NormalizeKey(path)
	if key == "" {
		return nil, fmt.Errorf("path is empty")
	}

	ctx, span := telemetry.StartShareSpan(ctx, "access-change", key, id.Email,
		telemetry.Public(isPublic))
	defer span.End()

	resolver := s.NewResolver()
	effective, err := resolver.EffectiveMeta(ctx, key)
	if err != nil {
		return nil, err
	}
	if !CanManage(effective, id) {
		metrics.PermissionDenialsTotal.WithLabelValues("access-change").Inc()
		err := fmt.Errorf("%w: manage %q", ErrPermissionDenied, key)
		telemetry.RecordError(ctx, err)
		return nil, err
	}

	owner := id.Email
	if existing, err := s.meta.Get(ctx, key); err == nil && existing.OwnerEmail != "" {
		owner = existing.OwnerEmail
	} else if err != nil && !errors.Is(err, meta.ErrNotFound) {
		return nil, fmt.Errorf("failed to load permissions for %q: %w", key, err)
	}

	record := &meta.MetaRecord{
		FilePath:      key,
		IsPublic:      isPublic,
		AllowedEmails: normalizeEmails(allowedEmails),
		OwnerEmail:    owner,
		UpdatedAt:     s.now().UTC(),
	}
	if err := s.meta.Put(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to update permissions for %q: %w", key, err)
	}
	resolver.Invalidate(key)

	s.recordActivity(ctx, "access-change", key, id.Email)
	return &Access{
		Path:          key,
		IsPublic:      record.IsPublic,
		AllowedEmails: record.AllowedEmails,
		OwnerEmail:    record.OwnerEmail,
	}, nil
}

// ensureMeta attaches a default-private record owned by id to key, unless
// the key already has a record (existing sharing is never clobbered).
//
// The record is stored under the normalized form of key, which is the form
// the resolver looks up. An extensionless file name therefore shares its
// record with the folder form of the same path.
func (s *Service) ensureMeta(ctx context.Context, key string, id Identity) error {
	key = NormalizeKey(key)
	_, err := s.meta.Get(ctx, key)
	if err == nil {
		return nil
	}
	if !errors.Is(err, meta.ErrNotFound) {
		return fmt.Errorf("failed to load permissions for %q: %w", key, err)
	}

	record := &meta.MetaRecord{
		FilePath:      key,
		IsPublic:      false,
		AllowedEmails: []string{},
		OwnerEmail:    id.Email,
		UpdatedAt:     s.now().UTC(),
	}
	if err := s.meta.Put(ctx, record); err != nil {
		return fmt.Errorf("failed to store permissions for %q: %w", key, err)
	}
	return nil
}

// recordActivity writes an audit entry, best-effort. Failures never block
// the triggering operation.
func (s *Service) recordActivity(ctx context.Context, action, target, actorEmail string) {
	if s.activity == nil {
		return
	}
	if err := s.activity.RecordActivity(ctx, action, target, actorEmail); err != nil {
		logger.Warn("failed to record activity",
			"action", action, "target", target, "actor", actorEmail, "error", err)
	}
}

func normalizeEmails(emails []string) []string {
	seen := make(map[string]bool, len(emails))
	out := make([]string, 0, len(emails))
	for _, e := range emails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" || seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}
