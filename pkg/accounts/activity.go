package accounts

import (
	"context"

	"github.com/telimanlogistique/telimanshare/pkg/models"
)

// RecordActivity appends one audit entry. Callers treat failures as
// non-fatal; this method just reports them.
func (s *GORMStore) RecordActivity(ctx context.Context, action, target, actorEmail string) error {
	entry := &models.ActivityLog{
		Action:     action,
		Target:     target,
		ActorEmail: models.NormalizeEmail(actorEmail),
	}
	return s.db.WithContext(ctx).Create(entry).Error
}

// ListActivity returns audit entries newest first, paginated.
func (s *GORMStore) ListActivity(ctx context.Context, limit, offset int) ([]*models.ActivityLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	entries := make([]*models.ActivityLog, 0, limit)
	err := s.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
