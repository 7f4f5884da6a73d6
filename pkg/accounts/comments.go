package accounts

import (
	"context"

	"github.com/telimanlogistique/telimanshare/pkg/models"
)

// CreateComment stores a new comment after validation. The author email is
// normalized; the ID is assigned by the database.
func (s *GORMStore) CreateComment(ctx context.Context, comment *models.Comment) error {
	comment.AuthorEmail = models.NormalizeEmail(comment.AuthorEmail)
	if err := comment.Validate(); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Create(comment).Error
}

// ListComments returns every comment on filePath, oldest first.
func (s *GORMStore) ListComments(ctx context.Context, filePath string) ([]*models.Comment, error) {
	comments := make([]*models.Comment, 0)
	err := s.db.WithContext(ctx).
		Where("file_path = ?", filePath).
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, err
	}
	return comments, nil
}

// GetComment retrieves one comment by ID.
func (s *GORMStore) GetComment(ctx context.Context, id uint) (*models.Comment, error) {
	return getByField[models.Comment](s.db, ctx, "id", id, models.ErrCommentNotFound)
}

// DeleteComment removes one comment by ID.
func (s *GORMStore) DeleteComment(ctx context.Context, id uint) error {
	return deleteByField[models.Comment](s.db, ctx, "id", id, models.ErrCommentNotFound)
}
