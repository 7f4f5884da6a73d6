package accounts

import (
	"context"
	"time"

	"github.com/telimanlogistique/telimanshare/pkg/models"
)

// Store is the accounts and audit persistence interface, implemented by
// GORMStore. Handlers and commands depend on this interface so tests can
// substitute an in-memory database.
type Store interface {
	// User operations
	GetUser(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	CreateUser(ctx context.Context, user *models.User) (string, error)
	ApproveUser(ctx context.Context, email string) (*models.User, error)
	DeleteUser(ctx context.Context, email string) error
	UpdatePassword(ctx context.Context, email, passwordHash string) error
	UpdateLastLogin(ctx context.Context, email string, timestamp time.Time) error
	ValidateCredentials(ctx context.Context, email, password string) (*models.User, error)
	EnsureAdminUser(ctx context.Context, email string) (string, error)

	// Activity log
	RecordActivity(ctx context.Context, action, target, actorEmail string) error
	ListActivity(ctx context.Context, limit, offset int) ([]*models.ActivityLog, error)

	// Comments
	CreateComment(ctx context.Context, comment *models.Comment) error
	ListComments(ctx context.Context, filePath string) ([]*models.Comment, error)
	GetComment(ctx context.Context, id uint) (*models.Comment, error)
	DeleteComment(ctx context.Context, id uint) error

	Close() error
}

var _ Store = (*GORMStore)(nil)
