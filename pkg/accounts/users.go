package accounts

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/telimanlogistique/telimanshare/pkg/models"
)

func (s *GORMStore) GetUser(ctx context.Context, email string) (*models.User, error) {
	return getByField[models.User](s.db, ctx, "email", models.NormalizeEmail(email), models.ErrUserNotFound)
}

func (s *GORMStore) ListUsers(ctx context.Context) ([]*models.User, error) {
	return listAll[models.User](s.db, ctx, "email ASC")
}

func (s *GORMStore) CreateUser(ctx context.Context, user *models.User) (string, error) {
	user.Email = models.NormalizeEmail(user.Email)
	if err := user.Validate(); err != nil {
		return "", err
	}
	user.CreatedAt = time.Now()
	return createWithID(s.db, ctx, user, func(u *models.User, id string) { u.ID = id }, user.ID, models.ErrDuplicateUser)
}

// ApproveUser flips the approval gate for a pending account.
func (s *GORMStore) ApproveUser(ctx context.Context, email string) (*models.User, error) {
	user, err := s.GetUser(ctx, email)
	if err != nil {
		return nil, err
	}
	if user.Approved {
		return user, nil
	}

	if err := s.db.WithContext(ctx).
		Model(user).
		Update("approved", true).Error; err != nil {
		return nil, fmt.Errorf("failed to approve user %q: %w", user.Email, err)
	}
	user.Approved = true
	return user, nil
}

func (s *GORMStore) DeleteUser(ctx context.Context, email string) error {
	return deleteByField[models.User](s.db, ctx, "email", models.NormalizeEmail(email), models.ErrUserNotFound)
}

func (s *GORMStore) UpdatePassword(ctx context.Context, email, passwordHash string) error {
	result := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("email = ?", models.NormalizeEmail(email)).
		Update("password_hash", passwordHash)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrUserNotFound
	}
	return nil
}

func (s *GORMStore) UpdateLastLogin(ctx context.Context, email string, timestamp time.Time) error {
	result := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("email = ?", models.NormalizeEmail(email)).
		Update("last_login", timestamp)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrUserNotFound
	}
	return nil
}

// ValidateCredentials checks email and password. Unapproved users still
// authenticate; the API gates them out of everything except their own
// status, so they can see they are pending.
func (s *GORMStore) ValidateCredentials(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.GetUser(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return nil, models.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, models.ErrInvalidCredentials
	}
	return user, nil
}

// EnsureAdminUser creates the bootstrap admin account if it does not
// exist, returning the generated password (empty when the admin already
// existed or the password came from the environment).
func (s *GORMStore) EnsureAdminUser(ctx context.Context, email string) (string, error) {
	_, err := s.GetUser(ctx, email)
	if err == nil {
		return "", nil
	}
	if !errors.Is(err, models.ErrUserNotFound) {
		return "", err
	}

	passwordFromEnv := os.Getenv(models.EnvAdminInitialPassword) != ""
	password, err := models.GetOrGenerateAdminPassword()
	if err != nil {
		return "", fmt.Errorf("failed to generate password: %w", err)
	}

	passwordHash, err := models.HashPassword(password)
	if err != nil {
		return "", err
	}

	if _, err := s.CreateUser(ctx, models.DefaultAdminUser(email, passwordHash)); err != nil {
		return "", fmt.Errorf("failed to create admin user: %w", err)
	}

	if passwordFromEnv {
		return "", nil
	}
	return password, nil
}
