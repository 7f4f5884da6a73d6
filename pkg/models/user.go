// Package models defines the account and audit entities persisted in the
// accounts database, shared between the API server and the CLI.
package models

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"os"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// UserRole represents the role of a user in the system.
type UserRole string

const (
	// RoleUser is a regular user with access gated by sharing records.
	RoleUser UserRole = "user"
	// RoleAdmin bypasses sharing records and manages users and the trash.
	RoleAdmin UserRole = "admin"
)

// IsValid checks if the role is a valid UserRole.
func (r UserRole) IsValid() bool {
	return r == RoleUser || r == RoleAdmin
}

// EnvAdminInitialPassword overrides the generated first-boot admin password.
const EnvAdminInitialPassword = "TELIMANSHARE_ADMIN_PASSWORD"

// User represents a TelimanShare account.
//
// New signups start unapproved and cannot use the API beyond checking
// their own status until an admin approves them.
type User struct {
	ID           string     `gorm:"primaryKey;size:36" json:"id"`
	Email        string     `gorm:"uniqueIndex;not null;size:255" json:"email"`
	PasswordHash string     `gorm:"not null" json:"-"`
	Role         string     `gorm:"default:user;size:50" json:"role"`
	Approved     bool       `gorm:"default:false" json:"approved"`
	DisplayName  string     `gorm:"size:255" json:"display_name,omitempty"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
}

// TableName returns the table name for User.
func (User) TableName() string {
	return "users"
}

// IsAdmin checks if the user has admin role.
func (u *User) IsAdmin() bool {
	return u.Role == string(RoleAdmin)
}

// GetDisplayName returns the display name, or the email local part if none
// is set.
func (u *User) GetDisplayName() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	if at := strings.IndexByte(u.Email, '@'); at > 0 {
		return u.Email[:at]
	}
	return u.Email
}

// Validate checks if the user has valid configuration.
func (u *User) Validate() error {
	if u.Email == "" {
		return fmt.Errorf("email is required")
	}
	if !strings.Contains(u.Email, "@") {
		return fmt.Errorf("invalid email %q", u.Email)
	}
	if u.Role != "" && !UserRole(u.Role).IsValid() {
		return fmt.Errorf("invalid role %q", u.Role)
	}
	return nil
}

// NormalizeEmail lowercases and trims an account email.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// GetOrGenerateAdminPassword returns the admin bootstrap password from the
// environment, or generates a random one.
func GetOrGenerateAdminPassword() (string, error) {
	if password := os.Getenv(EnvAdminInitialPassword); password != "" {
		return password, nil
	}
	return generatePassword(20)
}

const passwordAlphabet = "abcdefghijkmnopqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func generatePassword(length int) (string, error) {
	out := make([]byte, length)
	max := big.NewInt(int64(len(passwordAlphabet)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate password: %w", err)
		}
		out[i] = passwordAlphabet[n.Int64()]
	}
	return string(out), nil
}

// DefaultAdminUser builds the bootstrap admin account.
func DefaultAdminUser(email, passwordHash string) *User {
	return &User{
		Email:        NormalizeEmail(email),
		PasswordHash: passwordHash,
		Role:         string(RoleAdmin),
		Approved:     true,
		DisplayName:  "Administrator",
	}
}
