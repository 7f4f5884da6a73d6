// Package auth provides JWT authentication for the TelimanShare API.
package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// TokenType indicates whether a token is an access token or refresh token.
type TokenType string

const (
	// TokenTypeAccess is a short-lived token used for API authorization.
	TokenTypeAccess TokenType = "access"
	// TokenTypeRefresh is a long-lived token used to obtain new access tokens.
	TokenTypeRefresh TokenType = "refresh"
)

// Claims represents JWT claims for TelimanShare authentication.
//
// The email doubles as the sharing identity: permission records allow-list
// and assign ownership by account email.
type Claims struct {
	jwt.RegisteredClaims

	// UserID is the unique identifier (UUID) for the user.
	UserID string `json:"uid"`

	// Email is the lowercase account email.
	Email string `json:"email"`

	// Role is the user's role ("admin" or "user").
	Role string `json:"role"`

	// Approved reports whether an admin has approved the account.
	Approved bool `json:"approved"`

	// TokenType indicates whether this is an access or refresh token.
	TokenType TokenType `json:"token_type"`
}

// IsAccessToken returns true if this is an access token.
func (c *Claims) IsAccessToken() bool {
	return c.TokenType == TokenTypeAccess
}

// IsRefreshToken returns true if this is a refresh token.
func (c *Claims) IsRefreshToken() bool {
	return c.TokenType == TokenTypeRefresh
}

// IsAdmin returns true if the user has admin role.
func (c *Claims) IsAdmin() bool {
	return c.Role == "admin"
}
