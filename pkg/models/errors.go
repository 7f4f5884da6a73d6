package models

import "errors"

// Common errors for account and activity operations.
var (
	// User errors
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateUser      = errors.New("user already exists")
	ErrUserNotApproved    = errors.New("user account is awaiting approval")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Comment errors
	ErrCommentNotFound = errors.New("comment not found")
)
