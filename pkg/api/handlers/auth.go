package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/telimanlogistique/telimanshare/internal/logger"
	"github.com/telimanlogistique/telimanshare/pkg/accounts"
	"github.com/telimanlogistique/telimanshare/pkg/api/auth"
	"github.com/telimanlogistique/telimanshare/pkg/api/middleware"
	"github.com/telimanlogistique/telimanshare/pkg/models"
)

// Notifier sends account lifecycle emails, best-effort.
type Notifier interface {
	SendSignupNotice(ctx context.Context, userEmail string) error
	SendApprovalNotice(ctx context.Context, userEmail string) error
}

// AuthHandler serves login, token refresh, signup and identity endpoints.
type AuthHandler struct {
	store    accounts.Store
	jwt      *auth.JWTService
	notifier Notifier
}

// NewAuthHandler creates an auth handler. notifier may be nil.
func NewAuthHandler(store accounts.Store, jwt *auth.JWTService, notifier Notifier) *AuthHandler {
	return &AuthHandler{store: store, jwt: jwt, notifier: notifier}
}

// notifyAsync fires a notification off the request path. Failures are
// logged and dropped; mail never blocks or fails an API call.
func notifyAsync(what, email string, send func(context.Context) error) {
	if send == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := send(ctx); err != nil {
			logger.Warn("notification failed", "kind", what, "email", email, "error", err)
		}
	}()
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	*auth.TokenPair
	User *models.User `json:"user"`
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		BadRequest(w, "email and password are required")
		return
	}

	user, err := h.store.ValidateCredentials(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, models.ErrInvalidCredentials) {
			Unauthorized(w, "Invalid email or password")
			return
		}
		InternalServerError(w, "Authentication failed")
		return
	}

	pair, err := h.jwt.GenerateTokenPair(user)
	if err != nil {
		InternalServerError(w, "Failed to issue tokens")
		return
	}

	if err := h.store.UpdateLastLogin(r.Context(), user.Email, time.Now()); err != nil {
		logger.Warn("failed to update last login", "email", user.Email, "error", err)
	}

	WriteJSONOK(w, authResponse{TokenPair: pair, User: user})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh handles POST /api/v1/auth/refresh. The user is reloaded so role
// changes, approval and deletion take effect at the next refresh.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	claims, err := h.jwt.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		Unauthorized(w, "Invalid or expired refresh token")
		return
	}

	user, err := h.store.GetUser(r.Context(), claims.Email)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			Unauthorized(w, "Account no longer exists")
			return
		}
		InternalServerError(w, "Failed to load account")
		return
	}

	pair, err := h.jwt.GenerateTokenPair(user)
	if err != nil {
		InternalServerError(w, "Failed to issue tokens")
		return
	}
	WriteJSONOK(w, authResponse{TokenPair: pair, User: user})
}

type signupRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name,omitempty"`
}

// Signup handles POST /api/v1/auth/signup. New accounts start unapproved;
// the admin address gets a best-effort notification.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.Email == "" {
		BadRequest(w, "email is required")
		return
	}
	if len(req.Password) < 8 {
		BadRequest(w, "password must be at least 8 characters")
		return
	}

	hash, err := models.HashPassword(req.Password)
	if err != nil {
		InternalServerError(w, "Failed to process password")
		return
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: hash,
		Role:         string(models.RoleUser),
		Approved:     false,
		DisplayName:  req.DisplayName,
	}
	if _, err := h.store.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, models.ErrDuplicateUser) {
			Conflict(w, "An account with this email already exists")
			return
		}
		BadRequest(w, err.Error())
		return
	}

	if h.notifier != nil {
		notifyAsync("signup", user.Email, func(ctx context.Context) error {
			return h.notifier.SendSignupNotice(ctx, user.Email)
		})
	}

	WriteJSONCreated(w, user)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ChangePassword handles POST /api/v1/auth/password. The current password
// is re-verified so a stolen token alone cannot take over the account.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		Unauthorized(w, "Authentication required")
		return
	}

	var req changePasswordRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.CurrentPassword == "" {
		BadRequest(w, "current_password is required")
		return
	}
	if len(req.NewPassword) < 8 {
		BadRequest(w, "new password must be at least 8 characters")
		return
	}

	if _, err := h.store.ValidateCredentials(r.Context(), claims.Email, req.CurrentPassword); err != nil {
		if errors.Is(err, models.ErrInvalidCredentials) {
			Unauthorized(w, "Current password is incorrect")
			return
		}
		InternalServerError(w, "Failed to verify password")
		return
	}

	hash, err := models.HashPassword(req.NewPassword)
	if err != nil {
		InternalServerError(w, "Failed to process password")
		return
	}
	if err := h.store.UpdatePassword(r.Context(), claims.Email, hash); err != nil {
		InternalServerError(w, "Failed to update password")
		return
	}
	WriteNoContent(w)
}

// Me handles GET /api/v1/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		Unauthorized(w, "Authentication required")
		return
	}

	user, err := h.store.GetUser(r.Context(), claims.Email)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			Unauthorized(w, "Account no longer exists")
			return
		}
		InternalServerError(w, "Failed to load account")
		return
	}
	WriteJSONOK(w, user)
}
