package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/telimanlogistique/telimanshare/pkg/accounts"
	"github.com/telimanlogistique/telimanshare/pkg/api/middleware"
	"github.com/telimanlogistique/telimanshare/pkg/models"
)

// UsersHandler serves the admin user-management endpoints.
type UsersHandler struct {
	store    accounts.Store
	notifier Notifier
}

// NewUsersHandler creates a users handler. notifier may be nil.
func NewUsersHandler(store accounts.Store, notifier Notifier) *UsersHandler {
	return &UsersHandler{store: store, notifier: notifier}
}

// List handles GET /api/v1/users.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		InternalServerError(w, "Failed to list users")
		return
	}
	WriteJSONOK(w, users)
}

// Approve handles POST /api/v1/users/{email}/approve. The user gets a
// best-effort approval email.
func (h *UsersHandler) Approve(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	if email == "" {
		BadRequest(w, "email is required")
		return
	}

	user, err := h.store.ApproveUser(r.Context(), email)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			NotFound(w, "User not found")
			return
		}
		InternalServerError(w, "Failed to approve user")
		return
	}

	if h.notifier != nil {
		notifyAsync("approval", user.Email, func(ctx context.Context) error {
			return h.notifier.SendApprovalNotice(ctx, user.Email)
		})
	}

	WriteJSONOK(w, user)
}

// Delete handles DELETE /api/v1/users/{email}. Admins cannot delete their
// own account.
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	if email == "" {
		BadRequest(w, "email is required")
		return
	}

	if claims := middleware.GetClaimsFromContext(r.Context()); claims != nil &&
		models.NormalizeEmail(email) == claims.Email {
		Conflict(w, "Cannot delete your own account")
		return
	}

	if err := h.store.DeleteUser(r.Context(), email); err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			NotFound(w, "User not found")
			return
		}
		InternalServerError(w, "Failed to delete user")
		return
	}
	WriteNoContent(w)
}
