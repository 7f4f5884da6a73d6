package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/telimanlogistique/telimanshare/internal/logger"
	"github.com/telimanlogistique/telimanshare/pkg/accounts"
	"github.com/telimanlogistique/telimanshare/pkg/models"
	"github.com/telimanlogistique/telimanshare/pkg/share"
)

// CommentsHandler serves per-path comment threads. Reading or writing a
// thread requires read access to the path it hangs on.
type CommentsHandler struct {
	store   accounts.Store
	service *share.Service
}

// NewCommentsHandler creates a comments handler.
func NewCommentsHandler(store accounts.Store, service *share.Service) *CommentsHandler {
	return &CommentsHandler{store: store, service: service}
}

// canReadPath checks the caller's read access on path via the effective
// permission record.
func (h *CommentsHandler) canReadPath(r *http.Request, path string, id share.Identity) (bool, error) {
	record, err := h.service.NewResolver().EffectiveMeta(r.Context(), path)
	if err != nil {
		return false, err
	}
	return share.CanRead(record, id), nil
}

type commentsResponse struct {
	Path     string            `json:"path"`
	Comments []*models.Comment `json:"comments"`
}

// List handles GET /api/v1/comments?path=: the thread on path, oldest
// first.
func (h *CommentsHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	path := share.NormalizeKey(r.URL.Query().Get("path"))
	if path == "" {
		BadRequest(w, "path is required")
		return
	}

	readable, err := h.canReadPath(r, path, id)
	if err != nil {
		InternalServerError(w, err.Error())
		return
	}
	if !readable {
		Forbidden(w, "you cannot read this path")
		return
	}

	comments, err := h.store.ListComments(r.Context(), path)
	if err != nil {
		InternalServerError(w, "Failed to load comments")
		return
	}
	WriteJSONOK(w, commentsResponse{Path: path, Comments: comments})
}

type createCommentRequest struct {
	Path string `json:"path"`
	Body string `json:"body"`
}

// Create handles POST /api/v1/comments.
func (h *CommentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req createCommentRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	path := share.NormalizeKey(req.Path)
	if path == "" {
		BadRequest(w, "path is required")
		return
	}
	if req.Body == "" {
		BadRequest(w, "body is required")
		return
	}

	readable, err := h.canReadPath(r, path, id)
	if err != nil {
		InternalServerError(w, err.Error())
		return
	}
	if !readable {
		Forbidden(w, "you cannot comment on this path")
		return
	}

	comment := &models.Comment{FilePath: path, AuthorEmail: id.Email, Body: req.Body}
	if err := h.store.CreateComment(r.Context(), comment); err != nil {
		BadRequest(w, err.Error())
		return
	}

	if err := h.store.RecordActivity(r.Context(), "comment", path, id.Email); err != nil {
		logger.Warn("failed to record activity", "action", "comment", "target", path, "error", err)
	}
	WriteJSONCreated(w, comment)
}

// Delete handles DELETE /api/v1/comments/{id}. Authors delete their own
// comments; admins delete any.
func (h *CommentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	commentID, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		BadRequest(w, "id must be a positive integer")
		return
	}

	comment, err := h.store.GetComment(r.Context(), uint(commentID))
	if err != nil {
		if errors.Is(err, models.ErrCommentNotFound) {
			NotFound(w, "comment not found")
			return
		}
		InternalServerError(w, "Failed to load comment")
		return
	}
	if !id.IsAdmin && comment.AuthorEmail != id.Email {
		Forbidden(w, "only the author or an admin can delete a comment")
		return
	}

	if err := h.store.DeleteComment(r.Context(), comment.ID); err != nil && !errors.Is(err, models.ErrCommentNotFound) {
		InternalServerError(w, "Failed to delete comment")
		return
	}

	if err := h.store.RecordActivity(r.Context(), "comment-delete", comment.FilePath, id.Email); err != nil {
		logger.Warn("failed to record activity", "action", "comment-delete", "target", comment.FilePath, "error", err)
	}
	WriteNoContent(w)
}
