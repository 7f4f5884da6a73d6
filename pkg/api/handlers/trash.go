package handlers

import (
	"net/http"

	"github.com/telimanlogistique/telimanshare/pkg/share"
)

// TrashHandler serves the admin trash endpoints.
type TrashHandler struct {
	service *share.Service
}

// NewTrashHandler creates a trash handler.
func NewTrashHandler(service *share.Service) *TrashHandler {
	return &TrashHandler{service: service}
}

// List handles GET /api/v1/trash.
func (h *TrashHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.ListTrash(r.Context())
	if err != nil {
		writeShareError(w, err)
		return
	}
	WriteJSONOK(w, entries)
}

type restoreRequest struct {
	TrashPath string `json:"trash_path"`
}

// Restore handles POST /api/v1/trash/restore.
func (h *TrashHandler) Restore(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req restoreRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.TrashPath == "" {
		BadRequest(w, "trash_path is required")
		return
	}

	origPath, err := h.service.Restore(r.Context(), req.TrashPath, id)
	if err != nil {
		writeShareError(w, err)
		return
	}
	WriteJSONOK(w, map[string]string{"trash_path": req.TrashPath, "restored_to": origPath})
}

// Destroy handles DELETE /api/v1/trash?path= (permanent, terminal).
func (h *TrashHandler) Destroy(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	path := r.URL.Query().Get("path")
	if path == "" {
		BadRequest(w, "path is required")
		return
	}

	if err := h.service.DestroyForever(r.Context(), path, id); err != nil {
		writeShareError(w, err)
		return
	}
	WriteNoContent(w)
}
