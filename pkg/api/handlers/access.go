package handlers

import (
	"net/http"

	"github.com/telimanlogistique/telimanshare/pkg/share"
)

// AccessHandler serves sharing inspection and updates.
type AccessHandler struct {
	service *share.Service
}

// NewAccessHandler creates an access handler.
func NewAccessHandler(service *share.Service) *AccessHandler {
	return &AccessHandler{service: service}
}

// Get handles GET /api/v1/access?path=.
func (h *AccessHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	path := r.URL.Query().Get("path")
	if path == "" {
		BadRequest(w, "path is required")
		return
	}

	access, err := h.service.GetAccess(r.Context(), path, id)
	if err != nil {
		writeShareError(w, err)
		return
	}
	WriteJSONOK(w, access)
}

type updateAccessRequest struct {
	Path          string   `json:"path"`
	IsPublic      bool     `json:"is_public"`
	AllowedEmails []string `json:"allowed_emails"`
}

// Update handles PUT /api/v1/access.
func (h *AccessHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req updateAccessRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.Path == "" {
		BadRequest(w, "path is required")
		return
	}

	access, err := h.service.UpdateAccess(r.Context(), req.Path, req.IsPublic, req.AllowedEmails, id)
	if err != nil {
		writeShareError(w, err)
		return
	}
	WriteJSONOK(w, access)
}
