package handlers

import (
	"net/http"

	"github.com/telimanlogistique/telimanshare/pkg/share"
)

// BrowseHandler serves permission-filtered folder listings.
type BrowseHandler struct {
	service *share.Service
}

// NewBrowseHandler creates a browse handler.
func NewBrowseHandler(service *share.Service) *BrowseHandler {
	return &BrowseHandler{service: service}
}

type browseResponse struct {
	Path    string        `json:"path"`
	Entries []share.Entry `json:"entries"`
}

// List handles GET /api/v1/browse?path=. Entries the caller cannot read
// are absent from the response, not marked.
func (h *BrowseHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	path := r.URL.Query().Get("path")
	entries, err := h.service.ListFolder(r.Context(), path, id)
	if err != nil {
		writeShareError(w, err)
		return
	}
	WriteJSONOK(w, browseResponse{Path: share.NormalizeKey(path), Entries: entries})
}

type sharedResponse struct {
	Entries []share.SharedEntry `json:"entries"`
}

// SharedWithMe handles GET /api/v1/shared: every path other users have
// allow-listed to the caller.
func (h *BrowseHandler) SharedWithMe(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	entries, err := h.service.SharedWithMe(r.Context(), id)
	if err != nil {
		writeShareError(w, err)
		return
	}
	WriteJSONOK(w, sharedResponse{Entries: entries})
}
