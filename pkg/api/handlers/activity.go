package handlers

import (
	"net/http"
	"strconv"

	"github.com/telimanlogistique/telimanshare/pkg/accounts"
)

// ActivityHandler serves the admin audit log.
type ActivityHandler struct {
	store accounts.Store
}

// NewActivityHandler creates an activity handler.
func NewActivityHandler(store accounts.Store) *ActivityHandler {
	return &ActivityHandler{store: store}
}

// List handles GET /api/v1/activity?limit=&offset=, newest first.
func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	entries, err := h.store.ListActivity(r.Context(), limit, offset)
	if err != nil {
		InternalServerError(w, "Failed to list activity")
		return
	}
	WriteJSONOK(w, entries)
}
