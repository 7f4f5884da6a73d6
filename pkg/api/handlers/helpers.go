package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/telimanlogistique/telimanshare/pkg/api/middleware"
	"github.com/telimanlogistique/telimanshare/pkg/share"
)

// decodeJSONBody decodes a JSON request body into the provided pointer.
// Returns true if successful, false if decoding fails (error response is
// written automatically).
func decodeJSONBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		BadRequest(w, "Invalid request body")
		return false
	}
	return true
}

// requireIdentity extracts the sharing identity from the request context.
// Returns false (and writes 401) when the route is missing JWTAuth.
func requireIdentity(w http.ResponseWriter, r *http.Request) (share.Identity, bool) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		Unauthorized(w, "Authentication required")
		return share.Identity{}, false
	}
	return id, true
}

// writeShareError maps share service errors to problem responses.
func writeShareError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, share.ErrPermissionDenied):
		Forbidden(w, err.Error())
	case errors.Is(err, share.ErrNotFound):
		NotFound(w, err.Error())
	case errors.Is(err, share.ErrMissingOrigPath):
		UnprocessableEntity(w, err.Error())
	default:
		InternalServerError(w, err.Error())
	}
}
