package handlers

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/telimanlogistique/telimanshare/pkg/share"
)

// PreviewHandler serves preview conversion triggers, preview URLs and the
// office-viewer download proxy.
type PreviewHandler struct {
	service *share.Service
	client  *http.Client

	// proxyHosts are the hosts Proxy may fetch from. An entry starting
	// with "." matches any subdomain of it; anything else matches exactly.
	// An empty list refuses every target.
	proxyHosts []string
}

// NewPreviewHandler creates a preview handler. proxyHosts restricts the
// download proxy to the storage backend's hosts.
func NewPreviewHandler(service *share.Service, proxyHosts []string) *PreviewHandler {
	return &PreviewHandler{
		service:    service,
		client:     &http.Client{},
		proxyHosts: proxyHosts,
	}
}

// hostAllowed reports whether the proxy may fetch from host.
func (h *PreviewHandler) hostAllowed(host string) bool {
	host = strings.ToLower(host)
	for _, allowed := range h.proxyHosts {
		allowed = strings.ToLower(allowed)
		if strings.HasPrefix(allowed, ".") {
			if strings.HasSuffix(host, allowed) || host == allowed[1:] {
				return true
			}
			continue
		}
		if host == allowed {
			return true
		}
	}
	return false
}

type previewRequest struct {
	Path string `json:"path"`
}

// Trigger handles POST /api/v1/preview: converts the office document at
// path synchronously and reports the outcome.
func (h *PreviewHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req previewRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.Path == "" {
		BadRequest(w, "path is required")
		return
	}

	if err := h.service.RequestPreview(r.Context(), req.Path, id); err != nil {
		writeShareError(w, err)
		return
	}
	WriteJSONOK(w, map[string]string{"path": share.NormalizeKey(req.Path), "status": "converted"})
}

// URL handles GET /api/v1/preview?path=: a signed URL for the generated
// PDF artifact.
func (h *PreviewHandler) URL(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	p := r.URL.Query().Get("path")
	if p == "" {
		BadRequest(w, "path is required")
		return
	}

	signed, err := h.service.PreviewURL(r.Context(), p, id)
	if err != nil {
		writeShareError(w, err)
		return
	}
	WriteJSONOK(w, map[string]string{"path": share.NormalizeKey(p), "url": signed})
}

// Proxy handles GET /api/v1/proxy?u=&name=. It streams a signed storage
// URL back with normalized inline headers so browser office viewers that
// refuse attachment dispositions can render the bytes.
func (h *PreviewHandler) Proxy(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireIdentity(w, r); !ok {
		return
	}

	raw := r.URL.Query().Get("u")
	if raw == "" {
		BadRequest(w, "u is required")
		return
	}

	target, err := url.Parse(raw)
	if err != nil || (target.Scheme != "http" && target.Scheme != "https") {
		BadRequest(w, "u must be an http(s) URL")
		return
	}
	if !h.hostAllowed(target.Hostname()) {
		Forbidden(w, "target host is not allowed")
		return
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, target.String(), nil)
	if err != nil {
		BadRequest(w, fmt.Sprintf("invalid target URL: %v", err))
		return
	}

	resp, err := h.client.Do(req)
	if err != nil {
		WriteProblem(w, http.StatusBadGateway, "Bad Gateway", fmt.Sprintf("upstream fetch failed: %v", err))
		return
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		WriteProblem(w, http.StatusBadGateway, "Bad Gateway",
			fmt.Sprintf("upstream returned %d", resp.StatusCode))
		return
	}

	name := r.URL.Query().Get("name")
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		if byExt := mime.TypeByExtension(path.Ext(name)); byExt != "" {
			contentType = byExt
		} else {
			contentType = "application/octet-stream"
		}
	}

	w.Header().Set("Content-Type", contentType)
	if name != "" {
		w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", name))
	} else {
		w.Header().Set("Content-Disposition", "inline")
	}
	if cl := resp.Header.Get("Content-Length"); cl != "" {
		w.Header().Set("Content-Length", cl)
	}

	_, _ = io.Copy(w, resp.Body)
}
