package handlers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/telimanlogistique/telimanshare/pkg/share"
)

// FilesHandler serves uploads, downloads and deletion of files and
// folders.
type FilesHandler struct {
	service *share.Service

	// maxUploadBytes bounds one multipart upload request.
	maxUploadBytes int64
}

// NewFilesHandler creates a files handler.
func NewFilesHandler(service *share.Service, maxUploadBytes int64) *FilesHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 100 << 20
	}
	return &FilesHandler{service: service, maxUploadBytes: maxUploadBytes}
}

type uploadResponse struct {
	Folder   string                `json:"folder"`
	Outcomes []share.UploadOutcome `json:"outcomes"`
	Failed   int                   `json:"failed"`
}

// Upload handles POST /api/v1/files?folder=. The multipart body carries
// one or more "files" parts; each file succeeds or fails on its own and
// the response reports both, with 207 when outcomes are mixed.
func (h *FilesHandler) Upload(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		BadRequest(w, fmt.Sprintf("invalid multipart body: %v", err))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	parts := r.MultipartForm.File["files"]
	if len(parts) == 0 {
		BadRequest(w, "no files in request")
		return
	}

	files := make([]share.FileUpload, 0, len(parts))
	for _, part := range parts {
		f, err := part.Open()
		if err != nil {
			BadRequest(w, fmt.Sprintf("failed to open %q: %v", part.Filename, err))
			return
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			BadRequest(w, fmt.Sprintf("failed to read %q: %v", part.Filename, err))
			return
		}
		files = append(files, share.FileUpload{
			Name:        part.Filename,
			ContentType: part.Header.Get("Content-Type"),
			Data:        data,
		})
	}

	folder := r.URL.Query().Get("folder")
	outcomes, err := h.service.Upload(r.Context(), folder, files, id)

	failed := 0
	for _, outcome := range outcomes {
		if outcome.Error != "" {
			failed++
		}
	}
	resp := uploadResponse{Folder: share.NormalizeKey(folder), Outcomes: outcomes, Failed: failed}

	switch {
	case err == nil:
		WriteJSONCreated(w, resp)
	case failed < len(outcomes):
		WriteJSON(w, http.StatusMultiStatus, resp)
	default:
		WriteJSON(w, http.StatusBadGateway, resp)
	}
}

type downloadURLResponse struct {
	Path string `json:"path"`
	URL  string `json:"url"`
}

// DownloadURL handles GET /api/v1/files/url?path=.
func (h *FilesHandler) DownloadURL(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	path := r.URL.Query().Get("path")
	if path == "" {
		BadRequest(w, "path is required")
		return
	}

	url, err := h.service.DownloadURL(r.Context(), path, id)
	if err != nil {
		writeShareError(w, err)
		return
	}
	WriteJSONOK(w, downloadURLResponse{Path: share.NormalizeKey(path), URL: url})
}

type deleteResponse struct {
	Path      string `json:"path"`
	TrashPath string `json:"trash_path"`
}

// Delete handles DELETE /api/v1/files?path= (soft delete to trash).
func (h *FilesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	path := r.URL.Query().Get("path")
	if path == "" {
		BadRequest(w, "path is required")
		return
	}

	trashPath, err := h.service.SoftDeleteFile(r.Context(), path, id)
	if err != nil {
		writeShareError(w, err)
		return
	}
	WriteJSONOK(w, deleteResponse{Path: share.NormalizeKey(path), TrashPath: trashPath})
}

type createFolderRequest struct {
	Path string `json:"path"`
}

// CreateFolder handles POST /api/v1/folders.
func (h *FilesHandler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req createFolderRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.Path == "" {
		BadRequest(w, "path is required")
		return
	}

	key, err := h.service.CreateFolder(r.Context(), req.Path, id)
	if err != nil {
		writeShareError(w, err)
		return
	}
	WriteJSONCreated(w, map[string]string{"path": key})
}

type deleteFolderResponse struct {
	Path     string                `json:"path"`
	Outcomes []share.DeleteOutcome `json:"outcomes"`
	Failed   int                   `json:"failed"`
}

// DeleteFolder handles DELETE /api/v1/folders?path= (recursive soft
// delete, per-child outcomes).
func (h *FilesHandler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	path := r.URL.Query().Get("path")
	if path == "" {
		BadRequest(w, "path is required")
		return
	}

	outcomes, err := h.service.SoftDeleteFolder(r.Context(), path, id)
	if err != nil && outcomes == nil {
		writeShareError(w, err)
		return
	}

	failed := 0
	for _, outcome := range outcomes {
		if outcome.Error != "" {
			failed++
		}
	}
	resp := deleteFolderResponse{Path: share.NormalizeKey(path), Outcomes: outcomes, Failed: failed}
	if failed > 0 {
		WriteJSON(w, http.StatusMultiStatus, resp)
		return
	}
	WriteJSONOK(w, resp)
}
