package share

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/telimanlogistique/telimanshare/internal/logger"
	"github.com/telimanlogistique/telimanshare/internal/telemetry"
	"github.com/telimanlogistique/telimanshare/pkg/metrics"
	"github.com/telimanlogistique/telimanshare/pkg/store/object"
)

// uploadWorkers caps the number of files written concurrently per batch,
// so one large batch cannot monopolize backend connections.
const uploadWorkers = 4

// FileUpload is one file in an upload batch.
type FileUpload struct {
	Name        string
	ContentType string
	Data        []byte
}

// UploadOutcome is the per-file result of an upload batch.
type UploadOutcome struct {
	Name  string `json:"name"`
	Path  string `json:"path,omitempty"`
	Error string `json:"error,omitempty"`
}

// officeExtensions are the document types eligible for PDF preview
// conversion.
var officeExtensions = map[string]bool{
	".doc":  true,
	".docx": true,
	".xls":  true,
	".xlsx": true,
	".ppt":  true,
	".pptx": true,
}

// Upload stores a batch of files under folder, concurrently. Each file
// gets its own outcome; one failure never aborts its siblings, and the
// returned error is non-nil iff at least one file failed.
//
// Successful files receive a default-private permission record owned by
// id unless their key already has one. Office documents additionally
// trigger an async, best-effort preview conversion.
func (s *Service) Upload(ctx context.Context, folder string, files []FileUpload, id Identity) ([]UploadOutcome, error) {
	folderKey := NormalizeKey(folder)
	if folderKey != "" && !IsFolderKey(folderKey) {
		folderKey += "/"
	}

	ctx, span := telemetry.StartShareSpan(ctx, "upload", folderKey, id.Email,
		telemetry.FileCount(len(files)))
	defer span.End()

	outcomes := make([]UploadOutcome, len(files))
	sem := make(chan struct{}, uploadWorkers)
	var wg sync.WaitGroup
	for i, file := range files {
		wg.Add(1)
		go func(i int, file FileUpload) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			outcomes[i] = s.uploadOne(ctx, folderKey, file, id)
		}(i, file)
	}
	wg.Wait()

	failed := 0
	for _, outcome := range outcomes {
		if outcome.Error != "" {
			failed++
		}
	}
	if failed > 0 {
		err := fmt.Errorf("%d of %d uploads failed", failed, len(files))
		telemetry.RecordError(ctx, err)
		return outcomes, err
	}
	return outcomes, nil
}

func (s *Service) uploadOne(ctx context.Context, folderKey string, file FileUpload, id Identity) UploadOutcome {
	name := sanitizeFileName(file.Name)
	if name == "" {
		return UploadOutcome{Name: file.Name, Error: "invalid file name"}
	}
	key := folderKey + name

	custom := map[string]string{object.MetaKeyOwner: id.Email}
	if err := s.objects.Write(ctx, FilesPrefix+key, file.Data, file.ContentType, custom); err != nil {
		metrics.UploadsTotal.WithLabelValues("error").Inc()
		return UploadOutcome{Name: name, Error: err.Error()}
	}

	if err := s.ensureMeta(ctx, key, id); err != nil {
		metrics.UploadsTotal.WithLabelValues("error").Inc()
		return UploadOutcome{Name: name, Error: err.Error()}
	}

	metrics.UploadsTotal.WithLabelValues("ok").Inc()
	s.recordActivity(ctx, "upload", key, id.Email)
	s.maybeConvertPreview(key)
	return UploadOutcome{Name: name, Path: key}
}

// maybeConvertPreview kicks off preview conversion for office documents.
// It runs detached from the request; failures are logged and dropped.
func (s *Service) maybeConvertPreview(key string) {
	if s.preview == nil {
		return
	}
	idx := strings.LastIndexByte(key, '.')
	if idx < 0 || !officeExtensions[strings.ToLower(key[idx:])] {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.previewTimeout)
		defer cancel()
		if err := s.preview.RequestPreview(ctx, key); err != nil {
			logger.Warn("preview conversion failed", "path", key, "error", err)
		}
	}()
}

// sanitizeFileName strips any path components from an uploaded file name.
func sanitizeFileName(name string) string {
	if idx := strings.LastIndexAny(name, "/\\"); idx >= 0 {
		name = name[idx+1:]
	}
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." || name == FolderPlaceholder {
		return ""
	}
	return name
}
