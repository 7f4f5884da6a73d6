// Package preview converts office documents to PDF preview artifacts via
// the ConvertAPI REST service.
//
// Generated PDFs land in the "previews/" namespace next to the live file
// tree, and the source key's permission record gets a pointer to the
// artifact so viewers can find it. Conversion is best-effort: callers run
// it off the request path and a failed conversion only costs the preview.
package preview

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/telimanlogistique/telimanshare/internal/logger"
	"github.com/telimanlogistique/telimanshare/pkg/store/meta"
	"github.com/telimanlogistique/telimanshare/pkg/store/object"
)

// DefaultEndpoint is the public ConvertAPI base URL.
const DefaultEndpoint = "https://v2.convertapi.com"

// Config contains document conversion configuration.
type Config struct {
	// Enabled turns preview conversion on. Default: false.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint overrides the ConvertAPI base URL (tests).
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint,omitempty"`

	// Secret is the ConvertAPI account secret.
	Secret string `mapstructure:"secret" yaml:"secret,omitempty"`

	// Timeout bounds one conversion round trip. Default: 90s.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout,omitempty"`
}

// Converter implements office-to-PDF conversion against ConvertAPI.
type Converter struct {
	config  Config
	objects object.Store
	meta    meta.Store
	client  *http.Client
}

// New creates a converter reading sources from objects and recording
// artifact pointers in metaStore.
func New(config Config, objects object.Store, metaStore meta.Store) *Converter {
	if config.Endpoint == "" {
		config.Endpoint = DefaultEndpoint
	}
	if config.Timeout == 0 {
		config.Timeout = 90 * time.Second
	}
	return &Converter{
		config:  config,
		objects: objects,
		meta:    metaStore,
		client:  &http.Client{Timeout: config.Timeout},
	}
}

type convertRequest struct {
	Parameters []convertParameter `json:"Parameters"`
}

type convertParameter struct {
	Name      string       `json:"Name"`
	FileValue *convertFile `json:"FileValue,omitempty"`
	Value     string       `json:"Value,omitempty"`
}

type convertFile struct {
	Name string `json:"Name"`
	Data string `json:"Data"`
}

type convertResponse struct {
	Files []struct {
		FileName string `json:"FileName"`
		FileData string `json:"FileData"`
	} `json:"Files"`
}

// RequestPreview converts the office document at key to PDF, stores the
// artifact at "previews/<key>.pdf" and points the key's permission record
// at it.
func (c *Converter) RequestPreview(ctx context.Context, key string) error {
	if !c.config.Enabled {
		return fmt.Errorf("preview conversion is disabled")
	}

	ext := strings.TrimPrefix(strings.ToLower(path.Ext(key)), ".")
	if ext == "" {
		return fmt.Errorf("cannot convert %q: no extension", key)
	}

	data, _, err := c.objects.Read(ctx, "files/"+key)
	if err != nil {
		return fmt.Errorf("failed to read source %q: %w", key, err)
	}

	pdf, err := c.convert(ctx, ext, path.Base(key), data)
	if err != nil {
		return err
	}

	previewPath := "previews/" + key + ".pdf"
	if err := c.objects.Write(ctx, previewPath, pdf, "application/pdf", nil); err != nil {
		return fmt.Errorf("failed to store preview for %q: %w", key, err)
	}

	if err := c.updateMetaPointer(ctx, key, previewPath); err != nil {
		return err
	}

	logger.Debug("preview generated", "path", key, "preview", previewPath, "bytes", len(pdf))
	return nil
}

func (c *Converter) convert(ctx context.Context, fromExt, fileName string, data []byte) ([]byte, error) {
	body, err := json.Marshal(convertRequest{
		Parameters: []convertParameter{
			{Name: "File", FileValue: &convertFile{
				Name: fileName,
				Data: base64.StdEncoding.EncodeToString(data),
			}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode conversion request: %w", err)
	}

	url := fmt.Sprintf("%s/convert/%s/to/pdf?Secret=%s", c.config.Endpoint, fromExt, c.config.Secret)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build conversion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("conversion request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("conversion service returned %d: %s", resp.StatusCode, string(detail))
	}

	var out convertResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode conversion response: %w", err)
	}
	if len(out.Files) == 0 {
		return nil, fmt.Errorf("conversion response contained no files")
	}

	pdf, err := base64.StdEncoding.DecodeString(out.Files[0].FileData)
	if err != nil {
		return nil, fmt.Errorf("failed to decode converted file: %w", err)
	}
	return pdf, nil
}

// updateMetaPointer stores the artifact path on the key's record, creating
// a minimal record when the key has none yet.
func (c *Converter) updateMetaPointer(ctx context.Context, key, previewPath string) error {
	record, err := c.meta.Get(ctx, key)
	if errors.Is(err, meta.ErrNotFound) {
		record = &meta.MetaRecord{FilePath: key, AllowedEmails: []string{}}
	} else if err != nil {
		return fmt.Errorf("failed to load permissions for %q: %w", key, err)
	}

	record.PreviewPDFPath = previewPath
	record.UpdatedAt = time.Now().UTC()
	if err := c.meta.Put(ctx, record); err != nil {
		return fmt.Errorf("failed to record preview pointer for %q: %w", key, err)
	}
	return nil
}
