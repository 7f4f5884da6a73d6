package preview

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	metamem "github.com/telimanlogistique/telimanshare/pkg/store/meta/memory"
	objmem "github.com/telimanlogistique/telimanshare/pkg/store/object/memory"
)

func TestRequestPreview(t *testing.T) {
	pdfBytes := []byte("%PDF-1.7 converted")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/convert/xlsx/to/pdf", r.URL.Path)
		assert.Equal(t, "s3cret", r.URL.Query().Get("Secret"))

		var req convertRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Parameters, 1)
		assert.Equal(t, "report.xlsx", req.Parameters[0].FileValue.Name)

		resp := convertResponse{}
		resp.Files = append(resp.Files, struct {
			FileName string `json:"FileName"`
			FileData string `json:"FileData"`
		}{
			FileName: "report.pdf",
			FileData: base64.StdEncoding.EncodeToString(pdfBytes),
		})
		WriteJSON(t, w, resp)
	}))
	defer server.Close()

	objects := objmem.New()
	metaStore := metamem.New()
	ctx := context.Background()

	require.NoError(t, objects.Write(ctx, "files/FINANCE/report.xlsx", []byte("xlsx-bytes"), "", nil))

	converter := New(Config{Enabled: true, Endpoint: server.URL, Secret: "s3cret"}, objects, metaStore)
	require.NoError(t, converter.RequestPreview(ctx, "FINANCE/report.xlsx"))

	stored, _, err := objects.Read(ctx, "previews/FINANCE/report.xlsx.pdf")
	require.NoError(t, err)
	assert.Equal(t, pdfBytes, stored)

	record, err := metaStore.Get(ctx, "FINANCE/report.xlsx")
	require.NoError(t, err)
	assert.Equal(t, "previews/FINANCE/report.xlsx.pdf", record.PreviewPDFPath)
}

func WriteJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestRequestPreviewMissingSource(t *testing.T) {
	converter := New(Config{Enabled: true, Endpoint: "http://127.0.0.1:0"}, objmem.New(), metamem.New())

	err := converter.RequestPreview(context.Background(), "FINANCE/missing.xlsx")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read source")
}

func TestRequestPreviewDisabled(t *testing.T) {
	converter := New(Config{Enabled: false}, objmem.New(), metamem.New())
	assert.Error(t, converter.RequestPreview(context.Background(), "a.docx"))
}

func TestRequestPreviewServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusPaymentRequired)
	}))
	defer server.Close()

	objects := objmem.New()
	ctx := context.Background()
	require.NoError(t, objects.Write(ctx, "files/a.docx", []byte("docx"), "", nil))

	converter := New(Config{Enabled: true, Endpoint: server.URL}, objects, metamem.New())
	err := converter.RequestPreview(ctx, "a.docx")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "402")
}
