//go:build integration

package s3_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/telimanlogistique/telimanshare/pkg/store/object"
	objects3 "github.com/telimanlogistique/telimanshare/pkg/store/object/s3"
)

// localstackHelper manages the Localstack container for S3 integration tests.
type localstackHelper struct {
	container testcontainers.Container
	endpoint  string
	client    *s3.Client
}

// newLocalstackHelper starts a Localstack container or connects to an existing one.
func newLocalstackHelper(t *testing.T) *localstackHelper {
	t.Helper()
	ctx := context.Background()

	// Check if external Localstack is configured via environment
	if endpoint := os.Getenv("LOCALSTACK_ENDPOINT"); endpoint != "" {
		helper := &localstackHelper{endpoint: endpoint}
		helper.createClient(t)
		return helper
	}

	// Start Localstack container using testcontainers
	req := testcontainers.ContainerRequest{
		Image:        "localstack/localstack:3.0",
		ExposedPorts: []string{"4566/tcp"},
		Env: map[string]string{
			"SERVICES":              "s3",
			"DEFAULT_REGION":        "us-east-1",
			"EAGER_SERVICE_LOADING": "1",
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("4566/tcp"),
			wait.ForHTTP("/_localstack/health").
				WithPort("4566/tcp").
				WithStartupTimeout(60*time.Second),
		),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("failed to start localstack container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "4566")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get container port: %v", err)
	}

	helper := &localstackHelper{
		container: container,
		endpoint:  fmt.Sprintf("http://%s:%s", host, port.Port()),
	}
	helper.createClient(t)

	return helper
}

// createClient creates an S3 client configured for Localstack.
func (lh *localstackHelper) createClient(t *testing.T) {
	t.Helper()

	client, err := objects3.NewClient(context.Background(), objects3.Config{
		Endpoint:        lh.endpoint,
		Region:          "us-east-1",
		AccessKeyID:     "test",
		SecretAccessKey: "test",
		ForcePathStyle:  true,
	})
	if err != nil {
		t.Fatalf("Failed to create S3 client: %v", err)
	}
	lh.client = client
}

// createBucket creates a new S3 bucket.
func (lh *localstackHelper) createBucket(t *testing.T, bucketName string) {
	t.Helper()

	_, err := lh.client.CreateBucket(context.Background(), &s3.CreateBucketInput{
		Bucket: aws.String(bucketName),
	})
	if err != nil {
		t.Fatalf("Failed to create test bucket: %v", err)
	}
}

// cleanup terminates the container if we started one.
func (lh *localstackHelper) cleanup() {
	if lh.container != nil {
		_ = lh.container.Terminate(context.Background())
	}
}

func newStore(t *testing.T, lh *localstackHelper, bucket, prefix string) *objects3.S3ObjectStore {
	t.Helper()

	store, err := objects3.New(context.Background(), objects3.Config{
		Endpoint:        lh.endpoint,
		Region:          "us-east-1",
		Bucket:          bucket,
		AccessKeyID:     "test",
		SecretAccessKey: "test",
		KeyPrefix:       prefix,
		ForcePathStyle:  true,
	})
	if err != nil {
		t.Fatalf("Failed to create S3 object store: %v", err)
	}
	return store
}

// TestS3ObjectStore_Integration exercises the object store against a real
// S3-compatible service (Localstack via testcontainers).
func TestS3ObjectStore_Integration(t *testing.T) {
	ctx := context.Background()

	helper := newLocalstackHelper(t)
	defer helper.cleanup()

	bucketName := "telimanshare-test-bucket"
	helper.createBucket(t, bucketName)

	store := newStore(t, helper, bucketName, "")

	t.Run("WriteStatRead", func(t *testing.T) {
		custom := map[string]string{"owner": "aminata@teliman.ml"}
		data := []byte("%PDF-1.4 fake invoice")

		if err := store.Write(ctx, "files/BL/invoice.pdf", data, "application/pdf", custom); err != nil {
			t.Fatalf("Write failed: %v", err)
		}

		info, err := store.Stat(ctx, "files/BL/invoice.pdf")
		if err != nil {
			t.Fatalf("Stat failed: %v", err)
		}
		if info.Size != int64(len(data)) {
			t.Errorf("Expected size %d, got %d", len(data), info.Size)
		}
		if info.ContentType != "application/pdf" {
			t.Errorf("Expected content type application/pdf, got %q", info.ContentType)
		}
		if info.Custom["owner"] != "aminata@teliman.ml" {
			t.Errorf("Expected custom owner metadata, got %v", info.Custom)
		}

		got, _, err := store.Read(ctx, "files/BL/invoice.pdf")
		if err != nil {
			t.Fatalf("Read failed: %v", err)
		}
		if !bytes.Equal(got, data) {
			t.Error("Read returned different bytes than written")
		}
	})

	t.Run("ListSeparatesPrefixesAndObjects", func(t *testing.T) {
		for _, key := range []string{
			"files/BL/2026/january.pdf",
			"files/BL/2026/february.pdf",
			"files/BL/manifest.txt",
		} {
			if err := store.Write(ctx, key, []byte("x"), "text/plain", nil); err != nil {
				t.Fatalf("Write %q failed: %v", key, err)
			}
		}

		listing, err := store.List(ctx, "files/BL")
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}

		if len(listing.Prefixes) != 1 || listing.Prefixes[0] != "files/BL/2026/" {
			t.Errorf("Expected single prefix files/BL/2026/, got %v", listing.Prefixes)
		}

		var names []string
		for _, obj := range listing.Objects {
			names = append(names, obj.Path)
		}
		// invoice.pdf from the previous subtest is also in this folder
		if len(names) != 2 {
			t.Fatalf("Expected 2 objects, got %v", names)
		}
		if names[0] != "files/BL/invoice.pdf" || names[1] != "files/BL/manifest.txt" {
			t.Errorf("Expected names ascending, got %v", names)
		}
	})

	t.Run("StatMissingReturnsNotFound", func(t *testing.T) {
		_, err := store.Stat(ctx, "files/missing.pdf")
		if !errors.Is(err, object.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("DeleteIsIdempotent", func(t *testing.T) {
		if err := store.Write(ctx, "files/tmp.txt", []byte("x"), "", nil); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		if err := store.Delete(ctx, "files/tmp.txt"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if err := store.Delete(ctx, "files/tmp.txt"); err != nil {
			t.Errorf("Second delete should be a no-op, got %v", err)
		}
	})

	t.Run("PresignURLServesContent", func(t *testing.T) {
		data := []byte("signed content")
		if err := store.Write(ctx, "files/signed.txt", data, "text/plain", nil); err != nil {
			t.Fatalf("Write failed: %v", err)
		}

		url, err := store.PresignURL(ctx, "files/signed.txt", time.Minute)
		if err != nil {
			t.Fatalf("PresignURL failed: %v", err)
		}

		resp, err := http.Get(url)
		if err != nil {
			t.Fatalf("GET presigned URL failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Expected 200 from presigned URL, got %d", resp.StatusCode)
		}
		body, _ := io.ReadAll(resp.Body)
		if !bytes.Equal(body, data) {
			t.Error("Presigned URL served different content")
		}
	})
}

// TestS3ObjectStore_KeyPrefix verifies that a configured key prefix is
// invisible to callers but present in the bucket.
func TestS3ObjectStore_KeyPrefix(t *testing.T) {
	ctx := context.Background()

	helper := newLocalstackHelper(t)
	defer helper.cleanup()

	bucketName := "telimanshare-prefix-test"
	helper.createBucket(t, bucketName)

	store := newStore(t, helper, bucketName, "tenant-a/")

	if err := store.Write(ctx, "files/doc.txt", []byte("x"), "", nil); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	// Visible under the prefixed key with the raw client
	_, err := helper.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucketName),
		Key:    aws.String("tenant-a/files/doc.txt"),
	})
	if err != nil {
		t.Fatalf("Expected object under prefixed key: %v", err)
	}

	// Invisible to the store's own listing
	listing, err := store.List(ctx, "files")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(listing.Objects) != 1 || listing.Objects[0].Path != "files/doc.txt" {
		t.Errorf("Expected unprefixed path in listing, got %+v", listing.Objects)
	}
}
