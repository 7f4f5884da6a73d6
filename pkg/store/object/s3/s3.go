// Package s3 implements the object store on Amazon S3 or S3-compatible
// storage (MinIO, Supabase Storage's S3 endpoint, GCS interop mode).
//
// Object paths map directly to bucket keys under an optional key prefix, so
// the bucket mirrors the virtual folder tree and can be inspected with any
// S3 tooling. Custom metadata rides on x-amz-meta-* headers.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/telimanlogistique/telimanshare/pkg/store/object"
)

// Config contains S3 object store configuration.
type Config struct {
	// Endpoint overrides the AWS endpoint for S3-compatible services.
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint,omitempty"`

	Region          string `mapstructure:"region" yaml:"region"`
	Bucket          string `mapstructure:"bucket" yaml:"bucket"`
	AccessKeyID     string `mapstructure:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key" yaml:"secret_access_key"`

	// KeyPrefix is an optional prefix for all object keys.
	KeyPrefix string `mapstructure:"key_prefix" yaml:"key_prefix,omitempty"`

	// ForcePathStyle uses path-style addressing (required by MinIO).
	ForcePathStyle bool `mapstructure:"force_path_style" yaml:"force_path_style,omitempty"`
}

// S3ObjectStore implements object.Store using the AWS SDK v2.
type S3ObjectStore struct {
	client    *s3.Client
	presigner *s3.PresignClient
	bucket    string
	keyPrefix string
}

// NewClient creates an S3 client from configuration parameters.
func NewClient(ctx context.Context, cfg Config) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle
	})
	return client, nil
}

// New creates an S3 object store and verifies bucket access.
func New(ctx context.Context, cfg Config) (*S3ObjectStore, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	client, err := NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store := &S3ObjectStore{
		client:    client,
		presigner: s3.NewPresignClient(client),
		bucket:    cfg.Bucket,
		keyPrefix: cfg.KeyPrefix,
	}

	// The bucket must already exist; fail fast if it is unreachable.
	_, err = client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(cfg.Bucket)})
	if err != nil {
		return nil, fmt.Errorf("failed to access bucket %q: %w", cfg.Bucket, err)
	}
	return store, nil
}

func (s *S3ObjectStore) key(path string) string {
	return s.keyPrefix + path
}

func (s *S3ObjectStore) path(key string) string {
	return strings.TrimPrefix(key, s.keyPrefix)
}

func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NotFound" || code == "NoSuchKey"
	}
	return false
}

func (s *S3ObjectStore) List(ctx context.Context, prefix string) (*object.Listing, error) {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	listing := &object.Listing{}
	input := &s3.ListObjectsV2Input{
		Bucket:    aws.String(s.bucket),
		Prefix:    aws.String(s.key(prefix)),
		Delimiter: aws.String("/"),
	}

	paginator := s3.NewListObjectsV2Paginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list %q: %w", prefix, err)
		}
		for _, cp := range page.CommonPrefixes {
			listing.Prefixes = append(listing.Prefixes, s.path(aws.ToString(cp.Prefix)))
		}
		for _, obj := range page.Contents {
			info := object.Info{
				Path:         s.path(aws.ToString(obj.Key)),
				Size:         aws.ToInt64(obj.Size),
				LastModified: aws.ToTime(obj.LastModified),
			}
			listing.Objects = append(listing.Objects, info)
		}
	}

	// S3 returns each page sorted, but merged pages need a final sort.
	sort.Strings(listing.Prefixes)
	sort.Slice(listing.Objects, func(i, j int) bool {
		return listing.Objects[i].Path < listing.Objects[j].Path
	})
	return listing, nil
}

func (s *S3ObjectStore) Stat(ctx context.Context, path string) (*object.Info, error) {
	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(path)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, object.ErrNotFound
		}
		return nil, fmt.Errorf("failed to stat %q: %w", path, err)
	}

	return &object.Info{
		Path:         path,
		Size:         aws.ToInt64(head.ContentLength),
		ContentType:  aws.ToString(head.ContentType),
		LastModified: aws.ToTime(head.LastModified),
		Custom:       head.Metadata,
	}, nil
}

func (s *S3ObjectStore) Read(ctx context.Context, path string) ([]byte, *object.Info, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(path)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, nil, object.ErrNotFound
		}
		return nil, nil, fmt.Errorf("failed to read %q: %w", path, err)
	}
	defer func() { _ = out.Body.Close() }()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read body of %q: %w", path, err)
	}

	info := &object.Info{
		Path:         path,
		Size:         int64(len(data)),
		ContentType:  aws.ToString(out.ContentType),
		LastModified: aws.ToTime(out.LastModified),
		Custom:       out.Metadata,
	}
	return data, info, nil
}

func (s *S3ObjectStore) Write(ctx context.Context, path string, data []byte, contentType string, custom map[string]string) error {
	input := &s3.PutObjectInput{
		Bucket:   aws.String(s.bucket),
		Key:      aws.String(s.key(path)),
		Body:     bytes.NewReader(data),
		Metadata: custom,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("failed to write %q: %w", path, err)
	}
	return nil
}

func (s *S3ObjectStore) Delete(ctx context.Context, path string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(path)),
	})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("failed to delete %q: %w", path, err)
	}
	return nil
}

func (s *S3ObjectStore) PresignURL(ctx context.Context, path string, expiry time.Duration) (string, error) {
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(path)),
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		return "", fmt.Errorf("failed to presign %q: %w", path, err)
	}
	return req.URL, nil
}
