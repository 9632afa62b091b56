package minio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"sourcing-backend/internal/shared/storage/object"
)

// Options locates an S3-compatible endpoint such as a self-hosted MinIO.
type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Region    string
	Bucket    string
	Prefix    string
}

// Store archives objects in one bucket of an S3-compatible server.
type Store struct {
	client *minio.Client
	bucket string
	prefix string
}

func New(opts Options) (*Store, error) {
	endpoint := strings.TrimSpace(opts.Endpoint)
	if endpoint == "" {
		return nil, errors.New("MINIO_ENDPOINT is required")
	}
	bucket := strings.TrimSpace(opts.Bucket)
	if bucket == "" {
		return nil, errors.New("minio bucket is required")
	}
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	return &Store{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(strings.TrimSpace(opts.Prefix), "/"),
	}, nil
}

// Put buffers r so the upload is a single request with a known length. Archived exports
// and events are small.
func (s *Store) Put(ctx context.Context, key, contentType string, r io.Reader) (int64, error) {
	objectKey, err := s.objectKey(ctx, key)
	if err != nil {
		return 0, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("read body: %w", err)
	}
	info, err := s.client.PutObject(ctx, s.bucket, objectKey, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return 0, fmt.Errorf("minio put %s/%s: %w", s.bucket, objectKey, err)
	}
	return info.Size, nil
}

// Open stats the object first so a missing key surfaces as object.ErrNotFound here rather
// than on the first Read.
func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	objectKey, err := s.objectKey(ctx, key)
	if err != nil {
		return nil, err
	}
	obj, err := s.client.GetObject(ctx, s.bucket, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, mapError(s.bucket, objectKey, err)
	}
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, mapError(s.bucket, objectKey, err)
	}
	return obj, nil
}

func (s *Store) objectKey(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	clean, err := object.CleanKey(key)
	if err != nil {
		return "", err
	}
	if s.prefix == "" {
		return clean, nil
	}
	return s.prefix + "/" + clean, nil
}

func mapError(bucket, key string, err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return object.ErrNotFound
	}
	return fmt.Errorf("minio get %s/%s: %w", bucket, key, err)
}

var _ object.ObjectStore = (*Store)(nil)
