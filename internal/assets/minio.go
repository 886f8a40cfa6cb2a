// Package assets stores overlay images for persist.Bridge.
package assets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"sitesketch/internal/config"
)

// ErrForeignURL is returned when a URL does not point into the store.
var ErrForeignURL = errors.New("assets: url does not belong to this store")

// MinIOStore keeps assets in an S3 compatible bucket and addresses them by
// their object URL.
type MinIOStore struct {
	client *minio.Client
	bucket string
	base   string
}

// NewMinIOStore connects to the bucket described by cfg, creating it if it
// does not exist.
func NewMinIOStore(ctx context.Context, cfg config.MinIO) (*MinIOStore, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("assets: MINIO_ENDPOINT is not set")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
	}

	return &MinIOStore{
		client: client,
		bucket: cfg.Bucket,
		base:   strings.TrimSuffix(client.EndpointURL().String(), "/") + "/" + cfg.Bucket + "/",
	}, nil
}

// UploadAsset stores data under key and returns its object URL.
func (s *MinIOStore) UploadAsset(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return s.base + escapeKey(key), nil
}

// FetchAsset reads an object previously returned by UploadAsset.
func (s *MinIOStore) FetchAsset(ctx context.Context, rawURL string) ([]byte, error) {
	key, err := s.keyOf(rawURL)
	if err != nil {
		return nil, err
	}
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", key, err)
	}
	return data, nil
}

func (s *MinIOStore) keyOf(rawURL string) (string, error) {
	if !strings.HasPrefix(rawURL, s.base) {
		return "", fmt.Errorf("%w: %s", ErrForeignURL, rawURL)
	}
	return url.PathUnescape(strings.TrimPrefix(rawURL, s.base))
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
