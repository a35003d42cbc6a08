package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Mirror receives a copy of every public image written to local storage.
type Mirror interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

// MinIOConfig configures the object storage mirror.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// MinIOMirror copies public images into a MinIO (or S3 compatible) bucket.
type MinIOMirror struct {
	client *minio.Client
	bucket string
}

// NewMinIOMirror connects to the endpoint and creates the bucket if missing.
func NewMinIOMirror(ctx context.Context, cfg MinIOConfig) (*MinIOMirror, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}

	return &MinIOMirror{client: client, bucket: cfg.Bucket}, nil
}

func (m *MinIOMirror) Put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("mirror %s: %w", key, err)
	}
	return nil
}

var _ Mirror = (*MinIOMirror)(nil)
