// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/pdiddy/pubmed-harvest/pkg/types"
)

// MinIOBackend stores objects in an S3-compatible bucket (MinIO, AWS S3).
// Prefix is prepended to every key.
type MinIOBackend struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewMinIOBackend connects to the configured endpoint and creates the
// bucket when it does not exist yet.
func NewMinIOBackend(ctx context.Context, cfg types.MinIOConfig, prefix string) (*MinIOBackend, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("minio credentials are required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("minio bucket is required")
	}

	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	exists, err := cli.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		if err := cli.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}

	return &MinIOBackend{client: cli, bucket: cfg.Bucket, prefix: prefix}, nil
}

// Put uploads data as one object and returns its s3:// location.
func (m *MinIOBackend) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	objectKey := path.Join(m.prefix, key)
	_, err := m.client.PutObject(ctx, m.bucket, objectKey, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", err
	}
	return "s3://" + m.bucket + "/" + objectKey, nil
}
