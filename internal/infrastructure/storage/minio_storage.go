package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/k-shtanenko/ridership-api/internal/config"
	"github.com/k-shtanenko/ridership-api/internal/pkg/logger"
)

type MinioStorage struct {
	client *minio.Client
	logger logger.Logger
}

func NewMinioStorage(cfg config.MinioConfig, log logger.Logger) (*MinioStorage, error) {
	log = logger.Component(log, "minio_storage")

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Minio client: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if _, err := client.ListBuckets(ctx); err != nil {
		return nil, fmt.Errorf("failed to list Minio buckets: %w", err)
	}

	log.Infof("Minio storage connected to %s", cfg.Endpoint)
	return &MinioStorage{
		client: client,
		logger: log,
	}, nil
}

func (m *MinioStorage) Upload(ctx context.Context, bucket, key string, data io.Reader, size int64, contentType string) error {
	if err := m.ensureBucket(ctx, bucket); err != nil {
		return err
	}

	_, err := m.client.PutObject(ctx, bucket, key, data, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload object: %w", err)
	}

	m.logger.Debugf("Uploaded object %s/%s", bucket, key)
	return nil
}

func (m *MinioStorage) Download(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	object, err := m.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to download object: %w", err)
	}

	if _, err := object.Stat(); err != nil {
		object.Close()
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s/%s", ErrObjectNotFound, bucket, key)
		}
		return nil, fmt.Errorf("failed to stat object: %w", err)
	}

	return object, nil
}

func (m *MinioStorage) Delete(ctx context.Context, bucket, key string) error {
	if err := m.client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

func (m *MinioStorage) Exists(ctx context.Context, bucket, key string) (bool, error) {
	if _, err := m.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{}); err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat object: %w", err)
	}
	return true, nil
}

func (m *MinioStorage) HealthCheck(ctx context.Context) error {
	if _, err := m.client.ListBuckets(ctx); err != nil {
		return fmt.Errorf("Minio list buckets failed: %w", err)
	}
	return nil
}

func (m *MinioStorage) ensureBucket(ctx context.Context, bucket string) error {
	exists, err := m.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if exists {
		return nil
	}

	if err := m.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	m.logger.Infof("Created bucket: %s", bucket)
	return nil
}

func isNotFound(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NoSuchBucket"
}
