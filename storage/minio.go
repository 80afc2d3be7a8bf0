// Package storage mirrors processed outputs into MinIO object storage so
// other services can fetch them without touching the local filesystem.
package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"audiofx/config"
	"audiofx/logger"
)

// Store wraps a MinIO client bound to one bucket. A nil *Store disables
// mirroring.
type Store struct {
	client *minio.Client
	bucket string
}

// New connects to MinIO and ensures the configured bucket exists.
func New(cfg *config.Config) (*Store, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", cfg.MinioBucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{
			Region: cfg.MinioRegion,
		}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.MinioBucket, err)
		}
		logger.Info("created bucket", logger.String("bucket", cfg.MinioBucket))
	}

	return &Store{client: client, bucket: cfg.MinioBucket}, nil
}

// UploadFile mirrors a local file under the given object name. A nil store
// is a no-op; upload failures are logged, not fatal, because the local copy
// remains the source of truth.
func (s *Store) UploadFile(localPath, objectName string) {
	if s == nil || s.client == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	contentType := "audio/wav"
	if filepath.Ext(localPath) == ".mp3" {
		contentType = "audio/mpeg"
	}

	info, err := s.client.FPutObject(ctx, s.bucket, objectName, localPath, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		logger.Warn("failed to mirror file to object storage",
			logger.String("object", objectName),
			logger.ErrorField(err))
		return
	}
	logger.Debug("mirrored processed file",
		logger.String("object", objectName),
		logger.Int64("size", info.Size))
}
