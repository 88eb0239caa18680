package objectstore

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/terpspark/terpspark-api/internal/config"
	"github.com/terpspark/terpspark-api/internal/logger"
)

// MaxImageSize is the largest accepted event image upload
const MaxImageSize = 10 << 20 // 10MB

// allowedImageTypes lists the content types accepted for event images
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// Store saves and serves event image objects
type Store interface {
	Put(ctx context.Context, eventID, filename, contentType string, size int64, r io.Reader) (string, error)
	Get(ctx context.Context, objectName string) (io.ReadCloser, error)
	Remove(ctx context.Context, objectName string) error
}

// MinioStore implements Store backed by a MinIO bucket
type MinioStore struct {
	client *minio.Client
	bucket string
	log    *log.Logger
}

// NewMinioStore connects to MinIO and ensures the configured bucket exists
func NewMinioStore(cfg *config.Config) (*MinioStore, error) {
	log := logger.Repository("objectstore")

	client, err := minio.New(cfg.Upload.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Upload.AccessKey, cfg.Upload.SecretKey, ""),
		Secure: cfg.Upload.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.Upload.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %q: %w", cfg.Upload.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Upload.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %q: %w", cfg.Upload.Bucket, err)
		}
		log.Info("Created object storage bucket", "bucket", cfg.Upload.Bucket)
	}

	log.Info("Object store connected", "endpoint", cfg.Upload.Endpoint, "bucket", cfg.Upload.Bucket)
	return &MinioStore{client: client, bucket: cfg.Upload.Bucket, log: log}, nil
}

// ValidateImage rejects oversized uploads and non-image content types
func ValidateImage(contentType string, size int64) error {
	if size > MaxImageSize {
		return fmt.Errorf("image exceeds %dMB limit", MaxImageSize>>20)
	}
	if !allowedImageTypes[contentType] {
		return fmt.Errorf("content type %q not allowed", contentType)
	}
	return nil
}

// Put stores an event image and returns the generated object name
func (s *MinioStore) Put(ctx context.Context, eventID, filename, contentType string, size int64, r io.Reader) (string, error) {
	if err := ValidateImage(contentType, size); err != nil {
		return "", err
	}

	objectName := fmt.Sprintf("%s/%d%s", eventID, time.Now().Unix(), filepath.Ext(filename))

	s.log.Debug("Uploading event image", "object", objectName, "size", size)
	_, err := s.client.PutObject(ctx, s.bucket, objectName, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to store object %q: %w", objectName, err)
	}

	s.log.Info("Event image stored", "object", objectName)
	return objectName, nil
}

// Get streams a stored object
func (s *MinioStore) Get(ctx context.Context, objectName string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch object %q: %w", objectName, err)
	}
	return obj, nil
}

// Remove deletes a stored object
func (s *MinioStore) Remove(ctx context.Context, objectName string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, objectName, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove object %q: %w", objectName, err)
	}
	s.log.Debug("Event image removed", "object", objectName)
	return nil
}
