package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Compile-time check to ensure s3MediaStore implements MediaStore
var _ MediaStore = (*s3MediaStore)(nil)

// S3Config holds the connection settings for an S3-compatible media host.
type S3Config struct {
	Region        string
	Bucket        string
	BaseEndpoint  string // non-empty for MinIO-compatible hosts
	PublicBaseURL string
	AccessKey     string
	SecretKey     string
}

type s3MediaStore struct {
	client *s3.Client
	cfg    S3Config
	logger *zap.Logger
}

// NewS3MediaStore creates an S3-backed MediaStore.
func NewS3MediaStore(ctx context.Context, cfg S3Config, logger *zap.Logger) (MediaStore, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return &s3MediaStore{
		client: client,
		cfg:    cfg,
		logger: logger.Named("S3MediaStore"),
	}, nil
}

// storageKey produces a date-partitioned object key that preserves the file
// extension so the media host serves the right content type.
func storageKey(localPath string) string {
	d := time.Now()
	ext := strings.ToLower(filepath.Ext(localPath))
	return fmt.Sprintf("media/%d/%02d/%02d/%s%s", d.Year(), d.Month(), d.Day(), uuid.NewString(), ext)
}

// Upload puts the local file into the bucket and returns its public URL.
// The local file is left in place; the caller removes it.
func (s *s3MediaStore) Upload(ctx context.Context, localPath, contentType string) (string, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open upload file %s: %w", localPath, err)
	}
	defer file.Close()

	key := storageKey(localPath)
	s.logger.Debug("Uploading media object",
		zap.String("bucket", s.cfg.Bucket),
		zap.String("key", key),
		zap.String("contentType", contentType),
	)

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
		Body:   file,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		s.logger.Error("Failed to upload media object", zap.Error(err), zap.String("key", key))
		return "", fmt.Errorf("failed to upload media object: %w", err)
	}

	url := strings.TrimRight(s.cfg.PublicBaseURL, "/") + "/" + key
	s.logger.Info("Media object uploaded", zap.String("key", key), zap.String("url", url))
	return url, nil
}
