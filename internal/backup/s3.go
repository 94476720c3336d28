// Package backup uploads compressed database snapshots to S3.
package backup

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"os"
	"path"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"github.com/aristath/advisor/internal/config"
)

// Service uploads database backups. Disabled cleanly when no bucket is
// configured.
type Service struct {
	cfg *config.Config
	log zerolog.Logger
}

// NewService creates a backup service.
func NewService(cfg *config.Config, log zerolog.Logger) *Service {
	return &Service{
		cfg: cfg,
		log: log.With().Str("component", "backup").Logger(),
	}
}

// Enabled reports whether a backup bucket is configured.
func (s *Service) Enabled() bool {
	return s.cfg.S3Bucket != ""
}

// Upload gzips the file at dbPath and uploads it under a dated key.
// Returns the object key.
func (s *Service) Upload(ctx context.Context, dbPath string) (string, error) {
	if !s.Enabled() {
		return "", fmt.Errorf("backup is not configured")
	}

	data, err := os.ReadFile(dbPath)
	if err != nil {
		return "", fmt.Errorf("reading database file: %w", err)
	}

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(data); err != nil {
		return "", fmt.Errorf("compressing backup: %w", err)
	}
	if err := gz.Close(); err != nil {
		return "", fmt.Errorf("finalizing backup archive: %w", err)
	}

	client, err := s.s3Client(ctx)
	if err != nil {
		return "", err
	}

	key := path.Join(s.cfg.S3Prefix, fmt.Sprintf("advisor-%s.db.gz", time.Now().UTC().Format("2006-01-02")))

	uploader := manager.NewUploader(client)
	_, err = uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: &s.cfg.S3Bucket,
		Key:    &key,
		Body:   &buf,
	})
	if err != nil {
		return "", fmt.Errorf("uploading backup to s3://%s/%s: %w", s.cfg.S3Bucket, key, err)
	}

	s.log.Info().
		Str("bucket", s.cfg.S3Bucket).
		Str("key", key).
		Int("compressed_bytes", buf.Len()).
		Msg("Backup uploaded")

	return key, nil
}

// s3Client loads AWS config, preferring static credentials from the
// environment when both keys are set.
func (s *Service) s3Client(ctx context.Context) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(s.cfg.S3Region),
	}

	accessKey := os.Getenv("AWS_ACCESS_KEY_ID")
	secretKey := os.Getenv("AWS_SECRET_ACCESS_KEY")
	if accessKey != "" && secretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return s3.NewFromConfig(awsCfg), nil
}
