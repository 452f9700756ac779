package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"

	"github.com/encanta/encanta/config"
	"github.com/encanta/encanta/internal/domain"
)

// S3FileStorage presigns PUT uploads against an S3-compatible bucket
type S3FileStorage struct {
	client    s3iface.S3API
	bucket    string
	publicURL string
	expiry    time.Duration
	now       func() time.Time
}

// NewS3FileStorage builds a client from the storage config. A custom endpoint
// switches to path-style addressing for S3-compatible stores.
func NewS3FileStorage(cfg config.StorageConfig) (*S3FileStorage, error) {
	awsCfg := &aws.Config{
		Region: aws.String(cfg.Region),
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}
	if cfg.AccessKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, "")
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage session: %w", err)
	}

	return &S3FileStorage{
		client:    s3.New(sess),
		bucket:    cfg.Bucket,
		publicURL: publicBaseURL(cfg),
		expiry:    cfg.UploadExpiry,
		now:       time.Now,
	}, nil
}

func publicBaseURL(cfg config.StorageConfig) string {
	if cfg.PublicURL != "" {
		return strings.TrimRight(cfg.PublicURL, "/")
	}
	if cfg.Endpoint != "" {
		return strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
}

func (s *S3FileStorage) PresignUpload(ctx context.Context, key, contentType string) (*domain.UploadTarget, error) {
	req, _ := s.client.PutObjectRequest(&s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	})
	req.SetContext(ctx)

	uploadURL, err := req.Presign(s.expiry)
	if err != nil {
		return nil, fmt.Errorf("failed to presign upload: %w", err)
	}

	return &domain.UploadTarget{
		UploadURL: uploadURL,
		FileURL:   s.publicURL + "/" + escapeKey(key),
		Key:       key,
		ExpiresAt: s.now().Add(s.expiry).UTC(),
	}, nil
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
