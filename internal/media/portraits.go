package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ngophungianghi/careai-server/pkg/logging"
)

// PortraitStore accepts an image blob and returns a stable retrievable URL.
type PortraitStore interface {
	Put(ctx context.Context, doctorID string, contentType string, data []byte) (string, error)
}

// S3API is the subset of the S3 client used by S3PortraitStore.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3PortraitStore stores doctor portraits in an S3 bucket.
type S3PortraitStore struct {
	bucket   string
	baseURL  string
	s3Client S3API
	logger   *logging.Logger
}

// NewS3PortraitStore creates a portrait store. baseURL is the public prefix
// under which uploaded keys are served.
func NewS3PortraitStore(s3Client S3API, bucket, baseURL string, logger *logging.Logger) *S3PortraitStore {
	if logger == nil {
		logger = logging.Default()
	}
	return &S3PortraitStore{
		bucket:   bucket,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		s3Client: s3Client,
		logger:   logger,
	}
}

// Enabled returns true if portrait storage is configured.
func (s *S3PortraitStore) Enabled() bool {
	return s != nil && s.bucket != "" && s.s3Client != nil
}

// Put uploads a portrait and returns its public URL.
func (s *S3PortraitStore) Put(ctx context.Context, doctorID string, contentType string, data []byte) (string, error) {
	if !s.Enabled() {
		return "", errors.New("media: portrait storage not configured")
	}
	if len(data) == 0 {
		return "", errors.New("media: empty image")
	}

	ext := extensionFor(contentType)
	if ext == "" {
		return "", fmt.Errorf("media: unsupported content type %q", contentType)
	}

	key := fmt.Sprintf("portraits/%s/%d%s", doctorID, time.Now().UTC().Unix(), ext)
	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("media: s3 put %s: %w", key, err)
	}

	s.logger.Info("uploaded doctor portrait", "doctor_id", doctorID, "s3_key", key, "bytes", len(data))
	return s.baseURL + "/" + key, nil
}

func extensionFor(contentType string) string {
	switch strings.ToLower(strings.TrimSpace(contentType)) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ""
	}
}
