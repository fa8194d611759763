// internal/services/storage_service.go
package services

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"

	"github.com/javajoker/jewelry-backend/internal/config"
)

type StorageService struct {
	s3Client s3iface.S3API
	bucket   string
	region   string
	prefix   string
	localDir string
}

type UploadResult struct {
	URL      string `json:"url"`
	Key      string `json:"key"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`
}

func NewStorageService(cfg *config.Config) (*StorageService, error) {
	service := &StorageService{
		bucket:   cfg.AWS.S3Bucket,
		region:   cfg.AWS.Region,
		prefix:   cfg.AWS.ReportPrefix,
		localDir: cfg.Pricing.ReportDir,
	}

	if cfg.AWS.AccessKeyID == "" {
		// Reports go to the local report directory
		return service, nil
	}

	// Create AWS session
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(cfg.AWS.Region),
		Credentials: credentials.NewStaticCredentials(
			cfg.AWS.AccessKeyID,
			cfg.AWS.SecretAccessKey,
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	service.s3Client = s3.New(sess)
	return service, nil
}

// ArchiveReport stores a recalculation report under the report prefix.
func (s *StorageService) ArchiveReport(ctx context.Context, name string, data []byte, contentType string) (*UploadResult, error) {
	key := path.Join(s.prefix, time.Now().UTC().Format("2006/01"), name)

	if s.s3Client != nil {
		return s.uploadToS3(ctx, data, key, contentType)
	}
	return s.writeToLocal(data, key, contentType)
}

func (s *StorageService) uploadToS3(ctx context.Context, data []byte, key, contentType string) (*UploadResult, error) {
	params := &s3.PutObjectInput{
		Bucket:               aws.String(s.bucket),
		Key:                  aws.String(key),
		Body:                 bytes.NewReader(data),
		ContentType:          aws.String(contentType),
		ContentLength:        aws.Int64(int64(len(data))),
		ServerSideEncryption: aws.String(s3.ServerSideEncryptionAes256),
	}

	if _, err := s.s3Client.PutObjectWithContext(ctx, params); err != nil {
		return nil, fmt.Errorf("failed to upload to S3: %w", err)
	}

	return &UploadResult{
		URL:      s.getS3URL(key),
		Key:      key,
		Size:     int64(len(data)),
		MimeType: contentType,
	}, nil
}

func (s *StorageService) writeToLocal(data []byte, key, contentType string) (*UploadResult, error) {
	fullPath := filepath.Join(s.localDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write report: %w", err)
	}

	return &UploadResult{
		URL:      "file://" + fullPath,
		Key:      key,
		Size:     int64(len(data)),
		MimeType: contentType,
	}, nil
}

// GeneratePresignedURL returns a temporary download link for an archived
// report.
func (s *StorageService) GeneratePresignedURL(key string, expiration time.Duration) (string, error) {
	if s.s3Client == nil {
		return "", fmt.Errorf("S3 client not configured")
	}

	req, _ := s.s3Client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})

	url, err := req.Presign(expiration)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return url, nil
}

func (s *StorageService) getS3URL(key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}
