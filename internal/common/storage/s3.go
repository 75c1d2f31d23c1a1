// internal/common/storage/s3.go
package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"rentdesk/internal/common/config"
	"rentdesk/internal/common/logger"
)

// S3API is the subset of the S3 client the uploader needs, for mocking.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Uploader stores photo attachments in the configured bucket and returns
// durable public URLs in attachment order.
type Uploader struct {
	client S3API
	bucket string
	region string
	logger logger.Logger
	now    func() time.Time
}

// NewUploader creates an Uploader backed by the real S3 client.
func NewUploader(ctx context.Context, cfg config.S3Config, log logger.Logger) (*Uploader, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return NewUploaderWithClient(client, cfg, log), nil
}

// NewUploaderWithClient wires an explicit client, used by tests.
func NewUploaderWithClient(client S3API, cfg config.S3Config, log logger.Logger) *Uploader {
	return &Uploader{
		client: client,
		bucket: cfg.Bucket,
		region: cfg.Region,
		logger: log.WithFields(map[string]interface{}{"component": "s3-uploader"}),
		now:    time.Now,
	}
}

// Upload stores one file under a collision-resistant key (timestamp plus the
// original name) and returns its durable URL.
func (u *Uploader) Upload(ctx context.Context, fileName, contentType string, body io.Reader) (string, error) {
	key := fmt.Sprintf("properties/%d-%s", u.now().UnixNano(), fileName)

	input := &s3.PutObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := u.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}

	// Keys are logged so uploads orphaned by a later pipeline failure stay traceable.
	u.logger.Info("photo stored", map[string]interface{}{
		"bucket": u.bucket,
		"key":    key,
	})

	return u.ObjectURL(key), nil
}

// ObjectURL returns the public URL for a stored key.
func (u *Uploader) ObjectURL(key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.bucket, u.region, key)
}
