package blob

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dmitrijs2005/echochat/internal/client/config"
)

// S3Uploader implements Uploader against any S3-compatible store
// (AWS S3 or MinIO via a custom endpoint).
type S3Uploader struct {
	cfg *config.Config

	once    sync.Once
	client  *s3.Client
	initErr error
}

var _ Uploader = (*S3Uploader)(nil)

// NewS3Uploader returns an uploader using the blob settings from cfg.
// The underlying client is created lazily on first upload.
func NewS3Uploader(cfg *config.Config) *S3Uploader {
	return &S3Uploader{cfg: cfg}
}

func (u *S3Uploader) getClient(ctx context.Context) (*s3.Client, error) {
	u.once.Do(func() {
		opts := []func(*awsconfig.LoadOptions) error{
			awsconfig.WithRegion(u.cfg.BlobRegion),
		}
		if u.cfg.BlobAccessKey != "" {
			opts = append(opts, awsconfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(u.cfg.BlobAccessKey, u.cfg.BlobSecretKey, "")))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			u.initErr = fmt.Errorf("failed to load aws config: %w", err)
			return
		}
		u.client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if u.cfg.BlobEndpointURL != "" {
				o.BaseEndpoint = aws.String(u.cfg.BlobEndpointURL)
				o.UsePathStyle = true
			}
		})
	})
	return u.client, u.initErr
}

// Upload implements Uploader.
func (u *S3Uploader) Upload(ctx context.Context, data []byte, contentType, key string) (string, error) {
	client, err := u.getClient(ctx)
	if err != nil {
		return "", err
	}

	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(u.cfg.BlobBucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(data),
		ContentType:  aws.String(contentType),
		CacheControl: aws.String("max-age=3600"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object: %w", err)
	}
	return u.publicURL(key), nil
}

func (u *S3Uploader) publicURL(key string) string {
	if u.cfg.BlobPublicBaseURL != "" {
		return strings.TrimSuffix(u.cfg.BlobPublicBaseURL, "/") + "/" + key
	}
	if u.cfg.BlobEndpointURL != "" {
		return strings.TrimSuffix(u.cfg.BlobEndpointURL, "/") + "/" + u.cfg.BlobBucket + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.cfg.BlobBucket, u.cfg.BlobRegion, key)
}
