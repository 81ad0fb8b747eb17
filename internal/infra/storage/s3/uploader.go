package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"programhub/internal/app/policies"
)

var ErrUploaderDisabled = errors.New("s3: photo storage is not configured")

type Config struct {
	Endpoint       string
	PublicEndpoint string
	AccessKey      string
	SecretKey      string
	Bucket         string
	UseSSL         bool
}

// Client stores listing photos in an S3-compatible bucket.
type Client struct {
	bucket         string
	publicBaseURL  string
	client         *minio.Client
	logger         *slog.Logger
	bucketInitOnce sync.Once
	bucketInitErr  error
}

func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, errors.New("s3: endpoint is required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, errors.New("s3: bucket is required")
	}
	minioClient, err := minio.New(hostOf(endpoint), &minio.Options{
		Creds:  credentials.NewStaticV4(strings.TrimSpace(cfg.AccessKey), strings.TrimSpace(cfg.SecretKey), ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("s3: create client: %w", err)
	}
	return &Client{
		bucket:        bucket,
		publicBaseURL: publicBase(cfg),
		client:        minioClient,
		logger:        logger,
	}, nil
}

// Upload puts data under objectName and returns the public URL of the object.
func (c *Client) Upload(ctx context.Context, objectName string, data []byte, contentType string) (string, error) {
	objectName = strings.Trim(strings.TrimSpace(objectName), "/")
	if objectName == "" {
		return "", errors.New("s3: object name is required")
	}
	if err := c.ensureBucket(ctx); err != nil {
		return "", err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := c.client.PutObject(ctx, c.bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("s3: put object: %w", err)
	}
	publicURL := c.objectURL(objectName)
	if c.logger != nil {
		c.logger.InfoContext(ctx, "photo stored", "bucket", c.bucket, "object", objectName, "bytes", len(data))
	}
	return publicURL, nil
}

// Ping checks that the bucket endpoint answers.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.client.BucketExists(ctx, c.bucket)
	return err
}

func (c *Client) ensureBucket(ctx context.Context) error {
	c.bucketInitOnce.Do(func() {
		exists, err := c.client.BucketExists(ctx, c.bucket)
		if err != nil {
			c.bucketInitErr = fmt.Errorf("s3: check bucket: %w", err)
			return
		}
		if exists {
			return
		}
		if err := c.client.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{}); err != nil {
			c.bucketInitErr = fmt.Errorf("s3: create bucket: %w", err)
			return
		}
		if err := c.client.SetBucketPolicy(ctx, c.bucket, publicReadPolicy(c.bucket)); err != nil {
			c.bucketInitErr = fmt.Errorf("s3: set bucket policy: %w", err)
		}
	})
	return c.bucketInitErr
}

func (c *Client) objectURL(objectName string) string {
	return fmt.Sprintf("%s/%s/%s", c.publicBaseURL, c.bucket, strings.TrimLeft(objectName, "/"))
}

// DisabledUploader is used when no bucket is configured.
type DisabledUploader struct{}

func (DisabledUploader) Upload(context.Context, string, []byte, string) (string, error) {
	return "", ErrUploaderDisabled
}

func publicReadPolicy(bucket string) string {
	return fmt.Sprintf(`{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"AWS":["*"]},"Action":["s3:GetObject"],"Resource":["arn:aws:s3:::%s/*"]}]}`, bucket)
}

// publicBase returns the URL prefix buyers load photos from, with a scheme.
func publicBase(cfg Config) string {
	base := strings.TrimSpace(cfg.PublicEndpoint)
	if base == "" {
		base = strings.TrimSpace(cfg.Endpoint)
	}
	if !strings.Contains(base, "://") {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		base = scheme + "://" + base
	}
	return strings.TrimRight(base, "/")
}

func hostOf(endpoint string) string {
	if parsed, err := url.Parse(endpoint); err == nil && parsed.Host != "" {
		return parsed.Host
	}
	return endpoint
}

var (
	_ policies.PhotoUploader = (*Client)(nil)
	_ policies.PhotoUploader = DisabledUploader{}
)
