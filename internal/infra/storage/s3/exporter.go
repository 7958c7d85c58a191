package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const defaultLinkTTL = 15 * time.Minute

// Exporter stores order exports in a private bucket and hands out time-limited links.
type Exporter struct {
	bucket         string
	linkTTL        time.Duration
	client         *minio.Client
	signer         *minio.Client
	logger         *slog.Logger
	bucketInitOnce sync.Once
	bucketInitErr  error
}

type Options struct {
	Endpoint       string
	PublicEndpoint string
	UseSSL         bool
	AccessKey      string
	SecretKey      string
	Bucket         string
	LinkTTL        time.Duration
	Logger         *slog.Logger
}

func NewExporter(opts Options) (*Exporter, error) {
	endpoint := strings.TrimSpace(opts.Endpoint)
	if endpoint == "" {
		return nil, errors.New("s3: endpoint is required")
	}
	bucket := strings.TrimSpace(opts.Bucket)
	if bucket == "" {
		return nil, errors.New("s3: bucket is required")
	}
	creds := credentials.NewStaticV4(strings.TrimSpace(opts.AccessKey), strings.TrimSpace(opts.SecretKey), "")
	client, err := minio.New(parseEndpoint(endpoint), &minio.Options{Creds: creds, Secure: opts.UseSSL})
	if err != nil {
		return nil, fmt.Errorf("s3: create client: %w", err)
	}

	// Links are signed against the host browsers reach. A fixed region keeps signing offline.
	public := strings.TrimSpace(opts.PublicEndpoint)
	if public == "" {
		public = endpoint
	}
	signer, err := minio.New(parseEndpoint(public), &minio.Options{
		Creds:  creds,
		Secure: publicSecure(public, opts.UseSSL),
		Region: "us-east-1",
	})
	if err != nil {
		return nil, fmt.Errorf("s3: create signer: %w", err)
	}

	ttl := opts.LinkTTL
	if ttl <= 0 {
		ttl = defaultLinkTTL
	}
	return &Exporter{
		bucket:  bucket,
		linkTTL: ttl,
		client:  client,
		signer:  signer,
		logger:  opts.Logger,
	}, nil
}

func (e *Exporter) Upload(ctx context.Context, key string, reader io.Reader, contentType string) (string, error) {
	if reader == nil {
		return "", errors.New("s3: reader is required")
	}
	key = strings.Trim(strings.TrimSpace(key), "/")
	if key == "" {
		return "", errors.New("s3: object key is required")
	}
	if err := e.ensureBucket(ctx); err != nil {
		return "", err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := e.client.PutObject(ctx, e.bucket, key, reader, -1, minio.PutObjectOptions{
		ContentType:        contentType,
		ContentDisposition: fmt.Sprintf("attachment; filename=%q", fileName(key)),
	})
	if err != nil {
		return "", fmt.Errorf("s3: put object: %w", err)
	}

	link, err := e.signer.PresignedGetObject(ctx, e.bucket, key, e.linkTTL, url.Values{})
	if err != nil {
		return "", fmt.Errorf("s3: presign: %w", err)
	}
	if e.logger != nil {
		e.logger.Info("export uploaded", "bucket", e.bucket, "key", key, "expires_in", e.linkTTL.String())
	}
	return link.String(), nil
}

func (e *Exporter) ensureBucket(ctx context.Context) error {
	e.bucketInitOnce.Do(func() {
		exists, err := e.client.BucketExists(ctx, e.bucket)
		if err != nil {
			e.bucketInitErr = fmt.Errorf("s3: check bucket: %w", err)
			return
		}
		if exists {
			return
		}
		if err := e.client.MakeBucket(ctx, e.bucket, minio.MakeBucketOptions{}); err != nil {
			e.bucketInitErr = fmt.Errorf("s3: create bucket: %w", err)
		}
	})
	return e.bucketInitErr
}

func fileName(key string) string {
	if idx := strings.LastIndex(key, "/"); idx >= 0 {
		return key[idx+1:]
	}
	return key
}

func parseEndpoint(endpoint string) string {
	if parsed, err := url.Parse(endpoint); err == nil && parsed.Host != "" {
		return parsed.Host
	}
	return endpoint
}

func publicSecure(endpoint string, fallback bool) bool {
	if parsed, err := url.Parse(endpoint); err == nil && parsed.Host != "" {
		return parsed.Scheme == "https"
	}
	return fallback
}
