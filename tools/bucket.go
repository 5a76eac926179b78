package tools

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"reflectionsmatch/logger"
)

// Bucket is the object storage collaborator.
type Bucket interface {
	// Upload stores the blob at key and returns its public download URL.
	Upload(ctx context.Context, key, contentType string, r io.Reader) (string, error)
	Delete(ctx context.Context, key string) error
}

type GCSBucket struct {
	log           *logger.Logger
	client        *storage.Client
	name          string
	publicBaseURL string
}

func NewGCSBucket(ctx context.Context, log *logger.Logger, name, publicBaseURL string, opts ...option.ClientOption) (*GCSBucket, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("missing GCS_BUCKET_NAME")
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	if publicBaseURL == "" {
		publicBaseURL = "https://storage.googleapis.com/" + name
	}
	b := &GCSBucket{
		log:           log.With("service", "GCSBucket"),
		client:        client,
		name:          name,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
	b.log.Info("Object storage initialized", "bucket", name, "public_base_url", b.publicBaseURL)
	return b, nil
}

func (b *GCSBucket) Upload(ctx context.Context, key, contentType string, r io.Reader) (string, error) {
	w := b.client.Bucket(b.name).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return b.PublicURL(key), nil
}

func (b *GCSBucket) Delete(ctx context.Context, key string) error {
	err := b.client.Bucket(b.name).Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (b *GCSBucket) PublicURL(key string) string {
	return b.publicBaseURL + "/" + strings.TrimLeft(key, "/")
}

func (b *GCSBucket) Close() error {
	return b.client.Close()
}
