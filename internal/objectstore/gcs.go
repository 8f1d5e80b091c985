package objectstore

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"onboarding/internal/platform/config"
	"onboarding/pkg/platform/sentinel"
)

// GCS stores objects in a Google Cloud Storage bucket.
type GCS struct {
	client *storage.Client
	bucket *storage.BucketHandle
	name   string
}

// NewGCS connects to Cloud Storage. Credentials come from cfg.CredentialsFile
// when set and from Application Default Credentials otherwise.
func NewGCS(ctx context.Context, cfg config.StorageConfig) (*GCS, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("gcs bucket is required")
	}
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	if cfg.ProjectID != "" {
		opts = append(opts, option.WithQuotaProject(cfg.ProjectID))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	return &GCS{
		client: client,
		bucket: client.Bucket(cfg.Bucket),
		name:   cfg.Bucket,
	}, nil
}

// Put writes content under key only if no object exists there yet.
func (g *GCS) Put(ctx context.Context, key string, content []byte, mimeType string) error {
	w := g.bucket.Object(key).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	w.ContentType = mimeType
	w.CacheControl = CacheControl

	if _, err := w.Write(content); err != nil {
		_ = w.Close()
		return fmt.Errorf("write gs://%s/%s: %w", g.name, key, err)
	}
	if err := w.Close(); err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusPreconditionFailed {
			return fmt.Errorf("object gs://%s/%s: %w", g.name, key, sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("finalize gs://%s/%s: %w", g.name, key, err)
	}
	return nil
}

// SignedReadURL returns a V4 signed GET URL for key.
func (g *GCS) SignedReadURL(_ context.Context, key string, ttl time.Duration) (string, error) {
	url, err := g.bucket.SignedURL(key, &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  http.MethodGet,
		Expires: time.Now().Add(ttl),
	})
	if err != nil {
		return "", fmt.Errorf("sign gs://%s/%s: %w", g.name, key, err)
	}
	return url, nil
}

// Close releases the underlying client.
func (g *GCS) Close() error {
	return g.client.Close()
}
