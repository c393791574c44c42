package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/R3E-Network/jobhunter/internal/config"
)

// GCS writes objects to a Google Cloud Storage bucket.
type GCS struct {
	client *storage.Client
	bucket string
	prefix string
}

func NewGCS(ctx context.Context, cfg config.MediaConfig) (*GCS, error) {
	if cfg.GCSBucket == "" {
		return nil, errors.New("gcs: bucket is required")
	}
	var opts []option.ClientOption
	if cfg.GCSCredentials != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.GCSCredentials))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs client: %w", err)
	}
	return NewGCSWithClient(client, cfg.GCSBucket, cfg.Folder), nil
}

// NewGCSWithClient wraps an existing client.
func NewGCSWithClient(client *storage.Client, bucket, prefix string) *GCS {
	return &GCS{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

func (g *GCS) Name() string { return "gcs" }

func (g *GCS) Put(ctx context.Context, obj Object) (string, error) {
	name := obj.Key()
	if g.prefix != "" {
		name = path.Join(g.prefix, name)
	}
	w := g.client.Bucket(g.bucket).Object(name).NewWriter(ctx)
	w.ContentType = obj.ContentType
	if _, err := io.Copy(w, obj.Body); err != nil {
		w.Close()
		return "", fmt.Errorf("gcs write %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("gcs close %s: %w", name, err)
	}
	return PublicURL(g.bucket, name), nil
}

// PublicURL is the storage.googleapis.com address of an object.
func PublicURL(bucket, name string) string {
	return (&url.URL{Scheme: "https", Host: "storage.googleapis.com", Path: "/" + bucket + "/" + name}).String()
}

func (g *GCS) Close() error { return g.client.Close() }
