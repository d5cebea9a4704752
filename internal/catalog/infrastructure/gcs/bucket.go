// Package gcs stores product images in a Google Cloud Storage bucket.
package gcs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

type Bucket struct {
	log          *slog.Logger
	client       *storage.Client
	name         string
	emulatorHost string
}

// New opens a client for bucket. A non-empty emulatorHost targets a local
// GCS emulator without credentials.
func New(ctx context.Context, log *slog.Logger, bucket, emulatorHost string) (*Bucket, error) {
	emulatorHost = strings.TrimRight(strings.TrimSpace(emulatorHost), "/")
	var opts []option.ClientOption
	if emulatorHost != "" {
		if err := os.Setenv("STORAGE_EMULATOR_HOST", emulatorHost); err != nil {
			return nil, err
		}
		opts = append(opts, option.WithoutAuthentication())
	} else {
		opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	log.Info("object storage initialized", "bucket", bucket, "emulator_host", emulatorHost)
	return &Bucket{log: log.With("component", "gcs"), client: client, name: bucket, emulatorHost: emulatorHost}, nil
}

func (b *Bucket) Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := b.client.Bucket(b.name).Object(key).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}
	if _, err := io.Copy(w, body); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write object %q: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close object %q: %w", key, err)
	}
	return b.PublicURL(key), nil
}

func (b *Bucket) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := b.client.Bucket(b.name).Object(key).Delete(ctx); err != nil {
		return fmt.Errorf("delete object %q in bucket %q: %w", key, b.name, err)
	}
	return nil
}

func (b *Bucket) PublicURL(key string) string {
	key = strings.TrimLeft(key, "/")
	if b.emulatorHost != "" {
		return fmt.Sprintf("%s/storage/v1/b/%s/o/%s?alt=media", b.emulatorHost, b.name, url.PathEscape(key))
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", b.name, key)
}

func (b *Bucket) Close() error {
	return b.client.Close()
}
