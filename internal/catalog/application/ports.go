package application

import (
	"context"
	"io"
)

// ImageStore is the object storage holding product images.
type ImageStore interface {
	// Upload stores body under key and returns its public URL.
	Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error)
	Delete(ctx context.Context, key string) error
}

// Image is an optional upload belonging to the product at the same index.
type Image struct {
	Filename    string
	ContentType string
	Body        io.Reader
}
