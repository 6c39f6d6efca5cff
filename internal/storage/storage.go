package storage

import (
	"context"
	"io"
)

// ObjectStorage holds uploaded branding assets. Uploads return a stable
// public URL; removal addresses the object by that URL's trailing path
// segment.
type ObjectStorage interface {
	Upload(ctx context.Context, fileName, contentType string, size int64, r io.Reader) (string, error)
	Remove(ctx context.Context, objectURL string) error
}
