// Package storage defines the blob store abstraction used for raw filing
// bodies.
package storage

import (
	"context"
	"io"
)

// BlobStore writes raw artifacts and returns a URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data io.Reader) (string, error)
}
