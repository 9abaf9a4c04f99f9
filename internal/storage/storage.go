// Package storage declares the blob store used for appreciation images.
//
// Objects are addressed by bucket and a slash-separated path inside that
// bucket. Upload returns the public URL a browser can fetch the object from.
package storage

import (
	"context"
	"errors"
	"path"
	"strings"
)

// ErrInvalidPath is returned for an empty path or one that escapes its bucket.
var ErrInvalidPath = errors.New("storage: invalid object path")

// BlobStore is implemented by disk.Store and s3.Store.
type BlobStore interface {
	// Upload stores data at bucket/objectPath and returns its public URL.
	// Callers pick unique paths; whether an existing object is replaced is
	// up to the backend.
	Upload(ctx context.Context, bucket, objectPath string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, bucket, objectPath string) error
}

// CleanPath validates objectPath and returns it without leading slashes.
func CleanPath(objectPath string) (string, error) {
	p := strings.TrimLeft(objectPath, "/")
	if p == "" {
		return "", ErrInvalidPath
	}
	cleaned := path.Clean(p)
	if cleaned != p || cleaned == "." || strings.HasPrefix(cleaned, "../") || cleaned == ".." {
		return "", ErrInvalidPath
	}
	return cleaned, nil
}

// PublicURL joins base, bucket and objectPath with single slashes.
func PublicURL(base, bucket, objectPath string) string {
	return strings.TrimRight(base, "/") + "/" + bucket + "/" + objectPath
}
