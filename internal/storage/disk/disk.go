// Package disk stores blobs as files under a root directory, one
// subdirectory per bucket. It backs local development, where no object store
// is running; the server exposes the files under /storage/.
package disk

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/sakif/kudos/internal/storage"
)

var _ storage.BlobStore = (*Store)(nil)

// inlineExtensions are shown in the browser by Handler. SVG is left out as
// it can carry script.
var inlineExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
	".avif": true,
	".bmp":  true,
}

type Store struct {
	root      string
	publicURL string
}

// New creates root if needed. publicURL is the externally visible prefix
// that Handler is mounted at, e.g. "http://localhost:8080/storage".
func New(root, publicURL string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("disk: creating root %s: %w", root, err)
	}
	return &Store{root: root, publicURL: publicURL}, nil
}

func (s *Store) Upload(ctx context.Context, bucket, objectPath string, data []byte, contentType string) (string, error) {
	full, cleaned, err := s.resolve(bucket, objectPath)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("disk: creating directory: %w", err)
	}

	// O_EXCL: an existing object is never replaced.
	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("disk: object %s/%s already exists", bucket, cleaned)
		}
		return "", fmt.Errorf("disk: creating object: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(full)
		return "", fmt.Errorf("disk: writing object: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(full)
		return "", fmt.Errorf("disk: closing object: %w", err)
	}

	return storage.PublicURL(s.publicURL, bucket, cleaned), nil
}

func (s *Store) Delete(ctx context.Context, bucket, objectPath string) error {
	full, _, err := s.resolve(bucket, objectPath)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("disk: deleting object: %w", err)
	}
	return nil
}

// Handler serves stored objects. Mount it with the /storage/ prefix already
// stripped, so request paths look like /<bucket>/<objectPath>.
func (s *Store) Handler() http.Handler {
	fs := http.FileServer(http.Dir(s.root))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// No directory listings.
		name := filepath.Join(s.root, filepath.FromSlash(filepath.Clean("/"+r.URL.Path)))
		info, err := os.Stat(name)
		if err != nil || info.IsDir() {
			http.NotFound(w, r)
			return
		}

		// Objects are served from the site's own origin; anything that is
		// not a plain raster image is downloaded, never rendered.
		w.Header().Set("X-Content-Type-Options", "nosniff")
		if !inlineExtensions[strings.ToLower(filepath.Ext(name))] {
			w.Header().Set("Content-Disposition", "attachment")
		}
		fs.ServeHTTP(w, r)
	})
}

func (s *Store) resolve(bucket, objectPath string) (string, string, error) {
	cleaned, err := storage.CleanPath(objectPath)
	if err != nil {
		return "", "", err
	}
	if bucket == "" || bucket != filepath.Base(bucket) || bucket == ".." || bucket == "." {
		return "", "", storage.ErrInvalidPath
	}
	return filepath.Join(s.root, bucket, filepath.FromSlash(cleaned)), cleaned, nil
}
