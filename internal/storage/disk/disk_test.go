package disk

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/kudos/internal/storage"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	root := t.TempDir()
	s, err := New(root, "http://localhost:8080/storage")
	require.NoError(t, err)
	return s, root
}

func TestUpload(t *testing.T) {
	s, root := newTestStore(t)

	url, err := s.Upload(context.Background(), "appreciation-images", "appreciation-images/abc.png", []byte("png"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/storage/appreciation-images/appreciation-images/abc.png", url)

	data, err := os.ReadFile(filepath.Join(root, "appreciation-images", "appreciation-images", "abc.png"))
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))
}

func TestUpload_ExistingObjectNotOverwritten(t *testing.T) {
	s, root := newTestStore(t)
	ctx := context.Background()

	_, err := s.Upload(ctx, "b", "x.png", []byte("first"), "image/png")
	require.NoError(t, err)

	_, err = s.Upload(ctx, "b", "x.png", []byte("second"), "image/png")
	assert.ErrorContains(t, err, "already exists")

	data, _ := os.ReadFile(filepath.Join(root, "b", "x.png"))
	assert.Equal(t, "first", string(data))
}

func TestUpload_InvalidPath(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.Upload(context.Background(), "b", "../escape.png", []byte("x"), "image/png")
	assert.True(t, errors.Is(err, storage.ErrInvalidPath))

	_, err = s.Upload(context.Background(), "../b", "x.png", []byte("x"), "image/png")
	assert.True(t, errors.Is(err, storage.ErrInvalidPath))
}

func TestDelete(t *testing.T) {
	s, root := newTestStore(t)
	ctx := context.Background()

	_, err := s.Upload(ctx, "b", "x.png", []byte("x"), "image/png")
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, "b", "x.png"))
	_, err = os.Stat(filepath.Join(root, "b", "x.png"))
	assert.True(t, errors.Is(err, os.ErrNotExist))

	// Deleting a missing object is not an error.
	assert.NoError(t, s.Delete(ctx, "b", "x.png"))
}

func TestHandler(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.Upload(context.Background(), "b", "dir/x.txt", []byte("hello"), "text/plain")
	require.NoError(t, err)

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/b/dir/x.txt")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "hello", string(body))

	resp, err = http.Get(srv.URL + "/b/dir/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandler_ActiveContentIsDownloaded(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.Upload(ctx, "b", "photo.PNG", []byte("\x89PNG\r\n\x1a\n"), "image/png")
	require.NoError(t, err)
	_, err = s.Upload(ctx, "b", "evil.html", []byte("<script>alert(1)</script>"), "text/html")
	require.NoError(t, err)
	_, err = s.Upload(ctx, "b", "evil.svg", []byte("<svg onload=alert(1)></svg>"), "image/svg+xml")
	require.NoError(t, err)

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	tests := []struct {
		path            string
		wantDisposition string
	}{
		{"/b/photo.PNG", ""},
		{"/b/evil.html", "attachment"},
		{"/b/evil.svg", "attachment"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := http.Get(srv.URL + tt.path)
			require.NoError(t, err)
			resp.Body.Close()

			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
			assert.Equal(t, tt.wantDisposition, resp.Header.Get("Content-Disposition"))
		})
	}
}
