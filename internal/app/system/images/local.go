package images

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
)

// Local stores processed images on disk under a root directory and
// serves them under a URL prefix. Object stores (S3, GCS) can replace
// it behind the same interface.
type Local struct {
	root      string // filesystem directory
	urlPrefix string // public path prefix, e.g. "/img"
}

// NewLocal ensures the root directory exists.
func NewLocal(root, urlPrefix string) (*Local, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("image root: %w", err)
	}
	return &Local{root: root, urlPrefix: urlPrefix}, nil
}

// Root returns the filesystem directory, for wiring a static file route.
func (l *Local) Root() string { return l.root }

func (l *Local) Save(_ context.Context, key string, r io.Reader) (string, error) {
	dst := filepath.Join(l.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("image dir: %w", err)
	}

	f, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create image file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(dst)
		return "", fmt.Errorf("write image: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close image file: %w", err)
	}
	return path.Join(l.urlPrefix, key), nil
}
