package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var _ Store = (*DiskStore)(nil)

// DiskStore writes objects below a local directory. The server exposes that
// directory under baseURL.
type DiskStore struct {
	dir     string
	baseURL string
}

// NewDiskStore creates dir if needed.
func NewDiskStore(dir, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("media: creating %s: %w", dir, err)
	}
	return &DiskStore{dir: dir, baseURL: baseURL}, nil
}

// Dir is the root directory objects are written to.
func (s *DiskStore) Dir() string {
	return s.dir
}

func (s *DiskStore) Put(ctx context.Context, obj Object) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	rel := filepath.FromSlash(obj.Key)
	if obj.Key == "" || filepath.IsAbs(rel) || strings.HasPrefix(filepath.Clean(rel), "..") {
		return "", fmt.Errorf("media: invalid object key %q", obj.Key)
	}

	path := filepath.Join(s.dir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("media: creating directory for %s: %w", obj.Key, err)
	}
	if err := os.WriteFile(path, obj.Data, 0o644); err != nil {
		return "", fmt.Errorf("media: writing %s: %w", obj.Key, err)
	}

	return joinURL(s.baseURL, obj.Key), nil
}
