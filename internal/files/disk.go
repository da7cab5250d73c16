package files

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
)

// DiskStore writes uploads into a local directory served read-only
// under URLPrefix.
type DiskStore struct {
	dir       string
	urlPrefix string
}

func NewDiskStore(dir, urlPrefix string) (*DiskStore, error) {
	const op = "files.NewDiskStore"

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%s: create dir: %w", op, err)
	}

	return &DiskStore{dir: dir, urlPrefix: urlPrefix}, nil
}

func (s *DiskStore) Save(_ context.Context, ext, _ string, r io.Reader) (string, error) {
	const op = "files.DiskStore.Save"

	name := newName(ext)

	f, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("%s: create file: %w", op, err)
	}

	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("%s: write file: %w", op, err)
	}

	if err := f.Close(); err != nil {
		return "", fmt.Errorf("%s: close file: %w", op, err)
	}

	return path.Join(s.urlPrefix, name), nil
}

// Dir returns the directory uploads are written to, for static serving.
func (s *DiskStore) Dir() string {
	return s.dir
}
