package local

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"blueprint-backend/internal/shared/storage/object"
	"blueprint-backend/internal/shared/util"
)

// Store implements ObjectStore using the local filesystem.
type Store struct {
	baseDir string
}

// New creates a new local object store rooted at baseDir.
func New(baseDir string) object.ObjectStore {
	return &Store{baseDir: baseDir}
}

// Save writes the reader to disk under the couple's hashed namespace.
func (s *Store) Save(ctx context.Context, coupleID string, name string, r io.Reader) (string, int64, error) {
	cleanName, err := sanitizeName(name)
	if err != nil {
		return "", 0, err
	}
	namespace := util.HashKey(coupleID)

	if err := ctx.Err(); err != nil {
		return "", 0, err
	}

	dirPath := filepath.Join(s.baseDir, namespace)
	if err := os.MkdirAll(dirPath, 0o755); err != nil {
		return "", 0, fmt.Errorf("mkdir: %w", err)
	}

	fullPath := filepath.Join(dirPath, cleanName)
	f, err := os.OpenFile(fullPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", 0, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	size, err := io.Copy(f, r)
	if err != nil {
		return "", 0, fmt.Errorf("write body: %w", err)
	}

	return filepath.Join(namespace, cleanName), size, nil
}

// Open opens a stored object for reading.
func (s *Store) Open(ctx context.Context, storageKey string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	clean := filepath.Clean(storageKey)
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return nil, fmt.Errorf("invalid storage key")
	}

	return os.Open(filepath.Join(s.baseDir, clean))
}

func sanitizeName(name string) (string, error) {
	clean := filepath.Base(strings.TrimSpace(name))
	if clean == "" || clean == "." || clean == string(filepath.Separator) {
		return "", fmt.Errorf("invalid object name")
	}
	return clean, nil
}

var _ object.ObjectStore = (*Store)(nil)
