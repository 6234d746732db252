// Package localfs stores uploaded file bytes on the local filesystem.
package localfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

// Ensure FileStore implements the interface.
var _ driven.FileStore = (*FileStore)(nil)

// FileStore writes each upload to its own file under a root directory.
type FileStore struct {
	root     string
	maxBytes int64
}

// NewFileStore creates the root directory if needed.
// maxBytes <= 0 means domain.MaxUploadSize.
func NewFileStore(root string, maxBytes int64) (*FileStore, error) {
	if root == "" {
		return nil, fmt.Errorf("localfs: root directory is required")
	}
	if maxBytes <= 0 {
		maxBytes = domain.MaxUploadSize
	}
	if err := os.MkdirAll(root, 0700); err != nil {
		return nil, fmt.Errorf("localfs: create root: %w", err)
	}
	return &FileStore{root: root, maxBytes: maxBytes}, nil
}

// Root returns the storage directory.
func (s *FileStore) Root() string {
	return s.root
}

// Save copies r to a new file named "<uuid>_<name>".
// Uploads larger than the limit are removed and return domain.ErrFileTooLarge.
func (s *FileStore) Save(ctx context.Context, name string, r io.Reader) (string, int64, error) {
	path := filepath.Join(s.root, uuid.NewString()+"_"+sanitize(name))

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		return "", 0, fmt.Errorf("localfs: create file: %w", err)
	}

	// Read one byte past the limit to detect oversize uploads.
	n, copyErr := io.Copy(f, io.LimitReader(ctxReader{ctx: ctx, r: r}, s.maxBytes+1))
	closeErr := f.Close()

	switch {
	case copyErr != nil:
		_ = os.Remove(path)
		return "", 0, fmt.Errorf("localfs: write file: %w", copyErr)
	case closeErr != nil:
		_ = os.Remove(path)
		return "", 0, fmt.Errorf("localfs: close file: %w", closeErr)
	case n > s.maxBytes:
		_ = os.Remove(path)
		return "", 0, domain.ErrFileTooLarge
	}

	return path, n, nil
}

// Remove deletes a stored file. Paths outside the root are rejected.
func (s *FileStore) Remove(_ context.Context, path string) error {
	if path == "" {
		return nil
	}
	rel, err := filepath.Rel(s.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return fmt.Errorf("localfs: %s is outside %s: %w", path, s.root, domain.ErrInvalidInput)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("localfs: remove: %w", err)
	}
	return nil
}

// sanitize keeps the base name and replaces path separators.
func sanitize(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "upload"
	}
	return name
}

// ctxReader stops reading once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
