// Package storage holds uploaded blobs on local disk. Only the metadata
// in the files table is authoritative; this store just parks bytes under
// generated names.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// DiskStore writes uploads into a single directory with generated names.
type DiskStore struct {
	dir string
}

// NewDiskStore creates the upload directory if needed
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

// Save streams src to a new file and returns the generated stored name.
// The extension of the original name is preserved for convenience.
func (s *DiskStore) Save(src io.Reader, originalName string) (string, error) {
	name := uuid.NewString() + filepath.Ext(originalName)
	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		_ = os.Remove(dst.Name())
		return "", fmt.Errorf("write file: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("close file: %w", err)
	}
	return name, nil
}

// Path returns the absolute-ish on-disk path for a stored name.
func (s *DiskStore) Path(storedName string) string {
	return filepath.Join(s.dir, filepath.Base(storedName))
}

// Remove deletes a stored blob. A missing blob is not an error; the
// metadata row may outlive the bytes.
func (s *DiskStore) Remove(storedName string) error {
	err := os.Remove(s.Path(storedName))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}

// Exists reports whether the blob is present on disk.
func (s *DiskStore) Exists(storedName string) bool {
	_, err := os.Stat(s.Path(storedName))
	return err == nil
}
