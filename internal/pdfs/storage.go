package pdfs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// BlobStore is the opaque file storage keyed by generated filenames.
type BlobStore interface {
	Save(name string, src io.Reader) error
	Open(name string) (io.ReadCloser, error)
	Remove(name string) error
	Exists(name string) bool
	List() ([]string, error)
}

// DiskStore stores blobs as plain files in a single directory.
type DiskStore struct {
	dir string
}

// NewDiskStore creates the upload directory if needed.
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("pdfs: create upload dir: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

// GenerateFilename produces a collision-resistant storage key. The original
// filename is kept as a readable suffix but plays no part in uniqueness.
func GenerateFilename(original string) string {
	return uuid.NewString() + "_" + filepath.Base(original)
}

// Save writes the blob under the given name.
func (s *DiskStore) Save(name string, src io.Reader) error {
	dst, err := os.Create(filepath.Join(s.dir, filepath.Base(name)))
	if err != nil {
		return fmt.Errorf("pdfs: create blob: %w", err)
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("pdfs: write blob: %w", err)
	}
	return nil
}

// Open returns a reader over the named blob.
func (s *DiskStore) Open(name string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(s.dir, filepath.Base(name)))
}

// Remove deletes the named blob. A missing blob is not an error.
func (s *DiskStore) Remove(name string) error {
	err := os.Remove(filepath.Join(s.dir, filepath.Base(name)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Exists reports whether the named blob is present.
func (s *DiskStore) Exists(name string) bool {
	_, err := os.Stat(filepath.Join(s.dir, filepath.Base(name)))
	return err == nil
}

// List returns the names of all stored blobs.
func (s *DiskStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}

var _ BlobStore = (*DiskStore)(nil)
