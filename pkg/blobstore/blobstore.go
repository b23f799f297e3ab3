// Package blobstore keeps the content of matched blobs on disk, addressed by
// blob ID, so findings can be shown in full context after the scanned source
// is gone.
package blobstore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/praetorian-inc/wildscan/pkg/types"
)

// ErrNotFound is returned by Get for unknown blobs.
var ErrNotFound = errors.New("blob not found")

// Store is a directory of blobs laid out like git loose objects:
// <root>/ab/cdef0123...
type Store struct {
	Root string
}

// Open creates root if needed.
func Open(root string) (*Store, error) {
	if root == "" {
		return nil, fmt.Errorf("blob directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating blob directory: %w", err)
	}
	return &Store{Root: root}, nil
}

// Put writes content under id. Writing an existing blob is a no-op, and
// concurrent writers of the same blob never expose a partial file.
func (s *Store) Put(id types.BlobID, content []byte) error {
	path := s.path(id)
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating blob directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("writing blob: %w", err)
	}
	_, werr := tmp.Write(content)
	cerr := tmp.Close()
	if werr != nil || cerr != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("writing blob: %w", errors.Join(werr, cerr))
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("renaming blob: %w", err)
	}
	return nil
}

// Get returns the content stored under id.
func (s *Store) Get(id types.BlobID) ([]byte, error) {
	content, err := os.ReadFile(s.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id.Hex())
	}
	if err != nil {
		return nil, fmt.Errorf("reading blob: %w", err)
	}
	return content, nil
}

func (s *Store) Exists(id types.BlobID) bool {
	_, err := os.Stat(s.path(id))
	return err == nil
}

func (s *Store) path(id types.BlobID) string {
	hex := id.Hex()
	return filepath.Join(s.Root, hex[:2], hex[2:])
}
