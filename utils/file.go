package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// DocumentStore keeps submission documents and content images. Paths it
// returns are opaque and relative; callers never touch the filesystem or
// bucket layout directly.
type DocumentStore interface {
	Save(data []byte, category string, ownerID uint, filename string) (string, error)
	Delete(relativePath string) error
	Read(relativePath string) ([]byte, error)
}

// LocalDocumentStore writes under a single uploads root.
type LocalDocumentStore struct {
	Root string
}

// NewLocalDocumentStore creates the root directory if needed.
func NewLocalDocumentStore(root string) (*LocalDocumentStore, error) {
	if err := os.MkdirAll(root, os.ModePerm); err != nil {
		return nil, err
	}
	return &LocalDocumentStore{Root: root}, nil
}

// Save stores data under category/ownerID with a random name, keeping only
// the original extension. Returns the relative path.
func (s *LocalDocumentStore) Save(data []byte, category string, ownerID uint, filename string) (string, error) {
	extension := filepath.Ext(filename)
	if extension == "" {
		extension = ".bin"
	}
	if len(extension) > 16 {
		extension = extension[:16]
	}

	relative := filepath.Join(category, fmt.Sprintf("user_%d", ownerID), uuid.NewString()+extension)
	target, err := s.resolve(relative)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(target), os.ModePerm); err != nil {
		return "", err
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", err
	}
	return filepath.ToSlash(relative), nil
}

// Delete removes the file and prunes its directory when it is left empty.
// Missing files are not an error.
func (s *LocalDocumentStore) Delete(relativePath string) error {
	if relativePath == "" {
		return nil
	}
	target, err := s.resolve(relativePath)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	parent := filepath.Dir(target)
	if entries, err := os.ReadDir(parent); err == nil && len(entries) == 0 {
		_ = os.Remove(parent)
	}
	return nil
}

// Read returns the stored bytes.
func (s *LocalDocumentStore) Read(relativePath string) ([]byte, error) {
	target, err := s.resolve(relativePath)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(target)
}

// resolve joins and verifies the path stays inside the uploads root.
func (s *LocalDocumentStore) resolve(relativePath string) (string, error) {
	root, err := filepath.Abs(s.Root)
	if err != nil {
		return "", err
	}
	target := filepath.Join(root, filepath.FromSlash(relativePath))
	if target != root && !strings.HasPrefix(target, root+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes the uploads root", relativePath)
	}
	return target, nil
}
