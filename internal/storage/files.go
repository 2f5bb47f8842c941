// Package storage resolves contract documents from the public file tree.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type FileStore struct {
	baseDir string
}

func NewFileStore(baseDir string) *FileStore {
	return &FileStore{baseDir: baseDir}
}

// Read loads a document by its stored path, which is kept relative to the
// public directory. Paths escaping the base directory are rejected.
func (s *FileStore) Read(originalPath string) ([]byte, error) {
	cleaned := filepath.Clean("/" + strings.TrimPrefix(originalPath, "/"))
	full := filepath.Join(s.baseDir, cleaned)

	data, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("document file %s not found", originalPath)
		}
		return nil, fmt.Errorf("read document %s: %w", originalPath, err)
	}
	return data, nil
}
