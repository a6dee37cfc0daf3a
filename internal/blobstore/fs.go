package blobstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FSStore keeps document payloads on the local filesystem. It is the
// single-node fallback when no object store is configured.
type FSStore struct {
	dir string
}

func NewFSStore(dir string) (*FSStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create blob dir %s: %w", dir, err)
	}
	return &FSStore{dir: dir}, nil
}

func (s *FSStore) Put(_ context.Context, key string, data []byte) error {
	return os.WriteFile(filepath.Join(s.dir, key), data, 0o644)
}

func (s *FSStore) Get(_ context.Context, key string) ([]byte, error) {
	return os.ReadFile(filepath.Join(s.dir, key))
}
