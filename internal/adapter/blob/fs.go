// Package blob provides a filesystem-backed object store. Keys are
// slash-separated paths under a root directory; a key prefix maps to a
// directory subtree, so deleting a tenant namespace is one subtree removal.
package blob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/velora/studioops/internal/domain"
)

// Compile-time check: Store implements domain.ObjectStore.
var _ domain.ObjectStore = (*Store)(nil)

// Store is a local-directory object store.
type Store struct {
	root string
}

// New creates a store rooted at dir, creating it if necessary.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating blob root: %w", err)
	}
	return &Store{root: dir}, nil
}

// Put writes an object under the given key, creating parent directories.
func (s *Store) Put(_ context.Context, key string, data []byte) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating object directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing object %q: %w", key, err)
	}
	return nil
}

// DeleteByPrefix removes every object under the given key prefix.
// Deleting an absent prefix is a no-op.
func (s *Store) DeleteByPrefix(_ context.Context, prefix string) error {
	path, err := s.resolve(prefix)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("removing prefix %q: %w", prefix, err)
	}
	return nil
}

// resolve maps a key to a path under root, rejecting escapes.
func (s *Store) resolve(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || clean == string(filepath.Separator) ||
		strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return filepath.Join(s.root, clean), nil
}
