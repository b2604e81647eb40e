package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore keeps media on the local filesystem below root and serves it
// under urlPath.
type LocalStore struct {
	root    string
	urlPath string
}

// NewLocalStore creates a LocalStore.
func NewLocalStore(root, urlPath string) *LocalStore {
	if strings.TrimSpace(root) == "" {
		root = "media"
	}
	return &LocalStore{root: root, urlPath: strings.TrimRight(urlPath, "/")}
}

// Save writes r to root/name, creating parent directories.
func (s *LocalStore) Save(_ context.Context, name, _ string, r io.Reader) error {
	cleaned, err := cleanName(name)
	if err != nil {
		return err
	}

	target := filepath.Join(s.root, filepath.FromSlash(cleaned))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return errors.Join(err, os.Remove(target))
	}
	return f.Close()
}

// Delete removes root/name; a missing file is not an error.
func (s *LocalStore) Delete(_ context.Context, name string) error {
	cleaned, err := cleanName(name)
	if err != nil {
		return err
	}
	err = os.Remove(filepath.Join(s.root, filepath.FromSlash(cleaned)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// URL returns urlPath/name.
func (s *LocalStore) URL(name string) string {
	return s.urlPath + "/" + strings.TrimPrefix(name, "/")
}

// Root returns the directory files are written to.
func (s *LocalStore) Root() string {
	return s.root
}
