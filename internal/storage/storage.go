package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

// Backends accepted by New.
const (
	BackendLocal = "local"
	BackendGCS   = "gcs"
)

var ErrInvalidName = errors.New("invalid media name")

// MediaStore persists uploaded files under slash separated names such as
// avatar/20240102/<uuid>.png and knows how to address them.
type MediaStore interface {
	Save(ctx context.Context, name, contentType string, r io.Reader) error
	Delete(ctx context.Context, name string) error
	URL(name string) string
}

// Config selects and configures a backend.
type Config struct {
	Backend         string
	Root            string
	URLPath         string
	Bucket          string
	CredentialsPath string
}

// New builds the configured store. The returned close func releases
// backend clients and is never nil.
func New(ctx context.Context, cfg Config) (MediaStore, func() error, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", BackendLocal:
		return NewLocalStore(cfg.Root, cfg.URLPath), func() error { return nil }, nil
	case BackendGCS:
		store, err := NewGCSStore(ctx, cfg.Bucket, cfg.CredentialsPath)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported media backend %q", cfg.Backend)
	}
}

func cleanName(name string) (string, error) {
	cleaned := path.Clean(strings.TrimPrefix(strings.ReplaceAll(name, "\\", "/"), "/"))
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", ErrInvalidName
	}
	return cleaned, nil
}
