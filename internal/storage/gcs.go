package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSStore keeps media in a Google Cloud Storage bucket.
type GCSStore struct {
	client *storage.Client
	bucket string
}

// NewGCSStore creates a client. If credsPath is empty, Application Default
// Credentials are used.
func NewGCSStore(ctx context.Context, bucket, credsPath string) (*GCSStore, error) {
	if strings.TrimSpace(bucket) == "" {
		return nil, errors.New("gcs media backend requires GCS_BUCKET")
	}

	var (
		client *storage.Client
		err    error
	)
	if credsPath == "" {
		client, err = storage.NewClient(ctx)
	} else {
		client, err = storage.NewClient(ctx, option.WithCredentialsFile(credsPath))
	}
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	return &GCSStore{client: client, bucket: bucket}, nil
}

// Save uploads r to bucket/name.
func (s *GCSStore) Save(ctx context.Context, name, contentType string, r io.Reader) error {
	cleaned, err := cleanName(name)
	if err != nil {
		return err
	}

	w := s.client.Bucket(s.bucket).Object(cleaned).NewWriter(ctx)
	w.ContentType = contentType
	w.ChunkSize = 0 // small files, single request
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

// Delete removes bucket/name; a missing object is not an error.
func (s *GCSStore) Delete(ctx context.Context, name string) error {
	cleaned, err := cleanName(name)
	if err != nil {
		return err
	}
	err = s.client.Bucket(s.bucket).Object(cleaned).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return err
	}
	return nil
}

// URL returns the public object URL.
func (s *GCSStore) URL(name string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, strings.TrimPrefix(name, "/"))
}

// Close releases the client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}
