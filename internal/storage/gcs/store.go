// Package gcs provides a KV that keeps each key as a JSON object in a
// Google Cloud Storage bucket.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	kvstore "github.com/dvloznov/ledgerbook/internal/storage"
)

// Store maps key "transactions" to gs://<bucket>/<prefix>transactions.json.
// It assumes Application Default Credentials are configured.
type Store struct {
	client *storage.Client
	bucket string
	prefix string
}

// New creates a storage client for bucket. prefix may be empty.
func New(ctx context.Context, bucket, prefix string) (*Store, error) {
	if bucket == "" {
		return nil, fmt.Errorf("gcs.New: bucket is required")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("gcs.New: create storage client: %w", err)
	}
	return &Store{client: client, bucket: bucket, prefix: prefix}, nil
}

// NewFromURI accepts "gs://bucket/optional/prefix/".
func NewFromURI(ctx context.Context, uri string) (*Store, error) {
	bucket, prefix, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}
	return New(ctx, bucket, prefix)
}

// ParseURI splits a gs:// URI into bucket and object prefix. The prefix
// always ends with "/" when non-empty.
func ParseURI(uri string) (bucket, prefix string, err error) {
	if !strings.HasPrefix(uri, "gs://") {
		return "", "", fmt.Errorf("invalid GCS URI: %s", uri)
	}
	trimmed := strings.TrimPrefix(uri, "gs://")
	parts := strings.SplitN(trimmed, "/", 2)
	if parts[0] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no bucket): %s", uri)
	}
	bucket = parts[0]
	if len(parts) == 2 {
		prefix = strings.Trim(parts[1], "/")
		if prefix != "" {
			prefix += "/"
		}
	}
	return bucket, prefix, nil
}

// objectName returns the object path for key.
func (s *Store) objectName(key string) string {
	return path.Join(s.prefix, key+".json")
}

// Get implements storage.KV.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	rc, err := s.client.Bucket(s.bucket).Object(s.objectName(key)).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, kvstore.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("gcs.Get: reading object %s/%s: %w", s.bucket, s.objectName(key), err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("gcs.Get: reading bytes: %w", err)
	}
	return data, nil
}

// Put implements storage.KV.
func (s *Store) Put(ctx context.Context, key string, payload []byte) error {
	w := s.client.Bucket(s.bucket).Object(s.objectName(key)).NewWriter(ctx)
	w.ContentType = "application/json"

	if _, err := w.Write(payload); err != nil {
		_ = w.Close()
		return fmt.Errorf("gcs.Put: write %s: %w", key, err)
	}
	// Close finalizes the upload.
	if err := w.Close(); err != nil {
		return fmt.Errorf("gcs.Put: finalize %s: %w", key, err)
	}
	return nil
}

// Close implements storage.KV.
func (s *Store) Close() error {
	return s.client.Close()
}

var _ kvstore.KV = (*Store)(nil)
