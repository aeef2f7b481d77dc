// Package sqlite provides a KV backed by a single SQLite table.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dvloznov/ledgerbook/internal/storage"
	_ "modernc.org/sqlite" // pure go sqlite driver
)

// Store keeps one row per key in the kv table.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path. "file:" URIs are passed to
// the driver untouched, which is how tests get an in-memory database.
func Open(path string) (*Store, error) {
	if path == "" {
		path = "ledger.db"
	}
	if !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("sqlite.Open: create dirs: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite.Open: open: %w", err)
	}
	// A single connection keeps ":memory:" databases alive across calls.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite.Open: create kv table: %w", err)
	}

	return &Store{db: db}, nil
}

// Get implements storage.KV.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM kv WHERE key = ?`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite.Get %s: %w", key, err)
	}
	return payload, nil
}

// Put implements storage.KV.
func (s *Store) Put(ctx context.Context, key string, payload []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, payload) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET payload = excluded.payload`,
		key, payload)
	if err != nil {
		return fmt.Errorf("sqlite.Put %s: %w", key, err)
	}
	return nil
}

// Close implements storage.KV.
func (s *Store) Close() error {
	return s.db.Close()
}

var _ storage.KV = (*Store)(nil)
