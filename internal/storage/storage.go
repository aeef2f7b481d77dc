// Package storage defines the key-value persistence used by the ledger.
// Each key holds one JSON document.
package storage

import (
	"context"
	"errors"
	"sync"
)

// Keys persisted by the ledger.
const (
	KeyTransactions = "transactions"
	KeyProducts     = "products"
	KeyContacts     = "contacts"
	KeyRisk         = "risk"
)

// ErrNotFound is returned by Get when the key has never been written.
var ErrNotFound = errors.New("storage: key not found")

// KV is a minimal key-value store holding raw JSON payloads.
type KV interface {
	// Get returns the payload stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores payload under key, replacing any previous value.
	Put(ctx context.Context, key string, payload []byte) error

	// Close releases resources held by the store.
	Close() error
}

// Memory is an in-process KV. Data is lost on restart.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

// Get implements KV.
func (m *Memory) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	payload, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(payload))
	copy(out, payload)
	return out, nil
}

// Put implements KV.
func (m *Memory) Put(ctx context.Context, key string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := make([]byte, len(payload))
	copy(cp, payload)
	m.data[key] = cp
	return nil
}

// Close implements KV.
func (m *Memory) Close() error { return nil }

var _ KV = (*Memory)(nil)
