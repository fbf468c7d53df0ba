// Package draft is the local crash-recovery cache for unsaved designs. It is
// consulted before loading from the design service and cleared after a
// confirmed save. It is never authoritative.
package draft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/sysdraw/sysdraw/backend-go/internal/document"
)

// NewKey is the key for a design that has not been saved yet.
const NewKey = "new"

var ErrNotFound = errors.New("draft not found")

// Store is a key-value scratch store of document snapshots.
type Store interface {
	Get(ctx context.Context, key string) (*document.Document, error)
	Put(ctx context.Context, key string, doc *document.Document) error
	Delete(ctx context.Context, key string) error
}

// Key returns the draft key for a design id.
func Key(id string) string {
	if id == "" {
		return NewKey
	}
	return id
}

func encode(doc *document.Document) ([]byte, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode draft: %w", err)
	}
	return data, nil
}

func decode(data []byte) (*document.Document, error) {
	var doc document.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode draft: %w", err)
	}
	return &doc, nil
}

// Memory keeps drafts in process memory.
type Memory struct {
	mu     sync.RWMutex
	drafts map[string][]byte
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{drafts: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, key string) (*document.Document, error) {
	m.mu.RLock()
	data, ok := m.drafts[key]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return decode(data)
}

func (m *Memory) Put(_ context.Context, key string, doc *document.Document) error {
	data, err := encode(doc)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.drafts[key] = data
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.drafts, key)
	m.mu.Unlock()
	return nil
}
