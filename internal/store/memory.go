package store

import (
	"context"
	"sync"

	"sevalink/internal/models"
)

// MemoryStore is a goroutine-safe in-memory Store, for tests and
// embeddings that bring their own durability.
type MemoryStore struct {
	mu      sync.RWMutex
	record  []byte
	present bool

	// SaveErr, when set, is returned by Save to simulate persistence
	// failures.
	SaveErr error
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(ctx context.Context) ([]models.QueueItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.present {
		return []models.QueueItem{}, nil
	}
	items, err := decodeQueue(s.record)
	if err != nil {
		return []models.QueueItem{}, nil
	}
	return items, nil
}

func (s *MemoryStore) Save(ctx context.Context, items []models.QueueItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.SaveErr != nil {
		return s.SaveErr
	}

	data, err := encodeQueue(items)
	if err != nil {
		return err
	}
	s.record = data
	s.present = true
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.record = nil
	s.present = false
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

// SetRaw overwrites the stored record bytes, bypassing encoding. Lets
// tests exercise corrupt and legacy formats.
func (s *MemoryStore) SetRaw(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record = data
	s.present = true
}
