package store

import (
	"context"
	"fmt"
	"sync"

	"queuebot/models"
)

// MemoryStore is the default backend: a guild-keyed map guarded by a
// mutex, no serialization. Stringify and Parse pass the document through
// untouched, cloning so callers never share memory with the stored copy.
type MemoryStore struct {
	mu     sync.RWMutex
	queues map[string]*models.StoredQueue
}

var _ QueueStoreManager = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		queues: make(map[string]*models.StoredQueue),
	}
}

func (s *MemoryStore) Get(_ context.Context, guildID string) (any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q, ok := s.queues[guildID]
	if !ok {
		return nil, nil
	}
	return q.Clone(), nil
}

func (s *MemoryStore) Set(_ context.Context, guildID string, raw any) error {
	q, err := s.Parse(raw)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.queues[guildID] = q.Clone()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, guildID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.queues, guildID)
	return nil
}

// Stringify is the identity transform for the in-memory backend.
func (s *MemoryStore) Stringify(q *models.StoredQueue) (any, error) {
	return q, nil
}

func (s *MemoryStore) Parse(raw any) (*models.StoredQueue, error) {
	if raw == nil {
		return nil, nil
	}
	q, ok := raw.(*models.StoredQueue)
	if !ok {
		return nil, fmt.Errorf("memory store: unexpected raw queue type %T", raw)
	}
	return q, nil
}
