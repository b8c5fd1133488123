package queue

import (
	"context"
	"fmt"

	"queuebot/models"
	"queuebot/store"
)

// DefaultMaxPreviousTracks bounds the previous-tracks list when no
// retention option is given.
const DefaultMaxPreviousTracks = 25

// Options configures the persistence side of the queue engine.
type Options struct {
	// MaxPreviousTracks caps the previous list after every save.
	// Zero means the default; negative keeps no history at all.
	MaxPreviousTracks int
	// Store is the backend to persist through. Nil selects the
	// in-memory store.
	Store store.QueueStoreManager
	// Watcher, when set, is notified of queue changes.
	Watcher ChangesWatcher
}

// Saver is the sole path between Queue and the store: it resolves the
// configured backend (or the in-memory default), applies the backend's
// Parse/Stringify around every access, and nothing else.
type Saver struct {
	store             store.QueueStoreManager
	maxPreviousTracks int
}

func NewSaver(opts Options) *Saver {
	s := opts.Store
	if s == nil {
		s = store.NewMemoryStore()
	}
	max := opts.MaxPreviousTracks
	if max == 0 {
		max = DefaultMaxPreviousTracks
	}
	if max < 0 {
		max = 0
	}
	return &Saver{store: s, maxPreviousTracks: max}
}

// Store exposes the resolved backend for capability tests.
func (s *Saver) Store() store.QueueStoreManager {
	return s.store
}

// MaxPreviousTracks is the resolved retention cap.
func (s *Saver) MaxPreviousTracks() int {
	return s.maxPreviousTracks
}

// Get loads and parses the guild's document. A missing entry or missing
// lists come back as empty, never nil.
func (s *Saver) Get(ctx context.Context, guildID string) (*models.StoredQueue, error) {
	raw, err := s.store.Get(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("queue saver: get %s: %w", guildID, err)
	}

	q, err := s.store.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("queue saver: parse %s: %w", guildID, err)
	}
	if q == nil {
		q = &models.StoredQueue{}
	}
	q.Normalize()
	return q, nil
}

// Set serializes and persists the document.
func (s *Saver) Set(ctx context.Context, guildID string, q *models.StoredQueue) error {
	raw, err := s.store.Stringify(q)
	if err != nil {
		return fmt.Errorf("queue saver: stringify %s: %w", guildID, err)
	}
	if err := s.store.Set(ctx, guildID, raw); err != nil {
		return fmt.Errorf("queue saver: set %s: %w", guildID, err)
	}
	return nil
}

func (s *Saver) Delete(ctx context.Context, guildID string) error {
	if err := s.store.Delete(ctx, guildID); err != nil {
		return fmt.Errorf("queue saver: delete %s: %w", guildID, err)
	}
	return nil
}

// Sync is an alias of Get, kept for symmetry with future reconciliation.
func (s *Saver) Sync(ctx context.Context, guildID string) (*models.StoredQueue, error) {
	return s.Get(ctx, guildID)
}
