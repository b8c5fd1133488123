// Package store defines the pluggable persistence backends the queue
// engine reads and writes through, keyed by guild ID.
package store

import (
	"context"
	"errors"

	"queuebot/models"
)

// ErrNotFound is returned by operations that require an existing queue
// document when the backend has no entry for the guild.
var ErrNotFound = errors.New("store: no queue data found")

// QueueStoreManager is the base backend contract. Get/Set/Delete move the
// backend's raw form in and out of the shared store; Stringify/Parse
// translate between that raw form and models.StoredQueue. The raw form is
// backend-chosen (the memory store passes *models.StoredQueue through
// untouched, the SQLite store uses JSON text), so everything outside the
// saver only ever deals with the StoredQueue shape.
//
// Get returns (nil, nil) when no entry exists for the guild.
type QueueStoreManager interface {
	Get(ctx context.Context, guildID string) (any, error)
	Set(ctx context.Context, guildID string, raw any) error
	Delete(ctx context.Context, guildID string) error

	Stringify(q *models.StoredQueue) (any, error)
	Parse(raw any) (*models.StoredQueue, error)
}

// TargetedQueueStoreManager is the optional field-granular capability.
// Backends that can mutate single fields remotely implement it so the
// queue can skip full-document round trips for single-element operations.
// SupportsTargetedOps is the capability marker and must return true;
// callers detect the capability with Targeted rather than a bare type
// assertion. Correctness never depends on this path being taken.
type TargetedQueueStoreManager interface {
	QueueStoreManager

	SupportsTargetedOps() bool

	GetCurrent(ctx context.Context, guildID string) (*models.Track, error)
	SaveCurrent(ctx context.Context, guildID string, t *models.Track) error
	PushTrack(ctx context.Context, guildID string, t *models.Track) (int, error)
	ShiftTrack(ctx context.Context, guildID string) (*models.Track, error)
	GetTracksRange(ctx context.Context, guildID string, start, end int) ([]*models.Track, error)
	GetTrackCount(ctx context.Context, guildID string) (int, error)
	AddToPrevious(ctx context.Context, guildID string, t *models.Track) error
	LoadFull(ctx context.Context, guildID string) (*models.StoredQueue, error)
	SaveFull(ctx context.Context, guildID string, q *models.StoredQueue) error
	DeleteAll(ctx context.Context, guildID string) error
}

// Targeted performs the capability test for the field-granular fast path.
func Targeted(s QueueStoreManager) (TargetedQueueStoreManager, bool) {
	ts, ok := s.(TargetedQueueStoreManager)
	if !ok || !ts.SupportsTargetedOps() {
		return nil, false
	}
	return ts, true
}
