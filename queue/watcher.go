package queue

import (
	"fmt"

	sentry "github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"

	"queuebot/models"
)

// RepeatMode is the player repeat setting reported through the watcher.
type RepeatMode string

const (
	RepeatOff   RepeatMode = "off"
	RepeatTrack RepeatMode = "track"
	RepeatQueue RepeatMode = "queue"
)

// ChangesWatcher observes queue and player state changes. Every callback
// receives independent before/after snapshots, so implementations may keep
// or mutate them freely without touching live queue state. Callbacks run
// synchronously inside the mutation and must not block; a panicking
// watcher is recovered and reported, never allowed to abort the save.
type ChangesWatcher interface {
	Shuffled(guildID string, oldQueue, newQueue *models.StoredQueue)
	TracksAdd(guildID string, tracks []*models.Track, position int, oldQueue, newQueue *models.StoredQueue)
	TracksRemoved(guildID string, tracks []*models.Track, positions []int, oldQueue, newQueue *models.StoredQueue)
	Seeked(guildID string, positionMs int64, oldQueue, newQueue *models.StoredQueue)
	VolumeChanged(guildID string, volume int, oldQueue, newQueue *models.StoredQueue)
	PauseToggled(guildID string, paused bool, oldQueue, newQueue *models.StoredQueue)
	RepeatChanged(guildID string, mode RepeatMode, oldQueue, newQueue *models.StoredQueue)
}

// Notify runs fn, absorbing any panic from the watcher so observer
// failures cannot corrupt a mutation.
func Notify(guildID, event string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("queue watcher %s panicked for guild %s: %v", event, guildID, r)
			log.Warnf("%v", err)
			sentry.CaptureException(err)
		}
	}()
	fn()
}
