// Package watcher provides ready-made QueueChangesWatcher
// implementations: a logrus console watcher and a Discord channel
// announcer.
package watcher

import (
	log "github.com/sirupsen/logrus"

	"queuebot/models"
	"queuebot/queue"
)

// LogWatcher logs one structured line per queue change. It logs counts
// rather than track contents to keep the output usable on busy guilds.
type LogWatcher struct{}

var _ queue.ChangesWatcher = LogWatcher{}

func (LogWatcher) logger(guildID string, oldQueue, newQueue *models.StoredQueue) *log.Entry {
	return log.WithFields(log.Fields{
		"module":  "queue-watcher",
		"guildID": guildID,
		"before":  len(oldQueue.Tracks),
		"after":   len(newQueue.Tracks),
	})
}

func (w LogWatcher) Shuffled(guildID string, oldQueue, newQueue *models.StoredQueue) {
	w.logger(guildID, oldQueue, newQueue).Info("queue shuffled")
}

func (w LogWatcher) TracksAdd(guildID string, tracks []*models.Track, position int, oldQueue, newQueue *models.StoredQueue) {
	w.logger(guildID, oldQueue, newQueue).WithFields(log.Fields{
		"added":    len(tracks),
		"position": position,
	}).Info("tracks added")
}

func (w LogWatcher) TracksRemoved(guildID string, tracks []*models.Track, positions []int, oldQueue, newQueue *models.StoredQueue) {
	w.logger(guildID, oldQueue, newQueue).WithFields(log.Fields{
		"removed":   len(tracks),
		"positions": positions,
	}).Info("tracks removed")
}

func (w LogWatcher) Seeked(guildID string, positionMs int64, oldQueue, newQueue *models.StoredQueue) {
	w.logger(guildID, oldQueue, newQueue).WithField("positionMs", positionMs).Info("player seeked")
}

func (w LogWatcher) VolumeChanged(guildID string, volume int, oldQueue, newQueue *models.StoredQueue) {
	w.logger(guildID, oldQueue, newQueue).WithField("volume", volume).Info("volume changed")
}

func (w LogWatcher) PauseToggled(guildID string, paused bool, oldQueue, newQueue *models.StoredQueue) {
	w.logger(guildID, oldQueue, newQueue).WithField("paused", paused).Info("pause toggled")
}

func (w LogWatcher) RepeatChanged(guildID string, mode queue.RepeatMode, oldQueue, newQueue *models.StoredQueue) {
	w.logger(guildID, oldQueue, newQueue).WithField("mode", mode).Info("repeat mode changed")
}
