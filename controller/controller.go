// Package controller tracks one queue session per guild and the player
// state (volume, pause, repeat, position) reported alongside it.
package controller

import (
	"context"
	"sync"

	"queuebot/models"
	"queuebot/queue"
)

// Controller hands out one GuildSession per guild id, creating sessions
// lazily. All sessions share a single saver so they hit the same store.
type Controller struct {
	// This is a map of guildID to the session for that guild
	sessions map[string]*GuildSession
	saver    *queue.Saver
	watcher  queue.ChangesWatcher
	mutex    sync.RWMutex
}

func NewController(opts queue.Options) *Controller {
	return &Controller{
		sessions: make(map[string]*GuildSession),
		saver:    queue.NewSaver(opts),
		watcher:  opts.Watcher,
	}
}

func (c *Controller) GetSession(guildID string) *GuildSession {
	c.mutex.RLock()
	session, ok := c.sessions[guildID]
	c.mutex.RUnlock()
	if ok {
		return session
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if session, ok := c.sessions[guildID]; ok {
		return session
	}

	session = &GuildSession{
		GuildID: guildID,
		Queue:   queue.New(guildID, c.saver, c.watcher, nil),
		watcher: c.watcher,
		volume:  100,
		repeat:  queue.RepeatOff,
	}
	c.sessions[guildID] = session
	return session
}

// Drop forgets the guild's session. The stored queue is untouched;
// callers wanting that gone use Queue.Destroy first.
func (c *Controller) Drop(guildID string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	delete(c.sessions, guildID)
}

// GuildSession couples a guild's queue with the player state the watcher
// events describe. The player state lives here, not in the store: it is
// transient and rebuilt when the guild reconnects.
type GuildSession struct {
	GuildID string
	Queue   *queue.Queue

	watcher    queue.ChangesWatcher
	mutex      sync.Mutex
	volume     int
	paused     bool
	repeat     queue.RepeatMode
	positionMs int64
}

// PlayerState is a read-only view of the session's player state.
type PlayerState struct {
	Volume     int              `json:"volume"`
	Paused     bool             `json:"paused"`
	Repeat     queue.RepeatMode `json:"repeat"`
	PositionMs int64            `json:"positionMs"`
}

func (s *GuildSession) State() PlayerState {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return PlayerState{
		Volume:     s.volume,
		Paused:     s.paused,
		Repeat:     s.repeat,
		PositionMs: s.positionMs,
	}
}

// notify delivers a player event with before/after queue snapshots. The
// queue itself is unchanged by player events, so both snapshots describe
// the same state, taken independently.
func (s *GuildSession) notify(ctx context.Context, event string, fn func(w queue.ChangesWatcher, oldQ, newQ *models.StoredQueue)) {
	if s.watcher == nil {
		return
	}
	snap, err := s.Queue.Snapshot(ctx)
	if err != nil {
		return
	}
	queue.Notify(s.GuildID, event, func() {
		fn(s.watcher, snap, snap.Clone())
	})
}

// SetVolume clamps to the 0-150 range and returns the applied value.
func (s *GuildSession) SetVolume(ctx context.Context, volume int) int {
	if volume < 0 {
		volume = 0
	}
	if volume > 150 {
		volume = 150
	}

	s.mutex.Lock()
	changed := s.volume != volume
	s.volume = volume
	s.mutex.Unlock()

	if changed {
		s.notify(ctx, "volumeChanged", func(w queue.ChangesWatcher, oldQ, newQ *models.StoredQueue) {
			w.VolumeChanged(s.GuildID, volume, oldQ, newQ)
		})
	}
	return volume
}

func (s *GuildSession) SetPaused(ctx context.Context, paused bool) {
	s.mutex.Lock()
	changed := s.paused != paused
	s.paused = paused
	s.mutex.Unlock()

	if changed {
		s.notify(ctx, "pauseToggled", func(w queue.ChangesWatcher, oldQ, newQ *models.StoredQueue) {
			w.PauseToggled(s.GuildID, paused, oldQ, newQ)
		})
	}
}

func (s *GuildSession) SetRepeat(ctx context.Context, mode queue.RepeatMode) {
	switch mode {
	case queue.RepeatOff, queue.RepeatTrack, queue.RepeatQueue:
	default:
		mode = queue.RepeatOff
	}

	s.mutex.Lock()
	changed := s.repeat != mode
	s.repeat = mode
	s.mutex.Unlock()

	if changed {
		s.notify(ctx, "repeatChanged", func(w queue.ChangesWatcher, oldQ, newQ *models.StoredQueue) {
			w.RepeatChanged(s.GuildID, mode, oldQ, newQ)
		})
	}
}

// Seek records the playback position, floored at zero.
func (s *GuildSession) Seek(ctx context.Context, positionMs int64) {
	if positionMs < 0 {
		positionMs = 0
	}

	s.mutex.Lock()
	s.positionMs = positionMs
	s.mutex.Unlock()

	s.notify(ctx, "seeked", func(w queue.ChangesWatcher, oldQ, newQ *models.StoredQueue) {
		w.Seeked(s.GuildID, positionMs, oldQ, newQ)
	})
}
