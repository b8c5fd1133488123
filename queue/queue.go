// Package queue implements the per-guild playback queue on top of a
// pluggable store. Only the current track lives in memory; the track and
// previous lists are loaded from the store on every access and written
// back after every mutation, so the store stays the single source of
// truth.
package queue

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"queuebot/models"
	"queuebot/store"
)

// Queue is the mutation API for one guild's queue. It is a stateless
// facade over remote state: every operation is a load → mutate local
// copy → notify watcher → save cycle. No lock is taken between the load
// and the save, so concurrent operations against the same guild can lose
// updates; callers who care must serialize per guild themselves.
type Queue struct {
	GuildID string

	// Current is the only queue state held in memory. It is written
	// into the stored document on every save.
	Current *models.Track

	saver   *Saver
	watcher ChangesWatcher
}

// New builds the queue for a guild. The initial current track is kept
// only if it is a resolved, valid track; anything else is discarded.
func New(guildID string, saver *Saver, watcher ChangesWatcher, current *models.Track) *Queue {
	if !models.IsTrack(current) || !models.IsValidForQueue(current) {
		current = nil
	}
	return &Queue{
		GuildID: guildID,
		Current: current,
		saver:   saver,
		watcher: watcher,
	}
}

// Saver returns the shared persistence layer.
func (q *Queue) Saver() *Saver {
	return q.saver
}

func (q *Queue) load(ctx context.Context) (*models.StoredQueue, error) {
	return q.saver.Get(ctx, q.GuildID)
}

// save commits the document: the in-memory current track is written in,
// the previous list is truncated to the retention cap, then the saver
// persists the result.
func (q *Queue) save(ctx context.Context, stored *models.StoredQueue) error {
	stored.Current = q.Current
	q.capPrevious(stored)
	return q.saver.Set(ctx, q.GuildID, stored)
}

func (q *Queue) capPrevious(stored *models.StoredQueue) {
	if max := q.saver.MaxPreviousTracks(); len(stored.Previous) > max {
		stored.Previous = stored.Previous[:max]
	}
}

// snapshot clones the document for watcher delivery. Returns nil when no
// watcher is registered, skipping the copy.
func (q *Queue) snapshot(stored *models.StoredQueue) *models.StoredQueue {
	if q.watcher == nil {
		return nil
	}
	return stored.Clone()
}

// targeted returns the store's field-granular interface when the backend
// supports it. Every operation falls back to the generic
// load-modify-save cycle, so this is purely an optimization.
func (q *Queue) targeted() (store.TargetedQueueStoreManager, bool) {
	return store.Targeted(q.saver.Store())
}

// --- reads ---

// Tracks returns the queued tracks.
func (q *Queue) Tracks(ctx context.Context) ([]*models.Track, error) {
	stored, err := q.load(ctx)
	if err != nil {
		return nil, err
	}
	return stored.Tracks, nil
}

// TrackCount returns the number of queued tracks.
func (q *Queue) TrackCount(ctx context.Context) (int, error) {
	if ts, ok := q.targeted(); ok {
		return ts.GetTrackCount(ctx, q.GuildID)
	}
	stored, err := q.load(ctx)
	if err != nil {
		return 0, err
	}
	return len(stored.Tracks), nil
}

// TrackAt returns the track at index i, nil when out of range.
func (q *Queue) TrackAt(ctx context.Context, i int) (*models.Track, error) {
	if i < 0 {
		return nil, nil
	}
	if ts, ok := q.targeted(); ok {
		tracks, err := ts.GetTracksRange(ctx, q.GuildID, i, i+1)
		if err != nil {
			return nil, err
		}
		if len(tracks) == 0 {
			return nil, nil
		}
		return tracks[0], nil
	}
	stored, err := q.load(ctx)
	if err != nil {
		return nil, err
	}
	if i >= len(stored.Tracks) {
		return nil, nil
	}
	return stored.Tracks[i], nil
}

// TracksRange returns tracks[start:end] (end exclusive), clamped to the
// list bounds.
func (q *Queue) TracksRange(ctx context.Context, start, end int) ([]*models.Track, error) {
	if ts, ok := q.targeted(); ok {
		return ts.GetTracksRange(ctx, q.GuildID, start, end)
	}
	stored, err := q.load(ctx)
	if err != nil {
		return nil, err
	}
	if start < 0 {
		start = 0
	}
	if end > len(stored.Tracks) {
		end = len(stored.Tracks)
	}
	if start >= end {
		return []*models.Track{}, nil
	}
	return stored.Tracks[start:end], nil
}

// PreviousTracks returns the previously played tracks, newest first.
func (q *Queue) PreviousTracks(ctx context.Context) ([]*models.Track, error) {
	stored, err := q.load(ctx)
	if err != nil {
		return nil, err
	}
	return stored.Previous, nil
}

// PreviousAt returns the previous track at index i, nil when out of range.
func (q *Queue) PreviousAt(ctx context.Context, i int) (*models.Track, error) {
	stored, err := q.load(ctx)
	if err != nil {
		return nil, err
	}
	if i < 0 || i >= len(stored.Previous) {
		return nil, nil
	}
	return stored.Previous[i], nil
}

// PreviousCount returns the length of the previous list.
func (q *Queue) PreviousCount(ctx context.Context) (int, error) {
	stored, err := q.load(ctx)
	if err != nil {
		return 0, err
	}
	return len(stored.Previous), nil
}

// FindTrackIndex returns the index of the first queued track satisfying
// pred, -1 when none does.
func (q *Queue) FindTrackIndex(ctx context.Context, pred func(*models.Track) bool) (int, error) {
	stored, err := q.load(ctx)
	if err != nil {
		return -1, err
	}
	for i, t := range stored.Tracks {
		if pred(t) {
			return i, nil
		}
	}
	return -1, nil
}

// --- low-level mutations (no filtering, no watcher) ---

// ClearTracks empties the track list.
func (q *Queue) ClearTracks(ctx context.Context) error {
	stored, err := q.load(ctx)
	if err != nil {
		return err
	}
	stored.Tracks = []*models.Track{}
	return q.save(ctx, stored)
}

// UnshiftTrack prepends a single track and returns the new length.
func (q *Queue) UnshiftTrack(ctx context.Context, t *models.Track) (int, error) {
	stored, err := q.load(ctx)
	if err != nil {
		return 0, err
	}
	stored.Tracks = append([]*models.Track{t}, stored.Tracks...)
	if err := q.save(ctx, stored); err != nil {
		return 0, err
	}
	return len(stored.Tracks), nil
}

// PushTrack appends a single track and returns the new length.
func (q *Queue) PushTrack(ctx context.Context, t *models.Track) (int, error) {
	if ts, ok := q.targeted(); ok {
		n, err := ts.PushTrack(ctx, q.GuildID, t)
		if err != nil {
			return 0, err
		}
		// Keep the stored current in step with what a generic save
		// would have written.
		if err := ts.SaveCurrent(ctx, q.GuildID, q.Current); err != nil {
			return 0, err
		}
		return n, nil
	}
	stored, err := q.load(ctx)
	if err != nil {
		return 0, err
	}
	stored.Tracks = append(stored.Tracks, t)
	if err := q.save(ctx, stored); err != nil {
		return 0, err
	}
	return len(stored.Tracks), nil
}

// SetTracks replaces the whole track list verbatim.
func (q *Queue) SetTracks(ctx context.Context, tracks []*models.Track) error {
	stored, err := q.load(ctx)
	if err != nil {
		return err
	}
	if tracks == nil {
		tracks = []*models.Track{}
	}
	stored.Tracks = tracks
	return q.save(ctx, stored)
}

// MoveTrack removes the track at from and reinserts it at to. A from
// index outside the list is a silent no-op; to is not bounds-checked,
// anything past the end appends.
func (q *Queue) MoveTrack(ctx context.Context, from, to int) error {
	stored, err := q.load(ctx)
	if err != nil {
		return err
	}
	if from < 0 || from >= len(stored.Tracks) {
		return nil
	}

	t := stored.Tracks[from]
	rest := append(append([]*models.Track{}, stored.Tracks[:from]...), stored.Tracks[from+1:]...)
	if to < 0 {
		to = 0
	}
	if to > len(rest) {
		to = len(rest)
	}
	stored.Tracks = append(rest[:to], append([]*models.Track{t}, rest[to:]...)...)
	return q.save(ctx, stored)
}

// AddToPrevious prepends a track to the previous list; the retention cap
// is enforced by the save.
func (q *Queue) AddToPrevious(ctx context.Context, t *models.Track) error {
	stored, err := q.load(ctx)
	if err != nil {
		return err
	}
	stored.Previous = append([]*models.Track{t}, stored.Previous...)
	return q.save(ctx, stored)
}

// ReplaceTrack overwrites the track at index. Returns false without
// saving when the index is out of range.
func (q *Queue) ReplaceTrack(ctx context.Context, index int, t *models.Track) (bool, error) {
	stored, err := q.load(ctx)
	if err != nil {
		return false, err
	}
	if index < 0 || index >= len(stored.Tracks) {
		return false, nil
	}
	stored.Tracks[index] = t
	if err := q.save(ctx, stored); err != nil {
		return false, err
	}
	return true, nil
}

// SwapTracks swaps the tracks at i and j. Returns false without saving
// when either index is out of range.
func (q *Queue) SwapTracks(ctx context.Context, i, j int) (bool, error) {
	stored, err := q.load(ctx)
	if err != nil {
		return false, err
	}
	if i < 0 || i >= len(stored.Tracks) || j < 0 || j >= len(stored.Tracks) {
		return false, nil
	}
	stored.Tracks[i], stored.Tracks[j] = stored.Tracks[j], stored.Tracks[i]
	if err := q.save(ctx, stored); err != nil {
		return false, err
	}
	return true, nil
}

// ShiftPrevious removes and returns the most recent previous track, nil
// when the list is empty. Saves only when something was removed.
func (q *Queue) ShiftPrevious(ctx context.Context) (*models.Track, error) {
	stored, err := q.load(ctx)
	if err != nil {
		return nil, err
	}
	if len(stored.Previous) == 0 {
		return nil, nil
	}
	head := stored.Previous[0]
	stored.Previous = stored.Previous[1:]
	if err := q.save(ctx, stored); err != nil {
		return nil, err
	}
	return head, nil
}

// --- notifying mutations ---

// Shuffle randomizes the track order and returns the track count. Lists
// of one or fewer tracks are returned untouched without a save. Exactly
// two tracks always swap; three or more get a Fisher-Yates pass.
func (q *Queue) Shuffle(ctx context.Context) (int, error) {
	stored, err := q.load(ctx)
	if err != nil {
		return 0, err
	}
	n := len(stored.Tracks)
	if n <= 1 {
		return n, nil
	}

	oldSnap := q.snapshot(stored)

	if n == 2 {
		stored.Tracks[0], stored.Tracks[1] = stored.Tracks[1], stored.Tracks[0]
	} else {
		for i := n - 1; i > 0; i-- {
			j := rand.Intn(i + 1)
			stored.Tracks[i], stored.Tracks[j] = stored.Tracks[j], stored.Tracks[i]
		}
	}

	if q.watcher != nil {
		newSnap := stored.Clone()
		Notify(q.GuildID, "shuffled", func() {
			q.watcher.Shuffled(q.GuildID, oldSnap, newSnap)
		})
	}

	if err := q.save(ctx, stored); err != nil {
		return 0, err
	}
	return n, nil
}

// filterAddable drops anything that is neither a valid resolved track
// nor an unresolved placeholder.
func filterAddable(tracks []*models.Track) []*models.Track {
	out := make([]*models.Track, 0, len(tracks))
	for _, t := range tracks {
		if models.IsValidForQueue(t) {
			out = append(out, t)
		}
	}
	return out
}

// Add filters the given tracks for validity and inserts the surviving
// batch at index (appended when index is out of bounds). Returns the new
// track-list length.
func (q *Queue) Add(ctx context.Context, index int, tracks ...*models.Track) (int, error) {
	stored, err := q.load(ctx)
	if err != nil {
		return 0, err
	}

	added := filterAddable(tracks)
	oldSnap := q.snapshot(stored)

	insertAt := len(stored.Tracks)
	if index >= 0 && index < len(stored.Tracks) {
		insertAt = index
	}

	merged := make([]*models.Track, 0, len(stored.Tracks)+len(added))
	merged = append(merged, stored.Tracks[:insertAt]...)
	merged = append(merged, added...)
	merged = append(merged, stored.Tracks[insertAt:]...)
	stored.Tracks = merged

	if q.watcher != nil && len(added) > 0 {
		newSnap := stored.Clone()
		Notify(q.GuildID, "tracksAdd", func() {
			q.watcher.TracksAdd(q.GuildID, added, insertAt, oldSnap, newSnap)
		})
	}

	if err := q.save(ctx, stored); err != nil {
		return 0, err
	}
	return len(stored.Tracks), nil
}

// Splice removes amount tracks at index while inserting the filtered
// replacements in their place, and returns the removed tracks. On an
// empty list it delegates to Add when replacements were supplied and is
// a no-op otherwise.
func (q *Queue) Splice(ctx context.Context, index, amount int, replacements ...*models.Track) ([]*models.Track, error) {
	stored, err := q.load(ctx)
	if err != nil {
		return nil, err
	}

	if len(stored.Tracks) == 0 {
		if len(replacements) > 0 {
			if _, err := q.Add(ctx, index, replacements...); err != nil {
				return nil, err
			}
		}
		return nil, nil
	}

	inserted := filterAddable(replacements)
	oldSnap := q.snapshot(stored)

	if index < 0 {
		index = 0
	}
	if index > len(stored.Tracks) {
		index = len(stored.Tracks)
	}
	if amount < 0 {
		amount = 0
	}
	if amount > len(stored.Tracks)-index {
		amount = len(stored.Tracks) - index
	}

	removed := append([]*models.Track{}, stored.Tracks[index:index+amount]...)
	merged := make([]*models.Track, 0, len(stored.Tracks)-amount+len(inserted))
	merged = append(merged, stored.Tracks[:index]...)
	merged = append(merged, inserted...)
	merged = append(merged, stored.Tracks[index+amount:]...)
	stored.Tracks = merged

	if q.watcher != nil {
		newSnap := stored.Clone()
		if len(inserted) > 0 {
			Notify(q.GuildID, "tracksAdd", func() {
				q.watcher.TracksAdd(q.GuildID, inserted, index, oldSnap, newSnap)
			})
		}
		if len(removed) > 0 {
			positions := make([]int, len(removed))
			for i := range positions {
				positions[i] = index + i
			}
			Notify(q.GuildID, "tracksRemoved", func() {
				q.watcher.TracksRemoved(q.GuildID, removed, positions, oldSnap, newSnap)
			})
		}
	}

	if err := q.save(ctx, stored); err != nil {
		return nil, err
	}
	return removed, nil
}

// RemoveResult reports what Remove took out of the track list.
type RemoveResult struct {
	Removed []*models.Track
	Indices []int
}

// Remove is polymorphic over the query: an int index, a []int of
// indices, a single track, a []*models.Track, or a []any mixing indices
// and tracks. Tracks are resolved against the live list with the ordered
// field-match rule. Returns nil when nothing matched.
func (q *Queue) Remove(ctx context.Context, query any) (*RemoveResult, error) {
	stored, err := q.load(ctx)
	if err != nil {
		return nil, err
	}

	indices := resolveRemoveQuery(stored.Tracks, query)
	if len(indices) == 0 {
		return nil, nil
	}

	oldSnap := q.snapshot(stored)

	removed := make([]*models.Track, 0, len(indices))
	drop := make(map[int]bool, len(indices))
	for _, i := range indices {
		removed = append(removed, stored.Tracks[i])
		drop[i] = true
	}
	remaining := make([]*models.Track, 0, len(stored.Tracks)-len(indices))
	for i, t := range stored.Tracks {
		if !drop[i] {
			remaining = append(remaining, t)
		}
	}
	stored.Tracks = remaining

	if q.watcher != nil {
		newSnap := stored.Clone()
		Notify(q.GuildID, "tracksRemoved", func() {
			q.watcher.TracksRemoved(q.GuildID, removed, indices, oldSnap, newSnap)
		})
	}

	if err := q.save(ctx, stored); err != nil {
		return nil, err
	}
	return &RemoveResult{Removed: removed, Indices: indices}, nil
}

// resolveRemoveQuery maps a removal query to a sorted list of distinct
// in-range indices.
func resolveRemoveQuery(tracks []*models.Track, query any) []int {
	seen := make(map[int]bool)
	var out []int
	add := func(i int) {
		if i >= 0 && i < len(tracks) && !seen[i] {
			seen[i] = true
			out = append(out, i)
		}
	}
	addMatches := func(t *models.Track) {
		for i, candidate := range tracks {
			if tracksMatch(candidate, t) {
				add(i)
			}
		}
	}
	addFirstMatch := func(t *models.Track) {
		for i, candidate := range tracks {
			if tracksMatch(candidate, t) {
				add(i)
				return
			}
		}
	}

	switch v := query.(type) {
	case int:
		add(v)
	case []int:
		for _, i := range v {
			add(i)
		}
	case *models.Track:
		addFirstMatch(v)
	case models.Track:
		addFirstMatch(&v)
	case []*models.Track:
		for _, t := range v {
			addMatches(t)
		}
	case []any:
		for _, entry := range v {
			switch e := entry.(type) {
			case int:
				add(e)
			case *models.Track:
				addMatches(e)
			case models.Track:
				addMatches(&e)
			}
		}
	}

	sort.Ints(out)
	return out
}

// --- utils ---

// Save forces a load+save round trip with no mutation: it re-applies the
// retention cap and commits an externally-changed current track.
func (q *Queue) Save(ctx context.Context) error {
	stored, err := q.load(ctx)
	if err != nil {
		return err
	}
	return q.save(ctx, stored)
}

// Sync fetches the remote document, failing with store.ErrNotFound when
// the guild has no entry. With dontSyncCurrent false, a missing local
// current track is adopted from the remote document when the remote one
// is a valid resolved track. The track lists are never cached locally,
// so there is nothing else to reconcile; the override flag is accepted
// for callers that treat this like a cache refresh.
func (q *Queue) Sync(ctx context.Context, override, dontSyncCurrent bool) error {
	raw, err := q.saver.Store().Get(ctx, q.GuildID)
	if err != nil {
		return err
	}
	if raw == nil {
		return fmt.Errorf("sync guild %s: %w", q.GuildID, store.ErrNotFound)
	}

	remote, err := q.saver.Store().Parse(raw)
	if err != nil {
		return err
	}
	if remote == nil {
		return fmt.Errorf("sync guild %s: %w", q.GuildID, store.ErrNotFound)
	}
	remote.Normalize()

	if !dontSyncCurrent && q.Current == nil &&
		models.IsTrack(remote.Current) && models.IsValidForQueue(remote.Current) {
		q.Current = remote.Current.Clone()
	}

	return nil
}

// Destroy deletes the guild's entry from the store.
func (q *Queue) Destroy(ctx context.Context) error {
	return q.saver.Delete(ctx, q.GuildID)
}

// Snapshot loads the document, re-applies the retention cap and returns
// a fully independent copy with the in-memory current track.
func (q *Queue) Snapshot(ctx context.Context) (*models.StoredQueue, error) {
	stored, err := q.load(ctx)
	if err != nil {
		return nil, err
	}
	stored.Current = q.Current
	q.capPrevious(stored)
	return stored.Clone(), nil
}

// TotalDuration sums the queued tracks' durations plus the current
// track, treating unknown durations as zero.
func (q *Queue) TotalDuration(ctx context.Context) (time.Duration, error) {
	stored, err := q.load(ctx)
	if err != nil {
		return 0, err
	}
	total := q.Current.DurationMs()
	for _, t := range stored.Tracks {
		total += t.DurationMs()
	}
	return time.Duration(total) * time.Millisecond, nil
}
