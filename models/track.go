package models

import "math"

// MinTrackDurationMs is the shortest resolved track the queue will accept.
// Anything under 10 seconds is almost always an ad snippet or a broken
// resolve result, so Add filters those out.
const MinTrackDurationMs int64 = 10000

type TrackInfo struct {
	Title      string `json:"title,omitempty"`
	URI        string `json:"uri,omitempty"`
	Identifier string `json:"identifier,omitempty"`
	ISRC       string `json:"isrc,omitempty"`
	ArtworkURL string `json:"artworkUrl,omitempty"`
	// Duration in milliseconds. nil means the track is not resolved yet.
	Duration *int64 `json:"duration,omitempty"`
}

// Track is a playable item. A resolved track carries an Encoded playback
// handle; an unresolved track has no handle yet and is matched by its info
// fields until something resolves it. The two are told apart with IsTrack
// and IsUnresolvedTrack rather than separate types.
type Track struct {
	Encoded *string   `json:"encoded,omitempty"`
	Info    TrackInfo `json:"info"`
}

// IsTrack reports whether t is a resolved, playable track.
func IsTrack(t *Track) bool {
	return t != nil && t.Encoded != nil && *t.Encoded != ""
}

// IsUnresolvedTrack reports whether t is a placeholder awaiting resolution.
// It needs at least one field a resolver could look it up by.
func IsUnresolvedTrack(t *Track) bool {
	if t == nil || IsTrack(t) {
		return false
	}
	return t.Info.Title != "" || t.Info.URI != "" || t.Info.Identifier != ""
}

// IsValidForQueue reports whether t may enter the track list. Resolved
// tracks must have a known duration of at least MinTrackDurationMs;
// unresolved tracks get their duration checked after resolution instead.
func IsValidForQueue(t *Track) bool {
	if IsUnresolvedTrack(t) {
		return true
	}
	if !IsTrack(t) {
		return false
	}
	d := t.Info.Duration
	if d == nil || math.IsNaN(float64(*d)) {
		return false
	}
	return *d >= MinTrackDurationMs
}

// DurationMs returns the track's duration, 0 when unknown.
func (t *Track) DurationMs() int64 {
	if t == nil || t.Info.Duration == nil {
		return 0
	}
	return *t.Info.Duration
}

// Clone returns a shallow copy of the track, detached from the original.
func (t *Track) Clone() *Track {
	if t == nil {
		return nil
	}
	c := *t
	if t.Encoded != nil {
		enc := *t.Encoded
		c.Encoded = &enc
	}
	if t.Info.Duration != nil {
		d := *t.Info.Duration
		c.Info.Duration = &d
	}
	return &c
}
