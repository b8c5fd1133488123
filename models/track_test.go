package models

import "testing"

func ptr[T any](v T) *T { return &v }

func resolved(encoded string, durMs int64) *Track {
	return &Track{Encoded: ptr(encoded), Info: TrackInfo{Title: "t", Duration: ptr(durMs)}}
}

func TestIsTrack(t *testing.T) {
	tests := []struct {
		name  string
		track *Track
		want  bool
	}{
		{"nil", nil, false},
		{"no_encoded", &Track{Info: TrackInfo{Title: "a"}}, false},
		{"empty_encoded", &Track{Encoded: ptr("")}, false},
		{"encoded", resolved("abc", 60000), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTrack(tt.track); got != tt.want {
				t.Errorf("IsTrack() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsUnresolvedTrack(t *testing.T) {
	tests := []struct {
		name  string
		track *Track
		want  bool
	}{
		{"nil", nil, false},
		{"resolved", resolved("abc", 60000), false},
		{"title_only", &Track{Info: TrackInfo{Title: "a"}}, true},
		{"uri_only", &Track{Info: TrackInfo{URI: "https://x"}}, true},
		{"identifier_only", &Track{Info: TrackInfo{Identifier: "id"}}, true},
		{"nothing_to_resolve_by", &Track{Info: TrackInfo{ISRC: "isrc"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUnresolvedTrack(tt.track); got != tt.want {
				t.Errorf("IsUnresolvedTrack() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestIsValidForQueue covers the duration filter: resolved tracks need a
// known duration of at least 10 seconds, unresolved tracks always pass.
func TestIsValidForQueue(t *testing.T) {
	noDuration := &Track{Encoded: ptr("abc"), Info: TrackInfo{Title: "t"}}

	tests := []struct {
		name  string
		track *Track
		want  bool
	}{
		{"nil", nil, false},
		{"resolved_long_enough", resolved("abc", 10000), true},
		{"resolved_too_short", resolved("abc", 9999), false},
		{"resolved_zero", resolved("abc", 0), false},
		{"resolved_no_duration", noDuration, false},
		{"unresolved", &Track{Info: TrackInfo{Title: "pending"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidForQueue(tt.track); got != tt.want {
				t.Errorf("IsValidForQueue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTrackClone(t *testing.T) {
	orig := resolved("abc", 60000)
	clone := orig.Clone()

	*clone.Encoded = "changed"
	*clone.Info.Duration = 1
	clone.Info.Title = "changed"

	if *orig.Encoded != "abc" || *orig.Info.Duration != 60000 || orig.Info.Title != "t" {
		t.Error("mutating the clone changed the original")
	}
	if (*Track)(nil).Clone() != nil {
		t.Error("Clone of nil should be nil")
	}
}

func TestStoredQueueClone(t *testing.T) {
	q := &StoredQueue{
		Current:  resolved("cur", 60000),
		Tracks:   []*Track{resolved("a", 60000), resolved("b", 60000)},
		Previous: []*Track{resolved("p", 60000)},
	}
	clone := q.Clone()

	clone.Tracks[0] = resolved("z", 60000)
	clone.Tracks = append(clone.Tracks, resolved("y", 60000))
	*clone.Current.Encoded = "changed"
	clone.Previous[0].Info.Title = "changed"

	if *q.Tracks[0].Encoded != "a" || len(q.Tracks) != 2 {
		t.Error("mutating the cloned track list changed the original")
	}
	if *q.Current.Encoded != "cur" {
		t.Error("mutating the cloned current track changed the original")
	}
	if q.Previous[0].Info.Title == "changed" {
		t.Error("mutating a cloned previous track changed the original")
	}
}

func TestStoredQueueNormalize(t *testing.T) {
	q := &StoredQueue{}
	q.Normalize()
	if q.Tracks == nil || q.Previous == nil {
		t.Error("Normalize should replace nil lists with empty ones")
	}
}
