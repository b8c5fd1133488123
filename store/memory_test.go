package store

import (
	"context"
	"testing"

	"queuebot/models"
)

func ptr[T any](v T) *T { return &v }

func track(encoded string) *models.Track {
	return &models.Track{Encoded: ptr(encoded), Info: models.TrackInfo{Title: encoded, Duration: ptr(int64(60000))}}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	doc := &models.StoredQueue{Tracks: []*models.Track{track("a"), track("b")}}
	raw, err := s.Stringify(doc)
	if err != nil {
		t.Fatalf("Stringify: %v", err)
	}
	if err := s.Set(ctx, "guild1", raw); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := s.Get(ctx, "guild1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	parsed, err := s.Parse(got)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(parsed.Tracks) != 2 || *parsed.Tracks[0].Encoded != "a" {
		t.Errorf("round trip lost data: %+v", parsed)
	}
}

func TestMemoryStoreMissingEntry(t *testing.T) {
	s := NewMemoryStore()
	raw, err := s.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if raw != nil {
		t.Errorf("Get of missing entry = %v, want nil", raw)
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if err := s.Set(ctx, "guild1", &models.StoredQueue{}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Delete(ctx, "guild1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	raw, err := s.Get(ctx, "guild1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if raw != nil {
		t.Error("entry should be gone after Delete")
	}
}

// TestMemoryStoreIsolation verifies callers cannot reach into the stored
// copy through the documents they put in or get out.
func TestMemoryStoreIsolation(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	doc := &models.StoredQueue{Tracks: []*models.Track{track("a")}}
	if err := s.Set(ctx, "guild1", doc); err != nil {
		t.Fatalf("Set: %v", err)
	}

	// Mutate the document we handed in
	doc.Tracks[0].Info.Title = "changed"

	raw, _ := s.Get(ctx, "guild1")
	got, _ := s.Parse(raw)
	if got.Tracks[0].Info.Title != "a" {
		t.Error("mutating the submitted document changed the stored copy")
	}

	// Mutate the document we got out
	got.Tracks[0].Info.Title = "changed again"

	raw2, _ := s.Get(ctx, "guild1")
	got2, _ := s.Parse(raw2)
	if got2.Tracks[0].Info.Title != "a" {
		t.Error("mutating a returned document changed the stored copy")
	}
}

func TestMemoryStoreParseRejectsForeignType(t *testing.T) {
	s := NewMemoryStore()
	if _, err := s.Parse("not a stored queue"); err == nil {
		t.Error("Parse should reject raw values from other backends")
	}
	q, err := s.Parse(nil)
	if err != nil || q != nil {
		t.Errorf("Parse(nil) = (%v, %v), want (nil, nil)", q, err)
	}
}

func TestTargetedCapabilityTest(t *testing.T) {
	if _, ok := Targeted(NewMemoryStore()); ok {
		t.Error("memory store must not pass the targeted capability test")
	}
}
