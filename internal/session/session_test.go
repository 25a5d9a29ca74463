package session

import (
	"os"
	"path/filepath"
	"testing"
)

func writeVideo(t *testing.T, name string, contents []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, contents, 0o644); err != nil {
		t.Fatalf("write video: %v", err)
	}
	return path
}

func sampleDetections() []DetectedEvent {
	return []DetectedEvent{
		{Timestamp: "00:01", Description: "door slams", Confidence: 0.9},
		{Timestamp: "00:04", Description: "keys drop", Confidence: 0.8},
	}
}

func TestNewFingerprintsVideo(t *testing.T) {
	path := writeVideo(t, "chase.mp4", []byte("video-a"))
	sess, err := New(path, "  noir thriller  ")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if sess.Fingerprint == "" || len(sess.Fingerprint) != 64 {
		t.Fatalf("expected sha256 fingerprint, got %q", sess.Fingerprint)
	}
	if sess.StyleLabel != "noir thriller" {
		t.Fatalf("style label not trimmed: %q", sess.StyleLabel)
	}
	if sess.MimeType != "video/mp4" {
		t.Fatalf("unexpected mime type %q", sess.MimeType)
	}
}

func TestReplaceVideoSameContentKeepsCache(t *testing.T) {
	original := writeVideo(t, "chase.mp4", []byte("video-a"))
	sess, err := New(original, "")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	sess.Cache().Set(sess.Fingerprint, sampleDetections())
	sess.SeedEvents(sampleDetections())

	sameContent := writeVideo(t, "chase-copy.mp4", []byte("video-a"))
	if err := sess.ReplaceVideo(sameContent); err != nil {
		t.Fatalf("ReplaceVideo returned error: %v", err)
	}
	if !sess.Cache().Valid(sess.Fingerprint) {
		t.Fatal("cache must survive a re-upload of identical content")
	}
	if len(sess.Events) != 2 {
		t.Fatal("events must survive a re-upload of identical content")
	}
}

func TestReplaceVideoNewContentInvalidatesCache(t *testing.T) {
	original := writeVideo(t, "chase.mp4", []byte("video-a"))
	sess, err := New(original, "")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	sess.Cache().Set(sess.Fingerprint, sampleDetections())
	sess.SeedEvents(sampleDetections())

	changed := writeVideo(t, "chase-v2.mp4", []byte("video-b"))
	if err := sess.ReplaceVideo(changed); err != nil {
		t.Fatalf("ReplaceVideo returned error: %v", err)
	}
	if sess.Cache().Valid(sess.Fingerprint) {
		t.Fatal("cache must not survive a content change")
	}
	if len(sess.Events) != 0 {
		t.Fatal("events must be discarded on a content change")
	}
}

func TestSetStyleLabelKeepsDetectionCache(t *testing.T) {
	path := writeVideo(t, "chase.mp4", []byte("video-a"))
	sess, err := New(path, "noir thriller")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	sess.Cache().Set(sess.Fingerprint, sampleDetections())

	sess.SetStyleLabel("slapstick comedy")
	if !sess.Cache().Valid(sess.Fingerprint) {
		t.Fatal("style change must not invalidate detection cache")
	}
	if sess.StyleLabel != "slapstick comedy" {
		t.Fatalf("unexpected style label %q", sess.StyleLabel)
	}
}

func TestResetRebuildsFromCachedBaseline(t *testing.T) {
	path := writeVideo(t, "chase.mp4", []byte("video-a"))
	sess, err := New(path, "")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	sess.Cache().Set(sess.Fingerprint, sampleDetections())
	sess.SeedEvents(sampleDetections())

	sess.Events[0].Status = StatusReady
	sess.Events[0].RegenerationCount = 2

	if !sess.Reset() {
		t.Fatal("Reset should succeed with a cached baseline")
	}
	if len(sess.Events) != 2 {
		t.Fatalf("expected 2 rebuilt events, got %d", len(sess.Events))
	}
	for _, event := range sess.Events {
		if event.Status != StatusDetected || event.RegenerationCount != 0 {
			t.Fatalf("Reset must rebuild pristine events, got %+v", event)
		}
	}
}

func TestResetWithoutCache(t *testing.T) {
	path := writeVideo(t, "chase.mp4", []byte("video-a"))
	sess, err := New(path, "")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	sess.SeedEvents(sampleDetections())

	if sess.Reset() {
		t.Fatal("Reset should report no cached baseline")
	}
	if len(sess.Events) != 0 {
		t.Fatal("Reset without cache should clear events")
	}
}

func TestSeedEventsPreservesDetectionOrder(t *testing.T) {
	path := writeVideo(t, "chase.mp4", []byte("video-a"))
	sess, err := New(path, "")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	sess.SeedEvents(sampleDetections())

	if sess.Events[0].Description != "door slams" || sess.Events[1].Description != "keys drop" {
		t.Fatalf("events out of detection order: %+v", sess.Events)
	}
	if sess.Events[0].ID == sess.Events[1].ID || sess.Events[0].ID == "" {
		t.Fatal("events must get distinct identifiers")
	}
}

func TestEventLookupHelpers(t *testing.T) {
	path := writeVideo(t, "chase.mp4", []byte("video-a"))
	sess, err := New(path, "")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	sess.SeedEvents(sampleDetections())
	sess.Events[1].Status = StatusReady

	if got := sess.EventByID(sess.Events[0].ID); got != sess.Events[0] {
		t.Fatal("EventByID returned wrong event")
	}
	if got := sess.EventByID("missing"); got != nil {
		t.Fatal("EventByID should return nil for unknown ids")
	}
	ready := sess.EventsByStatus(StatusReady)
	if len(ready) != 1 || ready[0].Description != "keys drop" {
		t.Fatalf("unexpected ready events %+v", ready)
	}
}

func TestDetectionCacheIsSingleEntry(t *testing.T) {
	var cache DetectionCache
	cache.Set("fp-a", sampleDetections())
	if _, ok := cache.Get("fp-a"); !ok {
		t.Fatal("expected hit for stored fingerprint")
	}

	cache.Set("fp-b", sampleDetections()[:1])
	if _, ok := cache.Get("fp-a"); ok {
		t.Fatal("storing a new fingerprint must evict the old entry")
	}
	events, ok := cache.Get("fp-b")
	if !ok || len(events) != 1 {
		t.Fatalf("unexpected cache contents %v %v", events, ok)
	}

	cache.Invalidate()
	if _, ok := cache.Get("fp-b"); ok {
		t.Fatal("expected miss after Invalidate")
	}
}
