package session

import (
	"path/filepath"
	"testing"
)

func TestSaveAndLoadRoundTrip(t *testing.T) {
	video := writeVideo(t, "chase.mp4", []byte("video-a"))
	sess, err := New(video, "noir thriller")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	sess.Cache().Set(sess.Fingerprint, sampleDetections())
	sess.SeedEvents(sampleDetections())
	sess.Events[0].Status = StatusReady
	sess.Events[0].Asset = AssetRef{ID: "asset-1", Path: "/assets/asset-1.mp3"}
	sess.Events[0].Provenance = ProvenanceCacheHit
	sess.Events[1].RegenerationCount = 1
	sess.Events[1].Status = StatusReady
	sess.Events[1].QCFeedback = "too metallic"

	path := filepath.Join(t.TempDir(), "state", "session.json")
	if err := SaveFile(sess, path); err != nil {
		t.Fatalf("SaveFile: %v", err)
	}

	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if loaded.ID != sess.ID || loaded.Fingerprint != sess.Fingerprint || loaded.StyleLabel != "noir thriller" {
		t.Fatalf("session header mismatch: %+v", loaded)
	}
	if len(loaded.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(loaded.Events))
	}
	if loaded.Events[0].Asset.ID != "asset-1" || loaded.Events[0].Status != StatusReady {
		t.Fatalf("event state lost: %+v", loaded.Events[0])
	}
	if loaded.Events[1].RegenerationCount != 1 || loaded.Events[1].QCFeedback != "too metallic" {
		t.Fatalf("regeneration history lost: %+v", loaded.Events[1])
	}
	if !loaded.Cache().Valid(loaded.Fingerprint) {
		t.Fatal("detection cache must survive the round trip")
	}
}

func TestLoadFileRejectsIncompleteState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := SaveFile(&Session{}, path); err != nil {
		t.Fatalf("SaveFile: %v", err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected incomplete session to be rejected")
	}
}
