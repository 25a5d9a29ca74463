package session

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Session is one video plus one active direction label. It owns the current
// event sequence and the cached detection output. A session is mutated by a
// single pipeline run at a time; it is not safe for concurrent use.
type Session struct {
	ID          string
	VideoPath   string
	Fingerprint string
	MimeType    string
	StyleLabel  string

	Events []*SoundEvent

	cache DetectionCache

	CreatedAt time.Time
}

// New builds a session for the given video file, fingerprinting its content
// so a re-upload of the same video reuses the detection cache.
func New(videoPath, styleLabel string) (*Session, error) {
	fingerprint, err := FingerprintFile(videoPath)
	if err != nil {
		return nil, fmt.Errorf("fingerprint video: %w", err)
	}
	return &Session{
		ID:          uuid.NewString(),
		VideoPath:   videoPath,
		Fingerprint: fingerprint,
		MimeType:    MimeTypeForPath(videoPath),
		StyleLabel:  strings.TrimSpace(styleLabel),
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// FingerprintFile returns the hex-encoded sha256 of the file contents.
func FingerprintFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// MimeTypeForPath maps common video extensions to their mime type.
func MimeTypeForPath(path string) string {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".mp4"):
		return "video/mp4"
	case strings.HasSuffix(lower, ".mov"):
		return "video/quicktime"
	case strings.HasSuffix(lower, ".webm"):
		return "video/webm"
	case strings.HasSuffix(lower, ".mkv"):
		return "video/x-matroska"
	case strings.HasSuffix(lower, ".avi"):
		return "video/x-msvideo"
	default:
		return "video/mp4"
	}
}

// SetStyleLabel changes the active direction label. The detection cache
// survives; only creative direction is invalidated.
func (s *Session) SetStyleLabel(label string) {
	s.StyleLabel = strings.TrimSpace(label)
}

// ReplaceVideo points the session at a new video and invalidates the
// detection cache when the content actually changed.
func (s *Session) ReplaceVideo(videoPath string) error {
	fingerprint, err := FingerprintFile(videoPath)
	if err != nil {
		return fmt.Errorf("fingerprint video: %w", err)
	}
	if fingerprint != s.Fingerprint {
		s.cache.Invalidate()
		s.Events = nil
	}
	s.VideoPath = videoPath
	s.Fingerprint = fingerprint
	s.MimeType = MimeTypeForPath(videoPath)
	return nil
}

// Cache exposes the session's detection cache.
func (s *Session) Cache() *DetectionCache {
	return &s.cache
}

// SeedEvents replaces the event sequence with fresh events built from the
// detection output, preserving detection order.
func (s *Session) SeedEvents(detected []DetectedEvent) {
	events := make([]*SoundEvent, 0, len(detected))
	for _, d := range detected {
		events = append(events, &SoundEvent{
			ID:          uuid.NewString(),
			Timestamp:   d.Timestamp,
			Description: d.Description,
			Confidence:  d.Confidence,
			Status:      StatusDetected,
		})
	}
	s.Events = events
}

// Reset discards the current event sequence and rebuilds it from the cached
// detection baseline. It reports whether a cached baseline existed.
func (s *Session) Reset() bool {
	detected, ok := s.cache.Get(s.Fingerprint)
	if !ok {
		s.Events = nil
		return false
	}
	s.SeedEvents(detected)
	return true
}

// EventByID returns the event with the given identifier, or nil.
func (s *Session) EventByID(id string) *SoundEvent {
	for _, event := range s.Events {
		if event.ID == id {
			return event
		}
	}
	return nil
}

// EventsByStatus returns events matching a status, in detection order.
func (s *Session) EventsByStatus(status Status) []*SoundEvent {
	var matched []*SoundEvent
	for _, event := range s.Events {
		if event.Status == status {
			matched = append(matched, event)
		}
	}
	return matched
}
