package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// envelope is the on-disk form of a session. The detection cache is persisted
// alongside the events so `edit` and `cuesheet` invocations can pick up where
// `run` left off without re-analyzing the video.
type envelope struct {
	ID          string    `json:"id"`
	VideoPath   string    `json:"videoPath"`
	Fingerprint string    `json:"fingerprint"`
	MimeType    string    `json:"mimeType"`
	StyleLabel  string    `json:"styleLabel,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`

	Events []*SoundEvent `json:"events"`

	CachedDetections []DetectedEvent `json:"cachedDetections,omitempty"`
}

// SaveFile writes the session to path, creating parent directories as needed.
func SaveFile(sess *Session, path string) error {
	env := envelope{
		ID:          sess.ID,
		VideoPath:   sess.VideoPath,
		Fingerprint: sess.Fingerprint,
		MimeType:    sess.MimeType,
		StyleLabel:  sess.StyleLabel,
		CreatedAt:   sess.CreatedAt,
		Events:      sess.Events,
	}
	if detected, ok := sess.cache.Get(sess.Fingerprint); ok {
		env.CachedDetections = detected
	}

	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	data = append(data, '\n')

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create session directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// LoadFile reads a previously saved session from path.
func LoadFile(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if env.ID == "" || env.Fingerprint == "" {
		return nil, fmt.Errorf("session file %s is incomplete", path)
	}

	sess := &Session{
		ID:          env.ID,
		VideoPath:   env.VideoPath,
		Fingerprint: env.Fingerprint,
		MimeType:    env.MimeType,
		StyleLabel:  env.StyleLabel,
		CreatedAt:   env.CreatedAt,
		Events:      env.Events,
	}
	if len(env.CachedDetections) > 0 {
		sess.cache.Set(env.Fingerprint, env.CachedDetections)
	}
	return sess, nil
}
