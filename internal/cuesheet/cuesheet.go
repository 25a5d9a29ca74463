package cuesheet

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"foley/internal/session"
)

// Cue is one exported sound event, in detection order.
type Cue struct {
	Index             int            `json:"index"`
	EventID           string         `json:"eventId"`
	Timestamp         string         `json:"timestamp"`
	Description       string         `json:"description"`
	Layers            session.Layers `json:"layers"`
	Status            string         `json:"status"`
	Provenance        string         `json:"provenance,omitempty"`
	AssetID           string         `json:"assetId,omitempty"`
	AudioPath         string         `json:"audioPath,omitempty"`
	RegenerationCount int            `json:"regenerationCount"`
	QCFeedback        string         `json:"qcFeedback,omitempty"`
	UserFeedback      string         `json:"userFeedback,omitempty"`
}

// Sheet is the exported production document for one session.
type Sheet struct {
	SessionID   string    `json:"sessionId"`
	VideoPath   string    `json:"videoPath"`
	Fingerprint string    `json:"fingerprint"`
	StyleLabel  string    `json:"styleLabel,omitempty"`
	ExportedAt  time.Time `json:"exportedAt"`
	Cues        []Cue     `json:"cues"`
}

// Build assembles a cue sheet from the session's current event sequence,
// preserving detection order.
func Build(sess *session.Session) Sheet {
	cues := make([]Cue, 0, len(sess.Events))
	for i, event := range sess.Events {
		cues = append(cues, Cue{
			Index:             i + 1,
			EventID:           event.ID,
			Timestamp:         event.Timestamp,
			Description:       event.Description,
			Layers:            event.Layers,
			Status:            string(event.Status),
			Provenance:        string(event.Provenance),
			AssetID:           event.Asset.ID,
			AudioPath:         event.Asset.Path,
			RegenerationCount: event.RegenerationCount,
			QCFeedback:        event.QCFeedback,
			UserFeedback:      event.UserFeedback,
		})
	}
	return Sheet{
		SessionID:   sess.ID,
		VideoPath:   sess.VideoPath,
		Fingerprint: sess.Fingerprint,
		StyleLabel:  sess.StyleLabel,
		ExportedAt:  time.Now().UTC(),
		Cues:        cues,
	}
}

// WriteJSON exports the sheet into dir and returns the written path. The
// filename is derived from the video name so repeated exports overwrite.
func WriteJSON(sheet Sheet, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	base := strings.TrimSuffix(filepath.Base(sheet.VideoPath), filepath.Ext(sheet.VideoPath))
	if base == "" || base == "." {
		base = sheet.SessionID
	}
	path := filepath.Join(dir, base+".cuesheet.json")

	data, err := json.MarshalIndent(sheet, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode cue sheet: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write cue sheet: %w", err)
	}
	return path, nil
}
