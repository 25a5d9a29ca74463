package session

import "time"

// DetectionCache retains the last successful detection output keyed by video
// fingerprint, so re-running direction with a new style label does not
// re-invoke detection. It holds a single entry: one active video at a time.
type DetectionCache struct {
	fingerprint string
	events      []DetectedEvent
	storedAt    time.Time
}

// Get returns the cached detection output when it matches the fingerprint.
func (c *DetectionCache) Get(fingerprint string) ([]DetectedEvent, bool) {
	if c == nil || c.fingerprint == "" || c.fingerprint != fingerprint {
		return nil, false
	}
	cp := make([]DetectedEvent, len(c.events))
	copy(cp, c.events)
	return cp, true
}

// Set stores the detection output for the given fingerprint, replacing any
// previous entry.
func (c *DetectionCache) Set(fingerprint string, events []DetectedEvent) {
	cp := make([]DetectedEvent, len(events))
	copy(cp, events)
	c.fingerprint = fingerprint
	c.events = cp
	c.storedAt = time.Now().UTC()
}

// Invalidate drops the cached entry.
func (c *DetectionCache) Invalidate() {
	c.fingerprint = ""
	c.events = nil
	c.storedAt = time.Time{}
}

// Valid reports whether a cached entry exists for the fingerprint.
func (c *DetectionCache) Valid(fingerprint string) bool {
	return c != nil && c.fingerprint != "" && c.fingerprint == fingerprint
}

// StoredAt returns when the current entry was cached.
func (c *DetectionCache) StoredAt() time.Time {
	return c.storedAt
}
