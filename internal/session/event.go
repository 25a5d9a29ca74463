package session

import "strings"

// Status represents the lifecycle of a sound event.
type Status string

const (
	StatusDetected  Status = "detected"
	StatusDirecting Status = "directing"
	StatusSourcing  Status = "sourcing"
	StatusReviewing Status = "reviewing"
	StatusRejected  Status = "rejected"
	StatusReady     Status = "ready"
)

var allStatuses = []Status{
	StatusDetected,
	StatusDirecting,
	StatusSourcing,
	StatusReviewing,
	StatusRejected,
	StatusReady,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// validTransitions is the full edge set of the event state machine.
// rejected -> sourcing is the only backward edge of the automatic loop;
// ready -> sourcing exists solely for human-gated manual edits, and
// rejected -> ready is the forced close after regeneration exhaustion.
var validTransitions = map[Status][]Status{
	StatusDetected:  {StatusDirecting},
	StatusDirecting: {StatusSourcing, StatusDetected},
	StatusSourcing:  {StatusReviewing},
	StatusReviewing: {StatusReady, StatusRejected},
	StatusRejected:  {StatusSourcing, StatusReady},
	StatusReady:     {StatusSourcing},
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// CanTransition reports whether the state machine permits moving from one
// status to another.
func CanTransition(from, to Status) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Provenance records where an event's audio asset came from.
type Provenance string

const (
	ProvenanceCacheHit    Provenance = "cache-hit"
	ProvenanceSynthesized Provenance = "synthesized"
	ProvenancePending     Provenance = "pending"
)

// Layers is the three-level creative description of an event's sound. Each
// field is synthesis-ready text. The direction stage writes the triple
// wholesale; it is never partially updated.
type Layers struct {
	Spot    string `json:"spot"`
	Texture string `json:"texture"`
	Vibe    string `json:"vibe"`
}

// IsZero reports whether no layer has been assigned.
func (l Layers) IsZero() bool {
	return l.Spot == "" && l.Texture == "" && l.Vibe == ""
}

// AssetRef is a handle to a produced audio clip on disk.
type AssetRef struct {
	ID   string `json:"id"`
	Path string `json:"path"`
}

// IsZero reports whether the reference is empty.
func (a AssetRef) IsZero() bool {
	return a.ID == "" && a.Path == ""
}

// DetectedEvent is the detection provider's raw output for one event.
type DetectedEvent struct {
	Timestamp   string  `json:"timestamp"`
	Description string  `json:"description"`
	Confidence  float64 `json:"confidence"`
}

// SoundEvent is the unit of work flowing through the pipeline. Events are
// created in a batch by detection and mutated in place by later stages;
// detection order is preserved end to end.
type SoundEvent struct {
	ID          string  `json:"id"`
	Timestamp   string  `json:"timestamp"`
	Description string  `json:"description"`
	Confidence  float64 `json:"confidence"`

	Layers Layers `json:"layers"`
	Status Status `json:"status"`

	Asset      AssetRef   `json:"asset,omitempty"`
	Provenance Provenance `json:"provenance,omitempty"`

	// QCFeedback is the reviewer's note, present only while rejected.
	QCFeedback   string `json:"qcFeedback,omitempty"`
	SuggestedFix string `json:"suggestedFix,omitempty"`

	RegenerationCount int    `json:"regenerationCount"`
	UserFeedback      string `json:"userFeedback,omitempty"`
}

// Verdict is the review provider's judgment of one event's produced audio.
type Verdict struct {
	Passed         bool    `json:"passed"`
	CoherenceScore float64 `json:"coherenceScore"`
	Feedback       string  `json:"feedback"`
	SuggestedFix   string  `json:"suggestedFix,omitempty"`
}

// Transition moves the event to the target status, enforcing the state
// machine. It returns false and leaves the event untouched when the edge is
// not permitted.
func (e *SoundEvent) Transition(to Status) bool {
	if !CanTransition(e.Status, to) {
		return false
	}
	e.Status = to
	if to != StatusRejected {
		e.QCFeedback = ""
		e.SuggestedFix = ""
	}
	return true
}

// Reject moves the event to rejected and records the reviewer feedback.
func (e *SoundEvent) Reject(feedback, suggestedFix string) bool {
	if !e.Transition(StatusRejected) {
		return false
	}
	e.QCFeedback = strings.TrimSpace(feedback)
	e.SuggestedFix = strings.TrimSpace(suggestedFix)
	return true
}

// ForceReady closes the event regardless of verdict, retaining the last
// rejection feedback for user visibility. Used after regeneration exhaustion.
func (e *SoundEvent) ForceReady() {
	e.Status = StatusReady
}

// HasAsset reports whether a candidate or final audio asset is attached.
func (e *SoundEvent) HasAsset() bool {
	return !e.Asset.IsZero()
}
