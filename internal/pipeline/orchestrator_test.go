package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"foley/internal/engine"
	"foley/internal/session"
	"foley/internal/testsupport"
)

type fakeDetector struct {
	events []session.DetectedEvent
	err    error
	calls  int
}

func (d *fakeDetector) DetectEvents(ctx context.Context, videoBytes []byte, mimeType string) ([]session.DetectedEvent, error) {
	d.calls++
	return d.events, d.err
}

type fakeDirector struct {
	err   error
	calls int
}

func (d *fakeDirector) DirectEvents(ctx context.Context, events []*session.SoundEvent, styleLabel string) ([]session.Layers, error) {
	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	directions := make([]session.Layers, len(events))
	for i, event := range events {
		directions[i] = session.Layers{
			Spot:    "spot: " + event.Description,
			Texture: "texture: " + event.Description,
			Vibe:    "vibe: " + event.Description,
		}
	}
	return directions, nil
}

// fakeReviewer fails an event for as many rounds as failures[description]
// says, then passes it.
type fakeReviewer struct {
	failures     map[string]int
	suggestedFix map[string]string
	err          error

	mu         sync.Mutex
	seen       map[string]int
	batchSizes []int
}

func (r *fakeReviewer) ReviewEvents(ctx context.Context, events []*session.SoundEvent, styleLabel string) ([]session.Verdict, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	if r.seen == nil {
		r.seen = make(map[string]int)
	}
	r.batchSizes = append(r.batchSizes, len(events))

	verdicts := make([]session.Verdict, len(events))
	for i, event := range events {
		r.seen[event.Description]++
		if r.seen[event.Description] <= r.failures[event.Description] {
			verdicts[i] = session.Verdict{
				Passed:         false,
				CoherenceScore: 0.3,
				Feedback:       "does not match the intent",
				SuggestedFix:   r.suggestedFix[event.Description],
			}
			continue
		}
		verdicts[i] = session.Verdict{Passed: true, CoherenceScore: 0.9}
	}
	return verdicts, nil
}

type fakeProducer struct {
	mu      sync.Mutex
	queries []string
	result  engine.Result
}

func (p *fakeProducer) Produce(ctx context.Context, query, styleContext string) engine.Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queries = append(p.queries, query)
	result := p.result
	if result.Provenance == "" {
		result = engine.Result{
			Asset:      session.AssetRef{ID: fmt.Sprintf("asset-%d", len(p.queries)), Path: "/assets/fake.mp3"},
			Provenance: session.ProvenanceSynthesized,
		}
	}
	return result
}

func (p *fakeProducer) Flush() {}

func (p *fakeProducer) producedQueries() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.queries...)
}

func newTestOrchestrator(t *testing.T, detector *fakeDetector, reviewer *fakeReviewer, producer *fakeProducer) *Orchestrator {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	video := testsupport.WriteVideo(t, t.TempDir(), "chase.mp4", nil)
	sess, err := session.New(video, "noir thriller")
	if err != nil {
		t.Fatalf("session.New: %v", err)
	}
	return New(cfg, sess, detector, &fakeDirector{}, reviewer, producer, nil, nil)
}

func detectedEvents(descriptions ...string) []session.DetectedEvent {
	events := make([]session.DetectedEvent, len(descriptions))
	for i, description := range descriptions {
		events[i] = session.DetectedEvent{
			Timestamp:   fmt.Sprintf("00:%02d", i+1),
			Description: description,
			Confidence:  0.9,
		}
	}
	return events
}

func TestRunAllEventsPassFirstReview(t *testing.T) {
	detector := &fakeDetector{events: detectedEvents("door slams", "keys drop", "chair scrapes")}
	reviewer := &fakeReviewer{}
	producer := &fakeProducer{}
	orch := newTestOrchestrator(t, detector, reviewer, producer)

	if err := orch.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	for _, event := range orch.Session().Events {
		if event.Status != session.StatusReady {
			t.Fatalf("event %q not ready: %s", event.Description, event.Status)
		}
		if event.RegenerationCount != 0 {
			t.Fatalf("event %q regenerated %d times unexpectedly", event.Description, event.RegenerationCount)
		}
		if !event.HasAsset() {
			t.Fatalf("event %q has no asset", event.Description)
		}
	}
	if orch.ForcedEvents() != 0 {
		t.Fatalf("expected no forced events, got %d", orch.ForcedEvents())
	}
}

func TestRunRegeneratesRejectedEventWithSuggestedFix(t *testing.T) {
	detector := &fakeDetector{events: detectedEvents("door slams", "keys drop")}
	reviewer := &fakeReviewer{
		failures:     map[string]int{"keys drop": 1},
		suggestedFix: map[string]string{"keys drop": "soft keychain drop on ceramic tile"},
	}
	producer := &fakeProducer{}
	orch := newTestOrchestrator(t, detector, reviewer, producer)

	if err := orch.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	keys := orch.Session().Events[1]
	if keys.Status != session.StatusReady {
		t.Fatalf("expected keys event ready, got %s", keys.Status)
	}
	if keys.RegenerationCount != 1 {
		t.Fatalf("expected one regeneration, got %d", keys.RegenerationCount)
	}

	queries := producer.producedQueries()
	last := queries[len(queries)-1]
	if last != "soft keychain drop on ceramic tile" {
		t.Fatalf("regeneration should use the suggested fix, got %q", last)
	}

	// The second review round must only contain the regenerated event.
	if len(reviewer.batchSizes) != 2 || reviewer.batchSizes[1] != 1 {
		t.Fatalf("unexpected review batch sizes %v", reviewer.batchSizes)
	}
}

func TestRunForceAcceptsAfterExhaustingAttempts(t *testing.T) {
	detector := &fakeDetector{events: detectedEvents("door slams")}
	reviewer := &fakeReviewer{failures: map[string]int{"door slams": 100}}
	producer := &fakeProducer{}
	orch := newTestOrchestrator(t, detector, reviewer, producer)
	maxAttempts := orch.cfg.Workflow.MaxRegenerationAttempts

	if err := orch.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	event := orch.Session().Events[0]
	if event.Status != session.StatusReady {
		t.Fatalf("expected forced-ready event, got %s", event.Status)
	}
	if event.RegenerationCount != maxAttempts {
		t.Fatalf("expected exactly %d regenerations, got %d", maxAttempts, event.RegenerationCount)
	}
	if event.QCFeedback == "" {
		t.Fatal("forced event must keep its last review feedback")
	}
	if !event.HasAsset() {
		t.Fatal("forced event must keep its last asset")
	}
	if orch.ForcedEvents() != 1 {
		t.Fatalf("expected one forced event, got %d", orch.ForcedEvents())
	}
}

func TestRunReusesDetectionCache(t *testing.T) {
	detector := &fakeDetector{events: detectedEvents("door slams")}
	reviewer := &fakeReviewer{}
	producer := &fakeProducer{}
	orch := newTestOrchestrator(t, detector, reviewer, producer)

	if err := orch.Run(context.Background()); err != nil {
		t.Fatalf("first Run returned error: %v", err)
	}
	if err := orch.Run(context.Background()); err != nil {
		t.Fatalf("second Run returned error: %v", err)
	}
	if detector.calls != 1 {
		t.Fatalf("expected one detection call across runs, got %d", detector.calls)
	}
}

func TestRunDetectionFailureIsFatal(t *testing.T) {
	detector := &fakeDetector{err: errors.New("video analysis failed")}
	orch := newTestOrchestrator(t, detector, &fakeReviewer{}, &fakeProducer{})

	if err := orch.Run(context.Background()); err == nil {
		t.Fatal("expected detection failure to fail the run")
	}
	if len(orch.Session().Events) != 0 {
		t.Fatalf("expected no events after failed detection, got %d", len(orch.Session().Events))
	}
}

func TestRunDirectionFailureRollsBackToDetected(t *testing.T) {
	detector := &fakeDetector{events: detectedEvents("door slams", "keys drop")}
	orch := newTestOrchestrator(t, detector, &fakeReviewer{}, &fakeProducer{})
	orch.director = &fakeDirector{err: errors.New("direction failed")}

	if err := orch.Run(context.Background()); err == nil {
		t.Fatal("expected direction failure to fail the run")
	}
	for _, event := range orch.Session().Events {
		if event.Status != session.StatusDetected {
			t.Fatalf("expected rollback to detected, got %s", event.Status)
		}
		if !event.Layers.IsZero() {
			t.Fatalf("rolled-back event should carry no layers, got %+v", event.Layers)
		}
	}
}

func TestRunProductionPreservesDetectionOrder(t *testing.T) {
	detector := &fakeDetector{events: detectedEvents("first", "second", "third")}
	producer := &fakeProducer{}
	orch := newTestOrchestrator(t, detector, &fakeReviewer{}, producer)

	if err := orch.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	queries := producer.producedQueries()
	if len(queries) != 3 {
		t.Fatalf("expected 3 productions, got %d", len(queries))
	}
	for i, want := range []string{"first", "second", "third"} {
		if !strings.Contains(queries[i], want) {
			t.Fatalf("query %d = %q, want it to mention %q", i, queries[i], want)
		}
	}
}

func TestManualEditBypassesReviewAndBudget(t *testing.T) {
	detector := &fakeDetector{events: detectedEvents("door slams")}
	reviewer := &fakeReviewer{}
	producer := &fakeProducer{}
	orch := newTestOrchestrator(t, detector, reviewer, producer)

	if err := orch.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	event := orch.Session().Events[0]
	reviewRounds := len(reviewer.batchSizes)

	if err := orch.ManualEdit(context.Background(), event.ID, "make it a screen door instead"); err != nil {
		t.Fatalf("ManualEdit returned error: %v", err)
	}

	if event.Status != session.StatusReady {
		t.Fatalf("expected ready after manual edit, got %s", event.Status)
	}
	if event.RegenerationCount != 1 {
		t.Fatalf("manual edit should record exactly one extra attempt, got %d", event.RegenerationCount)
	}
	if len(reviewer.batchSizes) != reviewRounds {
		t.Fatal("manual edit must not trigger a review round")
	}
	if event.UserFeedback != "make it a screen door instead" {
		t.Fatalf("unexpected user feedback %q", event.UserFeedback)
	}
	queries := producer.producedQueries()
	if !strings.Contains(queries[len(queries)-1], "screen door") {
		t.Fatalf("manual edit query should include the feedback, got %q", queries[len(queries)-1])
	}
}

func TestManualEditRejectsUnknownAndUnreadyEvents(t *testing.T) {
	detector := &fakeDetector{events: detectedEvents("door slams")}
	orch := newTestOrchestrator(t, detector, &fakeReviewer{}, &fakeProducer{})

	if err := orch.ManualEdit(context.Background(), "missing-id", "feedback"); err == nil {
		t.Fatal("expected error for unknown event")
	}

	if err := orch.RunDetection(context.Background()); err != nil {
		t.Fatalf("RunDetection returned error: %v", err)
	}
	event := orch.Session().Events[0]
	if err := orch.ManualEdit(context.Background(), event.ID, "feedback"); err == nil {
		t.Fatalf("expected error editing %s event", event.Status)
	}
}

func TestSpotQueryFallsBackToDescription(t *testing.T) {
	event := &session.SoundEvent{Description: "door slams"}
	if got := spotQuery(event); got != "door slams" {
		t.Fatalf("spotQuery = %q, want description fallback", got)
	}

	event.Layers = session.Layers{Spot: "oak door slam", Texture: "heavy brass latch", Vibe: "ominous"}
	if got := spotQuery(event); got != "oak door slam" {
		t.Fatalf("spotQuery = %q, want the spot layer", got)
	}
}

