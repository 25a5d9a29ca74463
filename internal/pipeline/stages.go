package pipeline

import (
	"context"
	"fmt"
	"os"
	"strings"

	"foley/internal/engine"
	"foley/internal/logging"
	"foley/internal/services"
	"foley/internal/session"
)

// RunDetection populates the session's event sequence, reusing the cached
// detection baseline when the video fingerprint matches. Detection failures
// are fatal: nothing downstream can run without events.
func (o *Orchestrator) RunDetection(ctx context.Context) error {
	ctx = services.WithStage(ctx, "detection")
	logger := logging.WithContext(ctx, o.logger)

	if detected, ok := o.sess.Cache().Get(o.sess.Fingerprint); ok {
		o.sess.SeedEvents(detected)
		logger.Info("detection cache hit", logging.Int("events", len(detected)))
		o.publish(ctx, ProgressEvent{Stage: "detection", Message: "reused cached detection", Percent: 100})
		return nil
	}

	videoBytes, err := os.ReadFile(o.sess.VideoPath)
	if err != nil {
		return services.Wrap(services.ErrValidation, "detection", "read video", "video file is unreadable", err)
	}

	o.publish(ctx, ProgressEvent{Stage: "detection", Message: "analyzing video"})
	detected, err := o.detector.DetectEvents(ctx, videoBytes, o.sess.MimeType)
	if err != nil {
		return err
	}

	o.sess.Cache().Set(o.sess.Fingerprint, detected)
	o.sess.SeedEvents(detected)
	logger.Info("detection complete", logging.Int("events", len(detected)))
	o.publish(ctx, ProgressEvent{Stage: "detection", Message: fmt.Sprintf("detected %d events", len(detected)), Percent: 100})
	return nil
}

// RunDirection expands every detected event into a three-layer design in one
// batch. The batch is all-or-nothing: on provider failure every event rolls
// back to detected so the stage can be retried cleanly.
func (o *Orchestrator) RunDirection(ctx context.Context) error {
	ctx = services.WithStage(ctx, "direction")
	logger := logging.WithContext(ctx, o.logger)

	pending := o.sess.EventsByStatus(session.StatusDetected)
	if len(pending) == 0 {
		return nil
	}

	for _, event := range pending {
		event.Transition(session.StatusDirecting)
	}

	o.publish(ctx, ProgressEvent{Stage: "direction", Message: fmt.Sprintf("directing %d events", len(pending))})
	directions, err := o.director.DirectEvents(ctx, pending, o.sess.StyleLabel)
	if err != nil {
		for _, event := range pending {
			event.Transition(session.StatusDetected)
		}
		return err
	}
	if len(directions) != len(pending) {
		for _, event := range pending {
			event.Transition(session.StatusDetected)
		}
		return services.Wrap(
			services.ErrValidation,
			"direction",
			"direct events",
			fmt.Sprintf("expected %d direction triples, got %d", len(pending), len(directions)),
			nil,
		)
	}

	for i, event := range pending {
		event.Layers = directions[i]
		event.Transition(session.StatusSourcing)
	}
	logger.Info("direction complete", logging.Int("events", len(pending)))
	o.publish(ctx, ProgressEvent{Stage: "direction", Message: "direction complete", Percent: 100})
	return nil
}

// RunProduction resolves every sourcing event into an audio asset, strictly
// in detection order. The engine never fails, so production only errors on
// context cancellation.
func (o *Orchestrator) RunProduction(ctx context.Context) error {
	ctx = services.WithStage(ctx, "production")
	logger := logging.WithContext(ctx, o.logger)

	total := 0
	for _, event := range o.sess.Events {
		if event.Status == session.StatusSourcing {
			total++
		}
	}
	if total == 0 {
		return nil
	}

	produced := 0
	for index, event := range o.sess.Events {
		if event.Status != session.StatusSourcing {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		o.produceEvent(ctx, index, event, spotQuery(event))
		produced++
		o.publish(ctx, ProgressEvent{
			Stage:      "production",
			EventIndex: index,
			EventID:    event.ID,
			Message:    fmt.Sprintf("produced %s", event.Description),
			Percent:    float64(produced) / float64(total) * 100,
		})
	}
	logger.Info("production complete", logging.Int("events", produced))
	return nil
}

// RunReview judges every reviewing event in one batch and routes each to
// ready or rejected according to its verdict.
func (o *Orchestrator) RunReview(ctx context.Context) error {
	ctx = services.WithStage(ctx, "review")
	logger := logging.WithContext(ctx, o.logger)

	pending := o.sess.EventsByStatus(session.StatusReviewing)
	if len(pending) == 0 {
		return nil
	}

	o.publish(ctx, ProgressEvent{Stage: "review", Message: fmt.Sprintf("reviewing %d events", len(pending))})
	verdicts, err := o.reviewer.ReviewEvents(ctx, pending, o.sess.StyleLabel)
	if err != nil {
		return err
	}
	if len(verdicts) != len(pending) {
		return services.Wrap(
			services.ErrValidation,
			"review",
			"review events",
			fmt.Sprintf("expected %d verdicts, got %d", len(pending), len(verdicts)),
			nil,
		)
	}

	passed, rejected := 0, 0
	for i, event := range pending {
		if verdicts[i].Passed {
			event.Transition(session.StatusReady)
			passed++
			continue
		}
		event.Reject(verdicts[i].Feedback, verdicts[i].SuggestedFix)
		rejected++
	}
	logger.Info("review complete",
		logging.Int("passed", passed),
		logging.Int("rejected", rejected))
	o.publish(ctx, ProgressEvent{Stage: "review", Message: fmt.Sprintf("%d passed, %d rejected", passed, rejected), Percent: 100})
	return nil
}

// produceEvent runs the engine for one event and attaches the result. The
// event moves to reviewing regardless of which degradation path produced the
// asset; provenance records how it was made.
func (o *Orchestrator) produceEvent(ctx context.Context, index int, event *session.SoundEvent, query string) engine.Result {
	ctx = services.WithEventID(ctx, event.ID)

	result := o.producer.Produce(ctx, query, o.sess.StyleLabel)
	event.Asset = result.Asset
	event.Provenance = result.Provenance
	if result.Note != "" {
		logging.WithContext(ctx, o.logger).Warn("degraded production",
			logging.Int(logging.FieldEventIndex, index),
			logging.String("note", result.Note))
	}
	event.Transition(session.StatusReviewing)
	return result
}

// spotQuery is the engine query for an event: the directed spot layer when
// present, otherwise the raw detected description. Texture and vibe steer
// review and the cue sheet, not retrieval.
func spotQuery(event *session.SoundEvent) string {
	if spot := strings.TrimSpace(event.Layers.Spot); spot != "" {
		return spot
	}
	return event.Description
}
