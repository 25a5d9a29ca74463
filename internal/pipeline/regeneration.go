package pipeline

import (
	"context"
	"fmt"
	"strings"

	"foley/internal/logging"
	"foley/internal/services"
	"foley/internal/session"
)

// RunRegenerationLoop drains the rejected pool: each round re-sources every
// rejected event with an improved query, then re-reviews only the events that
// round regenerated. Events that have exhausted their attempts are accepted
// as-is with their last feedback attached, so the loop always terminates.
func (o *Orchestrator) RunRegenerationLoop(ctx context.Context) error {
	for {
		if len(o.sess.EventsByStatus(session.StatusRejected)) == 0 {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := o.runRegenerationRound(ctx); err != nil {
			return err
		}
		if err := o.RunReview(ctx); err != nil {
			return err
		}
	}
}

func (o *Orchestrator) runRegenerationRound(ctx context.Context) error {
	ctx = services.WithStage(ctx, "regeneration")
	logger := logging.WithContext(ctx, o.logger)

	maxAttempts := o.maxAttempts()
	for index, event := range o.sess.Events {
		if event.Status != session.StatusRejected {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if event.RegenerationCount >= maxAttempts {
			o.forceAccept(ctx, index, event)
			continue
		}

		query := improvedQuery(event)
		event.Transition(session.StatusSourcing)
		event.RegenerationCount++
		logger.Info("regenerating event",
			logging.Int(logging.FieldEventIndex, index),
			logging.Int("attempt", event.RegenerationCount),
			logging.String("query", query))

		o.produceEvent(ctx, index, event, query)
		o.publish(ctx, ProgressEvent{
			Stage:      "regeneration",
			EventIndex: index,
			EventID:    event.ID,
			Message:    fmt.Sprintf("regenerated %s (attempt %d)", event.Description, event.RegenerationCount),
		})
	}
	return nil
}

// forceAccept closes out an event whose regeneration budget is spent. The
// last asset and review feedback stay attached so the cue sheet shows what
// the reviewer objected to.
func (o *Orchestrator) forceAccept(ctx context.Context, index int, event *session.SoundEvent) {
	event.ForceReady()
	o.forcedEvents++
	logging.WithContext(ctx, o.logger).Warn("regeneration attempts exhausted, accepting last asset",
		logging.Int(logging.FieldEventIndex, index),
		logging.String(logging.FieldEventID, event.ID))
	reason := fmt.Sprintf("accepted after %d regeneration attempts", event.RegenerationCount)
	if event.QCFeedback != "" {
		reason = fmt.Sprintf("%s; last feedback: %s", reason, event.QCFeedback)
	}
	if err := o.notifier.NotifyEventNeedsAttention(ctx, event.Description, reason); err != nil {
		logging.WithContext(ctx, o.logger).Warn("attention notification failed", logging.Error(err))
	}
	o.publish(ctx, ProgressEvent{
		Stage:      "regeneration",
		EventIndex: index,
		EventID:    event.ID,
		Message:    "accepted with last asset after exhausting attempts",
	})
}

// improvedQuery builds the next-attempt query for a rejected event: the
// reviewer's suggested fix when present, otherwise the original spot query
// (the engine re-annotates it with the session's style label).
func improvedQuery(event *session.SoundEvent) string {
	if fix := strings.TrimSpace(event.SuggestedFix); fix != "" {
		return fix
	}
	return spotQuery(event)
}
