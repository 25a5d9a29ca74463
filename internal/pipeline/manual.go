package pipeline

import (
	"context"
	"fmt"
	"strings"

	"foley/internal/logging"
	"foley/internal/services"
	"foley/internal/session"
)

// ManualEdit re-sources a single ready event using the user's feedback as
// the query steer. Manual edits bypass quality review and do not count
// against the regeneration budget: the user has already decided what they
// want.
func (o *Orchestrator) ManualEdit(ctx context.Context, eventID, feedback string) error {
	ctx = services.WithSessionID(ctx, o.sess.ID)
	ctx = services.WithStage(ctx, "manual-edit")
	ctx = services.WithEventID(ctx, eventID)
	logger := logging.WithContext(ctx, o.logger)

	feedback = strings.TrimSpace(feedback)
	if feedback == "" {
		return services.Wrap(services.ErrValidation, "manual-edit", "edit event", "feedback is required", nil)
	}

	event := o.sess.EventByID(eventID)
	if event == nil {
		return services.Wrap(services.ErrNotFound, "manual-edit", "edit event", fmt.Sprintf("no event %s in session", eventID), nil)
	}
	if event.Status != session.StatusReady {
		return services.Wrap(
			services.ErrValidation,
			"manual-edit",
			"edit event",
			fmt.Sprintf("event is %s; only ready events can be edited", event.Status),
			nil,
		)
	}

	event.UserFeedback = feedback
	event.Transition(session.StatusSourcing)
	// Manual attempts count toward the history but never toward the cap.
	event.RegenerationCount++

	index := 0
	for i, candidate := range o.sess.Events {
		if candidate.ID == event.ID {
			index = i
			break
		}
	}

	query := fmt.Sprintf("%s, %s", spotQuery(event), feedback)
	logger.Info("manual edit", logging.String("query", query))
	o.produceEvent(ctx, index, event, query)

	// The user's word is final; no review round for manual edits.
	event.Transition(session.StatusReady)
	o.producer.Flush()

	o.publish(ctx, ProgressEvent{
		Stage:      "manual-edit",
		EventIndex: index,
		EventID:    event.ID,
		Message:    fmt.Sprintf("re-sourced %s", event.Description),
		Percent:    100,
	})
	return nil
}
