package pipeline

import (
	"context"

	"foley/internal/logging"
)

// ProgressEvent describes one observable step of a pipeline run.
type ProgressEvent struct {
	Stage      string
	EventIndex int
	EventID    string
	Message    string
	Percent    float64
}

// Observer receives progress events during a run. Implementations must not
// block; they are invoked synchronously between pipeline steps.
type Observer interface {
	OnProgress(event ProgressEvent)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(event ProgressEvent)

// OnProgress implements Observer.
func (f ObserverFunc) OnProgress(event ProgressEvent) {
	f(event)
}

func (o *Orchestrator) publish(ctx context.Context, event ProgressEvent) {
	logging.WithContext(ctx, o.logger).Debug("progress",
		logging.String(logging.FieldStage, event.Stage),
		logging.Int(logging.FieldEventIndex, event.EventIndex),
		logging.String(logging.FieldEventID, event.EventID),
		logging.String("message", event.Message),
		logging.Float64("percent", event.Percent))
	for _, observer := range o.observers {
		observer.OnProgress(event)
	}
}
