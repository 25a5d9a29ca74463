package pipeline

import (
	"context"
	"log/slog"
	"time"

	"foley/internal/config"
	"foley/internal/engine"
	"foley/internal/logging"
	"foley/internal/notifications"
	"foley/internal/services"
	"foley/internal/session"
)

// Detector analyzes a video and returns the sound events it contains.
type Detector interface {
	DetectEvents(ctx context.Context, videoBytes []byte, mimeType string) ([]session.DetectedEvent, error)
}

// Director expands detected events into three-layer sound designs.
type Director interface {
	DirectEvents(ctx context.Context, events []*session.SoundEvent, styleLabel string) ([]session.Layers, error)
}

// Reviewer judges produced audio against creative intent.
type Reviewer interface {
	ReviewEvents(ctx context.Context, events []*session.SoundEvent, styleLabel string) ([]session.Verdict, error)
}

// Producer resolves a composed query into an audio asset.
type Producer interface {
	Produce(ctx context.Context, query, styleContext string) engine.Result
	Flush()
}

// Orchestrator drives one session through the production pipeline. It is not
// safe for concurrent use; a session is processed by one run at a time.
type Orchestrator struct {
	cfg      *config.Config
	sess     *session.Session
	detector Detector
	director Director
	reviewer Reviewer
	producer Producer
	notifier notifications.Service
	logger   *slog.Logger

	observers []Observer

	forcedEvents int
}

// New constructs an orchestrator for the given session.
func New(
	cfg *config.Config,
	sess *session.Session,
	detector Detector,
	director Director,
	reviewer Reviewer,
	producer Producer,
	notifier notifications.Service,
	logger *slog.Logger,
) *Orchestrator {
	if logger == nil {
		logger = logging.NewNop()
	}
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	return &Orchestrator{
		cfg:      cfg,
		sess:     sess,
		detector: detector,
		director: director,
		reviewer: reviewer,
		producer: producer,
		notifier: notifier,
		logger:   logger.With(logging.String(logging.FieldComponent, "pipeline")),
	}
}

// AddObserver registers a progress observer.
func (o *Orchestrator) AddObserver(observer Observer) {
	if observer != nil {
		o.observers = append(o.observers, observer)
	}
}

// Session returns the session the orchestrator is driving.
func (o *Orchestrator) Session() *session.Session {
	return o.sess
}

// Run executes the full pipeline: detection, direction, production, review,
// and the bounded regeneration loop. It stops on the first fatal stage error.
func (o *Orchestrator) Run(ctx context.Context) error {
	ctx = services.WithSessionID(ctx, o.sess.ID)
	started := time.Now()
	o.forcedEvents = 0

	if err := o.RunDetection(ctx); err != nil {
		o.notifyError(ctx, err, "detection")
		return err
	}
	o.notifyRunStarted(ctx)

	if err := o.RunDirection(ctx); err != nil {
		o.notifyError(ctx, err, "creative direction")
		return err
	}
	if err := o.RunProduction(ctx); err != nil {
		o.notifyError(ctx, err, "production")
		return err
	}
	if err := o.RunReview(ctx); err != nil {
		o.notifyError(ctx, err, "review")
		return err
	}
	if err := o.RunRegenerationLoop(ctx); err != nil {
		o.notifyError(ctx, err, "regeneration")
		return err
	}

	o.producer.Flush()

	ready := len(o.sess.EventsByStatus(session.StatusReady))
	logging.WithContext(ctx, o.logger).Info("run complete",
		logging.Int("ready", ready),
		logging.Int("forced", o.forcedEvents),
		logging.Duration("elapsed", time.Since(started)))
	if err := o.notifier.NotifyRunCompleted(ctx, o.sess.VideoPath, ready, o.forcedEvents, time.Since(started)); err != nil {
		logging.WithContext(ctx, o.logger).Warn("run-completed notification failed", logging.Error(err))
	}
	return nil
}

// ForcedEvents reports how many events the last run accepted after exhausting
// their regeneration attempts.
func (o *Orchestrator) ForcedEvents() int {
	return o.forcedEvents
}

func (o *Orchestrator) maxAttempts() int {
	attempts := o.cfg.Workflow.MaxRegenerationAttempts
	if attempts < 0 {
		attempts = 0
	}
	return attempts
}

func (o *Orchestrator) notifyRunStarted(ctx context.Context) {
	if err := o.notifier.NotifyRunStarted(ctx, o.sess.VideoPath, len(o.sess.Events)); err != nil {
		logging.WithContext(ctx, o.logger).Warn("run-started notification failed", logging.Error(err))
	}
}

func (o *Orchestrator) notifyError(ctx context.Context, err error, label string) {
	if notifyErr := o.notifier.NotifyError(ctx, err, label); notifyErr != nil {
		logging.WithContext(ctx, o.logger).Warn("error notification failed", logging.Error(notifyErr))
	}
}
