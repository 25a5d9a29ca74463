package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"foley/internal/config"
	"foley/internal/engine"
	"foley/internal/library"
	"foley/internal/logging"
	"foley/internal/notifications"
	"foley/internal/pipeline"
	"foley/internal/services/elevenlabs"
	"foley/internal/services/gemini"
	"foley/internal/session"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		logger, err := logging.New(logging.Options{
			Level:       cfg.Logging.Level,
			Format:      cfg.Logging.Format,
			OutputPaths: []string{"stderr", filepath.Join(cfg.Paths.LogDir, "foley.log")},
		})
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) openLibrary() (*library.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return library.Open(cfg)
}

// sessionStatePath is where run/detect persist the active session so later
// edit and cuesheet invocations can resume it.
func (c *commandContext) sessionStatePath() (string, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg.Paths.LibraryDir, "session.json"), nil
}

func (c *commandContext) loadSession() (*session.Session, error) {
	path, err := c.sessionStatePath()
	if err != nil {
		return nil, err
	}
	sess, err := session.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("no active session (run `foley run <video>` first): %w", err)
	}
	return sess, nil
}

func (c *commandContext) saveSession(sess *session.Session) error {
	path, err := c.sessionStatePath()
	if err != nil {
		return err
	}
	return session.SaveFile(sess, path)
}

// buildOrchestrator wires providers, engine, and notifications around the
// given session. The caller owns the returned store and must close it after
// flushing the engine.
func (c *commandContext) buildOrchestrator(sess *session.Session) (*pipeline.Orchestrator, *engine.Engine, *library.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, nil, nil, err
	}
	store, err := c.openLibrary()
	if err != nil {
		return nil, nil, nil, err
	}

	geminiClient := gemini.NewClient(cfg.Gemini)

	var synth engine.Synthesizer
	if strings.TrimSpace(cfg.ElevenLabs.APIKey) != "" {
		synth = elevenlabs.NewClient(cfg.ElevenLabs)
	}
	var embedder engine.Embedder
	if strings.TrimSpace(cfg.Gemini.APIKey) != "" {
		embedder = geminiClient
	}

	eng := engine.New(cfg, store, embedder, synth, logger)
	notifier := notifications.NewService(cfg)
	orch := pipeline.New(cfg, sess, geminiClient, geminiClient, geminiClient, eng, notifier, logger)
	return orch, eng, store, nil
}
