package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateGemini(); err != nil {
		return err
	}
	if err := c.validateElevenLabs(); err != nil {
		return err
	}
	if err := c.validateEngine(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.LibraryDir) == "" {
		return errors.New("paths.library_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateGemini() error {
	if c.Gemini.BaseURL == "" {
		return errors.New("gemini.base_url must be set")
	}
	if c.Gemini.Model == "" {
		return errors.New("gemini.model must be set")
	}
	if c.Gemini.EmbeddingModel == "" {
		return errors.New("gemini.embedding_model must be set")
	}
	if c.Gemini.TimeoutSeconds <= 0 {
		return errors.New("gemini.timeout_seconds must be positive")
	}
	if c.Gemini.MaxEvents <= 0 {
		return errors.New("gemini.max_events must be positive")
	}
	return nil
}

func (c *Config) validateElevenLabs() error {
	if c.ElevenLabs.BaseURL == "" {
		return errors.New("elevenlabs.base_url must be set")
	}
	if c.ElevenLabs.DefaultDurationSeconds <= 0 {
		return errors.New("elevenlabs.default_duration_seconds must be positive")
	}
	if c.ElevenLabs.TimeoutSeconds <= 0 {
		return errors.New("elevenlabs.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateEngine() error {
	if c.Engine.SimilarityThreshold < 0 || c.Engine.SimilarityThreshold > 1 {
		return errors.New("engine.similarity_threshold must be between 0 and 1")
	}
	if c.Engine.KeywordMatchScore < 0 || c.Engine.KeywordMatchScore > 1 {
		return errors.New("engine.keyword_match_score must be between 0 and 1")
	}
	if c.Engine.SearchLimit <= 0 {
		return errors.New("engine.search_limit must be positive")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.MaxRegenerationAttempts < 0 {
		return errors.New("workflow.max_regeneration_attempts must not be negative")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.NtfyTopic != "" && c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive when ntfy_topic is set")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format %q is not supported (use console or json)", c.Logging.Format)
	}
	return nil
}
