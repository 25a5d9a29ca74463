package testsupport

import (
	"path/filepath"
	"testing"

	"foley/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields, creates the directories, and applies any
// provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LibraryDir = filepath.Join(base, "library")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.ExportDir = filepath.Join(base, "export")

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	return &cfg
}

// WithGeminiKey sets the Gemini API key on the test config.
func WithGeminiKey(key string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Gemini.APIKey = key
	}
}

// WithSimilarityThreshold overrides the engine acceptance threshold.
func WithSimilarityThreshold(threshold float64) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Engine.SimilarityThreshold = threshold
	}
}

// WithMaxRegenerationAttempts overrides the per-event regeneration cap.
func WithMaxRegenerationAttempts(attempts int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Workflow.MaxRegenerationAttempts = attempts
	}
}
