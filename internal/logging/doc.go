// Package logging configures slog-based structured logging for foley.
//
// It provides a pretty console handler for interactive use, a JSON handler
// for machine consumption, typed attribute helpers, and standardized field
// keys so pipeline stages emit a consistent progress trace.
package logging
