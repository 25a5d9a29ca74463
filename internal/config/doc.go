// Package config loads, validates, and defaults foley's TOML configuration.
package config
